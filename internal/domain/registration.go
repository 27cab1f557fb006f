package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumapress/panel-service/internal/apperrors"
)

// RegistrationStep represents the stage a staged signup has reached.
type RegistrationStep string

const (
	StepForm         RegistrationStep = "FORM"
	StepVerify       RegistrationStep = "VERIFY"
	StepAccountSetup RegistrationStep = "ACCOUNT_SETUP"
	StepInterview    RegistrationStep = "INTERVIEW"
	StepPlan         RegistrationStep = "PLAN"
	StepPayment      RegistrationStep = "PAYMENT"

	// StepCompleted is only ever stored on a permanent User, never on a
	// PendingRegistration.
	StepCompleted RegistrationStep = "COMPLETED"
)

// stepRanks defines the total order of the signup flow.
var stepRanks = map[RegistrationStep]int{
	StepForm:         0,
	StepVerify:       1,
	StepAccountSetup: 2,
	StepInterview:    3,
	StepPlan:         4,
	StepPayment:      5,
}

// Valid reports whether s is a step a staged registration can hold.
func (s RegistrationStep) Valid() bool {
	_, ok := stepRanks[s]
	return ok
}

// AdvanceTo is the pure transition function of the signup flow. Progression is
// forward-only: a step may repeat (resubmission of the current form) but never
// move backwards.
func (s RegistrationStep) AdvanceTo(next RegistrationStep) (RegistrationStep, error) {
	currentRank, ok := stepRanks[s]
	if !ok {
		return s, apperrors.Validation("unknown registration step: " + string(s))
	}

	nextRank, ok := stepRanks[next]
	if !ok {
		return s, apperrors.Validation("unknown registration step: " + string(next))
	}

	if nextRank < currentRank {
		return s, apperrors.Validation("registration step cannot move backwards")
	}

	return next, nil
}

// AtLeast returns the later of s and other in the flow order. Step handlers
// use it when amending earlier data (a new slug after losing the finalize
// race, edited interview answers): the amendment lands, the step never
// regresses.
func (s RegistrationStep) AtLeast(other RegistrationStep) RegistrationStep {
	next, err := s.AdvanceTo(other)
	if err != nil {
		return s
	}
	return next
}

// PendingRegistration holds an in-flight signup's accumulated data. It lives
// only until finalize promotes it into the permanent tenant graph, it expires,
// or it is superseded by an existing permanent user.
type PendingRegistration struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	Email            string           `json:"email" db:"email"`
	FirstName        string           `json:"first_name" db:"first_name"`
	LastName         string           `json:"last_name" db:"last_name"`
	Phone            *string          `json:"phone,omitempty" db:"phone"`
	PasswordHash     string           `json:"-" db:"password_hash"`
	ConsentGiven     bool             `json:"consent_given" db:"consent_given"`
	ConsentAt        *time.Time       `json:"consent_at,omitempty" db:"consent_at"`
	CurrentStep      RegistrationStep `json:"current_step" db:"current_step"`
	OTPChannel       *OTPChannel      `json:"otp_channel,omitempty" db:"otp_channel"`
	EmailVerifiedAt  *time.Time       `json:"email_verified_at,omitempty" db:"email_verified_at"`
	PhoneVerifiedAt  *time.Time       `json:"phone_verified_at,omitempty" db:"phone_verified_at"`
	AccountName      *string          `json:"account_name,omitempty" db:"account_name"`
	AccountSlug      *string          `json:"account_slug,omitempty" db:"account_slug"`
	InterviewAnswers *string          `json:"interview_answers,omitempty" db:"interview_answers"` // JSONB as string
	PlanID           *uuid.UUID       `json:"plan_id,omitempty" db:"plan_id"`
	ExpiresAt        time.Time        `json:"expires_at" db:"expires_at"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// Expired reports whether the registration's TTL has elapsed.
func (r *PendingRegistration) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// ContactVerified reports whether at least one contact channel was confirmed.
func (r *PendingRegistration) ContactVerified() bool {
	return r.EmailVerifiedAt != nil || r.PhoneVerifiedAt != nil
}

// ResetVerification clears both verification stamps and returns the flow to
// the VERIFY step. Called when personal or password data is resubmitted.
func (r *PendingRegistration) ResetVerification() {
	r.EmailVerifiedAt = nil
	r.PhoneVerifiedAt = nil
	r.CurrentStep = StepVerify
}
