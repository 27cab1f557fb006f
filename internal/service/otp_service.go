package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/lumapress/panel-service/internal/apperrors"
	"github.com/lumapress/panel-service/internal/config"
	"github.com/lumapress/panel-service/internal/domain"
	"github.com/lumapress/panel-service/internal/repository"
	"github.com/lumapress/panel-service/pkg/delivery"
)

// OtpService issues and verifies contact-verification codes for staged
// registrations. A registration holds at most one live challenge; issuing a
// new one invalidates the previous code.
type OtpService struct {
	otpRepo repository.OTPRepository
	regSvc  *RegistrationService
	regRepo repository.RegistrationRepository
	sender  delivery.CodeSender
	cfg     *config.Config
}

func NewOtpService(
	otpRepo repository.OTPRepository,
	regSvc *RegistrationService,
	regRepo repository.RegistrationRepository,
	sender delivery.CodeSender,
	cfg *config.Config,
) *OtpService {
	return &OtpService{
		otpRepo: otpRepo,
		regSvc:  regSvc,
		regRepo: regRepo,
		sender:  sender,
		cfg:     cfg,
	}
}

type IssueOTPRequest struct {
	Channel domain.OTPChannel `json:"channel" validate:"required,oneof=EMAIL SMS"`
}

type IssueOTPResponse struct {
	Channel   domain.OTPChannel `json:"channel"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// generateCode draws a uniform 4-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// Issue creates a fresh challenge for the registration and sends the code
// over the chosen channel. Any prior challenge is replaced, so resend is just
// Issue again. Delivery failures are logged but do not fail the call.
func (s *OtpService) Issue(ctx context.Context, registrationID uuid.UUID, req IssueOTPRequest) (*IssueOTPResponse, error) {
	reg, err := s.regSvc.Resolve(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	if req.Channel == domain.ChannelSMS && reg.Phone == nil {
		return nil, apperrors.Validation("registration has no phone number for SMS verification")
	}

	code, err := generateCode()
	if err != nil {
		return nil, apperrors.Internal("failed to generate verification code", err)
	}

	now := time.Now()
	challenge := &domain.OTPChallenge{
		ID:             uuid.New(),
		RegistrationID: reg.ID,
		Code:           code,
		Channel:        req.Channel,
		ExpiresAt:      now.Add(s.cfg.Registration.OTPTTL),
		CreatedAt:      now,
	}

	if err := s.otpRepo.Replace(ctx, challenge); err != nil {
		return nil, apperrors.Internal("failed to store verification code", err)
	}

	reg.OTPChannel = &req.Channel
	reg.UpdatedAt = now
	if err := s.regRepo.Update(ctx, reg); err != nil {
		return nil, apperrors.Internal("failed to record verification channel", err)
	}

	destination := reg.Email
	if req.Channel == domain.ChannelSMS {
		destination = *reg.Phone
	}
	if err := s.sender.SendCode(ctx, delivery.Channel(req.Channel), destination, code); err != nil {
		log.Printf("[OTP] Failed to deliver code for registration %s: %v", reg.ID, err)
	}

	return &IssueOTPResponse{Channel: req.Channel, ExpiresAt: challenge.ExpiresAt}, nil
}

type VerifyOTPRequest struct {
	Code string `json:"code" validate:"required,len=4,numeric"`
}

type VerifyOTPResponse struct {
	Verified          bool                    `json:"verified"`
	RemainingAttempts int                     `json:"remaining_attempts"`
	CurrentStep       domain.RegistrationStep `json:"current_step"`
}

// Verify checks a submitted code against the registration's live challenge.
// The attempt counter and the single-use flag are enforced with conditional
// updates in the repository, so concurrent submissions cannot consume the
// same challenge twice or slip past the attempt cap.
func (s *OtpService) Verify(ctx context.Context, registrationID uuid.UUID, req VerifyOTPRequest) (*VerifyOTPResponse, error) {
	reg, err := s.regSvc.Resolve(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	challenge, err := s.otpRepo.GetByRegistration(ctx, reg.ID)
	if err != nil {
		return nil, apperrors.NotFound("no verification code has been issued")
	}

	if challenge.Verified {
		return nil, apperrors.Conflict("verification code has already been used")
	}
	if challenge.Expired(time.Now()) {
		return nil, apperrors.Expired("verification code expired, request a new one")
	}
	if challenge.Exhausted() {
		return nil, apperrors.RateLimited("too many attempts, request a new code")
	}

	if req.Code != challenge.Code {
		attempts, err := s.otpRepo.IncrementAttempts(ctx, challenge.ID)
		if err != nil {
			return nil, apperrors.Internal("failed to record attempt", err)
		}
		if attempts == 0 {
			// The conditional update matched nothing: a concurrent
			// submission verified or exhausted the challenge first.
			if cur, err := s.otpRepo.GetByRegistration(ctx, reg.ID); err == nil && cur.Verified {
				return nil, apperrors.Conflict("verification code has already been used")
			}
			return nil, apperrors.RateLimited("too many attempts, request a new code")
		}
		// The attempt that hits the cap is still reported as a wrong code
		// with zero attempts left; only submissions after it are rejected
		// outright.
		return &VerifyOTPResponse{
			Verified:          false,
			RemainingAttempts: domain.MaxOTPAttempts - attempts,
			CurrentStep:       reg.CurrentStep,
		}, nil
	}

	claimed, err := s.otpRepo.MarkVerified(ctx, challenge.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to mark code verified", err)
	}
	if !claimed {
		return nil, apperrors.Conflict("verification code has already been used")
	}

	now := time.Now()
	switch challenge.Channel {
	case domain.ChannelSMS:
		reg.PhoneVerifiedAt = &now
	default:
		reg.EmailVerifiedAt = &now
	}

	reg.CurrentStep = reg.CurrentStep.AtLeast(domain.StepAccountSetup)
	reg.UpdatedAt = now

	if err := s.regRepo.Update(ctx, reg); err != nil {
		return nil, apperrors.Internal("failed to advance registration", err)
	}

	log.Printf("[OTP] Registration %s verified via %s", reg.ID, challenge.Channel)
	return &VerifyOTPResponse{Verified: true, CurrentStep: reg.CurrentStep}, nil
}
