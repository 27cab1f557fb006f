package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumapress/panel-service/internal/apperrors"
	"github.com/lumapress/panel-service/internal/domain"
)

func TestIssue_DeliversFourDigitCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	view := startRegistration(t, env)

	resp, err := env.otpSvc.Issue(ctx, view.ID, IssueOTPRequest{Channel: domain.ChannelEmail})
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelEmail, resp.Channel)
	assert.WithinDuration(t, time.Now().Add(env.cfg.Registration.OTPTTL), resp.ExpiresAt, time.Minute)

	sent, ok := env.sender.last()
	require.True(t, ok)
	assert.Equal(t, "dana@example.com", sent.Destination)
	assert.Len(t, sent.Code, 4)
	assert.Regexp(t, `^\d{4}$`, sent.Code)
}

func TestIssue_SMSRequiresPhone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	view := startRegistration(t, env)

	_, err := env.otpSvc.Issue(ctx, view.ID, IssueOTPRequest{Channel: domain.ChannelSMS})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestIssue_ReplacesPriorChallenge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	view := startRegistration(t, env)

	_, err := env.otpSvc.Issue(ctx, view.ID, IssueOTPRequest{Channel: domain.ChannelEmail})
	require.NoError(t, err)
	first, _ := env.sender.last()

	_, err = env.otpSvc.Issue(ctx, view.ID, IssueOTPRequest{Channel: domain.ChannelEmail})
	require.NoError(t, err)
	second, _ := env.sender.last()

	if first.Code != second.Code {
		// The replaced code must no longer verify.
		resp, err := env.otpSvc.Verify(ctx, view.ID, VerifyOTPRequest{Code: first.Code})
		require.NoError(t, err)
		assert.False(t, resp.Verified)
	}

	resp, err := env.otpSvc.Verify(ctx, view.ID, VerifyOTPRequest{Code: second.Code})
	require.NoError(t, err)
	assert.True(t, resp.Verified)
}

func TestVerify_CorrectCodeAdvancesToAccountSetup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	view := startRegistration(t, env)
	_, err := env.otpSvc.Issue(ctx, view.ID, IssueOTPRequest{Channel: domain.ChannelEmail})
	require.NoError(t, err)
	sent, _ := env.sender.last()

	resp, err := env.otpSvc.Verify(ctx, view.ID, VerifyOTPRequest{Code: sent.Code})
	require.NoError(t, err)
	assert.True(t, resp.Verified)
	assert.Equal(t, domain.StepAccountSetup, resp.CurrentStep)

	status, err := env.regSvc.Status(ctx, view.ID)
	require.NoError(t, err)
	assert.True(t, status.EmailVerified)
	assert.False(t, status.PhoneVerified)
}

func TestVerify_WrongCodeCountsDown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	view := startRegistration(t, env)
	_, err := env.otpSvc.Issue(ctx, view.ID, IssueOTPRequest{Channel: domain.ChannelEmail})
	require.NoError(t, err)
	sent, _ := env.sender.last()

	wrong := "0000"
	if sent.Code == wrong {
		wrong = "0001"
	}

	// Every counted attempt, the exhausting one included, reports a wrong
	// code with the remaining budget, down to zero.
	for i := 1; i <= domain.MaxOTPAttempts; i++ {
		resp, err := env.otpSvc.Verify(ctx, view.ID, VerifyOTPRequest{Code: wrong})
		require.NoError(t, err)
		assert.False(t, resp.Verified)
		assert.Equal(t, domain.MaxOTPAttempts-i, resp.RemainingAttempts)
	}

	// Past the cap even the correct code is refused.
	_, err = env.otpSvc.Verify(ctx, view.ID, VerifyOTPRequest{Code: wrong})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeRateLimited))
	_, err = env.otpSvc.Verify(ctx, view.ID, VerifyOTPRequest{Code: sent.Code})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeRateLimited))
}

func TestVerify_SingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	view := startRegistration(t, env)
	_, err := env.otpSvc.Issue(ctx, view.ID, IssueOTPRequest{Channel: domain.ChannelEmail})
	require.NoError(t, err)
	sent, _ := env.sender.last()

	resp, err := env.otpSvc.Verify(ctx, view.ID, VerifyOTPRequest{Code: sent.Code})
	require.NoError(t, err)
	require.True(t, resp.Verified)

	_, err = env.otpSvc.Verify(ctx, view.ID, VerifyOTPRequest{Code: sent.Code})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestVerify_ExpiredCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	view := startRegistration(t, env)
	_, err := env.otpSvc.Issue(ctx, view.ID, IssueOTPRequest{Channel: domain.ChannelEmail})
	require.NoError(t, err)
	sent, _ := env.sender.last()

	env.otpRepo.mu.Lock()
	env.otpRepo.challenges[view.ID].ExpiresAt = time.Now().Add(-time.Minute)
	env.otpRepo.mu.Unlock()

	_, err = env.otpSvc.Verify(ctx, view.ID, VerifyOTPRequest{Code: sent.Code})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeExpired))
}

func TestVerify_NoChallengeIssued(t *testing.T) {
	env := newTestEnv(t)

	view := startRegistration(t, env)

	_, err := env.otpSvc.Verify(context.Background(), view.ID, VerifyOTPRequest{Code: "1234"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestVerify_SMSStampsPhone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	phone := "+972501234567"
	_, err := env.regSvc.Start(ctx, StartRegistrationRequest{
		FirstName: "Dana",
		LastName:  "Levi",
		Email:     "dana@example.com",
		Phone:     &phone,
		Password:  "correct-horse",
		Consent:   true,
	})
	require.NoError(t, err)
	reg, err := env.regRepo.GetByEmail(ctx, "dana@example.com")
	require.NoError(t, err)

	_, err = env.otpSvc.Issue(ctx, reg.ID, IssueOTPRequest{Channel: domain.ChannelSMS})
	require.NoError(t, err)
	sent, _ := env.sender.last()
	assert.Equal(t, phone, sent.Destination)

	resp, err := env.otpSvc.Verify(ctx, reg.ID, VerifyOTPRequest{Code: sent.Code})
	require.NoError(t, err)
	require.True(t, resp.Verified)

	status, err := env.regSvc.Status(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, status.PhoneVerified)
	assert.False(t, status.EmailVerified)
}
