package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"anoa.com/unitech/internal/entity"
	"anoa.com/unitech/internal/modules/user/dto"
	"anoa.com/unitech/pkg/apperror"
	"anoa.com/unitech/pkg/mailer"
	"anoa.com/unitech/pkg/validator"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	resetCodeLength   = 7
	resetCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	resetCodeAttempts = 3
)

func newResetCode() (string, error) {
	code := make([]byte, resetCodeLength)
	alphabetSize := big.NewInt(int64(len(resetCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		code[i] = resetCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// RequestPasswordReset stores a reset code and mails it. Unknown or inactive accounts get the same
// silent success so the endpoint cannot be used to probe for emails.
func (s *authService) RequestPasswordReset(ctx context.Context, input dto.PasswordResetRequestInput) error {
	email := entity.NormalizeEmail(input.Email)

	allowed, err := s.limiter.Allow(ctx, "password_reset", email, s.cfg.ResetRateLimit)
	if err != nil {
		s.logger.Warn("rate limit check failed", zap.Error(err))
	} else if !allowed {
		return apperror.ErrRateLimitExceeded
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return err
	}
	if !user.IsActive {
		return nil
	}

	var code string
	for attempt := 1; ; attempt++ {
		code, err = newResetCode()
		if err != nil {
			return fmt.Errorf("failed to generate reset code: %w", err)
		}

		expiresAt := time.Now().Add(s.cfg.ResetCodeTTL)
		user.ResetCode = &code
		user.ResetCodeExpiresAt = &expiresAt

		err = s.repo.Update(ctx, user)
		if err == nil {
			break
		}
		if !errors.Is(err, apperror.ErrDuplicateKey) || attempt == resetCodeAttempts {
			return err
		}
	}

	link := fmt.Sprintf("%s?code=%s", s.cfg.ResetURL, url.QueryEscape(code))
	if err := s.mailer.Send(mailer.Email{
		To:      []string{user.Email},
		Subject: "Reset your password",
		Body: fmt.Sprintf(
			"Hello %s,\n\nUse the code %s or open the link below to choose a new password:\n%s\n\nThe code expires in %s.\n",
			user.FullName(), code, link, s.cfg.ResetCodeTTL,
		),
	}); err != nil {
		s.logger.Error("failed to send password reset email", zap.String("user_id", user.ID.String()), zap.Error(err))
		return err
	}

	s.logger.Info("password reset requested", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, input dto.PasswordResetConfirmInput) error {
	user, err := s.repo.FindByResetCode(ctx, input.Code)
	if err != nil {
		return err
	}

	if user.ResetCodeExpiresAt == nil || time.Now().After(*user.ResetCodeExpiresAt) {
		return apperror.Invalid("code", "reset code has expired")
	}

	ve := &apperror.ValidationError{}
	ve.Merge(validator.ValidatePassword(input.Password, s.cfg.PasswordMinLength))
	ve.Merge(validator.ConfirmPassword(input.Password, input.PasswordConfirm))
	if err := ve.OrNil(); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	user.ResetCode = nil
	user.ResetCodeExpiresAt = nil
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	s.invalidate(ctx, user.ID)
	s.logger.Info("password reset completed", zap.String("user_id", user.ID.String()))
	return nil
}
