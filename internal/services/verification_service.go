package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"mamastoria/internal/models"
	"mamastoria/internal/repositories"
	"mamastoria/internal/utils"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrCodeInvalid  = errors.New("invalid verification code")
	ErrCodeExpired  = errors.New("verification code expired")
)

// Clock returns the current time; tests substitute a fixed one.
type Clock func() time.Time

// CodePurpose selects the email template a code is delivered with.
// Both purposes share the same per-user code slot.
type CodePurpose int

const (
	PurposeEmailVerification CodePurpose = iota
	PurposePasswordReset
)

func (p CodePurpose) String() string {
	if p == PurposePasswordReset {
		return "password_reset"
	}
	return "email_verification"
}

type VerificationService interface {
	// Issue never reports an unknown email; it returns an error only when
	// storing or delivering the code failed.
	Issue(ctx context.Context, email string, purpose CodePurpose) error
	Validate(ctx context.Context, email, code string) (*models.User, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type verificationService struct {
	users  repositories.UserRepository
	emails EmailService
	hasher PasswordHasher
	ttl    time.Duration
	now    Clock
}

func NewVerificationService(users repositories.UserRepository, emails EmailService, hasher PasswordHasher, ttl time.Duration, now Clock) VerificationService {
	if now == nil {
		now = time.Now
	}
	return &verificationService{
		users:  users,
		emails: emails,
		hasher: hasher,
		ttl:    ttl,
		now:    now,
	}
}

func (s *verificationService) Issue(ctx context.Context, email string, purpose CodePurpose) error {
	email = utils.NormalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		log.Info().Str("purpose", purpose.String()).Msg("[verification][issue] unknown email, nothing sent")
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	code, err := utils.NewVerificationCode()
	if err != nil {
		return err
	}
	if err := s.users.SetVerificationCode(ctx, user.ID, code, s.now().UTC()); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	switch purpose {
	case PurposePasswordReset:
		err = s.emails.SendPasswordResetCode(ctx, user.Email, code)
	default:
		err = s.emails.SendVerificationCode(ctx, user.Email, code)
	}
	if err != nil {
		log.Warn().Err(err).Int("user_id", user.ID).Str("purpose", purpose.String()).Msg("[verification][issue] mail failed")
		return fmt.Errorf("deliver code: %w", err)
	}
	log.Info().Int("user_id", user.ID).Str("purpose", purpose.String()).Msg("[verification][issue] code sent")
	return nil
}

func (s *verificationService) Validate(ctx context.Context, email, code string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, utils.NormalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := checkCode(user, code, s.now(), s.ttl); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *verificationService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.Validate(ctx, email, code)
	if err != nil {
		return err
	}
	hash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return err
	}
	ok, err := s.users.ResetPasswordWithCode(ctx, user.ID, code, hash)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if !ok {
		// код перевыпущен между проверкой и записью
		return ErrCodeInvalid
	}
	log.Info().Int("user_id", user.ID).Msg("[verification][reset] password updated")
	return nil
}

// checkCode: match first, then age. A code is live while now < sentAt+ttl.
func checkCode(user *models.User, code string, now time.Time, ttl time.Duration) error {
	// кандидат не в формате кода: просто несовпадение
	if !utils.IsVerificationCode(code) || user.VerificationCode == nil || *user.VerificationCode != code {
		return ErrCodeInvalid
	}
	if user.LastVerificationSentAt == nil {
		return ErrCodeExpired
	}
	if !now.UTC().Before(user.LastVerificationSentAt.UTC().Add(ttl)) {
		return ErrCodeExpired
	}
	return nil
}
