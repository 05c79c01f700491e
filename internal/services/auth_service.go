package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"mamastoria/internal/authz"
	"mamastoria/internal/middleware"
	"mamastoria/internal/models"
	"mamastoria/internal/repositories"
	"mamastoria/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("please verify your phone number first")
	ErrAlreadyVerified    = errors.New("user already verified")
	ErrResendThrottled    = errors.New("please wait before requesting new code")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrRefreshExpired     = errors.New("refresh token expired")
)

type PasswordHasher interface {
	HashPassword(password string) (string, error)
	CheckPassword(hash, password string) bool
}

type bcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) PasswordHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return bcryptHasher{cost: cost}
}

func (h bcryptHasher) HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h bcryptHasher) CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(hash)), []byte(password)) == nil
}

type AuthConfig struct {
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	CodeTTL        time.Duration
	ResendCooldown time.Duration
}

type AuthService interface {
	PasswordHasher
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, bool, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.User, *models.Tokens, error)
	VerifyPhone(ctx context.Context, phone, code string) (*models.User, *models.Tokens, error)
	ResendVerification(ctx context.Context, phone string) error
	Refresh(ctx context.Context, refreshToken string) (*models.Tokens, error)
	Logout(ctx context.Context, userID int) error
	UpdateFCMToken(ctx context.Context, userID int, token string) error
}

type authService struct {
	PasswordHasher
	users  repositories.UserRepository
	emails EmailService
	cfg    AuthConfig
	now    Clock
}

func NewAuthService(users repositories.UserRepository, emails EmailService, hasher PasswordHasher, cfg AuthConfig, now Clock) AuthService {
	if now == nil {
		now = time.Now
	}
	return &authService{
		PasswordHasher: hasher,
		users:          users,
		emails:         emails,
		cfg:            cfg,
		now:            now,
	}
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, bool, error) {
	phone := utils.DigitsOnly(req.PhoneNumber)
	email := utils.NormalizeEmail(req.Email)

	if _, err := s.users.GetByPhone(ctx, phone); err == nil {
		return nil, false, repositories.ErrDuplicatePhone
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, err
	}
	if email != "" {
		if _, err := s.users.GetByEmail(ctx, email); err == nil {
			return nil, false, repositories.ErrDuplicateEmail
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return nil, false, err
		}
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, false, err
	}
	refCode, err := s.uniqueReferralCode(ctx)
	if err != nil {
		return nil, false, err
	}

	var referrer *models.User
	if code := strings.ToUpper(strings.TrimSpace(req.ReferralCode)); code != "" {
		referrer, err = s.users.GetByReferralCode(ctx, code)
		if err != nil {
			log.Info().Str("code", code).Msg("[auth][register] unknown referral code ignored")
			referrer = nil
		}
	}

	otp, err := utils.NewVerificationCode()
	if err != nil {
		return nil, false, err
	}
	now := s.now().UTC()
	user := &models.User{
		FullName:               strings.TrimSpace(req.FullName),
		Email:                  email,
		PhoneNumber:            phone,
		PasswordHash:           hash,
		ReferralCode:           refCode,
		VerificationCode:       &otp,
		LastVerificationSentAt: &now,
		Timezone:               "Asia/Jakarta",
		Role:                   authz.RoleCreator,
		LoginMethod:            "mobile",
	}
	if referrer != nil {
		user.ReferralsFor = &referrer.ReferralCode
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, err
	}

	if referrer != nil {
		if err := s.users.CreateReferral(ctx, referrer.ID, user.ID, referrer.ReferralCode); err != nil {
			log.Warn().Err(err).Int("user_id", user.ID).Msg("[auth][register] referral not recorded")
		}
	}

	sent := false
	if email != "" && s.emails != nil {
		if err := s.emails.SendVerificationCode(ctx, email, otp); err != nil {
			log.Warn().Err(err).Int("user_id", user.ID).Msg("[auth][register] verification mail failed")
		} else {
			sent = true
		}
	}
	log.Info().Int("user_id", user.ID).Bool("code_sent", sent).Msg("[auth][register] user created")
	return user, sent, nil
}

func (s *authService) uniqueReferralCode(ctx context.Context) (string, error) {
	for i := 0; i < 5; i++ {
		code, err := utils.NewReferralCode(s.now())
		if err != nil {
			return "", err
		}
		_, err = s.users.GetByReferralCode(ctx, code)
		if errors.Is(err, repositories.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("could not generate unique referral code")
}

func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.User, *models.Tokens, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = utils.DigitsOnly(req.PhoneNumber)
	}
	if identifier == "" {
		return nil, nil, ErrInvalidCredentials
	}
	if strings.Contains(identifier, "@") {
		identifier = utils.NormalizeEmail(identifier)
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if !s.CheckPassword(user.PasswordHash, req.Password) {
		log.Info().Int("user_id", user.ID).Msg("[auth][login] password mismatch")
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, nil, ErrNotVerified
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *authService) VerifyPhone(ctx context.Context, phone, code string) (*models.User, *models.Tokens, error) {
	user, err := s.users.GetByPhone(ctx, utils.DigitsOnly(phone))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, ErrUserNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if user.IsVerified {
		return nil, nil, ErrAlreadyVerified
	}
	if err := checkCode(user, code, s.now(), s.cfg.CodeTTL); err != nil {
		return nil, nil, err
	}
	ok, err := s.users.MarkVerified(ctx, user.ID, code)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrCodeInvalid
	}
	user.IsVerified = true
	user.VerificationCode = nil

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *authService) ResendVerification(ctx context.Context, phone string) error {
	user, err := s.users.GetByPhone(ctx, utils.DigitsOnly(phone))
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	now := s.now().UTC()
	if user.LastVerificationSentAt != nil && now.Sub(*user.LastVerificationSentAt) < s.cfg.ResendCooldown {
		return ErrResendThrottled
	}

	code, err := utils.NewVerificationCode()
	if err != nil {
		return err
	}
	if err := s.users.SetVerificationCode(ctx, user.ID, code, now); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	if user.Email != "" && s.emails != nil {
		if err := s.emails.SendVerificationCode(ctx, user.Email, code); err != nil {
			log.Warn().Err(err).Int("user_id", user.ID).Msg("[auth][resend] mail failed")
		}
	}
	return nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.Tokens, error) {
	old := strings.TrimSpace(refreshToken)
	if old == "" {
		return nil, ErrInvalidRefresh
	}
	user, err := s.users.GetByRefreshToken(ctx, old)
	if err != nil || user.RefreshExpiresAt == nil {
		return nil, ErrInvalidRefresh
	}
	if s.now().After(*user.RefreshExpiresAt) {
		return nil, ErrRefreshExpired
	}

	newRT, err := utils.NewRefreshToken(32)
	if err != nil {
		return nil, err
	}
	rotated, err := s.users.RotateRefresh(ctx, old, newRT, s.now().Add(s.cfg.RefreshTTL))
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	access, err := s.accessToken(rotated)
	if err != nil {
		return nil, err
	}
	return &models.Tokens{
		AccessToken:  access,
		RefreshToken: newRT,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.cfg.AccessTTL.Seconds()),
	}, nil
}

func (s *authService) Logout(ctx context.Context, userID int) error {
	return s.users.ClearRefresh(ctx, userID)
}

func (s *authService) UpdateFCMToken(ctx context.Context, userID int, token string) error {
	token = strings.TrimSpace(token)
	var p *string
	if token != "" {
		p = &token
	}
	return s.users.UpdateFCMToken(ctx, userID, p)
}

func (s *authService) accessToken(user *models.User) (string, error) {
	claims := &middleware.Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(s.now().Add(s.cfg.AccessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(middleware.JWTKey)
}

func (s *authService) issueTokens(ctx context.Context, user *models.User) (*models.Tokens, error) {
	access, err := s.accessToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	rt, err := utils.NewRefreshToken(32)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateRefresh(ctx, user.ID, rt, s.now().Add(s.cfg.RefreshTTL)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &models.Tokens{
		AccessToken:  access,
		RefreshToken: rt,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.cfg.AccessTTL.Seconds()),
	}, nil
}
