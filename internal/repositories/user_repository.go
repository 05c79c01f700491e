package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mamastoria/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
	UpdatePhotoPath(ctx context.Context, userID int, path string) error
	UpdateFCMToken(ctx context.Context, userID int, token *string) error
	UpdateWatermark(ctx context.Context, userID int, on bool) error

	// квота на смену имени
	LogProfileUpdate(ctx context.Context, userID int, field string) error
	ProfileUpdatesSince(ctx context.Context, userID int, since time.Time) (int, *time.Time, error)

	// verification
	SetVerificationCode(ctx context.Context, userID int, code string, sentAt time.Time) error
	ResetPasswordWithCode(ctx context.Context, userID int, code, passwordHash string) (bool, error)
	MarkVerified(ctx context.Context, userID int, code string) (bool, error)

	// credits & referrals
	AdjustKredit(ctx context.Context, userID int, delta int64) (int64, error)
	CountReferrals(ctx context.Context, code string) (int64, error)
	CreateReferral(ctx context.Context, referrerID, referredID int, code string) error
	ListReferrals(ctx context.Context, referrerID int) ([]*models.Referral, error)

	// refresh helpers
	UpdateRefresh(ctx context.Context, userID int, token string, expiresAt time.Time) error
	RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
	ClearRefresh(ctx context.Context, userID int) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id_users, full_name, username, email, phone_number, password,
	referral_code_id, referrals_for,
	verification_code, is_verified, last_verification_sent_at,
	region, city, timezone, role, login_method,
	kredit, balance, profile_photo_path, publish_quota, watermark,
	previous_rating, previous_rating_name, fcm_token,
	refresh_token, refresh_expires_at,
	created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	var (
		username, email, referralsFor sql.NullString
		code                          sql.NullString
		sentAt                        sql.NullTime
		region, city                  sql.NullString
		photo, ratingName, fcm        sql.NullString
		rating                        sql.NullInt64
		rt                            sql.NullString
		rte                           sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.FullName, &username, &email, &u.PhoneNumber, &u.PasswordHash,
		&u.ReferralCode, &referralsFor,
		&code, &u.IsVerified, &sentAt,
		&region, &city, &u.Timezone, &u.Role, &u.LoginMethod,
		&u.Kredit, &u.Balance, &photo, &u.PublishQuota, &u.Watermark,
		&rating, &ratingName, &fcm,
		&rt, &rte,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	u.Username = username.String
	u.Email = email.String
	u.ReferralsFor = stringPtr(referralsFor)
	u.VerificationCode = stringPtr(code)
	u.LastVerificationSentAt = timePtr(sentAt)
	u.Region = stringPtr(region)
	u.City = stringPtr(city)
	u.ProfilePhotoPath = stringPtr(photo)
	u.PreviousRating = intPtr(rating)
	u.PreviousRatingName = stringPtr(ratingName)
	u.FCMToken = stringPtr(fcm)
	u.RefreshToken = stringPtr(rt)
	u.RefreshExpiresAt = timePtr(rte)
	return u, nil
}

func (r *userRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, q, arg))
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (
			full_name, username, email, phone_number, password,
			referral_code_id, referrals_for,
			verification_code, is_verified, last_verification_sent_at,
			timezone, role, login_method
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id_users, created_at, updated_at
	`
	var referralsFor any
	if user.ReferralsFor != nil {
		referralsFor = *user.ReferralsFor
	}
	err := r.DB.QueryRowContext(ctx, q,
		user.FullName,
		nullString(user.Username),
		nullString(user.Email),
		user.PhoneNumber,
		user.PasswordHash,
		user.ReferralCode,
		referralsFor,
		user.VerificationCode,
		user.IsVerified,
		user.LastVerificationSentAt,
		user.Timezone,
		user.Role,
		user.LoginMethod,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return mapUniqueViolation(err)
}

func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return r.getOne(ctx, `id_users = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `email = $1`, email)
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.getOne(ctx, `phone_number = $1`, phone)
}

// GetByIdentifier accepts an email, a phone number or a username.
func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return r.getOne(ctx, `(email = $1 OR phone_number = $1 OR username = $1)`, identifier)
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return r.getOne(ctx, `referral_code_id = $1`, code)
}

func (r *userRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, `refresh_token = $1`, token)
}

// UpdateProfile does not touch the verification fields.
func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	const q = `
		UPDATE users
		SET full_name=$1, username=$2, email=$3, region=$4, city=$5, updated_at=NOW()
		WHERE id_users=$6
	`
	_, err := r.DB.ExecContext(ctx, q,
		user.FullName,
		nullString(user.Username),
		nullString(user.Email),
		user.Region,
		user.City,
		user.ID,
	)
	return mapUniqueViolation(err)
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password=$1, updated_at=NOW() WHERE id_users=$2`,
		passwordHash, userID)
	return err
}

func (r *userRepository) UpdatePhotoPath(ctx context.Context, userID int, path string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET profile_photo_path=$1, updated_at=NOW() WHERE id_users=$2`,
		path, userID)
	return err
}

func (r *userRepository) UpdateFCMToken(ctx context.Context, userID int, token *string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET fcm_token=$1, updated_at=NOW() WHERE id_users=$2`,
		token, userID)
	return err
}

func (r *userRepository) UpdateWatermark(ctx context.Context, userID int, on bool) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET watermark=$1, updated_at=NOW() WHERE id_users=$2`, on, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) LogProfileUpdate(ctx context.Context, userID int, field string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO profile_updates (user_id, field) VALUES ($1,$2)`, userID, field)
	return err
}

// ProfileUpdatesSince returns how many changes were logged after since and
// when the oldest of them happened.
func (r *userRepository) ProfileUpdatesSince(ctx context.Context, userID int, since time.Time) (int, *time.Time, error) {
	var (
		n      int
		oldest sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(created_at) FROM profile_updates
		WHERE user_id=$1 AND created_at > $2
	`, userID, since.UTC()).Scan(&n, &oldest)
	if err != nil {
		return 0, nil, err
	}
	return n, timePtr(oldest), nil
}

// ===== verification helpers =====

// SetVerificationCode overwrites any previous code (last write wins).
func (r *userRepository) SetVerificationCode(ctx context.Context, userID int, code string, sentAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET verification_code=$1, last_verification_sent_at=$2 WHERE id_users=$3`,
		code, sentAt.UTC(), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPasswordWithCode stores the new hash and clears the code in one
// transaction. It reports false when the stored code no longer matches,
// e.g. a newer code was issued after validation.
func (r *userRepository) ResetPasswordWithCode(ctx context.Context, userID int, code, passwordHash string) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var current sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT verification_code FROM users WHERE id_users=$1 FOR UPDATE`, userID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !current.Valid || current.String != code {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET password=$1, verification_code=NULL, updated_at=NOW() WHERE id_users=$2`,
		passwordHash, userID,
	); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// MarkVerified flips is_verified and clears the code if it still matches.
func (r *userRepository) MarkVerified(ctx context.Context, userID int, code string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET is_verified=TRUE, verification_code=NULL, updated_at=NOW()
		WHERE id_users=$1 AND verification_code=$2
	`, userID, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ===== credits & referrals =====

// AdjustKredit locks the row, applies delta and returns the new balance.
func (r *userRepository) AdjustKredit(ctx context.Context, userID int, delta int64) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var current int64
	if err := tx.QueryRowContext(ctx,
		`SELECT kredit FROM users WHERE id_users=$1 FOR UPDATE`, userID,
	).Scan(&current); err != nil {
		return 0, notFound(err)
	}
	next := current + delta
	if next < 0 {
		return current, ErrInsufficientCredit
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET kredit=$1, updated_at=NOW() WHERE id_users=$2`, next, userID,
	); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *userRepository) CountReferrals(ctx context.Context, code string) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE referrals_for = $1`, code,
	).Scan(&n)
	return n, err
}

func (r *userRepository) CreateReferral(ctx context.Context, referrerID, referredID int, code string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO referrals (referrer_id, referred_id, referral_code)
		VALUES ($1,$2,$3)
		ON CONFLICT (referred_id) DO NOTHING
	`, referrerID, referredID, code)
	if err != nil {
		return fmt.Errorf("create referral: %w", err)
	}
	return nil
}

func (r *userRepository) ListReferrals(ctx context.Context, referrerID int) ([]*models.Referral, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT rf.id, rf.referrer_id, rf.referred_id, rf.referral_code, rf.created_at,
		       u.id_users, u.username, u.full_name, u.email, u.profile_photo_path, u.created_at
		FROM referrals rf
		JOIN users u ON u.id_users = rf.referred_id
		WHERE rf.referrer_id = $1
		ORDER BY rf.created_at DESC
	`, referrerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []*models.Referral{}
	for rows.Next() {
		ref := &models.Referral{}
		var username, email, photo sql.NullString
		ru := &ref.ReferredUser
		if err := rows.Scan(
			&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.ReferralCode, &ref.CreatedAt,
			&ru.ID, &username, &ru.FullName, &email, &photo, &ru.CreatedAt,
		); err != nil {
			return nil, err
		}
		ru.Username = username.String
		ru.Email = email.String
		ru.ProfilePhotoPath = stringPtr(photo)
		res = append(res, ref)
	}
	return res, rows.Err()
}

// ===== refresh helpers =====

func (r *userRepository) UpdateRefresh(ctx context.Context, userID int, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET refresh_token=$1, refresh_expires_at=$2 WHERE id_users=$3`,
		token, expiresAt, userID)
	return err
}

func (r *userRepository) RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	q := `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2
		WHERE refresh_token=$3
		RETURNING ` + userColumns
	return scanUser(r.DB.QueryRowContext(ctx, q, newToken, newExpiresAt, oldToken))
}

func (r *userRepository) ClearRefresh(ctx context.Context, userID int) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET refresh_token=NULL, refresh_expires_at=NULL WHERE id_users=$1`,
		userID)
	return err
}
