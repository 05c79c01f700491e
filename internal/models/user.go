package models

import "time"

type User struct {
	ID           int    `json:"id_users"`
	FullName     string `json:"full_name"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	PhoneNumber  string `json:"phone_number"`
	PasswordHash string `json:"-"` // не отдаём наружу

	ReferralCode string  `json:"referral_code_id"`
	ReferralsFor *string `json:"referrals_for,omitempty"`

	// verification: один активный код на пользователя
	VerificationCode       *string    `json:"-"`
	LastVerificationSentAt *time.Time `json:"-"`
	IsVerified             bool       `json:"is_verified"`

	Region      *string `json:"region,omitempty"`
	City        *string `json:"city,omitempty"`
	Timezone    string  `json:"timezone"`
	Role        string  `json:"role"`
	LoginMethod string  `json:"login_method"`

	Kredit  int64 `json:"kredit"`
	Balance int64 `json:"balance"`

	ProfilePhotoPath   *string `json:"profile_photo_path,omitempty"`
	PublishQuota       int     `json:"publish_quota"`
	Watermark          bool    `json:"watermark"`
	PreviousRating     *int    `json:"previous_rating,omitempty"`
	PreviousRatingName *string `json:"previous_rating_name,omitempty"`
	FCMToken           *string `json:"-"`

	// refresh-хранение в БД
	RefreshToken     *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName is what other users see (notifications, publisher field).
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

type RegisterRequest struct {
	FullName     string `json:"full_name" binding:"required,min=2,max=100"`
	PhoneNumber  string `json:"phone_number" binding:"required,min=10,max=20"`
	Email        string `json:"email" binding:"omitempty,email"`
	Password     string `json:"password" binding:"required,min=6"`
	ReferralCode string `json:"referral_code"`
}

type LoginRequest struct {
	Identifier  string `json:"identifier"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password" binding:"required"`
}

type VerifyPhoneRequest struct {
	PhoneNumber      string `json:"phone_number" binding:"required"`
	VerificationCode string `json:"verification_code" binding:"required,len=6,digits"`
}

type ResendVerificationRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,min=2,max=100"`
	Username *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Region   *string `json:"region"`
	City     *string `json:"city"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type UpdateKreditRequest struct {
	Amount    int64  `json:"amount" binding:"required,gt=0"`
	Operation string `json:"operation" binding:"required,oneof=add subtract"`
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
