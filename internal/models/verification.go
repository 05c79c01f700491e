package models

// Request bodies of the email verification / password reset endpoints.

type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type CheckVerificationCodeRequest struct {
	Email            string `json:"email" binding:"required,email"`
	VerificationCode string `json:"verification_code" binding:"required,len=6"`
}

type SendResetTokenRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyResetTokenRequest struct {
	Email      string `json:"email" binding:"required,email"`
	ResetToken string `json:"reset_token" binding:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	ResetToken  string `json:"reset_token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type VerifiedUser struct {
	UserID     int    `json:"user_id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	IsVerified bool   `json:"is_verified"`
}
