package models

import "time"

const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
	WithdrawalPaid     = "paid"

	ComicRequestPending = "PENDING"
)

type Commission struct {
	ID         int64     `json:"id"`
	UserID     int       `json:"id_user"`
	Kredit     *int      `json:"kredit"`
	Keterangan *string   `json:"keterangan"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateCommissionRequest struct {
	UserID     int     `json:"id_user" binding:"required,gt=0"`
	Kredit     *int    `json:"kredit"`
	Keterangan *string `json:"keterangan"`
}

type Withdrawal struct {
	ID            int       `json:"id"`
	UserID        int       `json:"id_user"`
	Amount        int64     `json:"amount"`
	Status        string    `json:"status"`
	BankName      *string   `json:"bank_name"`
	AccountNumber *string   `json:"account_number"`
	AccountName   *string   `json:"account_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CreateWithdrawalRequest struct {
	UserID        int     `json:"id_user" binding:"required,gt=0"`
	Amount        int64   `json:"amount" binding:"required,gt=0"`
	Status        string  `json:"status" binding:"omitempty,oneof=pending approved rejected paid"`
	BankName      *string `json:"bank_name"`
	AccountNumber *string `json:"account_number"`
	AccountName   *string `json:"account_name"`
}

// ComicRequest: заказ печатного комикса (сувенир) с доставкой.
type ComicRequest struct {
	ID              int64     `json:"id"`
	UserID          int       `json:"user_id"`
	RecipientName   string    `json:"recipient_name"`
	PhoneNumber     string    `json:"phone_number"`
	ShippingAddress string    `json:"shipping_address"`
	Notes           *string   `json:"notes"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CreateComicRequestRequest struct {
	RecipientName   string  `json:"recipient_name" binding:"required,min=2"`
	PhoneNumber     string  `json:"phone_number" binding:"required,min=8"`
	ShippingAddress string  `json:"shipping_address" binding:"required,min=10"`
	Notes           *string `json:"notes"`
}

type ReferredUser struct {
	ID               int       `json:"id_users"`
	Username         string    `json:"username"`
	FullName         string    `json:"full_name"`
	Email            string    `json:"email"`
	ProfilePhotoPath *string   `json:"profile_photo_path"`
	CreatedAt        time.Time `json:"created_at"`
}

type Referral struct {
	ID           int          `json:"id"`
	ReferrerID   int          `json:"referrer_id"`
	ReferredID   int          `json:"referred_user_id"`
	ReferralCode string       `json:"referral_code"`
	CreatedAt    time.Time    `json:"created_at"`
	ReferredUser ReferredUser `json:"referred_user"`
}

type UpdateWatermarkRequest struct {
	Watermark *bool `json:"watermark" binding:"required"`
}

type UpdateQuota struct {
	RemainingQuota int        `json:"remaining_quota"`
	QuotaResetsAt  *time.Time `json:"quota_resets_at"`
}
