package models

import "time"

const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
	PaymentExpired = "expired"

	SubscriptionActive = "active"
)

type SubscriptionPackage struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Price        int64     `json:"price"`
	DurationDays int       `json:"duration_days"`
	PublishQuota int       `json:"publish_quota"`
	BonusCredits int       `json:"bonus_credits"`
	CreatedAt    time.Time `json:"created_at"`
}

type Subscription struct {
	ID        int        `json:"id"`
	UserID    int        `json:"user_id"`
	PackageID int        `json:"package_id"`
	Status    string     `json:"status"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type PaymentTransaction struct {
	ID             int       `json:"id"`
	UserID         int       `json:"user_id"`
	SubscriptionID *int      `json:"subscription_id,omitempty"`
	PackageID      int       `json:"package_id"`
	InvoiceNumber  string    `json:"invoice_number"`
	Amount         int64     `json:"amount"`
	PaymentMethod  *string   `json:"payment_method,omitempty"`
	Status         string    `json:"status"`
	PaymentURL     *string   `json:"payment_url,omitempty"`
	PackageName    string    `json:"package_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Transaction is a wallet movement (credit, debit, referral_bonus, topup...).
type Transaction struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Description *string   `json:"description,omitempty"`
	ReferenceID *string   `json:"reference_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type PurchaseRequest struct {
	PackageID     int    `json:"packageId"`
	PackageSlug   string `json:"packageSlug"`
	PaymentMethod string `json:"paymentMethod"`
}

type CreatePackageRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	Price        int64  `json:"price" binding:"required,gt=0"`
	DurationDays int    `json:"duration_days" binding:"required,gt=0"`
	PublishQuota int    `json:"publish_quota" binding:"gte=0"`
	BonusCredits int    `json:"bonus_credits" binding:"gte=0"`
}

// PaymentCallback mirrors the notification body DOKU posts back.
type PaymentCallback struct {
	Order struct {
		InvoiceNumber string `json:"invoice_number"`
		Amount        int64  `json:"amount"`
	} `json:"order"`
	Transaction struct {
		Status string `json:"status"`
	} `json:"transaction"`
}

type PaymentMethod struct {
	Group string `json:"group"`
	Code  string `json:"code"`
	Name  string `json:"name"`
}

type SubscriptionStatus struct {
	HasActiveSubscription bool       `json:"has_active_subscription"`
	PackageName           *string    `json:"package_name"`
	StartDate             *time.Time `json:"start_date"`
	EndDate               *time.Time `json:"end_date"`
	DaysRemaining         *int       `json:"days_remaining"`
	PublishQuota          int        `json:"publish_quota"`
}
