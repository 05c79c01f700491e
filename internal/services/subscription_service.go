package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"mamastoria/internal/models"
	"mamastoria/internal/repositories"
)

var (
	ErrPackageNotFound    = errors.New("subscription package not found")
	ErrPackageExists      = errors.New("subscription package already exists")
	ErrPaymentNotFound    = errors.New("transaction not found")
	ErrReceiptUnavailable = errors.New("receipt is only available for successful payments")
	ErrMissingInvoice     = errors.New("order ID / invoice number not found")
)

// PaymentMethods is the static catalogue shown on checkout.
var PaymentMethods = []models.PaymentMethod{
	{Group: "QRIS", Code: "qris", Name: "QRIS (All E-Wallets)"},
	{Group: "E-Wallet", Code: "gopay", Name: "GoPay"},
	{Group: "E-Wallet", Code: "dana", Name: "DANA"},
	{Group: "E-Wallet", Code: "ovo", Name: "OVO"},
	{Group: "Virtual Account", Code: "bni_va", Name: "BNI Virtual Account"},
	{Group: "Virtual Account", Code: "bri_va", Name: "BRI Virtual Account"},
	{Group: "Virtual Account", Code: "bca_va", Name: "BCA Virtual Account"},
	{Group: "Virtual Account", Code: "mandiri_va", Name: "Mandiri Virtual Account"},
}

type SubscriptionService interface {
	Packages(ctx context.Context) ([]*models.SubscriptionPackage, error)
	CreatePackage(ctx context.Context, req models.CreatePackageRequest) (*models.SubscriptionPackage, error)
	Purchase(ctx context.Context, userID int, req models.PurchaseRequest) (*models.PaymentTransaction, error)
	PaymentByInvoice(ctx context.Context, invoice string) (*models.PaymentTransaction, error)
	HandleCallback(ctx context.Context, cb models.PaymentCallback) (repositories.CallbackOutcome, error)
	Status(ctx context.Context, userID int) (*models.SubscriptionStatus, error)
	History(ctx context.Context, userID, limit, offset int) ([]*models.PaymentTransaction, int64, error)
	Receipt(ctx context.Context, userID int, invoice string) (*models.PaymentTransaction, *models.User, error)
	HasTransaction(ctx context.Context, userID int, txType string) (bool, error)
}

type subscriptionService struct {
	repo  repositories.SubscriptionRepository
	txs   repositories.TransactionRepository
	users repositories.UserRepository
	doku  *DokuClient
	now   Clock
}

func NewSubscriptionService(repo repositories.SubscriptionRepository, txs repositories.TransactionRepository, users repositories.UserRepository, doku *DokuClient, now Clock) SubscriptionService {
	return &subscriptionService{repo: repo, txs: txs, users: users, doku: doku, now: now}
}

func (s *subscriptionService) Packages(ctx context.Context) ([]*models.SubscriptionPackage, error) {
	return s.repo.ListPackages(ctx)
}

func (s *subscriptionService) CreatePackage(ctx context.Context, req models.CreatePackageRequest) (*models.SubscriptionPackage, error) {
	p := &models.SubscriptionPackage{
		Name:         strings.TrimSpace(req.Name),
		Price:        req.Price,
		DurationDays: req.DurationDays,
		PublishQuota: req.PublishQuota,
		BonusCredits: req.BonusCredits,
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		p.Description = &d
	}
	if err := s.repo.CreatePackage(ctx, p); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			return nil, ErrPackageExists
		}
		return nil, err
	}
	return p, nil
}

// findPackage: id, then slug as name ("credits-20" -> "credits 20"), then "package-<id>".
func (s *subscriptionService) findPackage(ctx context.Context, req models.PurchaseRequest) (*models.SubscriptionPackage, error) {
	if req.PackageID > 0 {
		return s.repo.GetPackageByID(ctx, req.PackageID)
	}
	slug := strings.TrimSpace(req.PackageSlug)
	if slug == "" {
		return nil, repositories.ErrNotFound
	}
	p, err := s.repo.GetPackageByName(ctx, slug)
	if !errors.Is(err, repositories.ErrNotFound) {
		return p, err
	}
	if guess := strings.ReplaceAll(slug, "-", " "); guess != slug {
		p, err = s.repo.GetPackageByName(ctx, guess)
		if !errors.Is(err, repositories.ErrNotFound) {
			return p, err
		}
	}
	if rest, ok := strings.CutPrefix(slug, "package-"); ok {
		if id, convErr := strconv.Atoi(rest); convErr == nil {
			return s.repo.GetPackageByID(ctx, id)
		}
	}
	return nil, err
}

func (s *subscriptionService) Purchase(ctx context.Context, userID int, req models.PurchaseRequest) (*models.PaymentTransaction, error) {
	pkg, err := s.findPackage(ctx, req)
	if errors.Is(err, repositories.ErrNotFound) {
		log.Warn().Int("package_id", req.PackageID).Str("slug", req.PackageSlug).Msg("[subscriptions][purchase] package lookup failed")
		return nil, ErrPackageNotFound
	}
	if err != nil {
		return nil, err
	}

	invoice := NewInvoiceNumber(s.now())
	url := s.doku.PaymentURL(invoice)
	p := &models.PaymentTransaction{
		UserID:        userID,
		PackageID:     pkg.ID,
		InvoiceNumber: invoice,
		Amount:        pkg.Price,
		Status:        models.PaymentPending,
		PaymentURL:    &url,
		PackageName:   pkg.Name,
	}
	if m := strings.TrimSpace(req.PaymentMethod); m != "" {
		p.PaymentMethod = &m
	}
	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	log.Info().Int("user_id", userID).Str("invoice", invoice).Int64("amount", p.Amount).Msg("[subscriptions][purchase] pending payment created")
	return p, nil
}

func (s *subscriptionService) PaymentByInvoice(ctx context.Context, invoice string) (*models.PaymentTransaction, error) {
	p, err := s.repo.GetPaymentByInvoice(ctx, invoice)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

func (s *subscriptionService) HandleCallback(ctx context.Context, cb models.PaymentCallback) (repositories.CallbackOutcome, error) {
	invoice := strings.TrimSpace(cb.Order.InvoiceNumber)
	if invoice == "" {
		return repositories.CallbackIgnored, ErrMissingInvoice
	}

	var status string
	switch strings.ToUpper(strings.TrimSpace(cb.Transaction.Status)) {
	case "SUCCESS":
		status = models.PaymentSuccess
	case "FAILED":
		status = models.PaymentFailed
	case "EXPIRED":
		status = models.PaymentExpired
	default:
		// неизвестный статус: только проверяем, что счёт существует
		if _, err := s.PaymentByInvoice(ctx, invoice); err != nil {
			return repositories.CallbackIgnored, err
		}
		return repositories.CallbackIgnored, nil
	}

	outcome, err := s.repo.ApplyPaymentResult(ctx, invoice, status, s.now())
	if errors.Is(err, repositories.ErrNotFound) {
		return outcome, ErrPaymentNotFound
	}
	if err != nil {
		return outcome, err
	}
	log.Info().Str("invoice", invoice).Str("status", status).Int("outcome", int(outcome)).Msg("[subscriptions][callback] processed")
	return outcome, nil
}

func (s *subscriptionService) Status(ctx context.Context, userID int) (*models.SubscriptionStatus, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	res := &models.SubscriptionStatus{PublishQuota: u.PublishQuota}

	now := s.now()
	sub, pkg, err := s.repo.GetActiveSubscription(ctx, userID, now)
	if errors.Is(err, repositories.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	res.HasActiveSubscription = true
	res.StartDate = sub.StartDate
	res.EndDate = sub.EndDate
	if pkg != nil {
		res.PackageName = &pkg.Name
	}
	if sub.EndDate != nil {
		days := int(sub.EndDate.Sub(now).Hours() / 24)
		res.DaysRemaining = &days
	}
	return res, nil
}

func (s *subscriptionService) History(ctx context.Context, userID, limit, offset int) ([]*models.PaymentTransaction, int64, error) {
	return s.repo.ListPaymentsByUser(ctx, userID, limit, offset)
}

// Receipt returns the payment only to its owner and only once it succeeded.
func (s *subscriptionService) Receipt(ctx context.Context, userID int, invoice string) (*models.PaymentTransaction, *models.User, error) {
	p, err := s.PaymentByInvoice(ctx, invoice)
	if err != nil {
		return nil, nil, err
	}
	if p.UserID != userID {
		return nil, nil, ErrPaymentNotFound
	}
	if p.Status != models.PaymentSuccess {
		return nil, nil, ErrReceiptUnavailable
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return p, u, nil
}

func (s *subscriptionService) HasTransaction(ctx context.Context, userID int, txType string) (bool, error) {
	if txType == "" {
		txType = "topup"
	}
	return s.txs.Exists(ctx, userID, txType)
}
