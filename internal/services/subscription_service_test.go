package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mamastoria/internal/models"
	"mamastoria/internal/repositories"
)

type fakeSubscriptions struct {
	repositories.SubscriptionRepository
	packages []*models.SubscriptionPackage
	payments map[string]*models.PaymentTransaction
	active   *models.Subscription
	applied  []string
}

func (f *fakeSubscriptions) GetPackageByID(_ context.Context, id int) (*models.SubscriptionPackage, error) {
	for _, p := range f.packages {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeSubscriptions) GetPackageByName(_ context.Context, name string) (*models.SubscriptionPackage, error) {
	for _, p := range f.packages {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeSubscriptions) CreatePayment(_ context.Context, p *models.PaymentTransaction) error {
	p.ID = len(f.payments) + 1
	f.payments[p.InvoiceNumber] = p
	return nil
}

func (f *fakeSubscriptions) GetPaymentByInvoice(_ context.Context, inv string) (*models.PaymentTransaction, error) {
	p, ok := f.payments[inv]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return p, nil
}

func (f *fakeSubscriptions) ApplyPaymentResult(_ context.Context, inv, status string, _ time.Time) (repositories.CallbackOutcome, error) {
	p, ok := f.payments[inv]
	if !ok {
		return repositories.CallbackIgnored, repositories.ErrNotFound
	}
	f.applied = append(f.applied, status)
	if p.Status != models.PaymentPending {
		return repositories.CallbackIgnored, nil
	}
	p.Status = status
	if status == models.PaymentSuccess {
		return repositories.CallbackActivated, nil
	}
	return repositories.CallbackStatusUpdated, nil
}

func (f *fakeSubscriptions) GetActiveSubscription(_ context.Context, _ int, _ time.Time) (*models.Subscription, *models.SubscriptionPackage, error) {
	if f.active == nil {
		return nil, nil, repositories.ErrNotFound
	}
	return f.active, &models.SubscriptionPackage{ID: f.active.PackageID, Name: "Premium"}, nil
}

func newSubscriptionFixture() (*fakeSubscriptions, *fixedClock, SubscriptionService) {
	subs := &fakeSubscriptions{
		packages: []*models.SubscriptionPackage{
			{ID: 1, Name: "Premium", Price: 49000, DurationDays: 30},
			{ID: 2, Name: "Credits 20", Price: 20000, DurationDays: 30, BonusCredits: 20},
		},
		payments: map[string]*models.PaymentTransaction{},
	}
	users := newFakeUsers(&models.User{ID: 1, PublishQuota: 3}, &models.User{ID: 2})
	clock, now := newClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	doku := NewDokuClient("id", "key", false, "http://localhost:8080")
	return subs, clock, NewSubscriptionService(subs, nil, users, doku, now)
}

func TestPurchase_ByIDAndSlug(t *testing.T) {
	subs, _, svc := newSubscriptionFixture()
	ctx := context.Background()

	p, err := svc.Purchase(ctx, 1, models.PurchaseRequest{PackageID: 1, PaymentMethod: "qris"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, p.Status)
	assert.EqualValues(t, 49000, p.Amount)
	assert.Equal(t, "Premium", p.PackageName)
	assert.Equal(t, "http://localhost:8080/api/v1/mock-payment/"+p.InvoiceNumber, *p.PaymentURL)
	assert.Contains(t, subs.payments, p.InvoiceNumber)

	p, err = svc.Purchase(ctx, 1, models.PurchaseRequest{PackageSlug: "credits-20"})
	require.NoError(t, err)
	assert.Equal(t, 2, p.PackageID)

	p, err = svc.Purchase(ctx, 1, models.PurchaseRequest{PackageSlug: "package-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, p.PackageID)

	_, err = svc.Purchase(ctx, 1, models.PurchaseRequest{PackageSlug: "gold"})
	assert.ErrorIs(t, err, ErrPackageNotFound)
	_, err = svc.Purchase(ctx, 1, models.PurchaseRequest{})
	assert.ErrorIs(t, err, ErrPackageNotFound)
}

func TestHandleCallback_StatusMapping(t *testing.T) {
	subs, _, svc := newSubscriptionFixture()
	ctx := context.Background()
	p, err := svc.Purchase(ctx, 1, models.PurchaseRequest{PackageID: 1})
	require.NoError(t, err)

	var cb models.PaymentCallback
	cb.Order.InvoiceNumber = p.InvoiceNumber
	cb.Transaction.Status = "SUCCESS"
	out, err := svc.HandleCallback(ctx, cb)
	require.NoError(t, err)
	assert.Equal(t, repositories.CallbackActivated, out)

	out, err = svc.HandleCallback(ctx, cb)
	require.NoError(t, err)
	assert.Equal(t, repositories.CallbackIgnored, out, "replayed callback")

	p2, _ := svc.Purchase(ctx, 1, models.PurchaseRequest{PackageID: 1})
	cb.Order.InvoiceNumber = p2.InvoiceNumber
	cb.Transaction.Status = "EXPIRED"
	out, err = svc.HandleCallback(ctx, cb)
	require.NoError(t, err)
	assert.Equal(t, repositories.CallbackStatusUpdated, out)
	assert.Equal(t, models.PaymentExpired, subs.payments[p2.InvoiceNumber].Status)

	cb.Transaction.Status = "PENDING"
	out, err = svc.HandleCallback(ctx, cb)
	require.NoError(t, err)
	assert.Equal(t, repositories.CallbackIgnored, out)

	cb.Order.InvoiceNumber = ""
	_, err = svc.HandleCallback(ctx, cb)
	assert.ErrorIs(t, err, ErrMissingInvoice)

	cb.Order.InvoiceNumber = "INV-NOPE"
	cb.Transaction.Status = "SUCCESS"
	_, err = svc.HandleCallback(ctx, cb)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestSubscriptionStatus(t *testing.T) {
	subs, clock, svc := newSubscriptionFixture()
	ctx := context.Background()

	st, err := svc.Status(ctx, 1)
	require.NoError(t, err)
	assert.False(t, st.HasActiveSubscription)
	assert.Nil(t, st.DaysRemaining)
	assert.Equal(t, 3, st.PublishQuota)

	start := clock.Now().AddDate(0, 0, -5)
	end := clock.Now().Add(10*24*time.Hour + time.Hour)
	subs.active = &models.Subscription{ID: 1, UserID: 1, PackageID: 1, Status: "active", StartDate: &start, EndDate: &end}

	st, err = svc.Status(ctx, 1)
	require.NoError(t, err)
	assert.True(t, st.HasActiveSubscription)
	assert.Equal(t, "Premium", *st.PackageName)
	assert.Equal(t, 10, *st.DaysRemaining)
}

func TestReceipt_OwnerAndSuccessOnly(t *testing.T) {
	subs, _, svc := newSubscriptionFixture()
	ctx := context.Background()
	p, err := svc.Purchase(ctx, 1, models.PurchaseRequest{PackageID: 1})
	require.NoError(t, err)

	_, _, err = svc.Receipt(ctx, 1, p.InvoiceNumber)
	assert.ErrorIs(t, err, ErrReceiptUnavailable)

	subs.payments[p.InvoiceNumber].Status = models.PaymentSuccess
	_, _, err = svc.Receipt(ctx, 2, p.InvoiceNumber)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	got, u, err := svc.Receipt(ctx, 1, p.InvoiceNumber)
	require.NoError(t, err)
	assert.Equal(t, p.InvoiceNumber, got.InvoiceNumber)
	assert.Equal(t, 1, u.ID)
}
