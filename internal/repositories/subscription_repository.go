package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mamastoria/internal/models"
)

// CallbackOutcome describes what ApplyPaymentResult did with a gateway notification.
type CallbackOutcome int

const (
	CallbackIgnored CallbackOutcome = iota
	CallbackActivated
	CallbackStatusUpdated
)

type SubscriptionRepository interface {
	ListPackages(ctx context.Context) ([]*models.SubscriptionPackage, error)
	GetPackageByID(ctx context.Context, id int) (*models.SubscriptionPackage, error)
	GetPackageByName(ctx context.Context, name string) (*models.SubscriptionPackage, error)
	CreatePackage(ctx context.Context, p *models.SubscriptionPackage) error

	CreatePayment(ctx context.Context, p *models.PaymentTransaction) error
	GetPaymentByInvoice(ctx context.Context, invoice string) (*models.PaymentTransaction, error)
	ListPaymentsByUser(ctx context.Context, userID, limit, offset int) ([]*models.PaymentTransaction, int64, error)

	GetActiveSubscription(ctx context.Context, userID int, now time.Time) (*models.Subscription, *models.SubscriptionPackage, error)
	ApplyPaymentResult(ctx context.Context, invoice, status string, now time.Time) (CallbackOutcome, error)
}

type subscriptionRepository struct {
	DB *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{DB: db}
}

const packageColumns = `id, name, description, price, duration_days, publish_quota, bonus_credits, created_at`

func scanPackage(row scanner) (*models.SubscriptionPackage, error) {
	p := &models.SubscriptionPackage{}
	var desc sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &desc, &p.Price, &p.DurationDays, &p.PublishQuota, &p.BonusCredits, &p.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	p.Description = stringPtr(desc)
	return p, nil
}

func (r *subscriptionRepository) ListPackages(ctx context.Context) ([]*models.SubscriptionPackage, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+packageColumns+` FROM subscription_packages ORDER BY price`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []*models.SubscriptionPackage{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r *subscriptionRepository) GetPackageByID(ctx context.Context, id int) (*models.SubscriptionPackage, error) {
	return scanPackage(r.DB.QueryRowContext(ctx, `SELECT `+packageColumns+` FROM subscription_packages WHERE id=$1`, id))
}

func (r *subscriptionRepository) GetPackageByName(ctx context.Context, name string) (*models.SubscriptionPackage, error) {
	return scanPackage(r.DB.QueryRowContext(ctx,
		`SELECT `+packageColumns+` FROM subscription_packages WHERE LOWER(name)=LOWER($1)`, name))
}

func (r *subscriptionRepository) CreatePackage(ctx context.Context, p *models.SubscriptionPackage) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO subscription_packages (name, description, price, duration_days, publish_quota, bonus_credits)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at
	`, p.Name, p.Description, p.Price, p.DurationDays, p.PublishQuota, p.BonusCredits).Scan(&p.ID, &p.CreatedAt)
	return mapUniqueViolation(err)
}

const paymentColumns = `
	pt.id, pt.user_id, pt.subscription_id, pt.package_id, pt.invoice_number, pt.amount,
	pt.payment_method, pt.status, pt.payment_url, COALESCE(sp.name, ''), pt.created_at`

func scanPayment(row scanner) (*models.PaymentTransaction, error) {
	p := &models.PaymentTransaction{}
	var subID sql.NullInt64
	var method, url sql.NullString
	err := row.Scan(&p.ID, &p.UserID, &subID, &p.PackageID, &p.InvoiceNumber, &p.Amount,
		&method, &p.Status, &url, &p.PackageName, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	p.SubscriptionID = intPtr(subID)
	p.PaymentMethod = stringPtr(method)
	p.PaymentURL = stringPtr(url)
	return p, nil
}

func (r *subscriptionRepository) CreatePayment(ctx context.Context, p *models.PaymentTransaction) error {
	return r.DB.QueryRowContext(ctx, `
		INSERT INTO payment_transactions (user_id, package_id, invoice_number, amount, payment_method, status, payment_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at
	`, p.UserID, p.PackageID, p.InvoiceNumber, p.Amount, p.PaymentMethod, p.Status, p.PaymentURL).Scan(&p.ID, &p.CreatedAt)
}

func (r *subscriptionRepository) GetPaymentByInvoice(ctx context.Context, invoice string) (*models.PaymentTransaction, error) {
	return scanPayment(r.DB.QueryRowContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payment_transactions pt
		LEFT JOIN subscription_packages sp ON sp.id = pt.package_id
		WHERE pt.invoice_number=$1
	`, invoice))
}

func (r *subscriptionRepository) ListPaymentsByUser(ctx context.Context, userID, limit, offset int) ([]*models.PaymentTransaction, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payment_transactions WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payment_transactions pt
		LEFT JOIN subscription_packages sp ON sp.id = pt.package_id
		WHERE pt.user_id=$1
		ORDER BY pt.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	res := []*models.PaymentTransaction{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, p)
	}
	return res, total, rows.Err()
}

func (r *subscriptionRepository) GetActiveSubscription(ctx context.Context, userID int, now time.Time) (*models.Subscription, *models.SubscriptionPackage, error) {
	s := &models.Subscription{}
	var start, end sql.NullTime
	var pkgName string
	err := r.DB.QueryRowContext(ctx, `
		SELECT s.id, s.user_id, s.package_id, s.status, s.start_date, s.end_date, sp.name
		FROM subscriptions s
		JOIN subscription_packages sp ON sp.id = s.package_id
		WHERE s.user_id=$1 AND s.status=$2 AND s.end_date > $3
	`, userID, models.SubscriptionActive, now).Scan(&s.ID, &s.UserID, &s.PackageID, &s.Status, &start, &end, &pkgName)
	if err != nil {
		return nil, nil, notFound(err)
	}
	s.StartDate = timePtr(start)
	s.EndDate = timePtr(end)
	return s, &models.SubscriptionPackage{ID: s.PackageID, Name: pkgName}, nil
}

// ApplyPaymentResult применяет статус от платёжного шлюза к pending-платежу.
// On success it activates or extends the subscription and credits quota and
// bonus credits, all inside one transaction.
func (r *subscriptionRepository) ApplyPaymentResult(ctx context.Context, invoice, status string, now time.Time) (CallbackOutcome, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return CallbackIgnored, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		paymentID, userID, packageID int
		current                      string
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, package_id, status FROM payment_transactions
		WHERE invoice_number=$1 FOR UPDATE
	`, invoice).Scan(&paymentID, &userID, &packageID, &current)
	if err != nil {
		return CallbackIgnored, notFound(err)
	}
	if current != models.PaymentPending {
		return CallbackIgnored, nil
	}

	switch status {
	case models.PaymentFailed, models.PaymentExpired:
		if _, err := tx.ExecContext(ctx,
			`UPDATE payment_transactions SET status=$1, updated_at=NOW() WHERE id=$2`, status, paymentID); err != nil {
			return CallbackIgnored, err
		}
		return CallbackStatusUpdated, tx.Commit()
	case models.PaymentSuccess:
	default:
		return CallbackIgnored, nil
	}

	var duration, quota, bonus int
	if err := tx.QueryRowContext(ctx,
		`SELECT duration_days, publish_quota, bonus_credits FROM subscription_packages WHERE id=$1`, packageID,
	).Scan(&duration, &quota, &bonus); err != nil {
		return CallbackIgnored, notFound(err)
	}

	// продление активной подписки считается от её текущего end_date
	start, end := now, now.AddDate(0, 0, duration)
	var prevStatus string
	var prevStart, prevEnd sql.NullTime
	err = tx.QueryRowContext(ctx,
		`SELECT status, start_date, end_date FROM subscriptions WHERE user_id=$1 FOR UPDATE`, userID,
	).Scan(&prevStatus, &prevStart, &prevEnd)
	switch {
	case err == nil:
		if prevStatus == models.SubscriptionActive && prevEnd.Valid && prevEnd.Time.After(now) {
			end = prevEnd.Time.AddDate(0, 0, duration)
			if prevStart.Valid {
				start = prevStart.Time
			}
		}
	case !errors.Is(err, sql.ErrNoRows):
		return CallbackIgnored, err
	}

	var subID int
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO subscriptions (user_id, package_id, status, start_date, end_date)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id) DO UPDATE
		SET package_id=EXCLUDED.package_id, status=EXCLUDED.status,
			start_date=EXCLUDED.start_date, end_date=EXCLUDED.end_date, updated_at=NOW()
		RETURNING id
	`, userID, packageID, models.SubscriptionActive, start, end).Scan(&subID); err != nil {
		return CallbackIgnored, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE payment_transactions SET status=$1, subscription_id=$2, updated_at=NOW() WHERE id=$3
	`, models.PaymentSuccess, subID, paymentID); err != nil {
		return CallbackIgnored, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET publish_quota = publish_quota + $1, kredit = kredit + $2, updated_at=NOW()
		WHERE id_users=$3
	`, quota, bonus, userID); err != nil {
		return CallbackIgnored, err
	}

	if bonus > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (user_id, type, amount, description, reference_id)
			VALUES ($1,'subscription_bonus',$2,'Subscription bonus credits',$3)
		`, userID, bonus, invoice); err != nil {
			return CallbackIgnored, err
		}
	}

	return CallbackActivated, tx.Commit()
}
