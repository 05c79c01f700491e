package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"mamastoria/internal/models"
	"mamastoria/internal/repositories"
)

var ErrInsufficientBalance = errors.New("withdrawal exceeds available balance")

type LedgerService interface {
	Commissions(ctx context.Context, userID int) ([]*models.Commission, int64, error)
	AddCommission(ctx context.Context, req models.CreateCommissionRequest) (*models.Commission, error)
	Withdrawals(ctx context.Context, userID int) ([]*models.Withdrawal, int64, error)
	RequestWithdrawal(ctx context.Context, req models.CreateWithdrawalRequest) (*models.Withdrawal, error)
}

type ledgerService struct {
	repo  repositories.LedgerRepository
	users repositories.UserRepository
}

func NewLedgerService(repo repositories.LedgerRepository, users repositories.UserRepository) LedgerService {
	return &ledgerService{repo: repo, users: users}
}

func (s *ledgerService) user(ctx context.Context, id int) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *ledgerService) Commissions(ctx context.Context, userID int) ([]*models.Commission, int64, error) {
	return s.repo.ListCommissions(ctx, userID)
}

func (s *ledgerService) AddCommission(ctx context.Context, req models.CreateCommissionRequest) (*models.Commission, error) {
	if _, err := s.user(ctx, req.UserID); err != nil {
		return nil, err
	}
	c := &models.Commission{UserID: req.UserID, Kredit: req.Kredit, Keterangan: req.Keterangan}
	if err := s.repo.CreateCommission(ctx, c); err != nil {
		return nil, fmt.Errorf("create commission: %w", err)
	}
	log.Info().Int("user_id", c.UserID).Int64("commission_id", c.ID).Msg("[ledger][commission] added")
	return c, nil
}

func (s *ledgerService) Withdrawals(ctx context.Context, userID int) ([]*models.Withdrawal, int64, error) {
	return s.repo.ListWithdrawals(ctx, userID)
}

// RequestWithdrawal: незакрытые заявки (pending/approved) плюс новая
// не могут превышать balance пользователя.
func (s *ledgerService) RequestWithdrawal(ctx context.Context, req models.CreateWithdrawalRequest) (*models.Withdrawal, error) {
	u, err := s.user(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = models.WithdrawalPending
	}
	if status == models.WithdrawalPending || status == models.WithdrawalApproved {
		existing, _, err := s.repo.ListWithdrawals(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		var reserved int64
		for _, w := range existing {
			if w.Status == models.WithdrawalPending || w.Status == models.WithdrawalApproved {
				reserved += w.Amount
			}
		}
		if reserved+req.Amount > u.Balance {
			return nil, ErrInsufficientBalance
		}
	}

	w := &models.Withdrawal{
		UserID:        u.ID,
		Amount:        req.Amount,
		Status:        status,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
	}
	if err := s.repo.CreateWithdrawal(ctx, w); err != nil {
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}
	log.Info().Int("user_id", u.ID).Int64("amount", w.Amount).Str("status", w.Status).Msg("[ledger][withdrawal] created")
	return w, nil
}
