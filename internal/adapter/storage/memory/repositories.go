package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ClientRepo implements ports.ClientRepository.
type ClientRepo struct{ s *Store }

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct{ s *Store }

// LedgerRepo implements ports.LedgerRepository.
type LedgerRepo struct{ s *Store }

// ReservationRepo implements ports.ReservationRepository.
type ReservationRepo struct{ s *Store }

// AuditRepo implements ports.AuditRepository.
type AuditRepo struct{ s *Store }

// NotificationRepo implements ports.NotificationRepository.
type NotificationRepo struct{ s *Store }

func (s *Store) Clients() *ClientRepo { return &ClientRepo{s} }
func (s *Store) Wallets() *WalletRepo { return &WalletRepo{s} }
func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{s} }
func (s *Store) Reservations() *ReservationRepo { return &ReservationRepo{s} }
func (s *Store) Audits() *AuditRepo { return &AuditRepo{s} }
func (s *Store) Notifications() *NotificationRepo { return &NotificationRepo{s} }

func (r *ClientRepo) Create(_ context.Context, tx pgx.Tx, c *domain.Client) error {
	if err := r.s.checkTx(tx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(FaultClientCreate); err != nil {
		return err
	}
	key := clientKey{c.Document, c.Phone}
	if _, exists := r.s.clientKeys[key]; exists {
		return fmt.Errorf("insert client: %w", ports.ErrDuplicateClient)
	}
	r.s.clients[c.ID] = *c
	r.s.clientKeys[key] = c.ID
	return nil
}

func (r *ClientRepo) GetByDocumentAndPhone(_ context.Context, document, phone string) (*domain.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.clientKeys[clientKey{document, phone}]
	if !ok {
		return nil, nil
	}
	c := r.s.clients[id]
	return &c, nil
}

func (r *WalletRepo) Create(_ context.Context, tx pgx.Tx, w *domain.Wallet) error {
	if err := r.s.checkTx(tx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(FaultWalletCreate); err != nil {
		return err
	}
	if _, exists := r.s.wallets[w.ClientID]; exists {
		return fmt.Errorf("insert wallet: client %s already owns a wallet", w.ClientID)
	}
	r.s.wallets[w.ClientID] = *w
	return nil
}

func (r *WalletRepo) GetByClientID(_ context.Context, clientID uuid.UUID) (*domain.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.wallets[clientID]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *WalletRepo) Credit(_ context.Context, tx pgx.Tx, clientID uuid.UUID, amount decimal.Decimal) (*domain.Wallet, error) {
	if err := r.s.checkTx(tx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(FaultWalletCredit); err != nil {
		return nil, err
	}
	w, ok := r.s.wallets[clientID]
	if !ok {
		return nil, nil
	}
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = time.Now().UTC()
	r.s.wallets[clientID] = w
	return &w, nil
}

func (r *WalletRepo) Debit(_ context.Context, tx pgx.Tx, clientID uuid.UUID, amount decimal.Decimal, requireFunds bool) (*domain.Wallet, error) {
	if err := r.s.checkTx(tx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(FaultWalletDebit); err != nil {
		return nil, err
	}
	w, ok := r.s.wallets[clientID]
	if !ok {
		return nil, nil
	}
	if requireFunds && w.Balance.LessThan(amount) {
		return nil, ports.ErrInsufficientBalance
	}
	w.Balance = w.Balance.Sub(amount)
	w.UpdatedAt = time.Now().UTC()
	r.s.wallets[clientID] = w
	return &w, nil
}

func (r *LedgerRepo) Append(_ context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	if err := r.s.checkTx(tx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(FaultLedgerAppend); err != nil {
		return err
	}
	r.s.entries = append(r.s.entries, *e)
	return nil
}

func (r *LedgerRepo) ListByWallet(_ context.Context, params ports.LedgerListParams) ([]domain.LedgerEntry, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []domain.LedgerEntry
	// walk backwards so equal timestamps keep newest-first order
	for i := len(r.s.entries) - 1; i >= 0; i-- {
		e := r.s.entries[i]
		if e.WalletID != params.WalletID {
			continue
		}
		if params.Direction != nil && e.Direction != *params.Direction {
			continue
		}
		matched = append(matched, e)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (params.Page - 1) * params.PageSize
	if start < 0 || start >= len(matched) {
		return []domain.LedgerEntry{}, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *ReservationRepo) Create(_ context.Context, tx pgx.Tx, res *domain.PaymentReservation) error {
	if err := r.s.checkTx(tx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(FaultReservationCreate); err != nil {
		return err
	}
	r.s.reservations[res.ID] = *res
	return nil
}

func (r *ReservationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.PaymentReservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

// GetRedeemableForUpdate needs no row lock: the caller's unit already
// excludes every other writer.
func (r *ReservationRepo) GetRedeemableForUpdate(_ context.Context, tx pgx.Tx, id uuid.UUID, token string, now time.Time) (*domain.PaymentReservation, error) {
	if err := r.s.checkTx(tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res, ok := r.s.reservations[id]
	if !ok || res.Token != token || !res.IsRedeemable(now) {
		return nil, nil
	}
	return &res, nil
}

func (r *ReservationRepo) MarkConfirmed(_ context.Context, tx pgx.Tx, id uuid.UUID, confirmedAt time.Time) error {
	if err := r.s.checkTx(tx); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(FaultReservationConfirm); err != nil {
		return err
	}
	res, ok := r.s.reservations[id]
	if !ok || res.Status != domain.ReservationPending {
		return fmt.Errorf("mark reservation confirmed: %s is not pending", id)
	}
	res.Status = domain.ReservationConfirmed
	res.ConfirmedAt = &confirmedAt
	r.s.reservations[id] = res
	return nil
}

func (r *ReservationRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	select {
	case r.s.sem <- struct{}{}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	defer func() { <-r.s.sem }()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, res := range r.s.reservations {
		if res.Status == domain.ReservationPending && res.ExpiresAt != nil && !now.Before(*res.ExpiresAt) {
			res.Status = domain.ReservationExpired
			r.s.reservations[id] = res
			n++
		}
	}
	return n, nil
}

func (r *AuditRepo) Create(_ context.Context, log *domain.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audits = append(r.s.audits, *log)
	return nil
}

// List returns all audit logs in insertion order.
func (r *AuditRepo) List() []domain.AuditLog {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.AuditLog(nil), r.s.audits...)
}

func (r *NotificationRepo) Create(_ context.Context, d *domain.NotificationDelivery) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.deliveries[d.ID] = *d
	return nil
}

func (r *NotificationRepo) Update(_ context.Context, d *domain.NotificationDelivery) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.deliveries[d.ID]; !ok {
		return fmt.Errorf("update notification delivery: %s not found", d.ID)
	}
	d.UpdatedAt = time.Now().UTC()
	r.s.deliveries[d.ID] = *d
	return nil
}

func (r *NotificationRepo) ListByReservation(_ context.Context, reservationID uuid.UUID) ([]domain.NotificationDelivery, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.NotificationDelivery
	for _, d := range r.s.deliveries {
		if d.ReservationID == reservationID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
