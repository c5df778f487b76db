// Package memory is an in-process implementation of the ledger store used
// for local runs (database.driver=memory) and tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type clientKey struct {
	document string
	phone    string
}

// Store holds all ledger state. Units of work started with Begin run one at
// a time, and Rollback restores the state captured at Begin.
type Store struct {
	sem chan struct{}

	mu           sync.RWMutex
	clients      map[uuid.UUID]domain.Client
	clientKeys   map[clientKey]uuid.UUID
	wallets      map[uuid.UUID]domain.Wallet // keyed by client id
	entries      []domain.LedgerEntry
	reservations map[uuid.UUID]domain.PaymentReservation
	audits       []domain.AuditLog
	deliveries   map[uuid.UUID]domain.NotificationDelivery

	faults map[string]error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sem:          make(chan struct{}, 1),
		clients:      make(map[uuid.UUID]domain.Client),
		clientKeys:   make(map[clientKey]uuid.UUID),
		wallets:      make(map[uuid.UUID]domain.Wallet),
		reservations: make(map[uuid.UUID]domain.PaymentReservation),
		deliveries:   make(map[uuid.UUID]domain.NotificationDelivery),
		faults:       make(map[string]error),
	}
}

// Fault points accepted by FailNext.
const (
	FaultClientCreate       = "client.create"
	FaultWalletCreate       = "wallet.create"
	FaultWalletCredit       = "wallet.credit"
	FaultWalletDebit        = "wallet.debit"
	FaultLedgerAppend       = "ledger.append"
	FaultReservationCreate  = "reservation.create"
	FaultReservationConfirm = "reservation.confirm"
)

// FailNext makes the next call at the given fault point return err.
func (s *Store) FailNext(point string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[point] = err
}

// fault must be called with mu held for writing.
func (s *Store) fault(point string) error {
	if err, ok := s.faults[point]; ok {
		delete(s.faults, point)
		return err
	}
	return nil
}

// Ping implements ports.HealthChecker.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Name() string { return "memory" }

// Begin implements ports.DBTransactor.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.RLock()
	snap := s.snapshot()
	s.mu.RUnlock()

	return &unit{store: s, snap: snap}, nil
}

type snapshot struct {
	clients      map[uuid.UUID]domain.Client
	clientKeys   map[clientKey]uuid.UUID
	wallets      map[uuid.UUID]domain.Wallet
	entries      int
	reservations map[uuid.UUID]domain.PaymentReservation
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		clients:      cloneMap(s.clients),
		clientKeys:   cloneMap(s.clientKeys),
		wallets:      cloneMap(s.wallets),
		entries:      len(s.entries),
		reservations: cloneMap(s.reservations),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = snap.clients
	s.clientKeys = snap.clientKeys
	s.wallets = snap.wallets
	s.entries = s.entries[:snap.entries]
	s.reservations = snap.reservations
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var errForeignTx = errors.New("memory: transaction does not belong to this store")

// unit is the pgx.Tx handed out by Begin. Only Commit and Rollback are
// implemented; repositories never issue SQL through it.
type unit struct {
	pgx.Tx
	store *Store
	snap  snapshot
	done  bool
}

func (u *unit) Commit(context.Context) error {
	if u.done {
		return pgx.ErrTxClosed
	}
	u.done = true
	<-u.store.sem
	return nil
}

func (u *unit) Rollback(context.Context) error {
	if u.done {
		return pgx.ErrTxClosed
	}
	u.done = true
	u.store.restore(u.snap)
	<-u.store.sem
	return nil
}

func (s *Store) checkTx(tx pgx.Tx) error {
	u, ok := tx.(*unit)
	if !ok || u.store != s || u.done {
		return errForeignTx
	}
	return nil
}
