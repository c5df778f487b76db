package postgres

import (
	"context"
	"fmt"
	"strings"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// LedgerRepo implements ports.LedgerRepository over the transacciones table.
// Rows are only ever inserted.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// tipo_transaccion keeps the values of the original schema.
const (
	tipoIngreso = "ingreso"
	tipoEgreso  = "egreso"
)

func tipoFromDirection(d domain.EntryDirection) string {
	if d == domain.EntryDebit {
		return tipoEgreso
	}
	return tipoIngreso
}

func directionFromTipo(tipo string) (domain.EntryDirection, error) {
	switch tipo {
	case tipoIngreso:
		return domain.EntryCredit, nil
	case tipoEgreso:
		return domain.EntryDebit, nil
	default:
		return "", fmt.Errorf("unknown tipo_transaccion %q", tipo)
	}
}

// Append inserts an entry within the transaction that changed the balance.
func (r *LedgerRepo) Append(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	query := `INSERT INTO transacciones (id, billetera_id, tipo_transaccion, monto, saldo_anterior,
		saldo_nuevo, referencia, concepto, fecha_transaccion)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		e.ID, e.WalletID, tipoFromDirection(e.Direction),
		e.Amount.String(), e.BalanceBefore.String(), e.BalanceAfter.String(),
		e.Reference, e.Concept, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// ListByWallet returns a page of a wallet's entries, newest first, and the
// total number of matching entries.
func (r *LedgerRepo) ListByWallet(ctx context.Context, params ports.LedgerListParams) ([]domain.LedgerEntry, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("billetera_id = $%d", argIdx))
	args = append(args, params.WalletID)
	argIdx++

	if params.Direction != nil {
		conditions = append(conditions, fmt.Sprintf("tipo_transaccion = $%d", argIdx))
		args = append(args, tipoFromDirection(*params.Direction))
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transacciones %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ledger entries: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT id, billetera_id, tipo_transaccion, monto::text, saldo_anterior::text,
		saldo_nuevo::text, referencia, concepto, fecha_transaccion
		FROM transacciones %s ORDER BY fecha_transaccion DESC, id DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0, params.PageSize)
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan ledger entry row: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate ledger entry rows: %w", err)
	}
	return entries, total, nil
}

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	e := &domain.LedgerEntry{}
	var tipo, amount, before, after string
	err := row.Scan(&e.ID, &e.WalletID, &tipo, &amount, &before, &after, &e.Reference, &e.Concept, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if e.Direction, err = directionFromTipo(tipo); err != nil {
		return nil, err
	}
	if e.Amount, err = parseMoney("monto", amount); err != nil {
		return nil, err
	}
	if e.BalanceBefore, err = parseMoney("saldo_anterior", before); err != nil {
		return nil, err
	}
	if e.BalanceAfter, err = parseMoney("saldo_nuevo", after); err != nil {
		return nil, err
	}
	return e, nil
}
