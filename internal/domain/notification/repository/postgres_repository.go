package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool abstracts the subset of pgxpool.Pool used by the repository to allow mocking in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Ping(ctx context.Context) error
}

var (
	_ PgxPool               = (*pgxpool.Pool)(nil)
	_ TransactionRepository = (*PostgresTransactionRepository)(nil)
)

var transactionColumns = []string{
	"id", "tx_datetime", "yyyy_mm_dd", "merchant", "amount", "currency",
	"card_or_account", "method", "type", "category", "raw_text", "created_at",
}

const (
	insertTransactionQuery = `
		INSERT INTO transactions (
			id, tx_datetime, yyyy_mm_dd, merchant, amount, currency,
			card_or_account, method, type, category, raw_text, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	listByDateQuery = `
		SELECT id, tx_datetime, yyyy_mm_dd, merchant, amount, currency,
		       card_or_account, method, type, category, raw_text, created_at
		FROM transactions
		WHERE yyyy_mm_dd = $1
		ORDER BY tx_datetime DESC, created_at DESC
	`

	totalByDateQuery = `SELECT COALESCE(SUM(amount), 0)::BIGINT FROM transactions WHERE yyyy_mm_dd = $1`

	categoryTotalsQuery = `
		SELECT category, COALESCE(SUM(amount), 0)::BIGINT AS s, COUNT(*) AS c
		FROM transactions
		WHERE yyyy_mm_dd = $1
		GROUP BY category
		ORDER BY s DESC
	`
)

// PostgresTransactionRepository implements TransactionRepository using PostgreSQL
type PostgresTransactionRepository struct {
	pool PgxPool
	now  func() time.Time
}

// NewPostgresTransactionRepository creates a new PostgreSQL-backed transaction repository
func NewPostgresTransactionRepository(pool PgxPool) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{pool: pool, now: time.Now}
}

// Insert stores a single transaction
func (r *PostgresTransactionRepository) Insert(ctx context.Context, tx *Transaction) error {
	prepare(tx, r.now().UTC())

	_, err := r.pool.Exec(ctx, insertTransactionQuery,
		tx.ID, tx.TxDatetime, tx.YyyyMmDd, tx.Merchant, tx.Amount, tx.Currency,
		tx.CardOrAccount, tx.Method, tx.Type, tx.Category, tx.RawText, tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// BulkInsert inserts multiple transactions with COPY
func (r *PostgresTransactionRepository) BulkInsert(ctx context.Context, txs []*Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	now := r.now().UTC()
	for _, tx := range txs {
		prepare(tx, now)
	}

	copyCount, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"transactions"},
		transactionColumns,
		pgx.CopyFromSlice(len(txs), func(i int) ([]any, error) {
			tx := txs[i]
			return []any{
				tx.ID, tx.TxDatetime, tx.YyyyMmDd, tx.Merchant, tx.Amount, tx.Currency,
				tx.CardOrAccount, tx.Method, tx.Type, tx.Category, tx.RawText, tx.CreatedAt,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk insert transactions: %w", err)
	}

	return int(copyCount), nil
}

// ListByDate returns every transaction stored under date
func (r *PostgresTransactionRepository) ListByDate(ctx context.Context, date string) ([]*Transaction, error) {
	rows, err := r.pool.Query(ctx, listByDateQuery, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	txs, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Transaction])
	if err != nil {
		return nil, fmt.Errorf("failed to scan transactions: %w", err)
	}
	return txs, nil
}

// TotalByDate sums the signed amounts stored under date
func (r *PostgresTransactionRepository) TotalByDate(ctx context.Context, date string) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, totalByDateQuery, date).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total, nil
}

// CategoryTotals groups the day's amounts by category
func (r *PostgresTransactionRepository) CategoryTotals(ctx context.Context, date string) ([]CategoryTotal, error) {
	rows, err := r.pool.Query(ctx, categoryTotalsQuery, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}

	totals, err := pgx.CollectRows(rows, pgx.RowToStructByName[CategoryTotal])
	if err != nil {
		return nil, fmt.Errorf("failed to scan category totals: %w", err)
	}
	return totals, nil
}

// Health pings the database
func (r *PostgresTransactionRepository) Health(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
