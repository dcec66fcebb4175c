package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var _ TransactionRepository = (*SQLiteTransactionRepository)(nil)

const (
	sqliteInsertQuery = `
		INSERT INTO transactions (
			id, tx_datetime, yyyy_mm_dd, merchant, amount, currency,
			card_or_account, method, type, category, raw_text, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	sqliteListByDateQuery = `
		SELECT id, tx_datetime, yyyy_mm_dd, merchant, amount, currency,
		       card_or_account, method, type, category, raw_text, created_at
		FROM transactions
		WHERE yyyy_mm_dd = ?
		ORDER BY tx_datetime DESC, created_at DESC
	`

	sqliteTotalByDateQuery = `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE yyyy_mm_dd = ?`

	sqliteCategoryTotalsQuery = `
		SELECT category, COALESCE(SUM(amount), 0) AS s, COUNT(*) AS c
		FROM transactions
		WHERE yyyy_mm_dd = ?
		GROUP BY category
		ORDER BY s DESC
	`
)

// SQLiteTransactionRepository implements TransactionRepository on a single-connection
// SQLite database, which serializes all writes.
type SQLiteTransactionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteTransactionRepository wraps an open SQLite handle; see db.OpenSQLite.
func NewSQLiteTransactionRepository(db *sql.DB) *SQLiteTransactionRepository {
	return &SQLiteTransactionRepository{db: db, now: time.Now}
}

// Insert stores a single transaction.
func (r *SQLiteTransactionRepository) Insert(ctx context.Context, tx *Transaction) error {
	prepare(tx, r.now().UTC())

	if _, err := r.db.ExecContext(ctx, sqliteInsertQuery, insertArgs(tx)...); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// BulkInsert stores txs in one database transaction; either all rows land or none do.
func (r *SQLiteTransactionRepository) BulkInsert(ctx context.Context, txs []*Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = dbTx.Rollback()
	}()

	stmt, err := dbTx.PrepareContext(ctx, sqliteInsertQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := r.now().UTC()
	for i, tx := range txs {
		prepare(tx, now)
		if _, err := stmt.ExecContext(ctx, insertArgs(tx)...); err != nil {
			return 0, fmt.Errorf("failed to insert transaction %d: %w", i, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit bulk insert: %w", err)
	}
	return len(txs), nil
}

// ListByDate returns every transaction stored under date.
func (r *SQLiteTransactionRepository) ListByDate(ctx context.Context, date string) ([]*Transaction, error) {
	rows, err := r.db.QueryContext(ctx, sqliteListByDateQuery, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(
			&tx.ID, &tx.TxDatetime, &tx.YyyyMmDd, &tx.Merchant, &tx.Amount, &tx.Currency,
			&tx.CardOrAccount, &tx.Method, &tx.Type, &tx.Category, &tx.RawText, &tx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}

// TotalByDate sums the signed amounts stored under date.
func (r *SQLiteTransactionRepository) TotalByDate(ctx context.Context, date string) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, sqliteTotalByDateQuery, date).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total, nil
}

// CategoryTotals groups the day's amounts by category.
func (r *SQLiteTransactionRepository) CategoryTotals(ctx context.Context, date string) ([]CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, sqliteCategoryTotalsQuery, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Sum, &ct.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category totals: %w", err)
	}
	return totals, nil
}

// Health pings the database.
func (r *SQLiteTransactionRepository) Health(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func insertArgs(tx *Transaction) []any {
	return []any{
		tx.ID.String(), tx.TxDatetime, tx.YyyyMmDd, tx.Merchant, tx.Amount, tx.Currency,
		tx.CardOrAccount, tx.Method, tx.Type, tx.Category, tx.RawText, tx.CreatedAt,
	}
}
