// Package repository persists parsed notification records.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/parser"
)

// Transaction is a stored notification record.
type Transaction struct {
	ID            uuid.UUID `db:"id" json:"id"`
	TxDatetime    string    `db:"tx_datetime" json:"tx_datetime"`
	YyyyMmDd      string    `db:"yyyy_mm_dd" json:"yyyy_mm_dd"`
	Merchant      string    `db:"merchant" json:"merchant"`
	Amount        int64     `db:"amount" json:"amount"`
	Currency      string    `db:"currency" json:"currency"`
	CardOrAccount string    `db:"card_or_account" json:"card_or_account"`
	Method        string    `db:"method" json:"method"`
	Type          string    `db:"type" json:"type"`
	Category      string    `db:"category" json:"category"`
	RawText       string    `db:"raw_text" json:"raw_text"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// FromRecord wraps a parsed record for storage. ID and CreatedAt are assigned on insert.
func FromRecord(rec parser.Record) *Transaction {
	return &Transaction{
		TxDatetime:    rec.TxDatetime,
		YyyyMmDd:      rec.YyyyMmDd,
		Merchant:      rec.Merchant,
		Amount:        rec.Amount,
		Currency:      rec.Currency,
		CardOrAccount: rec.CardOrAccount,
		Method:        rec.Method,
		Type:          rec.Type,
		Category:      rec.Category,
		RawText:       rec.RawText,
	}
}

// Record returns the parsed view of the stored row.
func (t *Transaction) Record() parser.Record {
	return parser.Record{
		TxDatetime:    t.TxDatetime,
		YyyyMmDd:      t.YyyyMmDd,
		Merchant:      t.Merchant,
		Amount:        t.Amount,
		Currency:      t.Currency,
		CardOrAccount: t.CardOrAccount,
		Method:        t.Method,
		Type:          t.Type,
		Category:      t.Category,
		RawText:       t.RawText,
	}
}

// CategoryTotal aggregates one day's amounts for a category. Category is "" for
// uncategorized rows.
type CategoryTotal struct {
	Category string `db:"category" json:"category"`
	Sum      int64  `db:"s" json:"sum"`
	Count    int64  `db:"c" json:"count"`
}

// TransactionRepository stores records in a collection keyed by yyyy_mm_dd.
type TransactionRepository interface {
	Insert(ctx context.Context, tx *Transaction) error
	BulkInsert(ctx context.Context, txs []*Transaction) (int, error)

	// ListByDate returns the day's rows, newest transaction time first.
	ListByDate(ctx context.Context, date string) ([]*Transaction, error)
	TotalByDate(ctx context.Context, date string) (int64, error)
	// CategoryTotals groups the day's rows by category, largest sum first.
	CategoryTotals(ctx context.Context, date string) ([]CategoryTotal, error)

	Health(ctx context.Context) error
}

// prepare assigns identity fields left zero by the caller.
func prepare(tx *Transaction, now time.Time) {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
}
