package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/card-alert-ledger/internal/domain/common"
	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/parser"
	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/repository"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Insert(ctx context.Context, tx *repository.Transaction) error {
	args := m.Called(ctx, tx)
	if args.Error(0) == nil {
		tx.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockRepo) BulkInsert(ctx context.Context, txs []*repository.Transaction) (int, error) {
	args := m.Called(ctx, txs)
	if fn, ok := args.Get(0).(func([]*repository.Transaction) int); ok {
		return fn(txs), args.Error(1)
	}
	return args.Int(0), args.Error(1)
}

func (m *mockRepo) ListByDate(ctx context.Context, date string) ([]*repository.Transaction, error) {
	args := m.Called(ctx, date)
	txs, _ := args.Get(0).([]*repository.Transaction)
	return txs, args.Error(1)
}

func (m *mockRepo) TotalByDate(ctx context.Context, date string) (int64, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) CategoryTotals(ctx context.Context, date string) ([]repository.CategoryTotal, error) {
	args := m.Called(ctx, date)
	totals, _ := args.Get(0).([]repository.CategoryTotal)
	return totals, args.Error(1)
}

func (m *mockRepo) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newTestService(repo repository.TransactionRepository, cfg Config) *IngestService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewIngestService(parser.NewEngine(), repo, logger, cfg)
}

func TestIngestService_Preview(t *testing.T) {
	svc := newTestService(&mockRepo{}, Config{DefaultYear: 2024})

	rec := svc.Preview("[현대카드] 10/07 13:45 12,300원 일시불 CU당산점 승인", 0)
	assert.Equal(t, "2024-10-07 13:45:00", rec.TxDatetime)
	assert.Equal(t, "CU당산점", rec.Merchant)

	rec = svc.Preview("[현대카드] 10/07 13:45 12,300원 일시불 CU당산점 승인", 2023)
	assert.Equal(t, "2023-10-07", rec.YyyyMmDd)
}

func TestIngestService_Ingest(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, Config{})

	repo.On("Insert", mock.Anything, mock.MatchedBy(func(tx *repository.Transaction) bool {
		return tx.Merchant == "배달의민족" && tx.Amount == -18000 && tx.Type == parser.TypeCancellation
	})).Return(nil).Once()

	tx, err := svc.Ingest(context.Background(), "[현대카드] 10/06 19:05 18,000원 취소 배달의민족", 2024)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, tx.ID)
	assert.Equal(t, "2024-10-06", tx.YyyyMmDd)
	repo.AssertExpectations(t)
}

func TestIngestService_Ingest_Empty(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, Config{})

	_, err := svc.Ingest(context.Background(), "  \n\t ", 2024)
	assert.ErrorIs(t, err, common.ErrBadRequest)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestIngestService_Ingest_Undated(t *testing.T) {
	repo := &mockRepo{}

	strict := newTestService(repo, Config{RequireDate: true})
	_, err := strict.Ingest(context.Background(), "hello world", 2024)
	assert.ErrorIs(t, err, common.ErrUndated)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)

	repo.On("Insert", mock.Anything, mock.Anything).Return(nil).Once()
	lenient := newTestService(repo, Config{})
	tx, err := lenient.Ingest(context.Background(), "hello world", 2024)
	require.NoError(t, err)
	assert.Equal(t, "", tx.YyyyMmDd)
	assert.Equal(t, "hello world", tx.RawText)
	repo.AssertExpectations(t)
}

func TestIngestService_Ingest_RepoError(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, Config{})
	dbErr := errors.New("disk full")
	repo.On("Insert", mock.Anything, mock.Anything).Return(dbErr).Once()

	_, err := svc.Ingest(context.Background(), "[현대카드] 10/07 13:45 12,300원 일시불 CU당산점 승인", 2024)
	assert.ErrorIs(t, err, dbErr)
}

func TestIngestService_IngestBatch_OrderAndBlanks(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, Config{})

	lines := []string{
		SeedNotifications[0],
		"",
		SeedNotifications[1],
		"   ",
		SeedNotifications[2],
		SeedNotifications[3],
		SeedNotifications[4],
	}

	var stored []*repository.Transaction
	repo.On("BulkInsert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).([]*repository.Transaction)
		}).
		Return(5, nil).Once()

	result, err := svc.IngestBatch(context.Background(), lines, 2024)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Inserted)
	assert.Equal(t, 2, result.Skipped)
	assert.Empty(t, result.Errors)

	require.Len(t, stored, 5)
	for i, raw := range SeedNotifications {
		assert.Equal(t, raw, stored[i].RawText)
		assert.Equal(t, parser.Parse(raw, 2024), result.Entries[i])
	}
	repo.AssertExpectations(t)
}

func TestIngestService_IngestBatch_Large(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, Config{})

	lines := make([]string, 1200)
	for i := range lines {
		lines[i] = fmt.Sprintf("[신한카드] 10/07 08:12 %d원 카카오T 승인", i+1)
	}

	var amounts []int64
	repo.On("BulkInsert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			for _, tx := range args.Get(1).([]*repository.Transaction) {
				amounts = append(amounts, tx.Amount)
			}
		}).
		Return(func(txs []*repository.Transaction) int { return len(txs) }, nil)

	result, err := svc.IngestBatch(context.Background(), lines, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1200, result.Inserted)
	repo.AssertNumberOfCalls(t, "BulkInsert", 3)

	require.Len(t, amounts, 1200)
	for i, amount := range amounts {
		if amount != int64(i+1) {
			t.Fatalf("line %d stored out of order: amount %d", i, amount)
		}
	}
}

func TestIngestService_IngestBatch_Limit(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, Config{BatchLimit: 2})

	_, err := svc.IngestBatch(context.Background(), SeedNotifications, 2024)
	assert.ErrorIs(t, err, common.ErrBadRequest)
	repo.AssertNotCalled(t, "BulkInsert", mock.Anything, mock.Anything)

	// blank lines do not count toward the limit
	repo.On("BulkInsert", mock.Anything, mock.Anything).Return(2, nil).Once()
	result, err := svc.IngestBatch(context.Background(), []string{"", SeedNotifications[0], "", SeedNotifications[1]}, 2024)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
}

func TestIngestService_IngestBatch_RequireDate(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, Config{RequireDate: true})

	repo.On("BulkInsert", mock.Anything, mock.MatchedBy(func(txs []*repository.Transaction) bool {
		return len(txs) == 1
	})).Return(1, nil).Once()

	result, err := svc.IngestBatch(context.Background(), []string{"hello world", SeedNotifications[0]}, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "line 1")
	repo.AssertExpectations(t)
}

func TestIngestService_IngestBatch_AllBlank(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, Config{})

	result, err := svc.IngestBatch(context.Background(), []string{"", " "}, 2024)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 2, result.Skipped)
	repo.AssertNotCalled(t, "BulkInsert", mock.Anything, mock.Anything)
}

func TestIngestService_IngestBatch_Cancelled(t *testing.T) {
	svc := newTestService(&mockRepo{}, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.IngestBatch(ctx, SeedNotifications, 2024)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestService_Seed(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, Config{DefaultYear: 2024})

	repo.On("BulkInsert", mock.Anything, mock.MatchedBy(func(txs []*repository.Transaction) bool {
		return len(txs) == 5 && txs[4].Category == "카페" && txs[3].Amount == -18000
	})).Return(5, nil).Once()

	n, err := svc.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	repo.AssertExpectations(t)
}

func TestIngestService_DayView(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, Config{})

	rows := []*repository.Transaction{{Merchant: "CU당산점", Amount: 12300}}
	repo.On("ListByDate", mock.Anything, "2024-10-07").Return(rows, nil).Once()
	repo.On("TotalByDate", mock.Anything, "2024-10-07").Return(int64(12300), nil).Once()
	repo.On("CategoryTotals", mock.Anything, "2024-10-07").Return(nil, nil).Once()

	view, err := svc.DayView(context.Background(), "2024-10-07")
	require.NoError(t, err)
	assert.Equal(t, "2024-10-07", view.Date)
	assert.Equal(t, rows, view.Transactions)
	assert.Equal(t, int64(12300), view.Total)
	assert.NotNil(t, view.CategoryTotals)
	repo.AssertExpectations(t)
}

func TestIngestService_DayView_DefaultsToTodayInSeoul(t *testing.T) {
	repo := &mockRepo{}
	kst := time.FixedZone("KST", 9*60*60)
	svc := NewIngestService(parser.NewEngine(parser.WithLocation(kst)), repo, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{})
	// 16:00 UTC is already the next day in Seoul
	svc.now = func() time.Time { return time.Date(2024, 10, 6, 16, 0, 0, 0, time.UTC) }

	repo.On("ListByDate", mock.Anything, "2024-10-07").Return(nil, nil).Once()
	repo.On("TotalByDate", mock.Anything, "2024-10-07").Return(int64(0), nil).Once()
	repo.On("CategoryTotals", mock.Anything, "2024-10-07").Return(nil, nil).Once()

	view, err := svc.DayView(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "2024-10-07", view.Date)
	assert.Empty(t, view.Transactions)
	assert.NotNil(t, view.Transactions)
	repo.AssertExpectations(t)
}

func TestIngestService_DayView_BadDate(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, Config{})

	for _, date := range []string{"2024/10/07", "yesterday", "2024-13-01"} {
		_, err := svc.DayView(context.Background(), date)
		assert.ErrorIs(t, err, common.ErrBadRequest, date)
	}
	repo.AssertNotCalled(t, "ListByDate", mock.Anything, mock.Anything)
}
