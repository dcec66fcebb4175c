// Package service turns raw notification text into stored transactions.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/card-alert-ledger/internal/domain/common"
	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/parser"
	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/repository"
	"github.com/FACorreiaa/card-alert-ledger/pkg/observability"
)

const (
	dateLayout      = "2006-01-02"
	insertBatchSize = 500
)

// SeedNotifications are inserted by Seed.
var SeedNotifications = []string{
	"[현대카드] 10/07 13:45 12,300원 일시불 CU당산점 승인",
	"[신한카드] 10/07 08:12 5,500원 카카오T 서울택시 승인",
	"[국민카드] 10/06 19:03 18,000원 일시불 배달의민족 승인",
	"[현대카드] 10/06 19:05 18,000원 취소 배달의민족",
	"[STARBUCKS] 10/05 09:10 4,800원 일시불 STARBUCKS 영등포 승인",
}

// Config tunes ingestion.
type Config struct {
	// DefaultYear applies when a caller passes year <= 0; 0 means the current year.
	DefaultYear int
	// RequireDate rejects notifications without a timestamp.
	RequireDate bool
	// BatchLimit caps the non-blank lines accepted by IngestBatch; 0 means unlimited.
	BatchLimit int
}

// BatchResult summarizes an IngestBatch call.
type BatchResult struct {
	Inserted int             `json:"inserted"`
	Skipped  int             `json:"skipped"`
	Errors   []string        `json:"errors"`
	Entries  []parser.Record `json:"entries"`
}

// DayView is one day's ledger.
type DayView struct {
	Date           string                     `json:"date"`
	Transactions   []*repository.Transaction  `json:"transactions"`
	Total          int64                      `json:"total"`
	CategoryTotals []repository.CategoryTotal `json:"category_totals"`
}

// IngestService orchestrates parsing and persistence of notifications.
type IngestService struct {
	engine *parser.Engine
	repo   repository.TransactionRepository
	logger *slog.Logger
	tracer trace.Tracer
	cfg    Config
	now    func() time.Time
}

type parseJob struct {
	index int
	raw   string
}

type parseResult struct {
	index  int
	record parser.Record
}

// NewIngestService creates a new ingest service
func NewIngestService(engine *parser.Engine, repo repository.TransactionRepository, logger *slog.Logger, cfg Config) *IngestService {
	if engine == nil {
		engine = parser.NewEngine()
	}
	return &IngestService{
		engine: engine,
		repo:   repo,
		logger: logger,
		tracer: otel.Tracer("ledger/notification/service"),
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *IngestService) year(year int) int {
	if year > 0 {
		return year
	}
	return s.cfg.DefaultYear
}

// Preview parses raw without storing it.
func (s *IngestService) Preview(raw string, year int) parser.Record {
	return s.engine.Parse(raw, s.year(year))
}

// Ingest parses raw and stores the resulting transaction.
func (s *IngestService) Ingest(ctx context.Context, raw string, year int) (*repository.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "IngestService.Ingest")
	defer span.End()
	l := s.logger.With(slog.String("method", "Ingest"))

	if strings.TrimSpace(raw) == "" {
		span.SetStatus(codes.Error, "empty notification")
		return nil, fmt.Errorf("%w: raw_text is required", common.ErrBadRequest)
	}

	rec := s.engine.Parse(raw, s.year(year))
	recordMetrics(rec)

	if s.cfg.RequireDate && rec.YyyyMmDd == "" {
		l.WarnContext(ctx, "rejected undated notification")
		span.SetStatus(codes.Error, "undated")
		return nil, common.ErrUndated
	}

	tx := repository.FromRecord(rec)
	if err := s.repo.Insert(ctx, tx); err != nil {
		l.ErrorContext(ctx, "failed to store transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, fmt.Errorf("failed to store transaction: %w", err)
	}

	span.SetAttributes(
		attribute.String("transaction.id", tx.ID.String()),
		attribute.String("transaction.type", tx.Type),
	)
	l.InfoContext(ctx, "transaction stored",
		slog.String("id", tx.ID.String()),
		slog.String("date", tx.YyyyMmDd),
		slog.String("type", tx.Type),
		slog.Int64("amount", tx.Amount))
	return tx, nil
}

// IngestBatch parses one notification per line and stores them. Blank lines are
// skipped; output order follows input order.
func (s *IngestService) IngestBatch(ctx context.Context, lines []string, year int) (*BatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "IngestService.IngestBatch")
	defer span.End()
	l := s.logger.With(slog.String("method", "IngestBatch"))

	jobs := make([]parseJob, 0, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		jobs = append(jobs, parseJob{index: i, raw: line})
	}

	result := &BatchResult{
		Skipped: len(lines) - len(jobs),
		Errors:  []string{},
		Entries: []parser.Record{},
	}
	if s.cfg.BatchLimit > 0 && len(jobs) > s.cfg.BatchLimit {
		span.SetStatus(codes.Error, "batch too large")
		return nil, fmt.Errorf("%w: %d notifications exceeds the batch limit of %d",
			common.ErrBadRequest, len(jobs), s.cfg.BatchLimit)
	}

	parseCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	records := make([]parser.Record, len(lines))
	parsed := make([]bool, len(lines))
	for res := range s.parseStream(parseCtx, jobs, s.year(year)) {
		records[res.index] = res.record
		parsed[res.index] = true
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txs := make([]*repository.Transaction, 0, len(jobs))
	for i, rec := range records {
		if !parsed[i] {
			continue
		}
		recordMetrics(rec)
		if s.cfg.RequireDate && rec.YyyyMmDd == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", i+1, common.ErrUndated))
			continue
		}
		result.Entries = append(result.Entries, rec)
		txs = append(txs, repository.FromRecord(rec))
	}

	for start := 0; start < len(txs); start += insertBatchSize {
		end := min(start+insertBatchSize, len(txs))
		n, err := s.repo.BulkInsert(ctx, txs[start:end])
		if err != nil {
			l.ErrorContext(ctx, "failed to store batch",
				slog.Int("inserted", result.Inserted), slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "bulk insert failed")
			return nil, fmt.Errorf("failed to store transactions: %w", err)
		}
		result.Inserted += n
	}

	span.SetAttributes(
		attribute.Int("batch.inserted", result.Inserted),
		attribute.Int("batch.skipped", result.Skipped),
	)
	l.InfoContext(ctx, "batch stored",
		slog.Int("lines", len(lines)),
		slog.Int("inserted", result.Inserted),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

// parseStream fans jobs out to a worker per CPU. Results arrive in any order.
func (s *IngestService) parseStream(ctx context.Context, jobs []parseJob, year int) <-chan parseResult {
	workerCount := runtime.GOMAXPROCS(0)
	if workerCount < 1 {
		workerCount = 1
	}

	in := make(chan parseJob, workerCount*4)
	out := make(chan parseResult, workerCount*4)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range in {
				rec := s.engine.Parse(job.raw, year)
				select {
				case out <- parseResult{index: job.index, record: rec}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(in)
		for _, job := range jobs {
			select {
			case in <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// Seed stores the sample notifications.
func (s *IngestService) Seed(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "IngestService.Seed")
	defer span.End()

	txs := make([]*repository.Transaction, 0, len(SeedNotifications))
	for _, raw := range SeedNotifications {
		rec := s.engine.Parse(raw, s.cfg.DefaultYear)
		recordMetrics(rec)
		txs = append(txs, repository.FromRecord(rec))
	}

	n, err := s.repo.BulkInsert(ctx, txs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "seed failed")
		return 0, fmt.Errorf("failed to seed transactions: %w", err)
	}
	s.logger.InfoContext(ctx, "seeded sample transactions", slog.String("method", "Seed"), slog.Int("added", n))
	return n, nil
}

// DayView returns the transactions, total and per-category totals for date
// (YYYY-MM-DD). An empty date means today in the engine's location.
func (s *IngestService) DayView(ctx context.Context, date string) (*DayView, error) {
	ctx, span := s.tracer.Start(ctx, "IngestService.DayView")
	defer span.End()

	if date == "" {
		date = s.now().In(s.engine.Location()).Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", common.ErrBadRequest)
	}
	span.SetAttributes(attribute.String("ledger.date", date))

	txs, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	total, err := s.repo.TotalByDate(ctx, date)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to total transactions: %w", err)
	}
	totals, err := s.repo.CategoryTotals(ctx, date)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to total categories: %w", err)
	}

	if txs == nil {
		txs = []*repository.Transaction{}
	}
	if totals == nil {
		totals = []repository.CategoryTotal{}
	}
	return &DayView{Date: date, Transactions: txs, Total: total, CategoryTotals: totals}, nil
}

// Health checks the backing store.
func (s *IngestService) Health(ctx context.Context) error {
	return s.repo.Health(ctx)
}

func recordMetrics(rec parser.Record) {
	var missing []string
	if rec.YyyyMmDd == "" {
		missing = append(missing, "datetime")
	}
	if rec.Merchant == "" {
		missing = append(missing, "merchant")
	}
	if rec.Amount == 0 {
		missing = append(missing, "amount")
	}
	if rec.CardOrAccount == "" {
		missing = append(missing, "card_or_account")
	}
	if rec.Category == "" {
		missing = append(missing, "category")
	}
	observability.RecordParsed(rec.Type, missing...)
}
