package parser

import (
	"time"

	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/category"
)

// Record is the canonical transaction produced from one notification.
type Record struct {
	TxDatetime    string `json:"tx_datetime"`
	YyyyMmDd      string `json:"yyyy_mm_dd"`
	Merchant      string `json:"merchant"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	CardOrAccount string `json:"card_or_account"`
	Method        string `json:"method"`
	Type          string `json:"type"`
	Category      string `json:"category"`
	RawText       string `json:"raw_text"`
}

// IsCancellation reports whether the record reverses an earlier approval.
func (r Record) IsCancellation() bool {
	return r.Type == TypeCancellation
}

// Engine assembles records. Its configuration is fixed at construction, so a single
// Engine may be shared by any number of goroutines.
type Engine struct {
	classifier *category.Classifier
	loc        *time.Location
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClassifier replaces the default category rules.
func WithClassifier(c *category.Classifier) Option {
	return func(e *Engine) {
		if c != nil {
			e.classifier = c
		}
	}
}

// WithLocation sets the zone used to decide the current year.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine with the default rules in Asia/Seoul unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		classifier: category.Default(),
		loc:        seoul(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Parse converts raw notification text into a Record. defaultYear <= 0 means the
// current year in the engine's location. Parse never fails: fields that cannot be
// extracted are left at their zero or documented default.
func (e *Engine) Parse(raw string, defaultYear int) Record {
	text := Normalize(raw)

	if defaultYear <= 0 {
		defaultYear = e.now().In(e.loc).Year()
	}

	rec := Record{
		Currency:      Currency,
		CardOrAccount: ExtractBrand(text),
		Method:        ClassifyMethod(text),
		Type:          TypeApproval,
		RawText:       raw,
	}

	if ts, ok := ExtractTimestamp(text, defaultYear); ok {
		rec.TxDatetime = ts.Format(datetimeLayout)
		rec.YyyyMmDd = ts.Format(dateLayout)
	}

	amount, _ := ExtractAmount(text)
	if IsCancellation(text) {
		if amount > 0 {
			amount = -amount
		}
		rec.Type = TypeCancellation
	}
	rec.Amount = amount

	rec.Merchant = ExtractMerchant(text)
	rec.Category = e.classifier.Classify(rec.Merchant)

	return rec
}

// Location returns the zone the engine resolves the current year in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

var defaultEngine = NewEngine()

// Parse uses a shared engine with the default rules.
func Parse(raw string, defaultYear int) Record {
	return defaultEngine.Parse(raw, defaultYear)
}

func seoul() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.UTC
	}
	return loc
}
