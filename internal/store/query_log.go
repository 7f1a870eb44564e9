package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// QueryType classifies a query log record.
type QueryType string

const (
	QueryContact          QueryType = "contact"
	QueryQuote            QueryType = "quote"
	QueryPriceCalculation QueryType = "price_calculation"
)

// QueryRecord is an append-only log entry for a price calculation or a lead.
type QueryRecord struct {
	ID        string          `json:"id"`
	Type      QueryType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// QueryLog appends, lists and clears query records stored as one JSON array.
type QueryLog struct {
	kv     KV
	logger *otelzap.Logger
	now    func() time.Time
	newID  func() string

	// Serializes read-modify-write of the array.
	mu sync.Mutex
}

// NewQueryLog creates a query log over kv.
func NewQueryLog(kv KV, logger *otelzap.Logger) *QueryLog {
	return &QueryLog{
		kv:     kv,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return "query_" + uuid.NewString() },
	}
}

// WithClock overrides the timestamp source. Intended for tests.
func (l *QueryLog) WithClock(now func() time.Time) *QueryLog {
	l.now = now
	return l
}

// Append stores payload as a new record and returns it.
func (l *QueryLog) Append(ctx context.Context, typ QueryType, payload interface{}) (QueryRecord, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return QueryRecord{}, fmt.Errorf("encoding %s payload: %w", typ, err)
	}

	rec := QueryRecord{
		ID:        l.newID(),
		Type:      typ,
		Timestamp: l.now(),
		Data:      data,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return QueryRecord{}, err
	}
	records = append(records, rec)

	raw, err := json.Marshal(records)
	if err != nil {
		return QueryRecord{}, fmt.Errorf("encoding query log: %w", err)
	}
	if err := l.kv.Put(ctx, KeyQueries, raw); err != nil {
		return QueryRecord{}, fmt.Errorf("saving query log: %w", err)
	}
	return rec, nil
}

// List returns all records in append order. A missing or corrupt log reads
// as empty.
func (l *QueryLog) List(ctx context.Context) ([]QueryRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// Clear deletes every record.
func (l *QueryLog) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.kv.Delete(ctx, KeyQueries); err != nil {
		return fmt.Errorf("clearing query log: %w", err)
	}
	return nil
}

func (l *QueryLog) load(ctx context.Context) ([]QueryRecord, error) {
	raw, ok, err := l.kv.Get(ctx, KeyQueries)
	if err != nil {
		return nil, fmt.Errorf("reading query log: %w", err)
	}
	if !ok {
		return []QueryRecord{}, nil
	}
	var records []QueryRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		l.logger.Ctx(ctx).Warn("Query log is corrupt, treating as empty", zap.Error(err))
		return []QueryRecord{}, nil
	}
	return records, nil
}
