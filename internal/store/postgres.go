package store

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// documentRow is the single-table layout the Postgres store keeps
// documents in. One row per document, full body in a JSONB column.
type documentRow struct {
	Collection string    `gorm:"primaryKey;type:varchar(64)"`
	ID         string    `gorm:"primaryKey;type:varchar(64);column:id"`
	Data       []byte    `gorm:"type:jsonb;not null"`
	UpdatedAt  time.Time `gorm:"index"`
}

func (documentRow) TableName() string { return "documents" }

// PostgresStore implements DocumentStore over a GORM/Postgres
// connection. Subscriptions are polled: the store re-runs the page
// query on an interval and notifies only when the result set changed.
type PostgresStore struct {
	db           *gorm.DB
	pollInterval time.Duration

	mu     sync.Mutex
	cancel []context.CancelFunc
}

// NewPostgresStore migrates the documents table and returns the store.
func NewPostgresStore(db *gorm.DB, pollInterval time.Duration) (*PostgresStore, error) {
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &PostgresStore{db: db, pollInterval: pollInterval}, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (p *PostgresStore) Add(ctx context.Context, collection string, doc json.RawMessage) (string, error) {
	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		return "", err
	}
	id, _ := fields["id"].(string)
	if id == "" {
		id = uuid.NewString()
		fields["id"] = id
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	row := documentRow{Collection: collection, ID: id, Data: body, UpdatedAt: time.Now().UTC()}
	if err := p.db.WithContext(ctx).Save(&row).Error; err != nil {
		return "", err
	}
	return id, nil
}

func (p *PostgresStore) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	// JSONB concatenation merges top-level fields: last write wins.
	res := p.db.WithContext(ctx).Model(&documentRow{}).
		Where("collection = ? AND id = ?", collection, id).
		Updates(map[string]any{
			"data":       gorm.Expr("data || ?::jsonb", string(patchJSON)),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var row documentRow
	err := p.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return Document{ID: row.ID, Data: row.Data}, nil
}

func (p *PostgresStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	tx := p.db.WithContext(ctx).Model(&documentRow{}).Where("collection = ?", collection)
	for _, f := range q.Filters {
		op, err := sqlOp(f.Op)
		if err != nil {
			return nil, err
		}
		tx = tx.Where(fmt.Sprintf("data->>'%s' %s ?", sanitizeField(f.Field), op), f.Value)
	}
	if q.OrderBy != "" {
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		tx = tx.Order(fmt.Sprintf("data->>'%s' %s", sanitizeField(q.OrderBy), dir))
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var rows []documentRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, Document{ID: r.ID, Data: r.Data})
	}
	return docs, nil
}

// Subscribe polls the page query. Change detection hashes the full
// serialized page, so reorderings and in-place updates both notify.
func (p *PostgresStore) Subscribe(ctx context.Context, collection string, q Query, onChange func([]Document)) (func(), error) {
	subCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = append(p.cancel, cancel)
	p.mu.Unlock()

	initial, err := p.Query(subCtx, collection, q)
	if err != nil {
		cancel()
		return nil, err
	}
	onChange(initial)
	lastHash := pageHash(initial)

	go func() {
		ticker := time.NewTicker(p.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-subCtx.Done():
				return
			case <-ticker.C:
				docs, err := p.Query(subCtx, collection, q)
				if err != nil {
					log.Warn().Str("collection", collection).Err(err).Msg("store: subscription poll failed")
					continue
				}
				h := pageHash(docs)
				if h != lastHash {
					lastHash = h
					onChange(docs)
				}
			}
		}
	}()

	return cancel, nil
}

// Close tears down every live subscription.
func (p *PostgresStore) Close() {
	p.mu.Lock()
	cancels := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	for _, c := range cancels {
		c()
	}
}

func sqlOp(op string) (string, error) {
	switch op {
	case "==":
		return "=", nil
	case ">=", "<=":
		return op, nil
	default:
		return "", fmt.Errorf("unsupported filter op %q", op)
	}
}

// sanitizeField guards the interpolated JSONB path. Field names are
// code-controlled, this is belt and braces against a stray quote.
func sanitizeField(field string) string {
	return strings.Map(func(r rune) rune {
		if r == '\'' || r == '"' || r == ';' {
			return -1
		}
		return r
	}, field)
}

func pageHash(docs []Document) string {
	h := sha256.New()
	for _, d := range docs {
		h.Write([]byte(d.ID))
		h.Write(d.Data)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
