// Package auditexport dumps audit entries to object storage as JSON lines.
package auditexport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
)

const (
	MaxRows     = 5000
	presignTTL  = 15 * time.Minute
	pageSize    = 100
	keyPrefix   = "audit-exports"
	contentType = "application/x-ndjson"
)

type AuditQuerier interface {
	Query(ctx context.Context, filter model.AuditFilter, cursor string, limit int) (model.Page[model.AuditLog], error)
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Result struct {
	Key       string    `json:"key"`
	Rows      int       `json:"rows"`
	Truncated bool      `json:"truncated"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service struct {
	audit   AuditQuerier
	storage ObjectStorage
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(audit AuditQuerier, storage ObjectStorage, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		audit:   audit,
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// Export writes up to MaxRows matching entries, newest first, and returns a
// presigned link to the object.
func (s *Service) Export(ctx context.Context, filter model.AuditFilter) (Result, error) {
	if s.audit == nil || s.storage == nil {
		return Result{}, fmt.Errorf("audit export dependencies are not configured")
	}

	var (
		buf       bytes.Buffer
		rows      int
		cursor    string
		truncated bool
	)
	enc := json.NewEncoder(&buf)
	for rows < MaxRows {
		page, err := s.audit.Query(ctx, filter, cursor, pageSize)
		if err != nil {
			return Result{}, fmt.Errorf("query audit entries: %w", err)
		}
		for _, entry := range page.Data {
			if rows == MaxRows {
				truncated = true
				break
			}
			if err := enc.Encode(entry); err != nil {
				return Result{}, fmt.Errorf("encode audit entry: %w", err)
			}
			rows++
		}
		if !page.HasMore || page.NextCursor == nil {
			break
		}
		if rows == MaxRows {
			truncated = true
			break
		}
		cursor = *page.NextCursor
	}

	now := s.now().UTC()
	key := fmt.Sprintf("%s/%s/%s.jsonl", keyPrefix, now.Format("2006-01-02"), uuid.NewString())

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return Result{}, err
	}
	if err := s.storage.Put(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), contentType); err != nil {
		return Result{}, err
	}
	link, err := s.storage.PresignGet(ctx, key, presignTTL)
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("audit export written", zap.String("key", key), zap.Int("rows", rows), zap.Bool("truncated", truncated))
	return Result{
		Key:       key,
		Rows:      rows,
		Truncated: truncated,
		URL:       link,
		ExpiresAt: now.Add(presignTTL),
	}, nil
}
