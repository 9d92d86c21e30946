package auditexport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/repo/memory"
	"github.com/LURY-TMP/matzon-platform/internal/services/audit"
)

type fakeStorage struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeStorage) EnsureBucket(_ context.Context) error { return nil }

func (f *fakeStorage) Put(_ context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return io.ErrShortWrite
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
		f.types = make(map[string]string)
	}
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.local/" + key + "?sig=1", nil
}

func seedAudit(t *testing.T, store *memory.Store, n int, action enums.AuditAction) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := store.InsertAuditLog(context.Background(), model.AuditLog{
			ActorID: "admin-1",
			Action:  action,
			Details: map[string]any{"i": i},
		}); err != nil {
			t.Fatalf("seed audit entry: %v", err)
		}
	}
}

func countLines(t *testing.T, data []byte) int {
	t.Helper()
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lines := 0
	for scanner.Scan() {
		var entry model.AuditLog
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("decode line %d: %v", lines+1, err)
		}
		lines++
	}
	return lines
}

func TestExportWritesFilteredJSONLines(t *testing.T) {
	store := memory.NewStore()
	seedAudit(t, store, 150, enums.AuditUserBanned)
	seedAudit(t, store, 30, enums.AuditReportCreated)

	storage := &fakeStorage{}
	svc := NewService(audit.NewService(store), storage, nil)
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC) }

	res, err := svc.Export(context.Background(), model.AuditFilter{Action: enums.AuditUserBanned})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Rows != 150 || res.Truncated {
		t.Fatalf("unexpected export result: %+v", res)
	}
	if !strings.HasPrefix(res.Key, "audit-exports/2026-05-04/") || !strings.HasSuffix(res.Key, ".jsonl") {
		t.Fatalf("unexpected object key: %s", res.Key)
	}
	if got := countLines(t, storage.objects[res.Key]); got != 150 {
		t.Fatalf("unexpected line count: got %d want 150", got)
	}
	if storage.types[res.Key] != contentType {
		t.Fatalf("unexpected content type: %s", storage.types[res.Key])
	}
	if !res.ExpiresAt.Equal(time.Date(2026, 5, 4, 9, 15, 0, 0, time.UTC)) {
		t.Fatalf("unexpected link expiry: %v", res.ExpiresAt)
	}
}

func TestExportCapsRows(t *testing.T) {
	store := memory.NewStore()
	seedAudit(t, store, MaxRows+20, enums.AuditReportResolved)

	storage := &fakeStorage{}
	svc := NewService(audit.NewService(store), storage, nil)

	res, err := svc.Export(context.Background(), model.AuditFilter{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Rows != MaxRows || !res.Truncated {
		t.Fatalf("unexpected capped export: rows=%d truncated=%v", res.Rows, res.Truncated)
	}
	if got := countLines(t, storage.objects[res.Key]); got != MaxRows {
		t.Fatalf("unexpected line count: got %d want %d", got, MaxRows)
	}
}

func TestExportEmptyResult(t *testing.T) {
	storage := &fakeStorage{}
	svc := NewService(audit.NewService(memory.NewStore()), storage, nil)

	res, err := svc.Export(context.Background(), model.AuditFilter{ActorID: "nobody"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Rows != 0 || len(storage.objects[res.Key]) != 0 {
		t.Fatalf("expected empty export, got %+v", res)
	}
}
