package shared

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	sql  string
	args []any
}

func (e *recordingExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.sql = sql
	e.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestAuditLoggerRecord(t *testing.T) {
	execer := &recordingExecer{}
	logger := NewAuditLogger(execer)

	err := logger.Record(context.Background(), AuditLog{
		ActorID:  7,
		Action:   "delete",
		Entity:   "building",
		EntityID: "3",
		Meta:     map[string]any{"code": "A1"},
	})
	require.NoError(t, err)
	assert.Contains(t, execer.sql, "INSERT INTO audit_logs")
	require.Len(t, execer.args, 6)
	assert.Equal(t, int64(7), execer.args[0])

	var meta map[string]any
	require.NoError(t, json.Unmarshal(execer.args[4].([]byte), &meta))
	assert.Equal(t, "A1", meta["code"])
}

func TestAuditLoggerRejectsIncompleteEntry(t *testing.T) {
	execer := &recordingExecer{}
	err := NewAuditLogger(execer).Record(context.Background(), AuditLog{Action: "delete"})
	assert.Error(t, err)
	assert.Empty(t, execer.sql)

	var nilLogger *AuditLogger
	assert.Error(t, nilLogger.Record(context.Background(), AuditLog{Action: "a", Entity: "b", EntityID: "c"}))
}

func TestPaginationClampsAndOffsets(t *testing.T) {
	p := NewPagination(3, 10, 45)
	assert.Equal(t, 5, p.TotalPages)
	assert.Equal(t, 20, p.Offset())

	p = NewPagination(0, 1000, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PerPage)
	assert.Equal(t, 0, p.Offset())

	page, perPage := PageParams(httptest.NewRequest("GET", "/buildings?page=x&per_page=5", nil))
	assert.Equal(t, 1, page)
	assert.Equal(t, 5, perPage)
}
