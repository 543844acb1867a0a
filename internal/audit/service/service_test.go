package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/cicilan/internal/audit/domain"
	"github.com/smallbiznis/cicilan/internal/audit/repository"
	"github.com/smallbiznis/cicilan/internal/auditcontext"
	"github.com/smallbiznis/cicilan/internal/clock"
	"github.com/smallbiznis/cicilan/internal/migration"
	"github.com/smallbiznis/cicilan/pkg/db"
	"github.com/smallbiznis/cicilan/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()

	conn := db.NewTest(t)
	require.NoError(t, migration.ApplySchema(conn))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	return NewService(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: fake,
	}), fake
}

func TestAuditLogResolvesActorFromContext(t *testing.T) {
	svc, _ := newTestService(t)

	ctx := auditcontext.WithActor(context.Background(), "user", "42")
	ctx = auditcontext.WithRequestID(ctx, "req-1")
	ctx = auditcontext.WithIPAddress(ctx, "10.1.1.1")

	target := "900"
	require.NoError(t, svc.AuditLog(ctx, "", nil, "payment.confirmed", "payment", &target, map[string]any{
		"weeks":          []int{1, 2},
		"account_number": "1234567890",
	}))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, "user", entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "42", *entry.ActorID)
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.1.1.1", *entry.IPAddress)
	assert.Equal(t, "req-1", entry.Metadata["request_id"])
	assert.Equal(t, "****7890", entry.Metadata["account_number"])
}

func TestAuditLogDefaultsToSystemActor(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.AuditLog(context.Background(), "", nil, "session.purged", "", nil, nil))
	assert.ErrorIs(t, svc.AuditLog(context.Background(), "", nil, " ", "x", nil, nil), auditdomain.ErrInvalidAction)

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, string(auditdomain.ActorTypeSystem), resp.AuditLogs[0].ActorType)
	assert.Equal(t, "unknown", resp.AuditLogs[0].TargetType)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.AuditLog(ctx, "system", nil, "transaction.created", "transaction", nil, map[string]any{"seq": i}))
		fake.Advance(time.Minute)
	}

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageSize: 3}})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 3)
	assert.True(t, first.HasMore)
	assert.EqualValues(t, 4, first.AuditLogs[0].Metadata["seq"])

	second, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageSize: 3, PageToken: first.NextPageToken}})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 2)
	assert.False(t, second.HasMore)
	assert.EqualValues(t, 0, second.AuditLogs[1].Metadata["seq"])

	_, err = svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageToken: "%%%"}})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}

func TestListRejectsInvertedRange(t *testing.T) {
	svc, fake := newTestService(t)
	start := fake.Now()
	end := start.Add(-time.Hour)

	_, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)
}

func TestPurgeRemovesOldEntries(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.AuditLog(ctx, "system", nil, "old", "x", nil, nil))
	fake.Advance(48 * time.Hour)
	require.NoError(t, svc.AuditLog(ctx, "system", nil, "new", "x", nil, nil))

	removed, err := svc.Purge(ctx, fake.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	resp, err := svc.List(ctx, auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, "new", resp.AuditLogs[0].Action)
}
