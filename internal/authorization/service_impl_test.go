package authorization

import (
	"context"
	"testing"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	auditdomain "github.com/smallbiznis/cicilan/internal/audit/domain"
	"github.com/smallbiznis/cicilan/internal/usercontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingAudit struct {
	actions []string
}

func (r *recordingAudit) AuditLog(_ context.Context, _ string, _ *string, action string, _ string, _ *string, _ map[string]any) error {
	r.actions = append(r.actions, action)
	return nil
}

func (r *recordingAudit) List(context.Context, auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

func (r *recordingAudit) Purge(context.Context, time.Time) (int64, error) { return 0, nil }

func newTestService(t *testing.T) (Service, *recordingAudit) {
	t.Helper()

	m, err := model.NewModelFromString(modelText)
	require.NoError(t, err)
	enforcer, err := casbin.NewSyncedEnforcer(m)
	require.NoError(t, err)
	enforcer.EnableAutoBuildRoleLinks(true)
	require.NoError(t, seedPolicies(enforcer))

	audit := &recordingAudit{}
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer, AuditSvc: audit}), audit
}

func TestAdminMayDoAnything(t *testing.T) {
	svc, _ := newTestService(t)
	admin := usercontext.Identity{ID: 1, Role: usercontext.RoleAdmin}

	assert.NoError(t, svc.Authorize(context.Background(), admin, ObjectPayment, ActionConfirm))
	assert.NoError(t, svc.Authorize(context.Background(), admin, ObjectTransaction, ActionDelete))
	assert.NoError(t, svc.RequireRole(context.Background(), admin, usercontext.RoleAdmin))
}

func TestResellerCapabilities(t *testing.T) {
	svc, audit := newTestService(t)
	reseller := usercontext.Identity{ID: 7, Role: usercontext.RoleReseller}
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, reseller, ObjectPayment, ActionCreate))
	assert.NoError(t, svc.Authorize(ctx, reseller, ObjectTransaction, ActionView))

	assert.ErrorIs(t, svc.Authorize(ctx, reseller, ObjectPayment, ActionConfirm), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, reseller, ObjectTransaction, ActionDelete), ErrForbidden)
	assert.ErrorIs(t, svc.RequireRole(ctx, reseller, usercontext.RoleAdmin), ErrForbidden)
	assert.Equal(t, []string{"authorization.denied", "authorization.denied", "authorization.denied"}, audit.actions)
}

func TestRoleChangeTakesEffect(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user := usercontext.Identity{ID: 9, Role: usercontext.RoleReseller}
	assert.ErrorIs(t, svc.Authorize(ctx, user, ObjectUser, ActionCreate), ErrForbidden)

	user.Role = usercontext.RoleAdmin
	assert.NoError(t, svc.Authorize(ctx, user, ObjectUser, ActionCreate))

	user.Role = usercontext.RoleReseller
	assert.ErrorIs(t, svc.Authorize(ctx, user, ObjectUser, ActionCreate), ErrForbidden)
}

func TestAuthorizeValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, usercontext.Identity{}, ObjectPayment, ActionView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, usercontext.Identity{ID: 1}, " ", ActionView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, usercontext.Identity{ID: 1}, ObjectPayment, ""), ErrInvalidAction)
	assert.ErrorIs(t, svc.RequireRole(ctx, usercontext.Identity{}, usercontext.RoleAdmin), ErrInvalidActor)
}
