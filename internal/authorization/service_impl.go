package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/cicilan/internal/audit/domain"
	"github.com/smallbiznis/cicilan/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectTransaction   = "transaction"
	ObjectPayment       = "payment"
	ObjectPackage       = "package"
	ObjectPackageType   = "package_type"
	ObjectPaymentMethod = "payment_method"
	ObjectUser          = "user"
	ObjectAuditLog      = "audit_log"
	ObjectDashboard     = "dashboard"
	ObjectUpload        = "upload"
)

const (
	ActionView    = "view"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionConfirm = "confirm"
	ActionReject  = "reject"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor usercontext.Identity, object string, action string) error {
	if actor.ID == 0 {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := subjectOf(actor)
	if err := s.ensureGrouping(subject, roleName(actor.Role)); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, actor, object, action)
		return ErrForbidden
	}
	return nil
}

// RequireRole is the single gate for admin only mutations.
func (s *ServiceImpl) RequireRole(ctx context.Context, actor usercontext.Identity, role string) error {
	if actor.ID == 0 {
		return ErrInvalidActor
	}
	if strings.EqualFold(strings.TrimSpace(actor.Role), strings.TrimSpace(role)) {
		return nil
	}
	s.auditDenied(ctx, actor, "role", role)
	return ErrForbidden
}

// ensureGrouping keeps exactly one role link per user so role changes apply on the next request.
func (s *ServiceImpl) ensureGrouping(subject string, role string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == role {
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		if _, err := s.enforcer.RemoveGroupingPolicy(params...); err != nil {
			return err
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, role)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, role)
	return err
}

func (s *ServiceImpl) auditDenied(ctx context.Context, actor usercontext.Identity, object string, action string) {
	s.log.Debug("authorization denied",
		zap.String("actor_id", actor.ID.String()),
		zap.String("role", actor.Role),
		zap.String("object", object),
		zap.String("action", action),
	)
	if s.auditSvc == nil {
		return
	}
	actorID := actor.ID.String()
	targetID := "capability"
	_ = s.auditSvc.AuditLog(ctx, string(auditdomain.ActorTypeUser), &actorID, "authorization.denied", "authorization", &targetID, map[string]any{
		"object":  object,
		"action":  action,
		"role":    actor.Role,
		"subject": subjectOf(actor),
	})
}

func subjectOf(actor usercontext.Identity) string {
	return fmt.Sprintf("user:%s", actor.ID.String())
}

func roleName(role string) string {
	return fmt.Sprintf("role:%s", strings.ToLower(strings.TrimSpace(role)))
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{"role:admin", "*", "*"},

		{"role:reseller", ObjectTransaction, ActionView},
		{"role:reseller", ObjectTransaction, ActionCreate},
		{"role:reseller", ObjectPayment, ActionView},
		{"role:reseller", ObjectPayment, ActionCreate},
		{"role:reseller", ObjectPackage, ActionView},
		{"role:reseller", ObjectPackageType, ActionView},
		{"role:reseller", ObjectPaymentMethod, ActionView},
		{"role:reseller", ObjectDashboard, ActionView},
		{"role:reseller", ObjectUpload, ActionCreate},
	}

	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
