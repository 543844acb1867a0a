package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cicilan/internal/auth/domain"
	"github.com/smallbiznis/cicilan/internal/auth/password"
	"github.com/smallbiznis/cicilan/internal/clock"
	"github.com/smallbiznis/cicilan/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	sessionTokenBytes = 32
	sessionTTL        = 7 * 24 * time.Hour
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Repo        domain.Repository
	SessionRepo domain.SessionRepository
	GenID       *snowflake.Node
	Clock       clock.Clock
}

type Service struct {
	log         *zap.Logger
	repo        domain.Repository
	sessionRepo domain.SessionRepository
	genID       *snowflake.Node
	clock       clock.Clock
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	return &Service{
		log:         p.Log.Named("auth.service"),
		repo:        p.Repo,
		sessionRepo: p.SessionRepo,
		genID:       p.GenID,
		clock:       c,
	}
}

func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = domain.RoleReseller
	}
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidRole
	}
	if len(strings.TrimSpace(req.Password)) < password.MinLength {
		return nil, domain.ErrWeakPassword
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:                  s.genID.Generate(),
		Email:               email,
		Name:                name,
		Phone:               optionalString(req.Phone),
		Address:             optionalString(req.Address),
		Role:                role,
		PasswordHash:        hashed,
		LastPasswordChanged: &now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user created", zap.String("user_id", user.ID.String()), zap.String("role", role))
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	userID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context, req domain.ListUsersRequest) ([]domain.User, error) {
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != "" && !domain.ValidRole(role) {
		return nil, domain.ErrInvalidRole
	}
	users, err := s.repo.List(ctx, domain.UserFilter{Role: role, Query: req.Query})
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, req domain.UpdateUserRequest) (*domain.User, error) {
	userID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.Email != nil {
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			return nil, domain.ErrInvalidEmail
		}
		existing, err := s.repo.FindByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != userID:
			return nil, domain.ErrUserExists
		case err != nil && !errors.Is(err, domain.ErrUserNotFound):
			return nil, err
		}
		fields["email"] = email
	}
	if req.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*req.Role))
		if !domain.ValidRole(role) {
			return nil, domain.ErrInvalidRole
		}
		fields["role"] = role
	}
	if req.Phone != nil {
		fields["phone"] = optionalString(*req.Phone)
	}
	if req.Address != nil {
		fields["address"] = optionalString(*req.Address)
	}

	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		if err := s.repo.UpdateFields(ctx, userID, fields); err != nil {
			return nil, err
		}
	}

	return s.repo.FindByID(ctx, userID)
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	userID, err := parseID(id)
	if err != nil {
		return err
	}
	if identity, ok := usercontext.IdentityFromContext(ctx); ok && identity.ID == userID {
		return domain.ErrCannotDeleteSelf
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.String("user_id", userID.String()))
	return nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(req.Password, user.PasswordHash) {
		s.log.Debug("login rejected", zap.String("user_id", user.ID.String()))
		return nil, domain.ErrInvalidCredentials
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &domain.Session{
		ID:               s.genID.Generate(),
		UserID:           user.ID,
		SessionTokenHash: hashToken(rawToken),
		UserAgent:        strings.TrimSpace(req.UserAgent),
		IPAddress:        strings.TrimSpace(req.IPAddress),
		ExpiresAt:        now.Add(sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &domain.LoginResult{
		User:      user,
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
		SessionID: session.ID,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return err
	}

	return s.sessionRepo.RevokeSession(ctx, session.ID, s.clock.Now())
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Session, *domain.User, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, nil, domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, nil, domain.ErrInvalidSession
		}
		return nil, nil, err
	}

	now := s.clock.Now()
	if session.RevokedAt != nil {
		return nil, nil, domain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return nil, nil, domain.ErrSessionExpired
	}

	user, err := s.repo.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidSession
		}
		return nil, nil, err
	}

	if err := s.sessionRepo.UpdateLastSeen(ctx, session.ID, now); err != nil {
		return nil, nil, err
	}
	session.LastSeenAt = now

	return session, user, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID string, currentPassword string, newPassword string) error {
	id, err := parseID(userID)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(newPassword)) < password.MinLength {
		return domain.ErrWeakPassword
	}
	if currentPassword == newPassword {
		return domain.ErrPasswordReused
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !password.Verify(currentPassword, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	return s.setPassword(ctx, id, newPassword, false)
}

// ResetPassword replaces the password with a generated one and revokes every session of the user.
func (s *Service) ResetPassword(ctx context.Context, userID string) (string, error) {
	id, err := parseID(userID)
	if err != nil {
		return "", err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return "", err
	}

	generated, err := password.Generate()
	if err != nil {
		return "", err
	}
	if err := s.setPassword(ctx, id, generated, true); err != nil {
		return "", err
	}
	if err := s.sessionRepo.RevokeUserSessions(ctx, id, s.clock.Now()); err != nil {
		return "", err
	}

	s.log.Info("password reset", zap.String("user_id", id.String()))
	return generated, nil
}

func (s *Service) PurgeExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	return s.sessionRepo.DeleteExpiredSessions(ctx, before)
}

func (s *Service) setPassword(ctx context.Context, id snowflake.ID, plain string, isDefault bool) error {
	hashed, err := password.Hash(plain)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	return s.repo.UpdateFields(ctx, id, map[string]any{
		"password_hash":         hashed,
		"last_password_changed": now,
		"is_default":            isDefault,
		"updated_at":            now,
	})
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
