package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cicilan/internal/clock"
	"github.com/smallbiznis/cicilan/internal/paymentmethod/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("paymentmethod.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: c,
	}
}

func (s *Service) Create(ctx context.Context, req domain.Request) (*domain.PaymentMethod, error) {
	item, err := build(req)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	item.ID = s.genID.Generate()
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := s.repo.Insert(ctx, s.db, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.Request) (*domain.PaymentMethod, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item, err := build(req)
	if err != nil {
		return nil, err
	}
	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete leaves payments untouched; they store the method label, not a reference.
func (s *Service) Delete(ctx context.Context, id string) error {
	methodID, err := parseID(id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, methodID)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.PaymentMethod, error) {
	methodID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, s.db, methodID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) List(ctx context.Context) ([]domain.PaymentMethod, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.PaymentMethod{}
	}
	return items, nil
}

func build(req domain.Request) (*domain.PaymentMethod, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	kind := strings.ToLower(strings.TrimSpace(req.Type))
	if kind == "" {
		return nil, domain.ErrInvalidType
	}
	return &domain.PaymentMethod{
		Name:          name,
		Type:          kind,
		AccountNumber: optionalString(req.AccountNumber),
		AccountHolder: optionalString(req.AccountHolder),
		Logo:          optionalString(req.Logo),
	}, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
