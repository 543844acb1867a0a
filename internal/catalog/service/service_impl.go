package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/cicilan/internal/catalog/domain"
	"github.com/smallbiznis/cicilan/internal/clock"
	"github.com/smallbiznis/cicilan/pkg/db"
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
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: c,
	}
}

func (s *Service) CreatePackageType(ctx context.Context, req domain.PackageTypeRequest) (*domain.PackageType, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	code := slug.Make(name)
	if err := s.ensureCodeFree(ctx, code, 0); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	item := &domain.PackageType{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		Icon:      optionalString(req.Icon),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertType(ctx, s.db, item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrPackageTypeExists
		}
		return nil, err
	}
	return item, nil
}

func (s *Service) UpdatePackageType(ctx context.Context, id string, req domain.PackageTypeRequest) (*domain.PackageType, error) {
	item, err := s.GetPackageType(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	code := slug.Make(name)
	if err := s.ensureCodeFree(ctx, code, item.ID); err != nil {
		return nil, err
	}

	item.Name = name
	item.Code = code
	item.Icon = optionalString(req.Icon)
	item.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateType(ctx, s.db, item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrPackageTypeExists
		}
		return nil, err
	}
	return item, nil
}

func (s *Service) DeletePackageType(ctx context.Context, id string) error {
	typeID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := s.repo.CountPackagesByType(ctx, tx, typeID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrPackageTypeInUse
		}
		return s.repo.DeleteType(ctx, tx, typeID)
	})
}

func (s *Service) GetPackageType(ctx context.Context, id string) (*domain.PackageType, error) {
	typeID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindTypeByID(ctx, s.db, typeID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrPackageTypeNotFound
	}
	return item, nil
}

func (s *Service) ListPackageTypes(ctx context.Context) ([]domain.PackageType, error) {
	items, err := s.repo.ListTypes(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.PackageType{}
	}
	return items, nil
}

// GetPackage is the catalog lookup used when a transaction snapshots package terms.
func (s *Service) GetPackage(ctx context.Context, id string) (*domain.Package, error) {
	packageID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrPackageNotFound
	}
	item, err := s.repo.FindPackageByID(ctx, s.db, packageID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrPackageNotFound
	}
	if pkgType, err := s.repo.FindTypeByID(ctx, s.db, item.PackageTypeID); err == nil {
		item.PackageType = pkgType
	}
	return item, nil
}

func (s *Service) CreatePackage(ctx context.Context, req domain.PackageRequest) (*domain.Package, error) {
	item, err := s.buildPackage(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	item.ID = s.genID.Generate()
	item.CreatedAt = now
	item.UpdatedAt = now
	if err := s.repo.InsertPackage(ctx, s.db, item); err != nil {
		return nil, err
	}

	s.log.Info("package created",
		zap.String("package_id", item.ID.String()),
		zap.String("price_per_week", item.PricePerWeek.String()),
		zap.Int("tenor", item.Tenor),
	)
	return item, nil
}

// UpdatePackage changes catalog terms only. Existing transactions keep their snapshot.
func (s *Service) UpdatePackage(ctx context.Context, id string, req domain.PackageRequest) (*domain.Package, error) {
	existing, err := s.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}

	item, err := s.buildPackage(ctx, req)
	if err != nil {
		return nil, err
	}
	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdatePackage(ctx, s.db, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) DeletePackage(ctx context.Context, id string) error {
	packageID, err := parseID(id)
	if err != nil {
		return err
	}
	return s.repo.DeletePackage(ctx, s.db, packageID)
}

func (s *Service) ListPackages(ctx context.Context, req domain.ListPackagesRequest) ([]domain.Package, error) {
	filter := domain.PackageFilter{Query: req.Query}
	if strings.TrimSpace(req.PackageTypeID) != "" {
		typeID, err := parseID(req.PackageTypeID)
		if err != nil {
			return nil, domain.ErrInvalidPackageType
		}
		filter.PackageTypeID = typeID
	}

	items, err := s.repo.ListPackages(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	types, err := s.repo.ListTypes(ctx, s.db)
	if err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]*domain.PackageType, len(types))
	for i := range types {
		byID[types[i].ID] = &types[i]
	}

	out := make([]domain.Package, 0, len(items))
	for _, item := range items {
		item.PackageType = byID[item.PackageTypeID]
		out = append(out, item)
	}
	return out, nil
}

func (s *Service) buildPackage(ctx context.Context, req domain.PackageRequest) (*domain.Package, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if !req.PricePerWeek.IsPositive() {
		return nil, domain.ErrInvalidPricePerWeek
	}
	if req.Tenor < 1 {
		return nil, domain.ErrInvalidTenor
	}

	typeID, err := parseID(req.PackageTypeID)
	if err != nil {
		return nil, domain.ErrInvalidPackageType
	}
	pkgType, err := s.repo.FindTypeByID(ctx, s.db, typeID)
	if err != nil {
		return nil, err
	}
	if pkgType == nil {
		return nil, domain.ErrInvalidPackageType
	}

	return &domain.Package{
		PackageTypeID:   typeID,
		Name:            name,
		Description:     optionalString(req.Description),
		PricePerWeek:    req.PricePerWeek.Round(2),
		Tenor:           req.Tenor,
		IsEligibleBonus: req.IsEligibleBonus,
		Photo:           optionalString(req.Photo),
		PackageType:     pkgType,
	}, nil
}

func (s *Service) ensureCodeFree(ctx context.Context, code string, self snowflake.ID) error {
	if code == "" {
		return domain.ErrInvalidName
	}
	existing, err := s.repo.FindTypeByCode(ctx, s.db, code)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != self {
		return domain.ErrPackageTypeExists
	}
	return nil
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
