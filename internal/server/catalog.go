package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/cicilan/internal/catalog/domain"
)

type packageTypeRequest struct {
	Name string `json:"name" binding:"required"`
	Icon string `json:"icon"`
}

type packageRequest struct {
	PackageTypeID   string          `json:"packageTypeId" binding:"required"`
	Name            string          `json:"name" binding:"required"`
	Description     string          `json:"description"`
	PricePerWeek    decimal.Decimal `json:"pricePerWeek"`
	Tenor           int             `json:"tenor" binding:"required,gte=1"`
	IsEligibleBonus bool            `json:"isEligibleBonus"`
	Photo           string          `json:"photo"`
}

func (r packageRequest) toDomain() catalogdomain.PackageRequest {
	return catalogdomain.PackageRequest{
		PackageTypeID:   strings.TrimSpace(r.PackageTypeID),
		Name:            strings.TrimSpace(r.Name),
		Description:     strings.TrimSpace(r.Description),
		PricePerWeek:    r.PricePerWeek,
		Tenor:           r.Tenor,
		IsEligibleBonus: r.IsEligibleBonus,
		Photo:           strings.TrimSpace(r.Photo),
	}
}

func (s *Server) ListPackages(c *gin.Context) {
	var query struct {
		PackageTypeID string `form:"packageTypeId"`
		Query         string `form:"q"`
	}
	if err := bindQuery(c, &query); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.catalogSvc.ListPackages(c.Request.Context(), catalogdomain.ListPackagesRequest{
		PackageTypeID: strings.TrimSpace(query.PackageTypeID),
		Query:         strings.TrimSpace(query.Query),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPackage(c *gin.Context) {
	resp, err := s.catalogSvc.GetPackage(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreatePackage(c *gin.Context) {
	var req packageRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.catalogSvc.CreatePackage(c.Request.Context(), req.toDomain())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditTarget(c, "package.create", "package", resp.ID.String(), map[string]any{
		"name":           resp.Name,
		"price_per_week": resp.PricePerWeek.String(),
		"tenor":          resp.Tenor,
	})
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdatePackage(c *gin.Context) {
	var req packageRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.catalogSvc.UpdatePackage(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.toDomain())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditTarget(c, "package.update", "package", resp.ID.String(), map[string]any{
		"name":           resp.Name,
		"price_per_week": resp.PricePerWeek.String(),
		"tenor":          resp.Tenor,
	})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePackage(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.catalogSvc.DeletePackage(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditTarget(c, "package.delete", "package", id, nil)
	c.Status(http.StatusNoContent)
}

func (s *Server) ListPackageTypes(c *gin.Context) {
	resp, err := s.catalogSvc.ListPackageTypes(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPackageType(c *gin.Context) {
	resp, err := s.catalogSvc.GetPackageType(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreatePackageType(c *gin.Context) {
	var req packageTypeRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.catalogSvc.CreatePackageType(c.Request.Context(), catalogdomain.PackageTypeRequest{
		Name: strings.TrimSpace(req.Name),
		Icon: strings.TrimSpace(req.Icon),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditTarget(c, "package_type.create", "package_type", resp.ID.String(), map[string]any{"code": resp.Code})
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdatePackageType(c *gin.Context) {
	var req packageTypeRequest
	if err := bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.catalogSvc.UpdatePackageType(c.Request.Context(), strings.TrimSpace(c.Param("id")), catalogdomain.PackageTypeRequest{
		Name: strings.TrimSpace(req.Name),
		Icon: strings.TrimSpace(req.Icon),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditTarget(c, "package_type.update", "package_type", resp.ID.String(), map[string]any{"code": resp.Code})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePackageType(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.catalogSvc.DeletePackageType(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditTarget(c, "package_type.delete", "package_type", id, nil)
	c.Status(http.StatusNoContent)
}
