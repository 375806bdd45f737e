package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/target/storefront-go/internal/domain/auth"
	"github.com/target/storefront-go/internal/domain/model"
	apperrors "github.com/target/storefront-go/internal/errors"
	"github.com/target/storefront-go/internal/validation"
)

const (
	pathProducts   = "api/v1/products/"
	pathCategories = "api/v1/categories/"
)

// StaffChecker resolves the current user's staff flag.
type StaffChecker interface {
	FetchStaffStatus(ctx context.Context) auth.StaffStatus
}

// CatalogServiceOptions groups dependencies for CatalogService.
type CatalogServiceOptions struct {
	Session SessionReader // Required: API access
	Staff   StaffChecker  // Optional: gates CreateProduct client-side
	Logger  *slog.Logger  // Optional: structured logger
}

// CatalogService reads products and categories.
type CatalogService struct {
	session SessionReader
	staff   StaffChecker
	reviews *ReviewService
	logger  *slog.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(opts CatalogServiceOptions) *CatalogService {
	if opts.Session == nil {
		panic("CatalogService requires a non-nil Session")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		session: opts.Session,
		staff:   opts.Staff,
		reviews: NewReviewService(ReviewServiceOptions{Session: opts.Session}),
		logger:  logger.With("component", "catalog"),
	}
}

// ListProducts returns one page of products matching filter.
func (s *CatalogService) ListProducts(ctx context.Context, filter model.ProductFilter) (model.Page[model.Product], error) {
	var page model.Page[model.Product]
	if err := s.session.Client().Get(ctx, pathProducts, filter.Query(), &page); err != nil {
		return model.Page[model.Product]{}, err
	}
	return page, nil
}

// NextPage follows a pagination link returned by ListProducts. An empty link yields an
// empty page.
func (s *CatalogService) NextPage(ctx context.Context, link string) (model.Page[model.Product], error) {
	var page model.Page[model.Product]
	if link == "" {
		return page, nil
	}
	if err := s.session.Client().Get(ctx, link, nil, &page); err != nil {
		return model.Page[model.Product]{}, err
	}
	return page, nil
}

// GetProduct fetches one product by slug.
func (s *CatalogService) GetProduct(ctx context.Context, slug string) (model.Product, error) {
	if err := validation.Required("slug", slug); err != nil {
		return model.Product{}, err
	}
	var p model.Product
	if err := s.session.Client().Get(ctx, productPath(slug), nil, &p); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// ListCategories returns every category.
func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	var page model.Page[model.Category]
	if err := s.session.Client().Get(ctx, pathCategories, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// ProductPage loads a product and its reviews concurrently. Either failure fails the page.
func (s *CatalogService) ProductPage(ctx context.Context, slug string) (model.ProductPage, error) {
	if err := validation.Required("slug", slug); err != nil {
		return model.ProductPage{}, err
	}
	var out model.ProductPage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.GetProduct(gctx, slug)
		if err != nil {
			return err
		}
		out.Product = p
		return nil
	})
	g.Go(func() error {
		rs, err := s.reviews.List(gctx, slug)
		if err != nil {
			return err
		}
		out.Reviews = rs
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.ProductPage{}, err
	}
	return out, nil
}

// CreateProduct adds a product. Non-staff users are rejected before any call when a
// StaffChecker is configured; the API enforces the same rule.
func (s *CatalogService) CreateProduct(ctx context.Context, in model.ProductInput) (model.Product, error) {
	if s.staff != nil && s.staff.FetchStaffStatus(ctx) != auth.StaffYes {
		return model.Product{}, &apperrors.AppError{
			Code:    apperrors.ErrCodeForbidden,
			Message: "You do not have permission to perform this action.",
			Status:  403,
		}
	}
	if err := validation.Struct(in); err != nil {
		return model.Product{}, err
	}
	var p model.Product
	if err := s.session.Client().Post(ctx, pathProducts, in, &p); err != nil {
		return model.Product{}, err
	}
	s.logger.InfoContext(ctx, "product created", "product_id", p.ID, "slug", p.Slug)
	return p, nil
}

func productPath(slug string) string {
	return fmt.Sprintf("%s%s/", pathProducts, url.PathEscape(strings.TrimSpace(slug)))
}
