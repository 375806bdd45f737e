package service

import (
	"context"
	"fmt"

	"github.com/target/storefront-go/internal/domain/model"
	"github.com/target/storefront-go/internal/validation"
)

// ReviewServiceOptions groups dependencies for ReviewService.
type ReviewServiceOptions struct {
	Session SessionReader // Required: API access
}

// ReviewService manages product reviews.
type ReviewService struct {
	session SessionReader
}

// NewReviewService constructs a ReviewService.
func NewReviewService(opts ReviewServiceOptions) *ReviewService {
	if opts.Session == nil {
		panic("ReviewService requires a non-nil Session")
	}
	return &ReviewService{session: opts.Session}
}

func reviewsPath(slug string) string { return productPath(slug) + "reviews/" }

func reviewPath(slug string, id int64) string { return fmt.Sprintf("%s%d/", reviewsPath(slug), id) }

// List returns the reviews of a product.
func (s *ReviewService) List(ctx context.Context, slug string) ([]model.Review, error) {
	if err := validation.Required("slug", slug); err != nil {
		return nil, err
	}
	var page model.Page[model.Review]
	if err := s.session.Client().Get(ctx, reviewsPath(slug), nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// Create posts a review. Rating and comment are checked before the call.
func (s *ReviewService) Create(ctx context.Context, slug string, in model.ReviewInput) (model.Review, error) {
	if err := validation.Struct(in); err != nil {
		return model.Review{}, err
	}
	var r model.Review
	if err := s.session.Client().Post(ctx, reviewsPath(slug), in, &r); err != nil {
		return model.Review{}, err
	}
	return r, nil
}

// Update replaces the rating and comment of one of the caller's reviews.
func (s *ReviewService) Update(ctx context.Context, slug string, id int64, in model.ReviewInput) (model.Review, error) {
	if err := validation.Struct(in); err != nil {
		return model.Review{}, err
	}
	var r model.Review
	if err := s.session.Client().Put(ctx, reviewPath(slug, id), in, &r); err != nil {
		return model.Review{}, err
	}
	return r, nil
}

// Delete removes one of the caller's reviews.
func (s *ReviewService) Delete(ctx context.Context, slug string, id int64) error {
	return s.session.Client().Delete(ctx, reviewPath(slug, id))
}
