package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/gersemi/storefront/internal/domain"
	"github.com/gersemi/storefront/internal/repository"
	"github.com/gersemi/storefront/internal/selector"
)

// defaultSelectionTTL bounds how long a cached default-variant choice is kept.
// Correctness does not depend on it; any catalog change invalidates the cached
// choice through its content token.
const defaultSelectionTTL = 5 * time.Minute

type catalogService struct {
	store  repository.Store
	logger *slog.Logger
	cache  *selector.Cache
}

// NewCatalogService creates the storefront catalog read service.
func NewCatalogService(store repository.Store, logger *slog.Logger) domain.CatalogService {
	return &catalogService{
		store:  store,
		logger: logger,
		cache:  selector.NewCache(defaultSelectionTTL),
	}
}

// GetProductDetail loads a product with its variants in display order and
// resolves the default variant through the selection cascade. The same
// catalog state always yields the same default.
func (s *catalogService) GetProductDetail(ctx context.Context, slug string) (*domain.ProductDetail, error) {
	const op = "catalog.product_detail"

	product, err := s.store.GetProductBySlug(ctx, slug)
	if err != nil {
		if noRows(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, op, "failed to load product")
	}

	variants, err := s.store.ListVariantsByProduct(ctx, product.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load variants")
	}

	detail := &domain.ProductDetail{Product: product, Variants: variants}
	if len(variants) == 0 {
		return detail, nil
	}

	scope := make([]selector.Candidate, len(variants))
	for i := range variants {
		scope[i] = &variants[i]
	}
	if choice, ok := s.cache.Pick(product.ID.String(), scope).(*domain.Variant); ok {
		detail.DefaultVariant = choice
	}
	return detail, nil
}
