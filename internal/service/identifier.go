package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sashvara/storefront_api/internal/models"
	"github.com/sashvara/storefront_api/internal/utils"
)

// Resolve finds the product an opaque path segment refers to. The segment is
// tried as a database id (only when it is valid 24-hex), then as product_id,
// then as slug; the first match wins.
func (s *CatalogService) Resolve(ctx context.Context, identifier string) (*models.Product, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, utils.NotFoundError(utils.ErrProductNotFound)
	}

	if s.cache != nil {
		p, err := s.cache.Get(ctx, identifier)
		if err == nil {
			return p, nil
		}
		if !cacheMiss(err) {
			log.Warn().Err(err).Str("identifier", identifier).Msg("product cache read failed")
		}
	}

	p, err := s.lookup(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, identifier, p); err != nil {
			log.Warn().Err(err).Str("identifier", identifier).Msg("product cache write failed")
		}
	}
	return p, nil
}

func (s *CatalogService) lookup(ctx context.Context, identifier string) (*models.Product, error) {
	if oid, err := primitive.ObjectIDFromHex(identifier); err == nil {
		p, err := s.store.FindByID(ctx, oid)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, utils.ErrProductNotFound) {
			return nil, mapProductErr(err)
		}
	}

	for _, field := range []string{"product_id", "slug"} {
		p, err := s.store.FindOneBy(ctx, field, identifier)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, utils.ErrProductNotFound) {
			return nil, mapProductErr(err)
		}
	}
	return nil, utils.NotFoundError(utils.ErrProductNotFound)
}
