// Command seed imports a catalog export into MongoDB, upserting by product_id.
//
//	go run ./cmd/seed -file products.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sashvara/storefront_api/internal/cache"
	"github.com/sashvara/storefront_api/internal/config"
	"github.com/sashvara/storefront_api/internal/database"
	"github.com/sashvara/storefront_api/internal/models"
	"github.com/sashvara/storefront_api/internal/repository"
	"github.com/sashvara/storefront_api/internal/utils"
)

func main() {
	file := flag.String("file", "products.json", "path to a JSON array of product rows")
	migrate := flag.Bool("migrate", true, "apply index migrations before importing")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := run(*file, *migrate); err != nil {
		log.Error().Err(err).Msg("seed failed")
		os.Exit(1)
	}
}

func run(path string, migrate bool) error {
	cfg, err := config.LoadMongo()
	if err != nil {
		return err
	}

	rows, err := readRows(path)
	if err != nil {
		return err
	}
	log.Info().Str("file", path).Int("rows", len(rows)).Msg("loaded catalog export")

	client, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer database.Disconnect(client)

	if migrate {
		if err := database.RunMigrations(client, cfg.Database, cfg.MigrationsPath); err != nil {
			return err
		}
	}

	repo := repository.NewProductRepository(client.Database(cfg.Database))

	// Without Redis, stale lookups age out with the cache TTL.
	var productCache *cache.ProductCache
	redisCfg := config.LoadRedis()
	if redisClient, err := cache.NewRedisClient(&redisCfg); err != nil {
		log.Warn().Err(err).Msg("redis unavailable - product cache will not be invalidated")
	} else {
		defer redisClient.Close()
		// Any positive TTL; Invalidate only deletes.
		productCache = cache.NewProductCache(redisClient, time.Minute)
	}

	var created, updated, skipped int
	for i, row := range rows {
		p, err := models.ProductFromImport(row)
		if err != nil {
			log.Warn().Err(err).Int("row", i).Msg("skipping row")
			skipped++
			continue
		}
		if p.Slug == "" && p.ProductName != "" {
			p.Slug = slug.Make(p.ProductName + " " + p.ProductID)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		isNew, err := upsert(ctx, repo, productCache, &p)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("product_id", p.ProductID).Msg("upsert failed")
			skipped++
			continue
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}

	log.Info().Int("created", created).Int("updated", updated).Int("skipped", skipped).Msg("seed complete")
	return nil
}

// upsert stores p and drops cached lookups for both its previous and new
// identifiers, including entries a lower-precedence match left under them.
func upsert(ctx context.Context, repo *repository.ProductRepository, pc *cache.ProductCache, p *models.Product) (bool, error) {
	previous, err := repo.FindOneBy(ctx, "product_id", p.ProductID)
	if err != nil && !errors.Is(err, utils.ErrProductNotFound) {
		return false, err
	}

	created, err := repo.UpsertByProductID(ctx, p)
	if err != nil {
		return false, err
	}

	if pc != nil {
		if previous != nil {
			p.ID = previous.ID
		}
		if err := pc.Invalidate(ctx, previous, p); err != nil {
			log.Warn().Err(err).Str("product_id", p.ProductID).Msg("failed to invalidate product cache")
		}
	}
	return created, nil
}

func readRows(path string) ([]map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rows, nil
}
