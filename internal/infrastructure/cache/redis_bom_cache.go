package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var _ repository.BomRepository = (*BomCache)(nil)

const bomKeyPrefix = "stock-ledger:bom:"

// BomCache decora un BomRepository con lectura a través de Redis.
// Link y Unlink escriben en el repositorio y luego invalidan la clave del compuesto.
// Un fallo de Redis nunca bloquea la lectura: se registra y se va al repositorio.
type BomCache struct {
	next   repository.BomRepository
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewBomCache construye el decorador sobre un cliente existente.
func NewBomCache(next repository.BomRepository, client *redis.Client, ttl time.Duration, log *logger.Logger) *BomCache {
	return &BomCache{next: next, client: client, ttl: ttl, log: log}
}

// NewRedisClient abre el cliente y verifica la conexión.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a Redis: %w", err)
	}
	return client, nil
}

func bomKey(tenantID, compositeItemID string) string {
	return bomKeyPrefix + tenantID + ":" + compositeItemID
}

// RequirementsFor lee de Redis y, ante un miss, del repositorio (las recetas vacías no se cachean).
func (c *BomCache) RequirementsFor(ctx context.Context, tenantID, compositeItemID string) ([]entity.BomLink, error) {
	key := bomKey(tenantID, compositeItemID)
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var links []entity.BomLink
		if jsonErr := json.Unmarshal(raw, &links); jsonErr == nil {
			return links, nil
		}
		c.log.Warn().Str("key", key).Msg("receta en caché ilegible; se descarta")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("lectura de caché de recetas")
	}

	links, err := c.next.RequirementsFor(ctx, tenantID, compositeItemID)
	if err != nil || len(links) == 0 {
		return links, err
	}
	if payload, err := json.Marshal(links); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("escritura de caché de recetas")
		}
	}
	return links, nil
}

func (c *BomCache) Link(ctx context.Context, link *entity.BomLink) error {
	if err := c.next.Link(ctx, link); err != nil {
		return err
	}
	c.invalidate(ctx, link.TenantID, link.CompositeItemID)
	return nil
}

func (c *BomCache) Unlink(ctx context.Context, tenantID, compositeItemID, stockItemID string) error {
	if err := c.next.Unlink(ctx, tenantID, compositeItemID, stockItemID); err != nil {
		return err
	}
	c.invalidate(ctx, tenantID, compositeItemID)
	return nil
}

func (c *BomCache) invalidate(ctx context.Context, tenantID, compositeItemID string) {
	key := bomKey(tenantID, compositeItemID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("invalidar caché de recetas")
	}
}
