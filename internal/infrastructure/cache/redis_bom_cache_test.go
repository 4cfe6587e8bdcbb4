package cache_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// newRedis levanta Redis en un contenedor y devuelve un cliente conectado.
func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con Redis omitida en -short")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "iniciar contenedor Redis")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err)
	client, err := cache.NewRedisClient(ctx, addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestBomCache_LecturaEInvalidacion(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	store := memory.NewStore(time.Second)
	c := cache.NewBomCache(store.Bom(), client, time.Minute, logger.NewNop())
	key := "stock-ledger:bom:t1:bowl"

	require.NoError(t, c.Link(ctx, &entity.BomLink{TenantID: "t1", CompositeItemID: "bowl", StockItemID: "arroz", QuantityPerUnit: decimal.NewFromInt(3)}))

	links, err := c.RequirementsFor(ctx, "t1", "bowl")
	require.NoError(t, err)
	require.Len(t, links, 1)

	raw, err := client.Get(ctx, key).Bytes()
	require.NoError(t, err, "la receta quedó en caché")
	var cached []entity.BomLink
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Equal(t, "arroz", cached[0].StockItemID)
	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	// Escritura directa al repositorio: la caché sigue sirviendo la versión anterior.
	require.NoError(t, store.Bom().Link(ctx, &entity.BomLink{TenantID: "t1", CompositeItemID: "bowl", StockItemID: "pollo", QuantityPerUnit: decimal.NewFromInt(1)}))
	links, err = c.RequirementsFor(ctx, "t1", "bowl")
	require.NoError(t, err)
	assert.Len(t, links, 1)

	// Unlink por el decorador invalida la clave.
	require.NoError(t, c.Unlink(ctx, "t1", "bowl", "arroz"))
	exists, err := client.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	links, err = c.RequirementsFor(ctx, "t1", "bowl")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "pollo", links[0].StockItemID)
}

func TestBomCache_RecetaVaciaNoSeCachea(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	c := cache.NewBomCache(memory.NewStore(time.Second).Bom(), client, time.Minute, logger.NewNop())

	links, err := c.RequirementsFor(ctx, "t1", "sin-receta")
	require.NoError(t, err)
	assert.Empty(t, links)

	exists, err := client.Exists(ctx, "stock-ledger:bom:t1:sin-receta").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

// Sin Redis disponible la lectura cae al repositorio.
func TestBomCache_RedisCaidoDegrada(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(time.Second)
	require.NoError(t, store.Bom().Link(ctx, &entity.BomLink{TenantID: "t1", CompositeItemID: "bowl", StockItemID: "arroz", QuantityPerUnit: decimal.NewFromInt(1)}))

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	c := cache.NewBomCache(store.Bom(), client, time.Minute, logger.NewNop())

	links, err := c.RequirementsFor(ctx, "t1", "bowl")
	require.NoError(t, err)
	assert.Len(t, links, 1)

	_, err = cache.NewRedisClient(ctx, "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
