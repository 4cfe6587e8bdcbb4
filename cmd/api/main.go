package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-ledger/internal/application/auth"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/events"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/jhoicas/stock-ledger/pkg/telemetry"
)

// storage puertos de persistencia del backend elegido.
type storage struct {
	txRunner   inventory.TxRunner
	itemRepo   repository.StockItemRepository
	ledgerRepo repository.LedgerRepository
	alertRepo  repository.AlertRepository
	bomRepo    repository.BomRepository
	userRepo   repository.UserRepository
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry, cfg.App.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas")
	}

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar persistencia")
	}
	defer store.close()

	// Caché de recetas (opcional)
	bomRepo := store.bomRepo
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, recetas sin caché")
		} else {
			defer rdb.Close()
			bomRepo = cache.NewBomCache(bomRepo, rdb, cfg.Redis.BomCacheTTL, log)
		}
	}

	// Eventos de alerta: Kafka si hay brokers, si no al log.
	var publisher inventory.AlertPublisher = events.NewLogPublisher(log)
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.AlertsTopic))
		defer kp.Close()
		publisher = kp
	}

	prom := metrics.New()

	alertManager := inventory.NewAlertManager(store.txRunner, store.alertRepo, publisher, log, prom)
	catalogUC := inventory.NewCatalogUseCase(store.txRunner, store.itemRepo, alertManager, log)
	deductionUC := inventory.NewDeductionUseCase(store.txRunner, store.itemRepo, bomRepo, alertManager, log, prom)
	bomUC := inventory.NewBomUseCase(bomRepo, store.itemRepo, log)
	ledgerUC := inventory.NewLedgerQueryUseCase(
		store.txRunner, store.itemRepo, store.ledgerRepo, store.alertRepo,
		infrapdf.NewMarotoPDFGenerator(), log,
	)
	tokens := jwt.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL())
	authUC := auth.NewAuthUseCase(store.userRepo, tokens, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Catalog:     catalogUC,
		Deduction:   deductionUC,
		Bom:         bomUC,
		Alerts:      alertManager,
		LedgerQuery: ledgerUC,
		Auth:        authUC,
		Tokens:      tokens,
		ServiceName: cfg.App.Name,
		Registry:    prom.Registry(),
		Metrics:     prom,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de trazas")
	}

	log.Info().Msg("aplicación detenida")
}

// openStorage elige PostgreSQL o el almacén en memoria según STORAGE_DRIVER.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == "memory" {
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore(cfg.Storage.LockTimeout)
		return &storage{
			txRunner:   s,
			itemRepo:   s.StockItems(),
			ledgerRepo: s.Ledger(),
			alertRepo:  s.Alerts(),
			bomRepo:    s.Bom(),
			userRepo:   s.Users(),
			close:      func() {},
		}, nil
	}

	if cfg.Storage.MigrationsAuto {
		m, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log)
		if err != nil {
			return nil, err
		}
		upErr := m.Up()
		_ = m.Close()
		if upErr != nil {
			return nil, upErr
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &storage{
		txRunner:   postgres.NewTxRunner(pool, cfg.Storage.LockTimeout),
		itemRepo:   postgres.NewStockItemRepository(pool),
		ledgerRepo: postgres.NewLedgerRepository(pool),
		alertRepo:  postgres.NewAlertRepository(pool),
		bomRepo:    postgres.NewBomRepository(pool),
		userRepo:   postgres.NewUserRepository(pool),
		close:      pool.Close,
	}, nil
}
