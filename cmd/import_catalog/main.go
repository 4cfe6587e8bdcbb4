// import_catalog da de alta en lote los insumos de un restaurante desde un CSV.
//
// Uso: go run ./cmd/import_catalog -tenant <company_id> -file insumos.csv [-charset ISO-8859-1]
// Los códigos que ya existen se informan y se omiten; la cantidad inicial queda en el ledger
// como MANUAL_ADDITION.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/catalogcsv"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	var (
		tenantID = flag.String("tenant", "", "company_id del restaurante")
		path     = flag.String("file", "insumos.csv", "archivo CSV del catálogo")
		charset  = flag.String("charset", "", "UTF-8 (por defecto), ISO-8859-1 o windows-1252")
		actorID  = flag.String("actor", "import_catalog", "actor registrado en el ledger")
	)
	flag.Parse()
	if *tenantID == "" {
		fmt.Fprintln(os.Stderr, "-tenant es obligatorio")
		os.Exit(2)
	}

	f, err := os.Open(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, err := catalogcsv.Read(f, *charset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	txRunner := postgres.NewTxRunner(pool, cfg.Storage.LockTimeout)
	itemRepo := postgres.NewStockItemRepository(pool)
	alerts := inventory.NewAlertManager(txRunner, postgres.NewAlertRepository(pool), nil, log, nil)
	catalog := inventory.NewCatalogUseCase(txRunner, itemRepo, alerts, log)

	created, skipped := 0, 0
	for _, in := range rows {
		in.TenantID = *tenantID
		in.ActorID = *actorID
		if _, err := catalog.Create(ctx, in); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				skipped++
				log.Warn().Str("code", in.Code).Msg("insumo ya existe, se omite")
				continue
			}
			fmt.Fprintf(os.Stderr, "Crear %s: %v\n", in.Code, err)
			os.Exit(1)
		}
		created++
	}

	fmt.Printf("Importados %d insumos (%d omitidos por código repetido)\n", created, skipped)
}
