// create_admin da de alta al primer administrador de un restaurante.
//
// Uso: go run ./cmd/create_admin -tenant <company_id> -email admin@restaurante.co [-name "Nombre"]
// La contraseña se lee de STAFF_PASSWORD para no dejarla en el historial del shell.
// Con ese admin se obtiene un token en POST /api/auth/login y se registra al resto del personal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/stock-ledger/internal/application/auth"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	var (
		tenantID = flag.String("tenant", "", "company_id del restaurante")
		email    = flag.String("email", "", "email de login del administrador")
		name     = flag.String("name", "", "nombre visible")
	)
	flag.Parse()
	password := os.Getenv("STAFF_PASSWORD")
	if *tenantID == "" || *email == "" || password == "" {
		fmt.Fprintln(os.Stderr, "-tenant, -email y STAFF_PASSWORD son obligatorios")
		os.Exit(2)
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

	tokens := jwt.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL())
	uc := auth.NewAuthUseCase(postgres.NewUserRepository(pool), tokens, log)
	user, err := uc.Register(ctx, auth.RegisterInput{
		TenantID: *tenantID,
		Email:    *email,
		Password: password,
		Name:     *name,
		Role:     entity.RoleAdmin,
	})
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		fmt.Fprintf(os.Stderr, "El email %s ya está registrado\n", *email)
		os.Exit(1)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Crear administrador: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Administrador %s creado para el restaurante %s (id %s)\n", user.Email, user.TenantID, user.ID)
}
