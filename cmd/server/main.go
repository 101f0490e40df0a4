package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sukryu/pStore/internal/config"
	"github.com/sukryu/pStore/internal/store/manager"
	"github.com/sukryu/pStore/internal/store/query"
	"github.com/sukryu/pStore/internal/store/schema"
	"github.com/sukryu/pStore/pkg/apis/handlers"
	"github.com/sukryu/pStore/pkg/apis/router"
	"github.com/sukryu/pStore/pkg/controllers"
	"github.com/sukryu/pStore/pkg/utils/jwt"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	mgr, err := manager.NewSQLManager(manager.Config{
		Type:     cfg.Database.Driver,
		DSN:      cfg.Database.DSN,
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer mgr.Close()

	ctx := context.Background()
	if err := mgr.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Load persisted schemas into the catalog.
	schemaStore := schema.NewStore(mgr.GetDB())
	if err := schemaStore.Initialize(ctx); err != nil {
		log.Fatalf("Failed to migrate schema store: %v", err)
	}
	registry := schema.NewRegistry()
	descs, err := schemaStore.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load schemas: %v", err)
	}
	for _, desc := range descs {
		if err := registry.Register(desc); err != nil {
			log.Fatalf("Failed to register schema %s: %v", desc.Name, err)
		}
	}

	engine := query.NewEngine(mgr.SQLDB())
	tableManager := schema.NewTableManager(mgr.SQLDB())

	jwtManager := jwt.NewJWTManager(cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenExpiration)*time.Second)

	schemaController := controllers.NewSchemaController(registry, schemaStore, tableManager)
	resourceController := controllers.NewResourceController(engine, registry)

	authHandler := handlers.NewAuthHandler(jwtManager, cfg.Auth.AdminUser, cfg.Auth.AdminPasswordHash)
	schemaHandler := handlers.NewSchemaHandler(schemaController)
	resourceHandler := handlers.NewResourceHandler(resourceController)

	r := router.NewRouter(authHandler, schemaHandler, resourceHandler, jwtManager)
	srv := r.Setup()

	log.Printf("Server starting on %s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := srv.Run(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
