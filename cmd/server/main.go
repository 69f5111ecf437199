package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/DoyleJ11/ttrpg-session-backend/internal/campaign"
	"github.com/DoyleJ11/ttrpg-session-backend/internal/config"
	"github.com/DoyleJ11/ttrpg-session-backend/internal/httpapi"
	"github.com/DoyleJ11/ttrpg-session-backend/internal/hub"
	"github.com/DoyleJ11/ttrpg-session-backend/internal/store"
)

func main() {
	cfg := config.Load()

	zapCfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = lvl
	}
	log, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	var st campaign.Store
	if cfg.DatabaseURL != "" {
		gs, err := store.Open(cfg.DatabaseURL, log)
		if err != nil {
			log.Fatal("open store", zap.Error(err))
		}
		st = gs
	} else {
		log.Warn("DATABASE_URL not set, campaigns will not survive a restart")
		st = store.NewMemoryStore()
	}

	ctx := context.Background()
	h := hub.NewHub(ctx, st, log)

	handler := httpapi.SetupRoutes(h, log)

	log.Info("listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
