package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/ttrpg-session-backend/internal/hub"
	"github.com/DoyleJ11/ttrpg-session-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/campaigns", CreateCampaign(h, log))
	r.Get("/campaigns/{code}", GetCampaignState(h))
	r.Post("/campaigns/{code}/actions", Action(h, log))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))
	return r
}
