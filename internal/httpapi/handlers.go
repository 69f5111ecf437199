package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/ttrpg-session-backend/internal/campaign"
	"github.com/DoyleJ11/ttrpg-session-backend/internal/hub"
	"github.com/DoyleJ11/ttrpg-session-backend/internal/types"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// CreateCampaign mints a fresh join code and spins up the campaign actor.
func CreateCampaign(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body) // empty body means unnamed campaign

		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			reply := make(chan *campaign.Campaign, 1)
			h.Inbox() <- hub.GetCampaign{ID: c, Reply: reply}
			if <-reply == nil {
				code = c
				break
			}
			log.Info("collision on code, regenerating")
		}

		reply := make(chan *campaign.Campaign, 1)
		h.Inbox() <- hub.CreateCampaign{State: campaign.State{CampaignID: code, Name: body.Name}, Reply: reply}
		if <-reply == nil {
			http.Error(w, "failed to create campaign", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

// GetCampaignState returns the full snapshot, the same payload a viewer
// gets on websocket join.
func GetCampaignState(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := resolveCampaign(h, chi.URLParam(r, "code"))
		if c == nil {
			http.Error(w, "campaign not found", http.StatusNotFound)
			return
		}

		reply := make(chan campaign.View, 1)
		c.Inbox() <- campaign.GetState{Reply: reply}
		view := <-reply

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(view.Snapshot)
	}
}

// Action is the tool-invocation gateway: one mutation in, a typed result
// and the routed events out.
func Action(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	log = log.Named("gateway")
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		c := resolveCampaign(h, code)
		if c == nil {
			http.Error(w, "campaign not found", http.StatusNotFound)
			return
		}

		var cm types.ClientMessage
		if err := json.NewDecoder(r.Body).Decode(&cm); err != nil {
			writeFailure(w, http.StatusBadRequest, "bad json")
			return
		}
		cmd, ok := cm.Command()
		if !ok {
			writeFailure(w, http.StatusBadRequest, "unknown action "+cm.Type)
			return
		}

		reply := make(chan campaign.Result, 1)
		c.Inbox() <- campaign.FromClient{Cmd: cmd, Reply: reply}
		res := <-reply

		if res.Err != nil {
			log.Info("action rejected",
				zap.String("campaign", code),
				zap.String("action", cm.Type),
				zap.Error(res.Err))
			writeFailure(w, statusFor(res.Err), res.Err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			OK     bool             `json:"ok"`
			Events []campaign.Event `json:"events"`
		}{OK: true, Events: res.Events})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, campaign.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, campaign.ErrValidation), errors.Is(err, campaign.ErrUnsupportedCommand):
		return http.StatusBadRequest
	case errors.Is(err, campaign.ErrPersistence):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}{Error: msg})
}

func resolveCampaign(h *hub.Hub, code string) *campaign.Campaign {
	if code == "" {
		return nil
	}
	reply := make(chan *campaign.Campaign, 1)
	h.Inbox() <- hub.GetCampaign{ID: code, Reply: reply}
	return <-reply
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
