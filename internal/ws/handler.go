package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/ttrpg-session-backend/internal/campaign"
	"github.com/DoyleJ11/ttrpg-session-backend/internal/hub"
	"github.com/DoyleJ11/ttrpg-session-backend/internal/router"
	"github.com/DoyleJ11/ttrpg-session-backend/internal/types"
)

const writeTimeout = 3 * time.Second

// Handler upgrades a viewer connection and bridges it to the campaign
// actor: deliveries out, commands in. The role decides which routed events
// this connection receives.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	log = log.Named("ws")
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		role, ok := router.ParseRole(r.URL.Query().Get("role"))
		if !ok {
			http.Error(w, "role must be dm or player", http.StatusBadRequest)
			return
		}

		reply := make(chan *campaign.Campaign, 1)
		h.Inbox() <- hub.GetCampaign{ID: code, Reply: reply}
		c := <-reply
		if c == nil {
			http.Error(w, "campaign not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan campaign.Delivery, 8)
		clientID := uuid.NewString()

		c.Inbox() <- campaign.Join{ClientID: clientID, Role: role, Outbox: out}
		defer func() { c.Inbox() <- campaign.Leave{ClientID: clientID} }()

		log.Info("viewer joined",
			zap.String("campaign", code),
			zap.String("client", clientID),
			zap.String("role", string(role)))

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for d := range out {
				msg := types.ServerMessage{Version: d.Version}
				switch {
				case d.Snapshot != nil:
					msg.Type = "Snapshot"
					msg.Snapshot = d.Snapshot
				case d.Event != nil:
					msg.Type = "Event"
					msg.Event = d.Event
				default:
					continue
				}
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			cmd, ok := cm.Command()
			if !ok {
				writeError(r.Context(), conn, "unknown type")
				continue
			}

			res := make(chan campaign.Result, 1)
			c.Inbox() <- campaign.FromClient{Cmd: cmd, Reply: res}
			if result := <-res; result.Err != nil {
				writeError(r.Context(), conn, result.Err.Error())
			}
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "Error", Error: msg})
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}
