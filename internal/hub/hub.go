package hub

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/ttrpg-session-backend/internal/campaign"
)

type HubMsg interface{ isHubMsg() }

type CreateCampaign struct {
	State campaign.State
	Reply chan *campaign.Campaign
}

type GetCampaign struct {
	ID    string
	Reply chan *campaign.Campaign
}

type RemoveCampaign struct {
	ID string
}

type ShutdownHub struct{}

func (CreateCampaign) isHubMsg() {}
func (GetCampaign) isHubMsg()    {}
func (RemoveCampaign) isHubMsg() {}
func (ShutdownHub) isHubMsg()    {}

const storeTimeout = 5 * time.Second

// Hub owns the campaign actors. Campaigns not in memory are revived from
// the store on demand, so a restart does not lose running games.
type Hub struct {
	inbox     chan HubMsg
	campaigns map[string]*campaign.Campaign
	store     campaign.Store
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewHub(parent context.Context, store campaign.Store, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:     make(chan HubMsg, 64),
		campaigns: make(map[string]*campaign.Campaign),
		store:     store,
		log:       log.Named("hub"),
		ctx:       ctx,
		cancel:    cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateCampaign:
				if c := h.campaigns[msg.State.CampaignID]; c != nil {
					msg.Reply <- c
					break
				}
				saveCtx, cancel := context.WithTimeout(h.ctx, storeTimeout)
				err := h.store.SaveCampaignAggregate(saveCtx, msg.State)
				cancel()
				if err != nil {
					h.log.Error("create failed", zap.String("campaign", msg.State.CampaignID), zap.Error(err))
					msg.Reply <- nil
					break
				}
				c := campaign.New(h.ctx, msg.State, h.store, h.log)
				h.campaigns[msg.State.CampaignID] = c
				msg.Reply <- c

			case GetCampaign:
				if c := h.campaigns[msg.ID]; c != nil {
					msg.Reply <- c
					break
				}
				msg.Reply <- h.revive(msg.ID) // may be nil

			case RemoveCampaign:
				if c := h.campaigns[msg.ID]; c != nil {
					c.Inbox() <- campaign.Shutdown{}
				}
				delete(h.campaigns, msg.ID)

			case ShutdownHub:
				for _, c := range h.campaigns {
					c.Inbox() <- campaign.Shutdown{}
				}
				clear(h.campaigns)
				h.cancel()
			}
		}
	}
}

func (h *Hub) revive(id string) *campaign.Campaign {
	loadCtx, cancel := context.WithTimeout(h.ctx, storeTimeout)
	state, err := h.store.LoadCampaignAggregate(loadCtx, id)
	cancel()
	if err != nil {
		if !errors.Is(err, campaign.ErrNotFound) {
			h.log.Error("load failed", zap.String("campaign", id), zap.Error(err))
		}
		return nil
	}

	c := campaign.New(h.ctx, state, h.store, h.log)
	h.campaigns[id] = c
	return c
}
