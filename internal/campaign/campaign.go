package campaign

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/ttrpg-session-backend/internal/router"
)

// Store is the persistence boundary. Saves are whole-aggregate and atomic:
// a failed save means the mutation never happened.
type Store interface {
	LoadCampaignAggregate(ctx context.Context, id string) (State, error)
	SaveCampaignAggregate(ctx context.Context, s State) error
}

const saveTimeout = 5 * time.Second

type Msg interface{ isCampaignMsg() }

type Join struct {
	ClientID string
	Role     router.Role
	Outbox   chan Delivery // where this viewer receives deliveries
}

func (Join) isCampaignMsg() {}

type Leave struct{ ClientID string }

func (Leave) isCampaignMsg() {}

// FromClient carries one mutation. Reply is optional; the tool gateway
// waits on it, fire-and-forget senders leave it nil.
type FromClient struct {
	Cmd   Command
	Reply chan Result
}

func (FromClient) isCampaignMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isCampaignMsg() {}

type Shutdown struct{}

func (Shutdown) isCampaignMsg() {}

type Result struct {
	Events []Event
	Err    error
}

// Delivery is what a connected viewer receives: a full snapshot on join,
// then one routed event per committed mutation.
type Delivery struct {
	Version  int       `json:"version"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Event    *Event    `json:"event,omitempty"`
}

// View reflects internal actor state without data races.
type View struct {
	Version    int
	NumClients int
	Snapshot   Snapshot
}

type client struct {
	role   router.Role
	outbox chan Delivery
}

// Campaign is the single writer for one campaign's aggregate. Every
// mutation flows through its inbox, so the resolve-apply-persist-emit
// sequence can never interleave with another request.
type Campaign struct {
	inbox   chan Msg
	state   State
	version int
	clients map[string]client
	store   Store
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, initial State, store Store, log *zap.Logger) *Campaign {
	ctx, cancel := context.WithCancel(parent)

	c := &Campaign{
		inbox:   make(chan Msg, 64),
		state:   initial,
		version: 0,
		clients: make(map[string]client),
		store:   store,
		log:     log.With(zap.String("campaign", initial.CampaignID)),
		ctx:     ctx,
		cancel:  cancel,
	}

	go c.loop()
	return c
}

func (c *Campaign) Inbox() chan<- Msg { return c.inbox }

func (c *Campaign) loop() {
	for {
		select {
		case <-c.ctx.Done():
			c.shutdown()
			return

		case m := <-c.inbox:
			switch msg := m.(type) {
			case Join:
				c.clients[msg.ClientID] = client{role: msg.Role, outbox: msg.Outbox}
				snap := c.state.snapshot(c.version)
				msg.Outbox <- Delivery{Version: c.version, Snapshot: &snap}

			case Leave:
				if cl, ok := c.clients[msg.ClientID]; ok {
					close(cl.outbox)
					delete(c.clients, msg.ClientID)
				}

			case FromClient:
				c.handleCommand(msg)

			case GetState:
				msg.Reply <- View{
					Version:    c.version,
					NumClients: len(c.clients),
					Snapshot:   c.state.snapshot(c.version),
				}

			case Shutdown:
				c.shutdown()
				return
			}
		}
	}
}

// handleCommand is the coordinator sequence: apply on a copy, persist the
// copy, commit, then notify. Any failure leaves the in-memory state exactly
// as it was and emits nothing.
func (c *Campaign) handleCommand(msg FromClient) {
	events, newState, err := Apply(c.state, msg.Cmd)
	if err == nil {
		saveCtx, cancel := context.WithTimeout(c.ctx, saveTimeout)
		if saveErr := c.store.SaveCampaignAggregate(saveCtx, newState); saveErr != nil {
			err = fmt.Errorf("%w: %v", ErrPersistence, saveErr)
		}
		cancel()
	}

	if err != nil {
		c.log.Warn("mutation rejected",
			zap.String("command", string(msg.Cmd.Type)),
			zap.Error(err))
		if msg.Reply != nil {
			msg.Reply <- Result{Err: err}
		}
		return
	}

	c.state = newState
	c.version++
	if msg.Reply != nil {
		msg.Reply <- Result{Events: events}
	}

	// Notification is fire-and-forget relative to the committed mutation.
	for i := range events {
		evt := events[i]
		aud, ok := router.Route(string(evt.Type))
		if !ok {
			c.log.Error("event has no route", zap.String("event", string(evt.Type)))
			continue
		}
		c.broadcast(aud, Delivery{Version: c.version, Event: &evt})
	}
}

func (c *Campaign) broadcast(aud router.Audience, d Delivery) {
	for id, cl := range c.clients {
		if !aud.Includes(cl.role) {
			continue
		}
		select {
		case cl.outbox <- d:
			// ok
		default:
			// Client is slow/full - drop them.
			close(cl.outbox)
			delete(c.clients, id)
			c.log.Info("dropped slow client", zap.String("client", id))
		}
	}
}

func (c *Campaign) shutdown() {
	for id, cl := range c.clients {
		close(cl.outbox)
		delete(c.clients, id)
	}
	c.cancel()
}
