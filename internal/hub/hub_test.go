package hub

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/DoyleJ11/ttrpg-session-backend/internal/campaign"
	"github.com/DoyleJ11/ttrpg-session-backend/internal/store"
)

func TestCreateThenGetReturnsSameCampaign(t *testing.T) {
	h := NewHub(context.Background(), store.NewMemoryStore(), zap.NewNop())
	defer func() { h.Inbox() <- ShutdownHub{} }()

	created := make(chan *campaign.Campaign, 1)
	h.Inbox() <- CreateCampaign{State: campaign.State{CampaignID: "camp1", Name: "Crypt"}, Reply: created}
	c1 := <-created
	if c1 == nil {
		t.Fatalf("create returned nil")
	}

	got := make(chan *campaign.Campaign, 1)
	h.Inbox() <- GetCampaign{ID: "camp1", Reply: got}
	if c2 := <-got; c2 != c1 {
		t.Fatalf("get returned a different campaign")
	}
}

func TestGetUnknownCampaignIsNil(t *testing.T) {
	h := NewHub(context.Background(), store.NewMemoryStore(), zap.NewNop())
	defer func() { h.Inbox() <- ShutdownHub{} }()

	got := make(chan *campaign.Campaign, 1)
	h.Inbox() <- GetCampaign{ID: "nope", Reply: got}
	if c := <-got; c != nil {
		t.Fatalf("expected nil for unknown campaign")
	}
}

func TestGetRevivesPersistedCampaign(t *testing.T) {
	st := store.NewMemoryStore()
	if err := st.SaveCampaignAggregate(context.Background(), campaign.State{CampaignID: "camp2", Name: "Bay"}); err != nil {
		t.Fatalf("seed save: %v", err)
	}

	h := NewHub(context.Background(), st, zap.NewNop())
	defer func() { h.Inbox() <- ShutdownHub{} }()

	got := make(chan *campaign.Campaign, 1)
	h.Inbox() <- GetCampaign{ID: "camp2", Reply: got}
	if c := <-got; c == nil {
		t.Fatalf("persisted campaign must be revived")
	}
}
