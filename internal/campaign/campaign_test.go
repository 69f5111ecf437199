package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/ttrpg-session-backend/internal/router"
)

// helper: receive one delivery with a timeout so tests never hang
func recvDelivery(t *testing.T, ch <-chan Delivery, within time.Duration) Delivery {
	t.Helper()
	select {
	case d, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return d
	case <-time.After(within):
		t.Fatalf("timed out waiting for delivery")
		return Delivery{} // unreachable
	}
}

func recvNoDelivery(t *testing.T, ch <-chan Delivery, within time.Duration) {
	t.Helper()
	select {
	case d, ok := <-ch:
		if ok {
			t.Fatalf("unexpected delivery: %+v", d)
		}
	case <-time.After(within):
	}
}

type stubStore struct {
	fail  bool
	saves int
}

func (s *stubStore) LoadCampaignAggregate(ctx context.Context, id string) (State, error) {
	return State{}, ErrNotFound
}

func (s *stubStore) SaveCampaignAggregate(ctx context.Context, st State) error {
	s.saves++
	if s.fail {
		return errors.New("db down")
	}
	return nil
}

func newTestCampaign(t *testing.T, store Store) *Campaign {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, partyState(), store, zap.NewNop())
}

func sendCommand(t *testing.T, c *Campaign, cmd Command) Result {
	t.Helper()
	reply := make(chan Result, 1)
	c.Inbox() <- FromClient{Cmd: cmd, Reply: reply}
	select {
	case res := <-reply:
		return res
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for command result")
		return Result{} // unreachable
	}
}

func TestJoinReceivesFullSnapshot(t *testing.T) {
	c := newTestCampaign(t, &stubStore{})

	out := make(chan Delivery, 8)
	c.Inbox() <- Join{ClientID: "dm1", Role: router.RoleDM, Outbox: out}

	d := recvDelivery(t, out, time.Second)
	if d.Snapshot == nil {
		t.Fatalf("join must deliver a snapshot, got %+v", d)
	}
	if len(d.Snapshot.Roster) != 3 {
		t.Fatalf("roster = %d characters, want 3", len(d.Snapshot.Roster))
	}
}

func TestMutationDeliveredOncePerInterestedClient(t *testing.T) {
	c := newTestCampaign(t, &stubStore{})

	dm := make(chan Delivery, 8)
	player := make(chan Delivery, 8)
	c.Inbox() <- Join{ClientID: "dm1", Role: router.RoleDM, Outbox: dm}
	c.Inbox() <- Join{ClientID: "p1", Role: router.RolePlayer, Outbox: player}
	recvDelivery(t, dm, time.Second)     // join snapshot
	recvDelivery(t, player, time.Second) // join snapshot

	res := sendCommand(t, c, Command{Type: CmdUpdateCharacter, Target: "elara", Key: KeyCurrentHP, IntValue: 7})
	if res.Err != nil {
		t.Fatalf("unexpected err: %v", res.Err)
	}

	for _, ch := range []chan Delivery{dm, player} {
		d := recvDelivery(t, ch, time.Second)
		if d.Event == nil || d.Event.Type != EvtCharacterUpdated {
			t.Fatalf("delivery = %+v, want CharacterUpdated", d)
		}
		if d.Event.Character.CurrentHP != 7 {
			t.Fatalf("payload hp = %d, want 7", d.Event.Character.CurrentHP)
		}
		recvNoDelivery(t, ch, 50*time.Millisecond) // exactly one per client
	}
}

func TestPlayerChoiceGoesToDMOnly(t *testing.T) {
	c := newTestCampaign(t, &stubStore{})

	dm := make(chan Delivery, 8)
	player := make(chan Delivery, 8)
	c.Inbox() <- Join{ClientID: "dm1", Role: router.RoleDM, Outbox: dm}
	c.Inbox() <- Join{ClientID: "p1", Role: router.RolePlayer, Outbox: player}
	recvDelivery(t, dm, time.Second)
	recvDelivery(t, player, time.Second)

	sendCommand(t, c, Command{Type: CmdSubmitChoice, Choice: &ChoiceSelection{PlayerID: "p1", ChoiceID: "c1"}})

	d := recvDelivery(t, dm, time.Second)
	if d.Event.Type != EvtChoiceSubmitted {
		t.Fatalf("dm delivery = %+v", d)
	}
	recvNoDelivery(t, player, 50*time.Millisecond)
}

func TestNarrativeCueGoesToPlayersOnly(t *testing.T) {
	c := newTestCampaign(t, &stubStore{})

	dm := make(chan Delivery, 8)
	player := make(chan Delivery, 8)
	c.Inbox() <- Join{ClientID: "dm1", Role: router.RoleDM, Outbox: dm}
	c.Inbox() <- Join{ClientID: "p1", Role: router.RolePlayer, Outbox: player}
	recvDelivery(t, dm, time.Second)
	recvDelivery(t, player, time.Second)

	sendCommand(t, c, Command{Type: CmdNarrativeCue, Cue: &NarrativeCue{Kind: CueAnchor, Text: "The lighthouse beam sweeps the bay."}})

	d := recvDelivery(t, player, time.Second)
	if d.Event.Type != EvtNarrativeCue {
		t.Fatalf("player delivery = %+v", d)
	}
	recvNoDelivery(t, dm, 50*time.Millisecond)
}

func TestPersistenceFailureRollsBackAndStaysSilent(t *testing.T) {
	store := &stubStore{fail: true}
	c := newTestCampaign(t, store)

	out := make(chan Delivery, 8)
	c.Inbox() <- Join{ClientID: "p1", Role: router.RolePlayer, Outbox: out}
	recvDelivery(t, out, time.Second)

	res := sendCommand(t, c, Command{Type: CmdUpdateCharacter, Target: "elara", Key: KeyCurrentHP, IntValue: 1})
	if !errors.Is(res.Err, ErrPersistence) {
		t.Fatalf("want ErrPersistence, got %v", res.Err)
	}

	recvNoDelivery(t, out, 50*time.Millisecond)

	view := getView(t, c)
	if view.Version != 0 {
		t.Fatalf("version = %d, want 0", view.Version)
	}
	for _, cv := range view.Snapshot.Roster {
		if cv.ID == "elara" && cv.CurrentHP != 20 {
			t.Fatalf("hp = %d, failed save must not commit", cv.CurrentHP)
		}
	}
}

func TestRejectedMutationEmitsNothing(t *testing.T) {
	store := &stubStore{}
	c := newTestCampaign(t, store)

	res := sendCommand(t, c, Command{Type: CmdAdvanceTurn})
	if !errors.Is(res.Err, ErrInvalidState) {
		t.Fatalf("want ErrInvalidState, got %v", res.Err)
	}
	if store.saves != 0 {
		t.Fatalf("rejected mutation must not hit the store, saves=%d", store.saves)
	}
}

func TestSequentialMutationsDeliverInOrder(t *testing.T) {
	c := newTestCampaign(t, &stubStore{})

	out := make(chan Delivery, 16)
	c.Inbox() <- Join{ClientID: "p1", Role: router.RolePlayer, Outbox: out}
	recvDelivery(t, out, time.Second)

	hps := []int{15, 10, 5}
	for _, hp := range hps {
		sendCommand(t, c, Command{Type: CmdUpdateCharacter, Target: "elara", Key: KeyCurrentHP, IntValue: hp})
	}

	lastVersion := 0
	for _, hp := range hps {
		d := recvDelivery(t, out, time.Second)
		if d.Event.Character.CurrentHP != hp {
			t.Fatalf("out of order: got hp %d, want %d", d.Event.Character.CurrentHP, hp)
		}
		if d.Version <= lastVersion {
			t.Fatalf("versions must increase: %d after %d", d.Version, lastVersion)
		}
		lastVersion = d.Version
	}
}

func getView(t *testing.T, c *Campaign) View {
	t.Helper()
	reply := make(chan View, 1)
	c.Inbox() <- GetState{Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}
