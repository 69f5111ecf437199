package campaign

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/DoyleJ11/ttrpg-session-backend/internal/encounter"
	"github.com/DoyleJ11/ttrpg-session-backend/internal/vitality"
)

// Apply runs one mutation against a copy of the aggregate and returns the
// events it produced plus the new state. On error the returned state is the
// input, untouched; callers must only commit the new state after it has been
// persisted.
func Apply(s State, cmd Command) ([]Event, State, error) {
	ns := s.Clone()

	switch cmd.Type {
	case CmdStartCombat:
		return applyStartCombat(s, ns, cmd)
	case CmdSetInitiative:
		return applySetInitiative(s, ns, cmd.Target, cmd.IntValue)
	case CmdAdvanceTurn:
		return applyAdvanceTurn(s, ns)
	case CmdUpdateCharacter:
		return applyUpdateCharacter(s, ns, cmd)
	case CmdMarkDefeated:
		return applyMarkDefeated(s, ns, cmd.Target)
	case CmdEndCombat:
		return applyEndCombat(s, ns)
	case CmdAddCharacter:
		return applyAddCharacter(s, ns, cmd)
	case CmdRemoveCharacter:
		return applyRemoveCharacter(s, ns, cmd.Target)
	case CmdPresentChoices:
		if len(cmd.Choices) == 0 {
			return nil, s, fmt.Errorf("%w: no choices to present", ErrValidation)
		}
		evt := newEvent(ns, EvtChoicesPresented)
		evt.Choices = cmd.Choices
		return []Event{evt}, ns, nil
	case CmdSubmitChoice:
		if cmd.Choice == nil || cmd.Choice.ChoiceID == "" {
			return nil, s, fmt.Errorf("%w: missing choice selection", ErrValidation)
		}
		evt := newEvent(ns, EvtChoiceSubmitted)
		evt.Choice = cmd.Choice
		return []Event{evt}, ns, nil
	case CmdNarrativeCue:
		if cmd.Cue == nil || cmd.Cue.Text == "" || !validCueKind(cmd.Cue.Kind) {
			return nil, s, fmt.Errorf("%w: bad narrative cue", ErrValidation)
		}
		evt := newEvent(ns, EvtNarrativeCue)
		evt.Cue = cmd.Cue
		return []Event{evt}, ns, nil
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func applyStartCombat(s, ns State, cmd Command) ([]Event, State, error) {
	if ns.InCombat() {
		return nil, s, fmt.Errorf("%w: combat already active", ErrInvalidState)
	}
	if len(cmd.Combatants) == 0 {
		return nil, s, fmt.Errorf("%w: no combatants", ErrValidation)
	}

	seeds := make([]encounter.Seed, 0, len(cmd.Combatants))
	for _, spec := range cmd.Combatants {
		if spec.ID == "" {
			return nil, s, fmt.Errorf("%w: combatant without id", ErrValidation)
		}
		c := ns.CharacterByID(spec.ID)
		if c == nil {
			// Ad hoc combatant (a monster the DM just threw in): add it
			// to the roster so HP has exactly one home.
			if spec.Name == "" || spec.MaxHP <= 0 {
				return nil, s, fmt.Errorf("%w: combatant %q needs a name and max hp", ErrValidation, spec.ID)
			}
			if spec.Kind != vitality.KindPC && spec.Kind != vitality.KindEnemy {
				return nil, s, fmt.Errorf("%w: combatant %q has unknown kind %q", ErrValidation, spec.ID, spec.Kind)
			}
			hp := spec.CurrentHP
			if hp == 0 {
				hp = spec.MaxHP
			}
			c = &vitality.Character{
				ID:        spec.ID,
				Name:      spec.Name,
				Kind:      spec.Kind,
				MaxHP:     spec.MaxHP,
				CurrentHP: clampHP(hp, spec.MaxHP),
			}
			ns.Roster = append(ns.Roster, c)
		}
		c.Initiative = spec.Initiative
		seeds = append(seeds, encounter.Seed{
			CharacterID: c.ID,
			Kind:        c.Kind,
			Initiative:  spec.Initiative,
			Surprised:   spec.Surprised,
		})
	}

	enc, err := encounter.Start(uuid.NewString(), seeds)
	if err != nil {
		return nil, s, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	ns.Encounter = enc

	evt := newEvent(ns, EvtCombatStarted)
	evt.Encounter = ns.encounterView()
	return []Event{evt}, ns, nil
}

func applySetInitiative(s, ns State, target string, value int) ([]Event, State, error) {
	c, err := ns.Resolve(target)
	if err != nil {
		return nil, s, err
	}

	if ns.InCombat() && ns.Encounter.Contains(c.ID) {
		if err := ns.Encounter.SetInitiative(c.ID, value); err != nil {
			return nil, s, fmt.Errorf("%w: %s is not in the turn order", ErrInvalidState, c.Name)
		}
	} else if c.Kind == vitality.KindEnemy && c.CurrentHP == 0 && ns.InCombat() {
		// A defeated enemy has left the order; its initiative is no
		// longer anyone's business. Bystanders get a plain roster update.
		return nil, s, fmt.Errorf("%w: %s has been defeated", ErrInvalidState, c.Name)
	}

	c.Initiative = value
	return []Event{characterEvent(ns, viewOf(c))}, ns, nil
}

func applyAdvanceTurn(s, ns State) ([]Event, State, error) {
	if !ns.InCombat() {
		return nil, s, fmt.Errorf("%w: no active combat", ErrInvalidState)
	}

	wrapped := ns.Encounter.AdvanceTurn()
	t := EvtTurnAdvanced
	if wrapped {
		t = EvtRoundAdvanced
	}
	evt := newEvent(ns, t)
	evt.Encounter = ns.encounterView()
	return []Event{evt}, ns, nil
}

func applyUpdateCharacter(s, ns State, cmd Command) ([]Event, State, error) {
	c, err := ns.Resolve(cmd.Target)
	if err != nil {
		return nil, s, err
	}

	switch cmd.Key {
	case KeyCurrentHP:
		c.SetHP(cmd.IntValue)
	case KeyInitiative:
		return applySetInitiative(s, ns, cmd.Target, cmd.IntValue)
	case KeyConditions:
		c.Conditions = slices.Clone(cmd.ListValue)
	case KeyAddCondition:
		if cmd.TextValue == "" {
			return nil, s, fmt.Errorf("%w: empty condition", ErrValidation)
		}
		c.AddCondition(cmd.TextValue)
	case KeyStatusNotes:
		c.StatusNotes = cmd.TextValue
	case KeyDeathSaveSuccess:
		if c.CurrentHP > 0 {
			return nil, s, fmt.Errorf("%w: %s is not making death saves", ErrInvalidState, c.Name)
		}
		if err := c.RecordDeathSaveSuccess(cmd.IntValue); err != nil {
			return nil, s, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	case KeyDeathSaveFailure:
		if c.CurrentHP > 0 {
			return nil, s, fmt.Errorf("%w: %s is not making death saves", ErrInvalidState, c.Name)
		}
		if err := c.RecordDeathSaveFailure(cmd.IntValue); err != nil {
			return nil, s, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	case KeyStabilize:
		if c.CurrentHP > 0 {
			return nil, s, fmt.Errorf("%w: %s does not need stabilizing", ErrInvalidState, c.Name)
		}
		c.Stabilize()
	default:
		return nil, s, fmt.Errorf("%w: unknown key %q", ErrValidation, cmd.Key)
	}

	ended := removeIfDefeated(&ns, c)
	events := []Event{characterEvent(ns, viewOf(c))}
	if ended {
		events = append(events, newEvent(ns, EvtCombatEnded))
	}
	return events, ns, nil
}

func applyMarkDefeated(s, ns State, target string) ([]Event, State, error) {
	if !ns.InCombat() {
		return nil, s, fmt.Errorf("%w: no active combat", ErrInvalidState)
	}
	c, err := ns.Resolve(target)
	if err != nil {
		return nil, s, err
	}
	if c.Kind != vitality.KindEnemy {
		return nil, s, fmt.Errorf("%w: %s is not an enemy", ErrInvalidState, c.Name)
	}

	c.SetHP(0)
	ended, err := ns.Encounter.MarkDefeated(c.ID)
	if err != nil {
		return nil, s, fmt.Errorf("%w: %s is not in the turn order", ErrInvalidState, c.Name)
	}
	if ended {
		ns.Encounter = nil
	}

	events := []Event{characterEvent(ns, viewOf(c))}
	if ended {
		events = append(events, newEvent(ns, EvtCombatEnded))
	}
	return events, ns, nil
}

func applyEndCombat(s, ns State) ([]Event, State, error) {
	if !ns.InCombat() {
		return nil, s, fmt.Errorf("%w: no active combat", ErrInvalidState)
	}
	ns.Encounter = nil
	return []Event{newEvent(ns, EvtCombatEnded)}, ns, nil
}

func applyAddCharacter(s, ns State, cmd Command) ([]Event, State, error) {
	c := cmd.Character
	if c == nil {
		return nil, s, fmt.Errorf("%w: missing character", ErrValidation)
	}
	if c.ID == "" || c.Name == "" || c.MaxHP <= 0 {
		return nil, s, fmt.Errorf("%w: character needs id, name and max hp", ErrValidation)
	}
	if c.Kind != vitality.KindPC && c.Kind != vitality.KindEnemy {
		return nil, s, fmt.Errorf("%w: unknown character kind %q", ErrValidation, c.Kind)
	}
	if ns.CharacterByID(c.ID) != nil {
		return nil, s, fmt.Errorf("%w: character %q already exists", ErrValidation, c.ID)
	}

	dup := c.Clone()
	dup.CurrentHP = clampHP(dup.CurrentHP, dup.MaxHP)
	ns.Roster = append(ns.Roster, dup)

	return []Event{characterEvent(ns, viewOf(dup))}, ns, nil
}

func applyRemoveCharacter(s, ns State, target string) ([]Event, State, error) {
	c, err := ns.Resolve(target)
	if err != nil {
		return nil, s, err
	}
	if ns.InCombat() && ns.Encounter.Contains(c.ID) {
		return nil, s, fmt.Errorf("%w: %s is in the active encounter", ErrInvalidState, c.Name)
	}

	ns.Roster = slices.DeleteFunc(ns.Roster, func(rc *vitality.Character) bool {
		return rc.ID == c.ID
	})

	evt := newEvent(ns, EvtCharacterRemoved)
	view := viewOf(c)
	evt.Character = &view
	return []Event{evt}, ns, nil
}

// removeIfDefeated pulls an enemy that just hit 0 HP out of the turn order.
// Returns true when that defeat ended the encounter.
func removeIfDefeated(ns *State, c *vitality.Character) bool {
	if c.Kind != vitality.KindEnemy || c.CurrentHP > 0 {
		return false
	}
	if !ns.InCombat() || !ns.Encounter.Contains(c.ID) {
		return false
	}
	ended, err := ns.Encounter.MarkDefeated(c.ID)
	if err != nil {
		return false
	}
	if ended {
		ns.Encounter = nil
	}
	return ended
}

func clampHP(hp, maxHP int) int {
	if hp < 0 {
		return 0
	}
	if hp > maxHP {
		return maxHP
	}
	return hp
}

func newEvent(s State, t EventType) Event {
	return Event{ID: uuid.NewString(), Type: t, CampaignID: s.CampaignID}
}

func characterEvent(s State, view CharacterView) Event {
	evt := newEvent(s, EvtCharacterUpdated)
	evt.Character = &view
	evt.Encounter = s.encounterView()
	return evt
}

func validCueKind(k CueKind) bool {
	switch k {
	case CuePulse, CueAnchor, CueGroupInsight:
		return true
	}
	return false
}
