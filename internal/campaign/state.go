package campaign

import (
	"errors"
	"fmt"

	"github.com/DoyleJ11/ttrpg-session-backend/internal/encounter"
	"github.com/DoyleJ11/ttrpg-session-backend/internal/vitality"
)

var ErrNotFound = errors.New("not found")
var ErrInvalidState = errors.New("invalid state")
var ErrValidation = errors.New("validation failed")
var ErrPersistence = errors.New("persistence failed")
var ErrUnsupportedCommand = errors.New("unsupported command")

// State is the whole per-campaign aggregate: the durable roster plus the
// transient encounter (nil = no active combat). Encounter entries reference
// roster characters by ID only; HP and conditions have a single home.
type State struct {
	CampaignID string
	Name       string
	Roster     []*vitality.Character
	Encounter  *encounter.Encounter
}

func (s State) Clone() State {
	dup := s
	dup.Roster = make([]*vitality.Character, 0, len(s.Roster))
	for _, c := range s.Roster {
		dup.Roster = append(dup.Roster, c.Clone())
	}
	if s.Encounter != nil {
		dup.Encounter = s.Encounter.Clone()
	}
	return dup
}

func (s State) CharacterByID(id string) *vitality.Character {
	for _, c := range s.Roster {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Resolve finds a character by ID or exact name. Zero matches and ambiguous
// names both fail; a mutation never guesses its target.
func (s State) Resolve(nameOrID string) (*vitality.Character, error) {
	if c := s.CharacterByID(nameOrID); c != nil {
		return c, nil
	}

	var found *vitality.Character
	for _, c := range s.Roster {
		if c.Name != nameOrID {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: name %q is ambiguous", ErrNotFound, nameOrID)
		}
		found = c
	}
	if found == nil {
		return nil, fmt.Errorf("%w: character %q", ErrNotFound, nameOrID)
	}
	return found, nil
}

// InCombat reports whether combat is currently running.
func (s State) InCombat() bool {
	return s.Encounter != nil && s.Encounter.Active
}

// CharacterView is the full wire-facing state of one character. Every event
// that touches a character carries one of these, never a diff.
type CharacterView struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Kind               vitality.Kind   `json:"kind"`
	MaxHP              int             `json:"max_hp"`
	CurrentHP          int             `json:"current_hp"`
	TemporaryHP        int             `json:"temporary_hp,omitempty"`
	ArmorClass         int             `json:"armor_class,omitempty"`
	Initiative         int             `json:"initiative"`
	Conditions         []string        `json:"conditions"`
	DeathSaveSuccesses int             `json:"death_save_successes"`
	DeathSaveFailures  int             `json:"death_save_failures"`
	Status             vitality.Status `json:"status,omitempty"`
	StatusNotes        string          `json:"status_notes,omitempty"`
	PlayerID           string          `json:"player_id,omitempty"`
}

// CombatantView joins a turn-order entry with its roster character. Built
// fresh on every snapshot, so it cannot drift from the roster.
type CombatantView struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Kind       vitality.Kind   `json:"kind"`
	Initiative int             `json:"initiative"`
	CurrentHP  int             `json:"current_hp"`
	MaxHP      int             `json:"max_hp"`
	Status     vitality.Status `json:"status,omitempty"`
	Defeated   bool            `json:"defeated"`
	Surprised  bool            `json:"surprised,omitempty"`
}

type EncounterView struct {
	ID     string          `json:"id"`
	Active bool            `json:"active"`
	Round  int             `json:"round"`
	Turn   int             `json:"turn"`
	Order  []CombatantView `json:"order"`
}

// Snapshot is the complete campaign view sent to a client on join.
type Snapshot struct {
	Version    int             `json:"version"`
	CampaignID string          `json:"campaign_id"`
	Name       string          `json:"name"`
	Roster     []CharacterView `json:"roster"`
	Encounter  *EncounterView  `json:"encounter,omitempty"`
}

func viewOf(c *vitality.Character) CharacterView {
	conds := c.Conditions
	if conds == nil {
		conds = []string{}
	}
	return CharacterView{
		ID:                 c.ID,
		Name:               c.Name,
		Kind:               c.Kind,
		MaxHP:              c.MaxHP,
		CurrentHP:          c.CurrentHP,
		TemporaryHP:        c.TemporaryHP,
		ArmorClass:         c.ArmorClass,
		Initiative:         c.Initiative,
		Conditions:         conds,
		DeathSaveSuccesses: c.DeathSaveSuccesses,
		DeathSaveFailures:  c.DeathSaveFailures,
		Status:             c.Status(),
		StatusNotes:        c.StatusNotes,
		PlayerID:           c.PlayerID,
	}
}

func (s State) encounterView() *EncounterView {
	if s.Encounter == nil {
		return nil
	}
	e := s.Encounter
	order := make([]CombatantView, 0, len(e.Order))
	for _, en := range e.Order {
		cv := CombatantView{
			ID:         en.CharacterID,
			Kind:       en.Kind,
			Initiative: en.Initiative,
			Defeated:   en.Defeated,
			Surprised:  en.Surprised,
		}
		if c := s.CharacterByID(en.CharacterID); c != nil {
			cv.Name = c.Name
			cv.CurrentHP = c.CurrentHP
			cv.MaxHP = c.MaxHP
			cv.Status = c.Status()
		}
		order = append(order, cv)
	}
	return &EncounterView{ID: e.ID, Active: e.Active, Round: e.Round, Turn: e.Turn, Order: order}
}

func (s State) snapshot(version int) Snapshot {
	roster := make([]CharacterView, 0, len(s.Roster))
	for _, c := range s.Roster {
		roster = append(roster, viewOf(c))
	}
	return Snapshot{
		Version:    version,
		CampaignID: s.CampaignID,
		Name:       s.Name,
		Roster:     roster,
		Encounter:  s.encounterView(),
	}
}
