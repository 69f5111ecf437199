package campaign

import (
	"github.com/DoyleJ11/ttrpg-session-backend/internal/vitality"
)

type CommandType string

const (
	CmdStartCombat     CommandType = "StartCombat"
	CmdSetInitiative   CommandType = "SetInitiative"
	CmdAdvanceTurn     CommandType = "AdvanceTurn"
	CmdUpdateCharacter CommandType = "UpdateCharacterState"
	CmdMarkDefeated    CommandType = "MarkDefeated"
	CmdEndCombat       CommandType = "EndCombat"
	CmdAddCharacter    CommandType = "AddCharacter"
	CmdRemoveCharacter CommandType = "RemoveCharacter"
	CmdPresentChoices  CommandType = "PresentChoices"
	CmdSubmitChoice    CommandType = "SubmitChoice"
	CmdNarrativeCue    CommandType = "NarrativeCue"
)

// Keys accepted by CmdUpdateCharacter.
const (
	KeyCurrentHP        = "current_hp"
	KeyConditions       = "conditions"
	KeyStatusNotes      = "status_notes"
	KeyInitiative       = "initiative"
	KeyDeathSaveSuccess = "death_save_success"
	KeyDeathSaveFailure = "death_save_failure"
	KeyAddCondition     = "add_condition"
	KeyStabilize        = "stabilize"
)

// CombatantSpec describes one combatant handed to StartCombat. Combatants
// already on the roster are matched by ID; unknown ones (ad hoc monsters)
// are added to the roster first.
type CombatantSpec struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Kind       vitality.Kind `json:"kind"`
	Initiative int           `json:"initiative"`
	CurrentHP  int           `json:"current_hp"`
	MaxHP      int           `json:"max_hp"`
	Surprised  bool          `json:"surprised,omitempty"`
}

type Choice struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
}

type ChoiceSelection struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name,omitempty"`
	ChoiceID   string `json:"choice_id"`
	Label      string `json:"label,omitempty"`
}

type CueKind string

const (
	CuePulse        CueKind = "pulse"
	CueAnchor       CueKind = "anchor"
	CueGroupInsight CueKind = "group_insight"
)

type NarrativeCue struct {
	Kind CueKind `json:"kind"`
	Text string  `json:"text"`
}

// Command is one mutation request against a campaign. Only the fields the
// command type needs are set.
type Command struct {
	Type       CommandType
	Target     string // character name or ID
	Key        string // CmdUpdateCharacter key
	IntValue   int
	TextValue  string
	ListValue  []string
	Combatants []CombatantSpec
	Character  *vitality.Character
	Choices    []Choice
	Choice     *ChoiceSelection
	Cue        *NarrativeCue
}

type EventType string

const (
	EvtCombatStarted    EventType = "CombatStarted"
	EvtTurnAdvanced     EventType = "TurnAdvanced"
	EvtRoundAdvanced    EventType = "RoundAdvanced"
	EvtCombatEnded      EventType = "CombatEnded"
	EvtCharacterUpdated EventType = "CharacterUpdated"
	EvtCharacterRemoved EventType = "CharacterRemoved"
	EvtChoicesPresented EventType = "ChoicesPresented"
	EvtChoiceSubmitted  EventType = "ChoiceSubmitted"
	EvtNarrativeCue     EventType = "NarrativeCue"
)

// Event is one canonical state-change notification. Payload fields carry
// the complete new state of the affected slice so receivers can apply it
// idempotently; a nil Encounter on combat events means "no active combat".
type Event struct {
	ID         string           `json:"id"`
	Type       EventType        `json:"type"`
	CampaignID string           `json:"campaign_id"`
	Character  *CharacterView   `json:"character,omitempty"`
	Encounter  *EncounterView   `json:"encounter,omitempty"`
	Choices    []Choice         `json:"choices,omitempty"`
	Choice     *ChoiceSelection `json:"choice,omitempty"`
	Cue        *NarrativeCue    `json:"cue,omitempty"`
}
