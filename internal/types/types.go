package types

import (
	"github.com/google/uuid"

	"github.com/DoyleJ11/ttrpg-session-backend/internal/campaign"
	"github.com/DoyleJ11/ttrpg-session-backend/internal/vitality"
)

// ClientMessage is one mutation request on the wire, whether it arrives
// over the websocket or through the tool gateway's action endpoint. Type
// uses the tool-invocation names (start_combat, advance_turn, ...).
type ClientMessage struct {
	Type       string                    `json:"type"`
	Target     string                    `json:"target,omitempty"`
	Key        string                    `json:"key,omitempty"`
	Value      int                       `json:"value,omitempty"`
	Text       string                    `json:"text,omitempty"`
	List       []string                  `json:"list,omitempty"`
	Combatants []campaign.CombatantSpec  `json:"combatants,omitempty"`
	Character  *CharacterPayload         `json:"character,omitempty"`
	Choices    []campaign.Choice         `json:"choices,omitempty"`
	Choice     *campaign.ChoiceSelection `json:"choice,omitempty"`
	Cue        *campaign.NarrativeCue    `json:"cue,omitempty"`
}

type CharacterPayload struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	MaxHP      int    `json:"max_hp"`
	CurrentHP  int    `json:"current_hp,omitempty"`
	ArmorClass int    `json:"armor_class,omitempty"`
	Initiative int    `json:"initiative,omitempty"`
	PlayerID   string `json:"player_id,omitempty"`
}

// ServerMessage is what viewers receive: a full snapshot on join, then one
// routed event per committed mutation, or an error for a rejected command.
type ServerMessage struct {
	Type     string             `json:"type"` // "Snapshot" | "Event" | "Error"
	Version  int                `json:"version,omitempty"`
	Snapshot *campaign.Snapshot `json:"snapshot,omitempty"`
	Event    *campaign.Event    `json:"event,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// Command translates a wire message into a campaign command. The second
// return is false for unknown message types.
func (m ClientMessage) Command() (campaign.Command, bool) {
	switch m.Type {
	case "start_combat":
		return campaign.Command{Type: campaign.CmdStartCombat, Combatants: m.Combatants}, true
	case "set_initiative":
		return campaign.Command{Type: campaign.CmdSetInitiative, Target: m.Target, IntValue: m.Value}, true
	case "advance_turn":
		return campaign.Command{Type: campaign.CmdAdvanceTurn}, true
	case "update_character_state":
		return campaign.Command{
			Type:      campaign.CmdUpdateCharacter,
			Target:    m.Target,
			Key:       m.Key,
			IntValue:  m.Value,
			TextValue: m.Text,
			ListValue: m.List,
		}, true
	case "mark_defeated":
		return campaign.Command{Type: campaign.CmdMarkDefeated, Target: m.Target}, true
	case "end_combat":
		return campaign.Command{Type: campaign.CmdEndCombat}, true
	case "add_character":
		if m.Character == nil {
			return campaign.Command{Type: campaign.CmdAddCharacter}, true // Apply rejects it
		}
		id := m.Character.ID
		if id == "" {
			id = uuid.NewString()
		}
		hp := m.Character.CurrentHP
		if hp == 0 {
			hp = m.Character.MaxHP
		}
		return campaign.Command{Type: campaign.CmdAddCharacter, Character: &vitality.Character{
			ID:         id,
			Name:       m.Character.Name,
			Kind:       vitality.Kind(m.Character.Kind),
			MaxHP:      m.Character.MaxHP,
			CurrentHP:  hp,
			ArmorClass: m.Character.ArmorClass,
			Initiative: m.Character.Initiative,
			PlayerID:   m.Character.PlayerID,
		}}, true
	case "remove_character":
		return campaign.Command{Type: campaign.CmdRemoveCharacter, Target: m.Target}, true
	case "present_choices":
		return campaign.Command{Type: campaign.CmdPresentChoices, Choices: m.Choices}, true
	case "submit_choice":
		return campaign.Command{Type: campaign.CmdSubmitChoice, Choice: m.Choice}, true
	case "narrative_cue":
		return campaign.Command{Type: campaign.CmdNarrativeCue, Cue: m.Cue}, true
	default:
		return campaign.Command{}, false
	}
}
