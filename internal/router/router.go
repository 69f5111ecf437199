// Package router owns the event-to-audience table. Getting this table wrong
// is how a player learns what the DM rolled, so it is small, explicit, and
// tested row by row.
package router

type Audience string

const (
	AudienceDM      Audience = "dm"
	AudiencePlayers Audience = "players"
	AudienceAll     Audience = "all"
)

type Role string

const (
	RoleDM     Role = "dm"
	RolePlayer Role = "player"
)

func ParseRole(s string) (Role, bool) {
	switch s {
	case "dm":
		return RoleDM, true
	case "player":
		return RolePlayer, true
	default:
		return "", false
	}
}

// Includes reports whether a viewer with the given role belongs to the
// audience.
func (a Audience) Includes(r Role) bool {
	switch a {
	case AudienceAll:
		return true
	case AudienceDM:
		return r == RoleDM
	case AudiencePlayers:
		return r == RolePlayer
	default:
		return false
	}
}

// audiences maps every event type to the single group that must see it.
// Combat lifecycle and character state go to everyone; player submissions go
// to the DM only; DM-presented choices and atmosphere go to players only.
var audiences = map[string]Audience{
	"CombatStarted":    AudienceAll,
	"TurnAdvanced":     AudienceAll,
	"RoundAdvanced":    AudienceAll,
	"CombatEnded":      AudienceAll,
	"CharacterUpdated": AudienceAll,
	"CharacterRemoved": AudienceAll,
	"ChoiceSubmitted":  AudienceDM,
	"ChoicesPresented": AudiencePlayers,
	"NarrativeCue":     AudiencePlayers,
}

// Route returns the audience for an event type. Unknown events route
// nowhere; the caller decides whether that is a bug worth logging.
func Route(eventType string) (Audience, bool) {
	a, ok := audiences[eventType]
	return a, ok
}
