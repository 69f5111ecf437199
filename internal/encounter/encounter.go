package encounter

import (
	"errors"
	"slices"
	"sort"

	"github.com/DoyleJ11/ttrpg-session-backend/internal/vitality"
)

var ErrNoCombatants = errors.New("combat needs at least one combatant")
var ErrNotInOrder = errors.New("combatant not in turn order")
var ErrNotEnemy = errors.New("only enemies can be marked defeated")

// Seed is the per-combatant input to Start.
type Seed struct {
	CharacterID string
	Kind        vitality.Kind
	Initiative  int
	Surprised   bool
}

// Entry is one slot in the turn order. It deliberately carries no HP,
// conditions or name: those live on the roster character and are joined in
// when a snapshot is built, so the two can never drift apart.
type Entry struct {
	CharacterID string
	Kind        vitality.Kind
	Initiative  int
	Defeated    bool
	Surprised   bool
}

type Encounter struct {
	ID     string
	Active bool
	Round  int
	Turn   int
	Order  []Entry
}

// Start builds the turn order sorted by initiative descending. Ties keep
// their seed order.
func Start(id string, seeds []Seed) (*Encounter, error) {
	if len(seeds) == 0 {
		return nil, ErrNoCombatants
	}

	order := make([]Entry, 0, len(seeds))
	for _, s := range seeds {
		order = append(order, Entry{
			CharacterID: s.CharacterID,
			Kind:        s.Kind,
			Initiative:  s.Initiative,
			Surprised:   s.Surprised,
		})
	}
	sortByInitiative(order)

	return &Encounter{ID: id, Active: true, Round: 1, Turn: 0, Order: order}, nil
}

func sortByInitiative(order []Entry) {
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Initiative > order[j].Initiative
	})
}

func (e *Encounter) Clone() *Encounter {
	dup := *e
	dup.Order = slices.Clone(e.Order)
	return &dup
}

func (e *Encounter) indexOf(id string) int {
	return slices.IndexFunc(e.Order, func(en Entry) bool {
		return en.CharacterID == id
	})
}

func (e *Encounter) Contains(id string) bool {
	return e.indexOf(id) >= 0
}

// Current returns the entry whose turn it is.
func (e *Encounter) Current() (Entry, bool) {
	if len(e.Order) == 0 || e.Turn >= len(e.Order) {
		return Entry{}, false
	}
	return e.Order[e.Turn], true
}

// SetInitiative updates one combatant's initiative and re-sorts. The turn
// stays anchored to the combatant who held it before the resort, wherever
// that combatant lands in the new order.
func (e *Encounter) SetInitiative(id string, value int) error {
	idx := e.indexOf(id)
	if idx < 0 {
		return ErrNotInOrder
	}

	var currentID string
	if cur, ok := e.Current(); ok {
		currentID = cur.CharacterID
	}

	e.Order[idx].Initiative = value
	sortByInitiative(e.Order)

	if currentID != "" {
		e.Turn = e.indexOf(currentID)
	}
	return nil
}

// AdvanceTurn moves to the next combatant, wrapping into a new round.
// Surprise only lasts the first round, so flags are cleared on wrap.
func (e *Encounter) AdvanceTurn() (wrapped bool) {
	e.Turn++
	if e.Turn >= len(e.Order) {
		e.Turn = 0
		e.Round++
		for i := range e.Order {
			e.Order[i].Surprised = false
		}
		return true
	}
	return false
}

// MarkDefeated removes an enemy from the turn order, keeping the turn
// pointer on the same logical combatant. When the last enemy falls the
// encounter ends itself. PCs at 0 HP stay in the order; they are dying, not
// defeated.
func (e *Encounter) MarkDefeated(id string) (ended bool, err error) {
	idx := e.indexOf(id)
	if idx < 0 {
		return false, ErrNotInOrder
	}
	if e.Order[idx].Kind != vitality.KindEnemy {
		return false, ErrNotEnemy
	}

	e.Order = slices.Delete(e.Order, idx, idx+1)
	if idx <= e.Turn && e.Turn > 0 {
		e.Turn--
	}
	if e.Turn >= len(e.Order) {
		e.Turn = 0
	}

	if e.enemiesRemaining() == 0 {
		e.End()
		return true, nil
	}
	return false, nil
}

func (e *Encounter) enemiesRemaining() int {
	n := 0
	for _, en := range e.Order {
		if en.Kind == vitality.KindEnemy && !en.Defeated {
			n++
		}
	}
	return n
}

func (e *Encounter) End() {
	e.Active = false
}
