package vitality

import (
	"errors"
	"slices"
)

var ErrNegativeIncrement = errors.New("negative death save increment")

type Kind string

const (
	KindPC    Kind = "pc"
	KindEnemy Kind = "enemy"
)

// Condition names that drive the vitality state machine. Arbitrary
// free-form conditions ("Poisoned", "Prone") coexist in the same set.
const (
	CondUnconscious = "Unconscious"
	CondStable      = "Stable"
	CondDead        = "Dead"
)

type Status string

const (
	StatusNone        Status = ""
	StatusUnconscious Status = "unconscious"
	StatusStable      Status = "stable"
	StatusDead        Status = "dead"
	StatusDefeated    Status = "defeated"
)

const MaxDeathSaves = 3

type Character struct {
	ID                 string
	Name               string
	Kind               Kind
	MaxHP              int
	CurrentHP          int
	TemporaryHP        int
	ArmorClass         int
	Initiative         int
	Conditions         []string
	DeathSaveSuccesses int
	DeathSaveFailures  int
	StatusNotes        string
	PlayerID           string
}

func (c *Character) Clone() *Character {
	dup := *c
	dup.Conditions = slices.Clone(c.Conditions)
	return &dup
}

func (c *Character) HasCondition(name string) bool {
	return slices.Contains(c.Conditions, name)
}

func (c *Character) AddCondition(name string) {
	if !c.HasCondition(name) {
		c.Conditions = append(c.Conditions, name)
	}
}

func (c *Character) RemoveCondition(name string) {
	c.Conditions = slices.DeleteFunc(c.Conditions, func(s string) bool {
		return s == name
	})
}

// SetHP clamps hp into [0, MaxHP] and applies the drop-to-zero /
// heal-from-zero transitions. Returns the value actually stored.
func (c *Character) SetHP(hp int) int {
	if hp < 0 {
		hp = 0
	}
	if hp > c.MaxHP {
		hp = c.MaxHP
	}

	prev := c.CurrentHP
	c.CurrentHP = hp

	if hp == 0 && prev > 0 {
		// Entry to 0 resets the death save clock unconditionally.
		c.DeathSaveSuccesses = 0
		c.DeathSaveFailures = 0
		c.RemoveCondition(CondStable)
		// Enemies at 0 are "defeated", not dying; only PCs go unconscious.
		if c.Kind == KindPC && !c.HasCondition(CondDead) {
			c.AddCondition(CondUnconscious)
		}
	}

	if hp > 0 && prev == 0 {
		// Healing always clears the clock. Dead is sticky: a heal does
		// not revive, it takes an explicit condition removal.
		c.DeathSaveSuccesses = 0
		c.DeathSaveFailures = 0
		c.RemoveCondition(CondUnconscious)
		c.RemoveCondition(CondStable)
	}
	return c.CurrentHP
}

// ApplyDamage burns temporary HP first, then reduces current HP. Overflow
// damage at or past MaxHP beyond what was needed to reach 0 kills outright,
// bypassing death saves.
func (c *Character) ApplyDamage(dmg int) {
	if dmg <= 0 {
		return
	}
	if c.TemporaryHP > 0 {
		if dmg <= c.TemporaryHP {
			c.TemporaryHP -= dmg
			return
		}
		dmg -= c.TemporaryHP
		c.TemporaryHP = 0
	}

	excess := dmg - c.CurrentHP
	c.SetHP(c.CurrentHP - dmg)
	if c.CurrentHP == 0 && excess >= c.MaxHP {
		c.markDead()
	}
}

// RecordDeathSaveSuccess accumulates n successes, capped at 3. Three
// successes stabilize the character without changing HP.
func (c *Character) RecordDeathSaveSuccess(n int) error {
	if n < 0 {
		return ErrNegativeIncrement
	}
	c.DeathSaveSuccesses = min(MaxDeathSaves, c.DeathSaveSuccesses+n)
	if c.DeathSaveSuccesses == MaxDeathSaves {
		c.markStable()
	}
	return nil
}

// RecordDeathSaveFailure accumulates n failures, capped at 3. Three
// failures kill. Damage against an unconscious character is NOT translated
// into failures here; callers record 1 (normal hit) or 2 (crit) explicitly.
func (c *Character) RecordDeathSaveFailure(n int) error {
	if n < 0 {
		return ErrNegativeIncrement
	}
	c.DeathSaveFailures = min(MaxDeathSaves, c.DeathSaveFailures+n)
	if c.DeathSaveFailures == MaxDeathSaves {
		c.markDead()
	}
	return nil
}

// Stabilize is the shortcut path (another character's aid): jumps straight
// to three successes.
func (c *Character) Stabilize() {
	c.DeathSaveSuccesses = MaxDeathSaves
	c.markStable()
}

func (c *Character) markStable() {
	if c.HasCondition(CondDead) {
		return
	}
	c.RemoveCondition(CondUnconscious)
	c.AddCondition(CondStable)
}

func (c *Character) markDead() {
	c.RemoveCondition(CondUnconscious)
	c.RemoveCondition(CondStable)
	c.AddCondition(CondDead)
}

func (c *Character) IsDead() bool        { return c.HasCondition(CondDead) }
func (c *Character) IsStable() bool      { return c.HasCondition(CondStable) }
func (c *Character) IsUnconscious() bool { return c.HasCondition(CondUnconscious) }

// Status reports the combat-facing status. PCs are never "defeated"; that
// status exists only for enemies at 0 HP.
func (c *Character) Status() Status {
	switch {
	case c.IsDead():
		return StatusDead
	case c.Kind == KindEnemy && c.CurrentHP == 0:
		return StatusDefeated
	case c.IsStable():
		return StatusStable
	case c.IsUnconscious():
		return StatusUnconscious
	default:
		return StatusNone
	}
}
