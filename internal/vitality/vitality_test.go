package vitality

import (
	"errors"
	"testing"
)

func newPC(hp, maxHP int) *Character {
	return &Character{ID: "c1", Name: "Elara", Kind: KindPC, MaxHP: maxHP, CurrentHP: hp}
}

func TestSetHPClampsToRange(t *testing.T) {
	cases := []struct {
		name string
		hp   int
		want int
	}{
		{name: "negative clamps to zero", hp: -5, want: 0},
		{name: "above max clamps to max", hp: 99, want: 20},
		{name: "in range kept", hp: 7, want: 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newPC(10, 20)
			got := c.SetHP(tc.hp)
			if got != tc.want || c.CurrentHP != tc.want {
				t.Fatalf("SetHP(%d): got %d, want %d", tc.hp, got, tc.want)
			}
		})
	}
}

func TestDropToZeroSetsUnconsciousAndResetsSaves(t *testing.T) {
	c := newPC(3, 20)
	c.DeathSaveSuccesses = 2
	c.DeathSaveFailures = 1

	c.SetHP(0)

	if !c.IsUnconscious() {
		t.Fatalf("expected Unconscious, conditions=%v", c.Conditions)
	}
	if c.DeathSaveSuccesses != 0 || c.DeathSaveFailures != 0 {
		t.Fatalf("save counters not reset: %d/%d", c.DeathSaveSuccesses, c.DeathSaveFailures)
	}
}

func TestHealFromZeroClearsConditionsAndCounters(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*Character)
	}{
		{name: "unconscious", setup: func(c *Character) {
			c.SetHP(0)
			_ = c.RecordDeathSaveFailure(2)
		}},
		{name: "stable", setup: func(c *Character) {
			c.SetHP(0)
			c.Stabilize()
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newPC(5, 20)
			tc.setup(c)

			c.SetHP(8)

			if c.IsUnconscious() || c.IsStable() {
				t.Fatalf("conditions not cleared: %v", c.Conditions)
			}
			if c.DeathSaveSuccesses != 0 || c.DeathSaveFailures != 0 {
				t.Fatalf("counters not reset: %d/%d", c.DeathSaveSuccesses, c.DeathSaveFailures)
			}
		})
	}
}

func TestDeadSticksThroughHealing(t *testing.T) {
	c := newPC(5, 20)
	c.SetHP(0)
	_ = c.RecordDeathSaveFailure(3)
	if !c.IsDead() {
		t.Fatalf("expected Dead after 3 failures")
	}

	c.SetHP(10)

	if !c.IsDead() {
		t.Fatalf("Dead must survive a heal; conditions=%v", c.Conditions)
	}

	// Revival is an explicit condition removal, not a heal side effect.
	c.RemoveCondition(CondDead)
	if c.Status() != StatusNone {
		t.Fatalf("want StatusNone after revival, got %q", c.Status())
	}
}

func TestThreeFailuresKill(t *testing.T) {
	c := newPC(3, 20)
	c.SetHP(0)

	for i := 0; i < 3; i++ {
		if err := c.RecordDeathSaveFailure(1); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	if c.DeathSaveFailures != 3 {
		t.Fatalf("failures = %d, want 3", c.DeathSaveFailures)
	}
	if !c.IsDead() || c.IsStable() || c.IsUnconscious() {
		t.Fatalf("want exactly Dead, conditions=%v", c.Conditions)
	}
}

func TestThreeSuccessesStabilize(t *testing.T) {
	c := newPC(3, 20)
	c.SetHP(0)

	for i := 0; i < 3; i++ {
		if err := c.RecordDeathSaveSuccess(1); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	if !c.IsStable() || c.IsUnconscious() {
		t.Fatalf("want Stable only, conditions=%v", c.Conditions)
	}
	if c.CurrentHP != 0 {
		t.Fatalf("stabilizing must not change hp, got %d", c.CurrentHP)
	}
}

func TestStabilizeShortcut(t *testing.T) {
	c := newPC(3, 20)
	c.SetHP(0)
	_ = c.RecordDeathSaveSuccess(1)
	_ = c.RecordDeathSaveFailure(2)

	c.Stabilize()

	if c.DeathSaveSuccesses != 3 {
		t.Fatalf("successes = %d, want 3", c.DeathSaveSuccesses)
	}
	if !c.IsStable() {
		t.Fatalf("want Stable, conditions=%v", c.Conditions)
	}
}

func TestSaveCountersNeverLeaveRange(t *testing.T) {
	c := newPC(3, 20)
	c.SetHP(0)

	_ = c.RecordDeathSaveSuccess(10)
	if c.DeathSaveSuccesses != 3 {
		t.Fatalf("successes = %d, want capped at 3", c.DeathSaveSuccesses)
	}

	if err := c.RecordDeathSaveFailure(-1); !errors.Is(err, ErrNegativeIncrement) {
		t.Fatalf("want ErrNegativeIncrement, got %v", err)
	}
	if c.DeathSaveFailures != 0 {
		t.Fatalf("failed increment must not mutate, got %d", c.DeathSaveFailures)
	}
}

func TestMassiveDamageKillsOutright(t *testing.T) {
	c := newPC(5, 12)

	c.ApplyDamage(17) // 5 to reach 0, 12 excess = maxHP

	if !c.IsDead() {
		t.Fatalf("want Dead from massive damage, conditions=%v", c.Conditions)
	}
	if c.DeathSaveFailures != 0 {
		t.Fatalf("massive damage bypasses save counters, failures=%d", c.DeathSaveFailures)
	}
}

func TestDamageAtZeroDoesNotRecordFailures(t *testing.T) {
	c := newPC(3, 20)
	c.SetHP(0)

	c.ApplyDamage(4) // normal hit while down; caller records the save, not us

	if c.DeathSaveFailures != 0 {
		t.Fatalf("failures = %d, want 0", c.DeathSaveFailures)
	}
	if !c.IsUnconscious() {
		t.Fatalf("conditions=%v", c.Conditions)
	}
}

func TestTemporaryHPAbsorbsFirst(t *testing.T) {
	c := newPC(10, 20)
	c.TemporaryHP = 5

	c.ApplyDamage(8)

	if c.TemporaryHP != 0 || c.CurrentHP != 7 {
		t.Fatalf("got temp=%d hp=%d, want 0/7", c.TemporaryHP, c.CurrentHP)
	}
}

func TestStatusNeverDefeatedForPC(t *testing.T) {
	pc := newPC(3, 20)
	pc.SetHP(0)
	if pc.Status() == StatusDefeated {
		t.Fatalf("PC must not report defeated")
	}
	if pc.Status() != StatusUnconscious {
		t.Fatalf("got %q, want unconscious", pc.Status())
	}

	enemy := &Character{ID: "g1", Name: "Goblin", Kind: KindEnemy, MaxHP: 7, CurrentHP: 7}
	enemy.SetHP(0)
	if enemy.Status() != StatusDefeated {
		t.Fatalf("enemy at 0 hp: got %q, want defeated", enemy.Status())
	}
}
