package battle

import "time"

// DamageRange is an inclusive range of damage values.
type DamageRange struct {
	Min int
	Max int
}

// Rules are the numeric constants of a battle.
type Rules struct {
	PlayerMaxHP int
	// EnemyDamage is dealt to the monster on a correct answer.
	EnemyDamage DamageRange
	// PlayerDamage is dealt to the player on a wrong answer.
	PlayerDamage DamageRange
	// ItemRewardPercent is the minimum score that earns the quiz's item reward.
	ItemRewardPercent int
}

// DefaultRules returns the standard battle constants.
func DefaultRules() Rules {
	return Rules{
		PlayerMaxHP:       100,
		EnemyDamage:       DamageRange{Min: 30, Max: 50},
		PlayerDamage:      DamageRange{Min: 15, Max: 30},
		ItemRewardPercent: 70,
	}
}

// Cue names one visual step of turn resolution.
type Cue string

const (
	CueAttackWindup Cue = "attack_windup"
	CueImpact       Cue = "impact"
	CueResultShown  Cue = "result_shown"
)

// Step is a cue and how long the presentation layer should hold it.
type Step struct {
	Cue      Cue
	Duration time.Duration
}

// Pacing holds the display duration of each cue.
type Pacing struct {
	AttackWindup time.Duration
	Impact       time.Duration
	ResultShown  time.Duration
}

// DefaultPacing returns the standard animation timings.
func DefaultPacing() Pacing {
	return Pacing{
		AttackWindup: 600 * time.Millisecond,
		Impact:       500 * time.Millisecond,
	}
}

// Steps lists the cues of one turn in display order.
func (p Pacing) Steps() []Step {
	return []Step{
		{Cue: CueAttackWindup, Duration: p.AttackWindup},
		{Cue: CueImpact, Duration: p.Impact},
		{Cue: CueResultShown, Duration: p.ResultShown},
	}
}
