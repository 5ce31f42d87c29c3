// Package model contains domain value objects passed between layers.
package model

import "time"

// Role distinguishes the two evaluation paths for a player.
type Role int

const (
	RoleBatter Role = iota
	RolePitcher
)

// String returns the lowercase role name.
func (r Role) String() string {
	if r == RolePitcher {
		return "pitcher"
	}
	return "batter"
}

// ParseRole maps a string to a Role. Unknown values report ok=false.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "batter":
		return RoleBatter, true
	case "pitcher":
		return RolePitcher, true
	}
	return RoleBatter, false
}

// Position is a rosterable position.
type Position string

const (
	Catcher      Position = "C"
	FirstBase    Position = "1B"
	SecondBase   Position = "2B"
	ThirdBase    Position = "3B"
	Shortstop    Position = "SS"
	Outfield     Position = "OF"
	DesignatedH  Position = "DH"
	StarterPitch Position = "SP"
	Relief       Position = "RP"
)

// Positions lists every valid position in a stable order.
var Positions = []Position{
	Catcher, FirstBase, SecondBase, ThirdBase, Shortstop,
	Outfield, DesignatedH, StarterPitch, Relief,
}

// Valid reports whether p is a known position.
func (p Position) Valid() bool {
	for _, q := range Positions {
		if p == q {
			return true
		}
	}
	return false
}

// IsPitcher reports whether the position is a pitching role.
func (p Position) IsPitcher() bool {
	return p == StarterPitch || p == Relief
}

// Level is a minor-league level. Ordering is meaningful:
// Rookie < A < A+ < AA < AAA.
type Level int

const (
	LevelRookie Level = iota
	LevelA
	LevelAPlus
	LevelAA
	LevelAAA
)

var levelNames = map[Level]string{
	LevelRookie: "Rookie",
	LevelA:      "A",
	LevelAPlus:  "A+",
	LevelAA:     "AA",
	LevelAAA:    "AAA",
}

// String returns the conventional level label.
func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "unknown"
}

// ParseLevel maps a level label to a Level. Unknown labels report ok=false.
func ParseLevel(s string) (Level, bool) {
	for l, name := range levelNames {
		if name == s {
			return l, true
		}
	}
	return LevelRookie, false
}

// Prospect is the catalog view of a minor-league player. The engine treats
// it as read-only input; the catalog collaborator owns its lifecycle.
type Prospect struct {
	ID           string
	Name         string
	Position     Position
	Organization string
	Level        Level
	BirthDate    time.Time
	ETAYear      int

	// FutureValue is the 20-80 scouting grade. HasGrade is false when no
	// scout has graded the player yet.
	FutureValue float64
	HasGrade    bool

	// MLB experience proxies used by the ranking eligibility ceiling.
	MLBAtBats  int
	MLBInnings float64
}

// AgeAt returns the prospect's age in fractional years at t.
func (p Prospect) AgeAt(t time.Time) float64 {
	const hoursPerYear = 24 * 365.25
	return t.Sub(p.BirthDate).Hours() / hoursPerYear
}

// EventRecord is one pitch-level observation. Immutable once ingested;
// the aggregator only reads windows of these.
type EventRecord struct {
	PlayerID string
	Role     Role
	Level    Level
	Season   int
	GameDate time.Time

	// Pitch context.
	InZone        bool
	Swung         bool
	Contact       bool
	Chase         bool // swing at a pitch outside the zone
	PitchVelocity float64
	IsFastball    bool

	// Batted-ball outcome. ExitVelocity is zero when no ball was put in play.
	ExitVelocity float64
	HardHit      bool
}

// Whiff reports a swing without contact.
func (e EventRecord) Whiff() bool {
	return e.Swung && !e.Contact
}

// InPlay reports whether the pitch produced a batted ball.
func (e EventRecord) InPlay() bool {
	return e.ExitVelocity > 0
}

// PlayerTier is the quality bucket of a rostered player used by the team
// needs analyzer. Bench and replacement players count less than starters
// when computing positional gaps.
type PlayerTier int

const (
	TierReplacement PlayerTier = iota
	TierBench
	TierStarter
	TierStar
)

// String returns the lowercase tier name.
func (t PlayerTier) String() string {
	switch t {
	case TierStar:
		return "star"
	case TierStarter:
		return "starter"
	case TierBench:
		return "bench"
	default:
		return "replacement"
	}
}

// RosterPlayer is the roster snapshot view of a major-league player.
type RosterPlayer struct {
	PlayerID     string
	Name         string
	Position     Position
	Tier         PlayerTier
	Age          float64
	ControlYears int
}
