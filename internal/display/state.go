package display

import (
	"math"
	"time"
)

const (
	// Title is the page heading
	Title = "Is Moe a Millionaire?"
	// CelebrationMessage replaces the remaining amount once the goal is reached
	CelebrationMessage = "🎉 MOE IS A MILLIONAIRE! 🎉"
)

// ChangeDirection is the direction of the most recent value change
type ChangeDirection string

const (
	DirectionNone ChangeDirection = "none"
	DirectionUp   ChangeDirection = "up"
	DirectionDown ChangeDirection = "down"
)

// Direction compares a new value against the currently displayed one
func Direction(current, next float64) ChangeDirection {
	switch {
	case next > current:
		return DirectionUp
	case next < current:
		return DirectionDown
	default:
		return DirectionNone
	}
}

// ProgressPercent returns value as a percentage of goal, clamped to [0, 100]
func ProgressPercent(value, goal float64) float64 {
	if goal <= 0 {
		return 100
	}
	p := value / goal * 100
	switch {
	case p < 0 || math.IsNaN(p):
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// GoalReached reports whether value meets goal
func GoalReached(value, goal float64) bool {
	return value >= goal
}

// State is the controller-owned display state. It is only ever replaced by
// the transition methods below, never mutated in place.
type State struct {
	Value          float64         `json:"value"`
	PreviousValue  float64         `json:"previous_value"`
	GoalReached    bool            `json:"goal_reached"`
	Direction      ChangeDirection `json:"direction"`
	Loading        bool            `json:"loading"`
	LoadingPercent int             `json:"loading_percent"`
	UpdatedAt      time.Time       `json:"updated_at,omitempty"`
}

// InitialState is the state at mount: no data and the loading screen up
func InitialState() State {
	return State{
		Direction: DirectionNone,
		Loading:   true,
	}
}

// WithValue applies a successful fetch
func (s State) WithValue(value, goal float64, at time.Time) State {
	s.Direction = Direction(s.Value, value)
	s.PreviousValue = s.Value
	s.Value = value
	s.GoalReached = GoalReached(value, goal)
	s.UpdatedAt = at
	return s
}

// WithDirectionCleared resets the change indicator
func (s State) WithDirectionCleared() State {
	s.Direction = DirectionNone
	return s
}

// WithLoadingPercent records loading screen progress
func (s State) WithLoadingPercent(percent int) State {
	s.LoadingPercent = percent
	return s
}

// WithLoadingDone hides the loading screen
func (s State) WithLoadingDone() State {
	s.Loading = false
	s.LoadingPercent = 100
	return s
}

// Palette holds the style classes for one side of the goal
type Palette struct {
	Name        string `json:"name"`
	Background  string `json:"background"`
	Heading     string `json:"heading"`
	Value       string `json:"value"`
	ProgressBar string `json:"progress_bar"`
	Track       string `json:"track"`
}

var (
	// ReachedPalette is used once the goal is met
	ReachedPalette = Palette{
		Name:        "reached",
		Background:  "bg-gradient-to-br from-green-900 via-green-800 to-black",
		Heading:     "millionaire-gradient-text",
		Value:       "text-green-400",
		ProgressBar: "progress-bar-millionaire",
		Track:       "bg-green-950",
	}
	// PendingPalette is used below the goal
	PendingPalette = Palette{
		Name:        "pending",
		Background:  "bg-gradient-to-br from-red-900 via-red-800 to-black",
		Heading:     "not-millionaire-gradient-text",
		Value:       "text-red-400",
		ProgressBar: "progress-bar-pending",
		Track:       "bg-red-950",
	}
)

// PaletteFor picks the palette for the goal state
func PaletteFor(reached bool) Palette {
	if reached {
		return ReachedPalette
	}
	return PendingPalette
}

// Message is the line under the progress bar
func Message(value, goal float64) string {
	if GoalReached(value, goal) {
		return CelebrationMessage
	}
	return FormatCurrency(goal-value) + " to go!"
}

// Wallet is a tracked wallet as listed on the page
type Wallet struct {
	Index   int    `json:"index"`
	Address string `json:"address"`
}

// Snapshot is the read-only view published to renderers
type Snapshot struct {
	State

	Title               string     `json:"title"`
	Goal                float64    `json:"goal"`
	FormattedValue      string     `json:"formatted_value"`
	FormattedGoal       string     `json:"formatted_goal"`
	ProgressPercent     float64    `json:"progress_percent"`
	Message             string     `json:"message"`
	Palette             Palette    `json:"palette"`
	Wallets             []Wallet   `json:"wallets"`
	Particles           []Particle `json:"particles"`
	PollIntervalSeconds int        `json:"poll_interval_seconds"`
}

// NewSnapshot derives everything the page shows from s
func NewSnapshot(s State, goal float64, wallets []string, particles []Particle, pollInterval time.Duration) *Snapshot {
	ws := make([]Wallet, len(wallets))
	for i, addr := range wallets {
		ws[i] = Wallet{Index: i + 1, Address: addr}
	}

	return &Snapshot{
		State:               s,
		Title:               Title,
		Goal:                goal,
		FormattedValue:      FormatCurrency(s.Value),
		FormattedGoal:       FormatCurrency(goal),
		ProgressPercent:     ProgressPercent(s.Value, goal),
		Message:             Message(s.Value, goal),
		Palette:             PaletteFor(s.GoalReached),
		Wallets:             ws,
		Particles:           particles,
		PollIntervalSeconds: int(pollInterval / time.Second),
	}
}
