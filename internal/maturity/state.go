package maturity

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for state parsing and ordering checks.
var (
	// ErrUnknownState is returned when a state string cannot be parsed.
	ErrUnknownState = errors.New("unknown maturity state")

	// ErrNotSuccessor is returned when a target state is not the immediate
	// successor of the current state.
	ErrNotSuccessor = errors.New("target is not the immediate successor state")

	// ErrTerminalState is returned when advancing past the final state.
	ErrTerminalState = errors.New("engagement is at the terminal state")
)

// Level is one of the five ordered engagement stages.
type Level string

const (
	// LevelPOC is the proof-of-concept stage.
	LevelPOC Level = "POC"
	// LevelMVP is the minimum-viable-product stage.
	LevelMVP Level = "MVP"
	// LevelPilot is the limited-rollout pilot stage.
	LevelPilot Level = "PILOT"
	// LevelProduction is the full production stage.
	LevelProduction Level = "PRODUCTION"
	// LevelScale is the scaled-operations stage.
	LevelScale Level = "SCALE"
)

// levelOrder fixes the traversal order of levels.
var levelOrder = []Level{LevelPOC, LevelMVP, LevelPilot, LevelProduction, LevelScale}

// Levels returns all levels in traversal order.
func Levels() []Level {
	out := make([]Level, len(levelOrder))
	copy(out, levelOrder)
	return out
}

// Index returns the position of the level in traversal order, or -1 if the
// level is unknown.
func (l Level) Index() int {
	for i, lvl := range levelOrder {
		if lvl == l {
			return i
		}
	}
	return -1
}

// Valid reports whether the level is one of the five known stages.
func (l Level) Valid() bool {
	return l.Index() >= 0
}

// Checkpoint is one of the three ordered hardening checkpoints within a level.
type Checkpoint string

const (
	// CheckpointSecurity is the L1 security hardening checkpoint.
	CheckpointSecurity Checkpoint = "L1-security"
	// CheckpointReliability is the L2 reliability hardening checkpoint.
	CheckpointReliability Checkpoint = "L2-reliability"
	// CheckpointScalability is the L3 scalability hardening checkpoint.
	CheckpointScalability Checkpoint = "L3-scalability"
)

// checkpointOrder fixes the traversal order of checkpoints within a level.
var checkpointOrder = []Checkpoint{CheckpointSecurity, CheckpointReliability, CheckpointScalability}

// Checkpoints returns all checkpoints in traversal order.
func Checkpoints() []Checkpoint {
	out := make([]Checkpoint, len(checkpointOrder))
	copy(out, checkpointOrder)
	return out
}

// Index returns the position of the checkpoint within a level, or -1 if the
// checkpoint is unknown.
func (c Checkpoint) Index() int {
	for i, cp := range checkpointOrder {
		if cp == c {
			return i
		}
	}
	return -1
}

// Valid reports whether the checkpoint is one of the three known checkpoints.
func (c Checkpoint) Valid() bool {
	return c.Index() >= 0
}

// Code returns the short checkpoint code ("L1", "L2", "L3").
func (c Checkpoint) Code() string {
	s := string(c)
	if i := strings.IndexByte(s, '-'); i > 0 {
		return s[:i]
	}
	return s
}

// Category returns the hardening category of the checkpoint
// ("security", "reliability", "scalability").
func (c Checkpoint) Category() string {
	s := string(c)
	if i := strings.IndexByte(s, '-'); i >= 0 && i+1 < len(s) {
		return s[i+1:]
	}
	return s
}

// State is a position in the maturity model: a level plus a checkpoint.
type State struct {
	Level      Level      `json:"level"`
	Checkpoint Checkpoint `json:"checkpoint"`
}

// Initial returns the state every new engagement starts at.
func Initial() State {
	return State{Level: LevelPOC, Checkpoint: CheckpointSecurity}
}

// Terminal returns the final state of the maturity model.
func Terminal() State {
	return State{Level: LevelScale, Checkpoint: CheckpointScalability}
}

// Valid reports whether both the level and checkpoint are known.
func (s State) Valid() bool {
	return s.Level.Valid() && s.Checkpoint.Valid()
}

// String renders the state in the short "MVP-L2" form.
func (s State) String() string {
	return fmt.Sprintf("%s-%s", s.Level, s.Checkpoint.Code())
}

// Ordinal returns the absolute position of the state in the full traversal
// (POC-L1 is 0, SCALE-L3 is 14), or -1 for invalid states.
func (s State) Ordinal() int {
	li, ci := s.Level.Index(), s.Checkpoint.Index()
	if li < 0 || ci < 0 {
		return -1
	}
	return li*len(checkpointOrder) + ci
}

// Next returns the immediate successor state. The second return value is
// false when the state is terminal or invalid.
func (s State) Next() (State, bool) {
	ord := s.Ordinal()
	if ord < 0 || ord+1 >= len(levelOrder)*len(checkpointOrder) {
		return State{}, false
	}
	next := ord + 1
	return State{
		Level:      levelOrder[next/len(checkpointOrder)],
		Checkpoint: checkpointOrder[next%len(checkpointOrder)],
	}, true
}

// IsImmediateSuccessor reports whether to directly follows from in the
// ordered traversal.
func IsImmediateSuccessor(from, to State) bool {
	next, ok := from.Next()
	return ok && next == to
}

// LevelCrossing reports whether moving from one state to another crosses a
// level boundary. Checkpoint-only moves within a level never cross.
func LevelCrossing(from, to State) bool {
	return from.Level != to.Level
}

// Compare orders two states in the traversal: negative when a precedes b,
// zero when equal, positive when a follows b.
func Compare(a, b State) int {
	return a.Ordinal() - b.Ordinal()
}

// ParseState parses the short "MVP-L2" form produced by State.String.
func ParseState(raw string) (State, error) {
	s := strings.TrimSpace(raw)
	i := strings.LastIndexByte(s, '-')
	if i <= 0 || i+1 >= len(s) {
		return State{}, fmt.Errorf("%w: %q", ErrUnknownState, raw)
	}
	level := Level(strings.ToUpper(s[:i]))
	code := strings.ToUpper(s[i+1:])
	if !level.Valid() {
		return State{}, fmt.Errorf("%w: %q", ErrUnknownState, raw)
	}
	for _, cp := range checkpointOrder {
		if cp.Code() == code {
			return State{Level: level, Checkpoint: cp}, nil
		}
	}
	return State{}, fmt.Errorf("%w: %q", ErrUnknownState, raw)
}
