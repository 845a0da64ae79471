package draft

import (
	"fmt"
	"slices"
)

// State is an immutable snapshot of a captains draft.
// Teams[i] always starts with Captains[i].
type State struct {
	Captains  [2]string
	Teams     [2][]string
	Remaining []string
}

// New validates the roster and returns the opening state.
func New(pool []string, captains [2]string) (State, error) {
	if captains[0] == "" || captains[1] == "" || captains[0] == captains[1] {
		return State{}, fmt.Errorf("%w: %q and %q", ErrInvalidCaptains, captains[0], captains[1])
	}
	if (len(pool)+2)%2 != 0 {
		return State{}, fmt.Errorf("%w: %d players", ErrUnevenRoster, len(pool)+2)
	}

	seen := map[string]struct{}{captains[0]: {}, captains[1]: {}}
	for _, id := range pool {
		if _, dup := seen[id]; dup || id == "" {
			return State{}, fmt.Errorf("%w: duplicate or empty player %q in pool", ErrInvalidPick, id)
		}
		seen[id] = struct{}{}
	}

	return State{
		Captains:  captains,
		Teams:     [2][]string{{captains[0]}, {captains[1]}},
		Remaining: append([]string(nil), pool...),
	}, nil
}

// Replay applies picks in order to the opening state.
func Replay(pool []string, captains [2]string, picks []string) (State, error) {
	state, err := New(pool, captains)
	if err != nil {
		return State{}, err
	}
	for i, pick := range picks {
		state, err = state.Apply(pick)
		if err != nil {
			return State{}, fmt.Errorf("pick %d: %w", i+1, err)
		}
	}
	return state, nil
}

func (s State) Done() bool {
	return len(s.Remaining) == 0
}

// Next returns the index of the captain on the clock: the smaller team picks,
// ties go to the first captain.
func (s State) Next() (int, bool) {
	if s.Done() {
		return 0, false
	}
	if len(s.Teams[1]) < len(s.Teams[0]) {
		return 1, true
	}
	return 0, true
}

// Apply gives pick to the captain on the clock.
func (s State) Apply(pick string) (State, error) {
	side, ok := s.Next()
	if !ok {
		return State{}, ErrDraftComplete
	}

	idx := slices.Index(s.Remaining, pick)
	if idx < 0 {
		return State{}, fmt.Errorf("%w: player %q is not available", ErrInvalidPick, pick)
	}

	next := s.clone()
	next.Remaining = slices.Delete(next.Remaining, idx, idx+1)
	next.Teams[side] = append(next.Teams[side], pick)
	return next, nil
}

// ApplyFor checks that captainID is on the clock before applying the pick.
func (s State) ApplyFor(captainID, pick string) (State, error) {
	side, ok := s.Next()
	if !ok {
		return State{}, ErrDraftComplete
	}
	if s.Captains[side] != captainID {
		return State{}, fmt.Errorf("%w: captain=%s", ErrNotYourTurn, captainID)
	}
	return s.Apply(pick)
}

// Side returns the team index of userID, or -1 when undrafted.
func (s State) Side(userID string) int {
	for side, team := range s.Teams {
		if slices.Contains(team, userID) {
			return side
		}
	}
	return -1
}

func (s State) clone() State {
	return State{
		Captains:  s.Captains,
		Teams:     [2][]string{slices.Clone(s.Teams[0]), slices.Clone(s.Teams[1])},
		Remaining: slices.Clone(s.Remaining),
	}
}
