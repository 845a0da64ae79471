package draft

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

var (
	ErrUnevenRoster     = errors.New("uneven roster")
	ErrNotEnoughPlayers = errors.New("not enough players to select captains")
	ErrInvalidCaptains  = errors.New("invalid captain pair")
	ErrInvalidPick      = errors.New("invalid pick")
	ErrNotYourTurn      = errors.New("captain is not on the clock")
	ErrDraftComplete    = errors.New("draft already complete")
)

// Candidate is a lobby player as seen by captain selection.
type Candidate struct {
	UserID      string
	Rating      int
	CaptainRank int
}

// SelectCaptains picks two captains. Players holding a captain rank within
// [1, rankThreshold] go first (best rank, then rating, then queue order); any
// seat left over goes to the highest rated remaining players.
func SelectCaptains(candidates []Candidate, rankThreshold int) ([2]string, error) {
	if len(candidates) < 2 {
		return [2]string{}, fmt.Errorf("%w: got %d", ErrNotEnoughPlayers, len(candidates))
	}

	type ranked struct {
		Candidate
		order int
	}
	all := make([]ranked, 0, len(candidates))
	for i, c := range candidates {
		all = append(all, ranked{Candidate: c, order: i})
	}

	eligible := make([]ranked, 0, len(all))
	for _, c := range all {
		if c.CaptainRank > 0 && c.CaptainRank <= rankThreshold {
			eligible = append(eligible, c)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].CaptainRank != eligible[j].CaptainRank {
			return eligible[i].CaptainRank < eligible[j].CaptainRank
		}
		if eligible[i].Rating != eligible[j].Rating {
			return eligible[i].Rating > eligible[j].Rating
		}
		return eligible[i].order < eligible[j].order
	})

	byRating := append([]ranked(nil), all...)
	sort.SliceStable(byRating, func(i, j int) bool {
		if byRating[i].Rating != byRating[j].Rating {
			return byRating[i].Rating > byRating[j].Rating
		}
		return byRating[i].order < byRating[j].order
	})

	picked := make([]string, 0, 2)
	for _, c := range eligible {
		if len(picked) == 2 {
			break
		}
		picked = append(picked, c.UserID)
	}
	for _, c := range byRating {
		if len(picked) == 2 {
			break
		}
		if slices.Contains(picked, c.UserID) {
			continue
		}
		picked = append(picked, c.UserID)
	}

	return [2]string{picked[0], picked[1]}, nil
}

// AutoPicks orders the pool best-available first, keeping pool order on ties.
func AutoPicks(pool []Candidate) []string {
	sorted := append([]Candidate(nil), pool...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating > sorted[j].Rating
	})

	out := make([]string, 0, len(sorted))
	for _, c := range sorted {
		out = append(out, c.UserID)
	}
	return out
}
