package rating

import (
	"errors"
	"fmt"
	"math"
)

var ErrEmptyTeam = errors.New("both teams need at least one player")

// Player is one rated participant on side 0 or 1.
type Player struct {
	UserID string
	Rating int
	Side   int
}

// Delta is the rating adjustment for one player.
type Delta struct {
	UserID string
	Before int
	After  int
	Won    bool
}

// Expected is the Elo win expectation of a player rated a against b.
func Expected(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/400))
}

// Compute applies a team Elo update using the average rating of each side.
// Every winner gains the same amount every loser drops.
func Compute(players []Player, winnerSide int, k int) ([]Delta, error) {
	if winnerSide != 0 && winnerSide != 1 {
		return nil, fmt.Errorf("invalid winner side %d", winnerSide)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k factor must be > 0")
	}

	var sums [2]float64
	var counts [2]int
	for _, p := range players {
		if p.Side != 0 && p.Side != 1 {
			return nil, fmt.Errorf("player %s has invalid side %d", p.UserID, p.Side)
		}
		sums[p.Side] += float64(p.Rating)
		counts[p.Side]++
	}
	if counts[0] == 0 || counts[1] == 0 {
		return nil, ErrEmptyTeam
	}

	winnerAvg := sums[winnerSide] / float64(counts[winnerSide])
	loserAvg := sums[1-winnerSide] / float64(counts[1-winnerSide])
	gain := int(math.Round(float64(k) * (1 - Expected(winnerAvg, loserAvg))))

	out := make([]Delta, 0, len(players))
	for _, p := range players {
		won := p.Side == winnerSide
		after := p.Rating - gain
		if won {
			after = p.Rating + gain
		}
		out = append(out, Delta{UserID: p.UserID, Before: p.Rating, After: after, Won: won})
	}
	return out, nil
}
