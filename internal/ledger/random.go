package ledger

import "github.com/avisingh/spl-auction/internal/models"

// spinSamples is how many candidate names the pick carries for the client's
// reveal animation.
const spinSamples = 20

// Pick is the result of a random draw. Spin is presentation data only: a
// uniform sample of candidate names the client can cycle through before
// landing on the chosen player.
type Pick struct {
	Player   models.Player `json:"player"`
	NewRound bool          `json:"newRound"`
	Spin     []string      `json:"spin"`
}

// RandomPick draws one eligible player uniformly at random, excluding ids
// already surfaced this session. When every eligible player has been
// surfaced once, the session exclusion set resets and a new round begins
// instead of failing. The draw only surfaces the player; it does not sell.
func (l *Ledger) RandomPick() (*Pick, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var eligible, pool []*models.Player
	for _, p := range l.players {
		if !p.Eligible() {
			continue
		}
		eligible = append(eligible, p)
		if _, done := l.picked[p.ID]; !done {
			pool = append(pool, p)
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNoEligiblePlayers
	}

	newRound := false
	if len(pool) == 0 {
		l.picked = make(map[int]struct{})
		pool = eligible
		newRound = true
	}

	chosen := pool[l.rng.Intn(len(pool))]
	l.picked[chosen.ID] = struct{}{}

	spin := make([]string, 0, spinSamples)
	for i := 0; i < spinSamples; i++ {
		spin = append(spin, pool[l.rng.Intn(len(pool))].Name)
	}

	return &Pick{Player: *chosen, NewRound: newRound, Spin: spin}, nil
}
