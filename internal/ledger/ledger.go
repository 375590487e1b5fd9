package ledger

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/avisingh/spl-auction/internal/models"
)

// Ledger is the authoritative in-memory record of players, teams, and the
// active auction session. All mutations go through its methods; readers get
// deep copies so the presentation layer can never corrupt invariants.
//
// Operations are short and CPU-only. A single mutex serializes them against
// the remote merge feed and concurrent HTTP callers.
type Ledger struct {
	mu    sync.Mutex
	rules Rules

	players []*models.Player
	teams   []*models.Team

	// Seed copies kept for ResetAll.
	seedPlayers []models.Player
	seedTeams   []models.Team

	// excluded holds permanently deleted player ids. Survives resets so a
	// catalog reload cannot resurrect a deleted player.
	excluded map[int]struct{}

	// picked holds ids already surfaced by random pick this round.
	picked map[int]struct{}

	current    *models.Player
	currentBid int

	rng *rand.Rand
}

// Option configures a Ledger at construction time.
type Option func(*Ledger)

// WithRules overrides the default auction rules.
func WithRules(rules Rules) Option {
	return func(l *Ledger) { l.rules = rules }
}

// WithExcluded seeds the permanent exclusion list, normally loaded from the
// local store at startup.
func WithExcluded(ids []int) Option {
	return func(l *Ledger) {
		for _, id := range ids {
			l.excluded[id] = struct{}{}
		}
	}
}

// WithRandSource replaces the random source used by RandomPick.
func WithRandSource(src rand.Source) Option {
	return func(l *Ledger) { l.rng = rand.New(src) }
}

// New builds a ledger from the seed dataset. Players on the permanent
// exclusion list are filtered out of the live catalog but the seed itself is
// kept verbatim so ResetAll can reapply the exclusions at reset time.
func New(seedPlayers []models.Player, seedTeams []models.Team, opts ...Option) *Ledger {
	l := &Ledger{
		rules:       DefaultRules(),
		seedPlayers: clonePlayers(seedPlayers),
		seedTeams:   cloneTeams(seedTeams),
		excluded:    make(map[int]struct{}),
		picked:      make(map[int]struct{}),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.loadFromSeed()
	return l
}

// Rules returns the rules the ledger was built with.
func (l *Ledger) Rules() Rules {
	return l.rules
}

// RestoreState replaces the live collections with a persisted snapshot,
// typically the one read back from the local store at startup. The seed and
// exclusion list are untouched.
func (l *Ledger) RestoreState(players []models.Player, teams []models.Team) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.players = l.players[:0]
	for i := range players {
		if _, gone := l.excluded[players[i].ID]; gone {
			continue
		}
		p := players[i]
		l.players = append(l.players, &p)
	}
	l.teams = l.teams[:0]
	for i := range teams {
		t := cloneTeam(teams[i])
		l.teams = append(l.teams, &t)
	}
	l.current = nil
	l.currentBid = 0
	l.picked = make(map[int]struct{})
}

// Players returns a copy of the full player catalog.
func (l *Ledger) Players() []models.Player {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Player, len(l.players))
	for i, p := range l.players {
		out[i] = *p
	}
	return out
}

// Teams returns a copy of all teams and their rosters.
func (l *Ledger) Teams() []models.Team {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Team, len(l.teams))
	for i, t := range l.teams {
		out[i] = cloneTeam(*t)
	}
	return out
}

// Team returns a copy of a single team.
func (l *Ledger) Team(id int) (models.Team, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.findTeam(id)
	if t == nil {
		return models.Team{}, false
	}
	return cloneTeam(*t), true
}

// Player returns a copy of a single player.
func (l *Ledger) Player(id int) (models.Player, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.findPlayer(id)
	if p == nil {
		return models.Player{}, false
	}
	return *p, true
}

// Session returns a copy of the ephemeral auction session state.
func (l *Ledger) Session() models.AuctionSession {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := models.AuctionSession{CurrentBid: l.currentBid}
	if l.current != nil {
		p := *l.current
		s.CurrentPlayer = &p
	}
	s.PickedInSession = make([]int, 0, len(l.picked))
	for id := range l.picked {
		s.PickedInSession = append(s.PickedInSession, id)
	}
	sort.Ints(s.PickedInSession)
	return s
}

// ExcludedIDs returns the permanent player exclusion list, sorted.
func (l *Ledger) ExcludedIDs() []int {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]int, 0, len(l.excluded))
	for id := range l.excluded {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SearchPlayers filters the catalog by role or status and a free-text query
// matched against name, flat number and role.
func (l *Ledger) SearchPlayers(query string, role models.PlayerRole, status models.PlayerStatus) []models.Player {
	l.mu.Lock()
	defer l.mu.Unlock()

	query = strings.ToLower(query)
	var out []models.Player
	for _, p := range l.players {
		if role != "" && p.Role != role {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.FlatNo), query) &&
			!strings.Contains(strings.ToLower(string(p.Role)), query) {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// loadFromSeed rebuilds the live collections from the seed dataset,
// honoring the permanent exclusion list. Caller must hold the lock or be
// the constructor.
func (l *Ledger) loadFromSeed() {
	l.players = l.players[:0]
	for i := range l.seedPlayers {
		if _, gone := l.excluded[l.seedPlayers[i].ID]; gone {
			continue
		}
		p := l.seedPlayers[i]
		p.Status = models.PlayerStatusAvailable
		p.SoldTo = nil
		p.SoldPrice = nil
		l.players = append(l.players, &p)
	}

	l.teams = l.teams[:0]
	for i := range l.seedTeams {
		t := cloneTeam(l.seedTeams[i])
		if len(t.Players) > l.rules.FoundingMembers {
			t.Players = t.Players[:l.rules.FoundingMembers]
		}
		l.teams = append(l.teams, &t)
	}

	l.current = nil
	l.currentBid = 0
	l.picked = make(map[int]struct{})
}

func (l *Ledger) findPlayer(id int) *models.Player {
	for _, p := range l.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (l *Ledger) findTeam(id int) *models.Team {
	for _, t := range l.teams {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (l *Ledger) maxPlayerID() int {
	max := 0
	for _, p := range l.players {
		if p.ID > max {
			max = p.ID
		}
	}
	return max
}

func (l *Ledger) maxTeamID() int {
	max := 0
	for _, t := range l.teams {
		if t.ID > max {
			max = t.ID
		}
	}
	return max
}

func cloneTeam(t models.Team) models.Team {
	out := t
	out.Players = make([]models.RosterEntry, len(t.Players))
	for i, e := range t.Players {
		out.Players[i] = cloneEntry(e)
	}
	return out
}

func cloneEntry(e models.RosterEntry) models.RosterEntry {
	if e.SoldPrice != nil {
		price := *e.SoldPrice
		e.SoldPrice = &price
	}
	return e
}

func clonePlayers(players []models.Player) []models.Player {
	out := make([]models.Player, len(players))
	for i, p := range players {
		if p.SoldTo != nil {
			id := *p.SoldTo
			p.SoldTo = &id
		}
		if p.SoldPrice != nil {
			price := *p.SoldPrice
			p.SoldPrice = &price
		}
		out[i] = p
	}
	return out
}

func cloneTeams(teams []models.Team) []models.Team {
	out := make([]models.Team, len(teams))
	for i, t := range teams {
		out[i] = cloneTeam(t)
	}
	return out
}
