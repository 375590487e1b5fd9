package ledger

import "github.com/avisingh/spl-auction/internal/models"

// Sale describes a completed acquisition, for persistence and broadcast.
type Sale struct {
	Player models.Player `json:"player"`
	Team   models.Team   `json:"team"`
	Price  int           `json:"price"`
}

// TeamAffordability is the read-only projection of which teams can still
// take the current bid. Recomputed for display after every bid change.
type TeamAffordability struct {
	TeamID    int    `json:"teamId"`
	TeamName  string `json:"teamName"`
	Budget    int    `json:"budget"`
	SlotsFree int    `json:"slotsFree"`
	Ceiling   int    `json:"ceiling"`
	CanAfford bool   `json:"canAfford"`
}

// SelectForAuction puts an available or unsold player on the block and sets
// the bid to their base price. A missing id or an ineligible player is a
// silent no-op so stale references from viewers degrade gracefully.
func (l *Ledger) SelectForAuction(playerID int) (models.Player, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.findPlayer(playerID)
	if p == nil || !p.Eligible() {
		return models.Player{}, false
	}
	l.current = p
	l.currentBid = p.BasePrice
	return *p, true
}

// RaiseBid increases the current bid by a positive step.
func (l *Ledger) RaiseBid(delta int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return 0, ErrNoCurrentPlayer
	}
	if delta <= 0 {
		return l.currentBid, ErrInvalidAmount
	}
	l.currentBid += delta
	return l.currentBid, nil
}

// SetBid replaces the current bid with an explicit amount.
func (l *Ledger) SetBid(amount int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return 0, ErrNoCurrentPlayer
	}
	if amount < 0 {
		return l.currentBid, ErrInvalidAmount
	}
	l.currentBid = amount
	return l.currentBid, nil
}

// ResetBid returns the bid to the current player's base price. Idempotent.
func (l *Ledger) ResetBid() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return 0, ErrNoCurrentPlayer
	}
	l.currentBid = l.current.BasePrice
	return l.currentBid, nil
}

// BidCeiling computes the maximum legal bid for a team: its budget minus the
// reserve needed to fill its remaining roster slots at the base reserve
// price. Never negative.
func (l *Ledger) BidCeiling(teamID int) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.findTeam(teamID)
	if t == nil {
		return 0, false
	}
	return l.ceiling(t), true
}

// ceiling implements the reserve arithmetic. reserveSlots is floored at zero
// so a nearly-full roster cannot inflate the reserve. Caller holds the lock.
func (l *Ledger) ceiling(t *models.Team) int {
	reserveSlots := l.rules.RosterCap - len(t.Players) - 1
	if reserveSlots < 0 {
		reserveSlots = 0
	}
	c := t.Budget - reserveSlots*l.rules.BaseReservePrice
	if c < 0 {
		c = 0
	}
	return c
}

// Affordability reports, per team, whether it can take the current bid.
func (l *Ledger) Affordability() []TeamAffordability {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]TeamAffordability, len(l.teams))
	for i, t := range l.teams {
		ceiling := l.ceiling(t)
		slots := l.rules.RosterCap - len(t.Players)
		out[i] = TeamAffordability{
			TeamID:    t.ID,
			TeamName:  t.Name,
			Budget:    t.Budget,
			SlotsFree: slots,
			Ceiling:   ceiling,
			CanAfford: slots > 0 && t.Budget >= l.currentBid && l.currentBid <= ceiling,
		}
	}
	return out
}

// ConfirmSale sells the current player to a team at the current bid.
// Preconditions are checked in order (first failure wins): player on the
// block, roster slot free, budget covers the bid, bid within the ceiling.
// The mutation is all-or-nothing; any rejection leaves both records
// untouched. A missing team id is a silent no-op.
func (l *Ledger) ConfirmSale(teamID int) (*Sale, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return nil, ErrNoCurrentPlayer
	}
	t := l.findTeam(teamID)
	if t == nil {
		return nil, nil
	}
	if len(t.Players) >= l.rules.RosterCap {
		return nil, ErrRosterFull
	}
	if t.Budget < l.currentBid {
		return nil, ErrInsufficientBudget
	}
	if l.currentBid > l.ceiling(t) {
		return nil, ErrBidExceedsCeiling
	}

	sale := l.assign(t, l.current, l.currentBid)
	l.current = nil
	l.currentBid = 0
	return sale, nil
}

// MarkUnsold takes the current player off the block without a sale. The
// player stays eligible for re-auction.
func (l *Ledger) MarkUnsold() (models.Player, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return models.Player{}, ErrNoCurrentPlayer
	}
	l.current.Status = models.PlayerStatusUnsold
	l.current.SoldTo = nil
	l.current.SoldPrice = nil
	p := *l.current
	l.current = nil
	l.currentBid = 0
	return p, nil
}

// assign performs the shared player/team mutation for ConfirmSale and
// ManualAssign. Caller holds the lock and has validated preconditions.
func (l *Ledger) assign(t *models.Team, p *models.Player, price int) *Sale {
	teamID := t.ID
	soldPrice := price
	p.Status = models.PlayerStatusSold
	p.SoldTo = &teamID
	p.SoldPrice = &soldPrice

	entryPrice := price
	t.Budget -= price
	t.Players = append(t.Players, models.RosterEntry{
		Name:      p.Name,
		FlatNo:    p.FlatNo,
		Role:      p.Role,
		Captain:   false,
		SoldPrice: &entryPrice,
	})

	return &Sale{Player: *p, Team: cloneTeam(*t), Price: price}
}
