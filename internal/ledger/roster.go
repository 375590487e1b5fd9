package ledger

import "github.com/avisingh/spl-auction/internal/models"

// Removal describes a roster entry taken off a team, with the budget refund
// and the catalog player that was reset, if one matched.
type Removal struct {
	Team   models.Team        `json:"team"`
	Entry  models.RosterEntry `json:"entry"`
	Player *models.Player     `json:"player,omitempty"`
	Refund int                `json:"refund"`
}

// RemovePlayerFromTeam removes a roster entry by index, refunds its sold
// price to the team budget, and resets the matching catalog player to
// available. The first founding entries are immutable through this path.
// This is a compensating transaction: budget and roster length return to
// their pre-sale values. Missing team or out-of-range index is a no-op.
func (l *Ledger) RemovePlayerFromTeam(teamID, rosterIndex int) (*Removal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.findTeam(teamID)
	if t == nil || rosterIndex >= len(t.Players) {
		return nil, nil
	}
	if rosterIndex < l.rules.FoundingMembers {
		return nil, ErrFoundingMember
	}

	entry := t.Players[rosterIndex]
	refund := 0
	if entry.SoldPrice != nil {
		refund = *entry.SoldPrice
	}
	t.Budget += refund
	t.Players = append(t.Players[:rosterIndex], t.Players[rosterIndex+1:]...)

	removal := &Removal{Entry: cloneEntry(entry), Refund: refund}

	// Roster entries carry no player id; identity is name plus flat.
	for _, p := range l.players {
		if p.Name == entry.Name && p.FlatNo == entry.FlatNo {
			p.Status = models.PlayerStatusAvailable
			p.SoldTo = nil
			p.SoldPrice = nil
			reset := *p
			removal.Player = &reset
			break
		}
	}

	removal.Team = cloneTeam(*t)
	return removal, nil
}

// ManualAssign places a player on a team at an explicit price, outside the
// live bidding flow. Unlike ConfirmSale it does not enforce the bid
// ceiling: it is the admin correction path and may spend into the reserve.
// Missing team or player ids are silent no-ops.
func (l *Ledger) ManualAssign(teamID, playerID, price int) (*Sale, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if price < 0 {
		return nil, ErrInvalidAmount
	}
	t := l.findTeam(teamID)
	p := l.findPlayer(playerID)
	if t == nil || p == nil {
		return nil, nil
	}
	if !p.Eligible() {
		return nil, ErrPlayerNotEligible
	}
	if len(t.Players) >= l.rules.RosterCap {
		return nil, ErrRosterFull
	}
	if price > t.Budget {
		return nil, ErrInsufficientBudget
	}

	if l.current != nil && l.current.ID == p.ID {
		l.current = nil
		l.currentBid = 0
	}
	return l.assign(t, p, price), nil
}
