package ledger

import "github.com/avisingh/spl-auction/internal/models"

// Merge operations apply inbound remote-mirror change notifications.
// Semantics are last-write-observed-wins: an unknown id is appended, a known
// id is replaced in place, a delete removes the record. No validation runs
// here; the remote row is taken as authoritative for that id.

// ApplyPlayerUpsert merges a remote player row into the catalog. Players on
// the permanent exclusion list are never reintroduced.
func (l *Ledger) ApplyPlayerUpsert(p models.Player) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, gone := l.excluded[p.ID]; gone {
		return
	}
	for i, existing := range l.players {
		if existing.ID == p.ID {
			replacement := p
			l.players[i] = &replacement
			if l.current != nil && l.current.ID == p.ID {
				l.current = l.players[i]
			}
			return
		}
	}
	appended := p
	l.players = append(l.players, &appended)
}

// ApplyPlayerDelete removes a player by id.
func (l *Ledger) ApplyPlayerDelete(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, p := range l.players {
		if p.ID == id {
			l.players = append(l.players[:i], l.players[i+1:]...)
			delete(l.picked, id)
			if l.current != nil && l.current.ID == id {
				l.current = nil
				l.currentBid = 0
			}
			return
		}
	}
}

// ApplyTeamUpsert merges a remote team row.
func (l *Ledger) ApplyTeamUpsert(t models.Team) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, existing := range l.teams {
		if existing.ID == t.ID {
			replacement := cloneTeam(t)
			l.teams[i] = &replacement
			return
		}
	}
	appended := cloneTeam(t)
	l.teams = append(l.teams, &appended)
}

// ApplyTeamDelete removes a team by id.
func (l *Ledger) ApplyTeamDelete(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, t := range l.teams {
		if t.ID == id {
			l.teams = append(l.teams[:i], l.teams[i+1:]...)
			return
		}
	}
}
