// Package auction is the application layer: it orchestrates the in-memory
// ledger, the local snapshot store, the optional remote mirror, and the
// broadcast transport. Every mutation follows the same order: apply to the
// ledger, persist the snapshot locally, broadcast to viewers, then sync the
// mirror asynchronously.
package auction

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/avisingh/spl-auction/internal/ledger"
	"github.com/avisingh/spl-auction/internal/mirror"
	"github.com/avisingh/spl-auction/internal/models"
	"github.com/avisingh/spl-auction/internal/store"
)

const mirrorSyncTimeout = 5 * time.Second

// App wires the ledger to its persistence and transport.
type App struct {
	ledger      *ledger.Ledger
	store       *store.Store
	mirror      *mirror.Mirror
	broadcaster Broadcaster
	clock       clockwork.Clock

	adminPassword string
	sessions      *sessionSet
}

// AppOption configures optional App dependencies.
type AppOption func(*App)

// WithMirror attaches the remote mirror.
func WithMirror(m *mirror.Mirror) AppOption {
	return func(a *App) { a.mirror = m }
}

// WithBroadcaster attaches the push transport.
func WithBroadcaster(b Broadcaster) AppOption {
	return func(a *App) { a.broadcaster = b }
}

// WithClock overrides the wall clock, for tests.
func WithClock(c clockwork.Clock) AppOption {
	return func(a *App) { a.clock = c }
}

// WithAdminPassword sets the admin gate password.
func WithAdminPassword(pw string) AppOption {
	return func(a *App) { a.adminPassword = pw }
}

// NewApp creates the application layer over a ledger and a local store.
func NewApp(l *ledger.Ledger, st *store.Store, opts ...AppOption) *App {
	a := &App{
		ledger:      l,
		store:       st,
		broadcaster: NopBroadcaster{},
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.sessions = newSessionSet(a.clock)
	return a
}

// RestoreState rebuilds ledger state at startup. The mirror snapshot wins
// when present, then the local store, then the seed the ledger was built
// with. A restored mirror snapshot is written back to the local store so
// the board survives losing the mirror later.
func (a *App) RestoreState(ctx context.Context) error {
	if a.mirror != nil {
		players, teams, ok, err := a.mirror.LoadSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("failed to restore from mirror: %w", err)
		}
		if ok {
			a.ledger.RestoreState(players, teams)
			if err := a.persist(ctx); err != nil {
				return err
			}
			log.Info().Int("players", len(players)).Int("teams", len(teams)).Msg("state restored from mirror")
			return nil
		}
	}

	players, ok, err := a.store.LoadPlayers(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore players: %w", err)
	}
	if !ok {
		log.Info().Msg("no saved snapshot, starting from seed")
		return nil
	}
	teams, _, err := a.store.LoadTeams(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore teams: %w", err)
	}
	a.ledger.RestoreState(players, teams)
	log.Info().Int("players", len(players)).Int("teams", len(teams)).Msg("state restored from local store")
	return nil
}

// State is the full snapshot sent to a viewer on connect or poll.
type State struct {
	Players       []models.Player            `json:"players"`
	Teams         []models.Team              `json:"teams"`
	Session       models.AuctionSession      `json:"session"`
	Affordability []ledger.TeamAffordability `json:"affordability"`
	Rules         ledger.Rules               `json:"rules"`
	Theme         string                     `json:"theme"`
}

// Snapshot returns the current auction state.
func (a *App) Snapshot(ctx context.Context) (State, error) {
	theme, err := a.store.Theme(ctx)
	if err != nil {
		return State{}, err
	}
	return State{
		Players:       a.ledger.Players(),
		Teams:         a.ledger.Teams(),
		Session:       a.ledger.Session(),
		Affordability: a.ledger.Affordability(),
		Rules:         a.ledger.Rules(),
		Theme:         theme,
	}, nil
}

// Players returns the catalog.
func (a *App) Players() []models.Player { return a.ledger.Players() }

// Teams returns all franchises.
func (a *App) Teams() []models.Team { return a.ledger.Teams() }

// Rules returns the auction rules in force.
func (a *App) Rules() ledger.Rules { return a.ledger.Rules() }

// SearchPlayers filters the catalog by name or flat substring, role and status.
func (a *App) SearchPlayers(query string, role models.PlayerRole, status models.PlayerStatus) []models.Player {
	return a.ledger.SearchPlayers(query, role, status)
}

// SelectPlayer puts a player on the block. Unknown or ineligible ids are a
// no-op and return false.
func (a *App) SelectPlayer(playerID int) (models.Player, bool) {
	p, ok := a.ledger.SelectForAuction(playerID)
	if !ok {
		return models.Player{}, false
	}
	a.broadcast(EventPlayerSelected, map[string]any{
		"player":        p,
		"bid":           p.BasePrice,
		"affordability": a.ledger.Affordability(),
	})
	return p, true
}

// RandomPick draws an eligible player at random and puts them on the block.
func (a *App) RandomPick() (*ledger.Pick, error) {
	pick, err := a.ledger.RandomPick()
	if err != nil {
		return nil, err
	}
	if _, ok := a.ledger.SelectForAuction(pick.Player.ID); !ok {
		return nil, fmt.Errorf("picked player %d no longer eligible", pick.Player.ID)
	}
	a.broadcast(EventPlayerSelected, map[string]any{
		"player":        pick.Player,
		"bid":           pick.Player.BasePrice,
		"newRound":      pick.NewRound,
		"spin":          pick.Spin,
		"affordability": a.ledger.Affordability(),
	})
	return pick, nil
}

// RaiseBid increases the current bid by a step.
func (a *App) RaiseBid(delta int) (int, error) {
	bid, err := a.ledger.RaiseBid(delta)
	if err != nil {
		return 0, err
	}
	a.broadcastBid(bid)
	return bid, nil
}

// SetBid sets the current bid to an exact amount.
func (a *App) SetBid(amount int) (int, error) {
	bid, err := a.ledger.SetBid(amount)
	if err != nil {
		return 0, err
	}
	a.broadcastBid(bid)
	return bid, nil
}

// ResetBid drops the current bid back to the base price.
func (a *App) ResetBid() (int, error) {
	bid, err := a.ledger.ResetBid()
	if err != nil {
		return 0, err
	}
	a.broadcastBid(bid)
	return bid, nil
}

func (a *App) broadcastBid(bid int) {
	a.broadcast(EventBidChanged, map[string]any{
		"bid":           bid,
		"affordability": a.ledger.Affordability(),
	})
}

// ConfirmSale sells the current player to a team at the current bid.
func (a *App) ConfirmSale(ctx context.Context, teamID int) (*ledger.Sale, error) {
	sale, err := a.ledger.ConfirmSale(teamID)
	if err != nil || sale == nil {
		return sale, err
	}
	a.persistLogged(ctx)
	a.broadcast(EventPlayerSold, sale)
	a.syncMirror(func(ctx context.Context, m *mirror.Mirror) error {
		if err := m.UpsertPlayer(ctx, sale.Player); err != nil {
			return err
		}
		return m.UpsertTeam(ctx, sale.Team)
	})
	return sale, nil
}

// MarkUnsold passes on the current player.
func (a *App) MarkUnsold(ctx context.Context) (models.Player, error) {
	p, err := a.ledger.MarkUnsold()
	if err != nil {
		return models.Player{}, err
	}
	a.persistLogged(ctx)
	a.broadcast(EventPlayerUnsold, p)
	a.syncMirror(func(ctx context.Context, m *mirror.Mirror) error {
		return m.UpsertPlayer(ctx, p)
	})
	return p, nil
}

// ManualAssign places a player on a team at an arbitrary price, bypassing
// the live bid. Admin correction path.
func (a *App) ManualAssign(ctx context.Context, teamID, playerID, price int) (*ledger.Sale, error) {
	sale, err := a.ledger.ManualAssign(teamID, playerID, price)
	if err != nil || sale == nil {
		return sale, err
	}
	a.persistLogged(ctx)
	a.broadcast(EventPlayerSold, sale)
	a.syncMirror(func(ctx context.Context, m *mirror.Mirror) error {
		if err := m.UpsertPlayer(ctx, sale.Player); err != nil {
			return err
		}
		return m.UpsertTeam(ctx, sale.Team)
	})
	return sale, nil
}

// RemovePlayerFromTeam takes a bought player off a roster and refunds the
// team. Founding members cannot be removed.
func (a *App) RemovePlayerFromTeam(ctx context.Context, teamID, rosterIndex int) (*ledger.Removal, error) {
	removal, err := a.ledger.RemovePlayerFromTeam(teamID, rosterIndex)
	if err != nil || removal == nil {
		return removal, err
	}
	a.persistLogged(ctx)
	a.broadcast(EventPlayerRemoved, removal)
	a.syncMirror(func(ctx context.Context, m *mirror.Mirror) error {
		if err := m.UpsertTeam(ctx, removal.Team); err != nil {
			return err
		}
		if removal.Player != nil {
			return m.UpsertPlayer(ctx, *removal.Player)
		}
		return nil
	})
	return removal, nil
}

// AddPlayer registers a new catalog entry.
func (a *App) AddPlayer(ctx context.Context, req ledger.AddPlayerRequest) (models.Player, error) {
	p, err := a.ledger.AddPlayer(req)
	if err != nil {
		return models.Player{}, err
	}
	a.persistLogged(ctx)
	a.broadcast(EventPlayerAdded, p)
	a.syncMirror(func(ctx context.Context, m *mirror.Mirror) error {
		return m.UpsertPlayer(ctx, p)
	})
	return p, nil
}

// DeletePlayer permanently removes a player; the id survives resets on the
// exclusion list.
func (a *App) DeletePlayer(ctx context.Context, playerID int) (models.Player, bool, error) {
	p, ok := a.ledger.DeletePlayer(playerID)
	if !ok {
		return models.Player{}, false, nil
	}
	a.persistLogged(ctx)
	a.broadcast(EventPlayerDeleted, p)
	a.syncMirror(func(ctx context.Context, m *mirror.Mirror) error {
		return m.DeletePlayer(ctx, playerID)
	})
	return p, true, nil
}

// AddTeam creates a franchise with the default budget.
func (a *App) AddTeam(ctx context.Context, name, shortName, color string) (models.Team, error) {
	t, err := a.ledger.AddTeam(name, shortName, color)
	if err != nil {
		return models.Team{}, err
	}
	a.persistLogged(ctx)
	a.broadcast(EventTeamAdded, t)
	a.syncMirror(func(ctx context.Context, m *mirror.Mirror) error {
		return m.UpsertTeam(ctx, t)
	})
	return t, nil
}

// RemoveTeam deletes a franchise and frees its bought players.
func (a *App) RemoveTeam(ctx context.Context, teamID int) ([]models.Player, bool, error) {
	freed, ok := a.ledger.RemoveTeam(teamID)
	if !ok {
		return nil, false, nil
	}
	a.persistLogged(ctx)
	a.broadcast(EventTeamRemoved, map[string]any{"teamId": teamID, "freed": freed})
	a.syncMirror(func(ctx context.Context, m *mirror.Mirror) error {
		if err := m.DeleteTeam(ctx, teamID); err != nil {
			return err
		}
		for _, p := range freed {
			if err := m.UpsertPlayer(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	return freed, true, nil
}

// ResetAll restores the seed state. Excluded players stay gone.
func (a *App) ResetAll(ctx context.Context) error {
	a.ledger.ResetAll()
	a.persistLogged(ctx)
	a.broadcast(EventAuctionReset, nil)
	players, teams := a.ledger.Players(), a.ledger.Teams()
	a.syncMirror(func(ctx context.Context, m *mirror.Mirror) error {
		for _, p := range players {
			if err := m.UpsertPlayer(ctx, p); err != nil {
				return err
			}
		}
		for _, t := range teams {
			if err := m.UpsertTeam(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
	return nil
}

// SetTheme persists the display theme and notifies viewers.
func (a *App) SetTheme(ctx context.Context, theme string) error {
	if err := a.store.SetTheme(ctx, theme); err != nil {
		return err
	}
	a.broadcast(EventThemeChanged, map[string]string{"theme": theme})
	return nil
}

// ApplyRemoteChange is the change feed hook: a remote mutation has already
// been merged into the ledger, so persist the result and tell viewers to
// refresh.
func (a *App) ApplyRemoteChange(notice mirror.ChangeNotice) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorSyncTimeout)
	defer cancel()
	if err := a.persist(ctx); err != nil {
		log.Error().Err(err).Msg("failed to persist remote change")
	}
	a.broadcast(EventStateSynced, map[string]any{
		"table": notice.Table,
		"kind":  notice.Kind,
		"id":    notice.ID,
	})
}

// persistLogged saves the snapshot after a mutation. In-memory state stays
// authoritative: a failed write is logged, never rolled back or retried.
func (a *App) persistLogged(ctx context.Context) {
	if err := a.persist(ctx); err != nil {
		log.Error().Err(err).Msg("failed to persist snapshot")
	}
}

func (a *App) persist(ctx context.Context) error {
	if err := a.store.SavePlayers(ctx, a.ledger.Players()); err != nil {
		return fmt.Errorf("failed to save players: %w", err)
	}
	if err := a.store.SaveTeams(ctx, a.ledger.Teams()); err != nil {
		return fmt.Errorf("failed to save teams: %w", err)
	}
	if err := a.store.SaveExcluded(ctx, a.ledger.ExcludedIDs()); err != nil {
		return fmt.Errorf("failed to save exclusions: %w", err)
	}
	return nil
}

func (a *App) broadcast(eventType EventType, data any) {
	a.broadcaster.Broadcast(newEvent(eventType, data))
}

// syncMirror runs one mirror write in the background. Mirror failures are
// logged and dropped; local state is already saved.
func (a *App) syncMirror(fn func(ctx context.Context, m *mirror.Mirror) error) {
	if a.mirror == nil {
		return
	}
	m := a.mirror
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorSyncTimeout)
		defer cancel()
		if err := fn(ctx, m); err != nil {
			log.Error().Err(err).Msg("mirror sync failed")
		}
	}()
}
