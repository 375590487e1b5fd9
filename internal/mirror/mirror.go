// Package mirror implements the optional remote mirror: a Postgres copy of
// the players and teams tables with upsert-by-id semantics, plus a NATS
// JetStream change feed so other viewers converge on the same state.
//
// The mirror is strictly best-effort. The in-memory ledger and the local
// store are authoritative for the current session; mirror write failures
// are logged by the caller and never rolled back or retried.
package mirror

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"github.com/avisingh/spl-auction/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config holds the remote mirror settings. Enabled is the feature flag; the
// application runs on local state alone when it is off.
type Config struct {
	Enabled     bool
	DatabaseURL string
	Feed        FeedConfig
}

// Mirror wraps the Postgres connection pool and the change feed publisher.
type Mirror struct {
	pool   *pgxpool.Pool
	feed   *Feed
	origin string
}

// Connect opens the mirror database, applies pending migrations, and
// connects the change feed. origin identifies this process so its own
// change notifications can be skipped on the way back in.
func Connect(ctx context.Context, cfg Config, origin string) (*Mirror, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mirror database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping mirror database: %w", err)
	}

	if err := migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}

	feed, err := ConnectFeed(ctx, cfg.Feed)
	if err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().Str("origin", origin).Msg("remote mirror connected")
	return &Mirror{pool: pool, feed: feed, origin: origin}, nil
}

// Close releases the pool and the feed connection.
func (m *Mirror) Close() {
	if m.feed != nil {
		m.feed.Close()
	}
	m.pool.Close()
}

// Origin returns the change-feed origin id of this process.
func (m *Mirror) Origin() string {
	return m.origin
}

// Feed returns the change feed connection, for wiring the consumer.
func (m *Mirror) Feed() *Feed {
	return m.feed
}

func migrate(pool *pgxpool.Pool) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply mirror migrations: %w", err)
	}
	return nil
}

// UpsertPlayer writes one player row and publishes an upsert notice.
func (m *Mirror) UpsertPlayer(ctx context.Context, p models.Player) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO players (id, name, flat_no, role, batting_style, bowling_style, base_price, photo, status, sold_to, sold_price, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			flat_no = EXCLUDED.flat_no,
			role = EXCLUDED.role,
			batting_style = EXCLUDED.batting_style,
			bowling_style = EXCLUDED.bowling_style,
			base_price = EXCLUDED.base_price,
			photo = EXCLUDED.photo,
			status = EXCLUDED.status,
			sold_to = EXCLUDED.sold_to,
			sold_price = EXCLUDED.sold_price,
			updated_at = now()
	`, p.ID, p.Name, p.FlatNo, p.Role, p.BattingStyle, p.BowlingStyle, p.BasePrice, p.Photo, p.Status, p.SoldTo, p.SoldPrice)
	if err != nil {
		return fmt.Errorf("failed to upsert player %d: %w", p.ID, err)
	}
	return m.publishUpsert(ctx, TablePlayers, p.ID, p)
}

// UpsertTeam writes one team row, with the roster encoded as a JSONB blob,
// and publishes an upsert notice.
func (m *Mirror) UpsertTeam(ctx context.Context, t models.Team) error {
	roster, err := json.Marshal(t.Players)
	if err != nil {
		return fmt.Errorf("failed to encode roster for team %d: %w", t.ID, err)
	}
	_, err = m.pool.Exec(ctx, `
		INSERT INTO teams (id, name, short_name, color, logo, budget, players, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			short_name = EXCLUDED.short_name,
			color = EXCLUDED.color,
			logo = EXCLUDED.logo,
			budget = EXCLUDED.budget,
			players = EXCLUDED.players,
			updated_at = now()
	`, t.ID, t.Name, t.ShortName, t.Color, t.Logo, t.Budget, roster)
	if err != nil {
		return fmt.Errorf("failed to upsert team %d: %w", t.ID, err)
	}
	return m.publishUpsert(ctx, TableTeams, t.ID, t)
}

// DeletePlayer removes a player row and publishes a delete notice.
func (m *Mirror) DeletePlayer(ctx context.Context, id int) error {
	if _, err := m.pool.Exec(ctx, `DELETE FROM players WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete player %d: %w", id, err)
	}
	return m.publishDelete(ctx, TablePlayers, id)
}

// DeleteTeam removes a team row and publishes a delete notice.
func (m *Mirror) DeleteTeam(ctx context.Context, id int) error {
	if _, err := m.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete team %d: %w", id, err)
	}
	return m.publishDelete(ctx, TableTeams, id)
}

// LoadSnapshot reads the full mirror contents. The second return is false
// when the mirror holds no players, meaning it has never been populated and
// the local seed should be used instead.
func (m *Mirror) LoadSnapshot(ctx context.Context) ([]models.Player, []models.Team, bool, error) {
	rows, err := m.pool.Query(ctx, `
		SELECT id, name, flat_no, role, batting_style, bowling_style, base_price, photo, status, sold_to, sold_price
		FROM players ORDER BY id
	`)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to load mirror players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.FlatNo, &p.Role, &p.BattingStyle, &p.BowlingStyle, &p.BasePrice, &p.Photo, &p.Status, &p.SoldTo, &p.SoldPrice); err != nil {
			return nil, nil, false, fmt.Errorf("failed to scan mirror player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, false, fmt.Errorf("failed to read mirror players: %w", err)
	}
	if len(players) == 0 {
		return nil, nil, false, nil
	}

	teamRows, err := m.pool.Query(ctx, `
		SELECT id, name, short_name, color, logo, budget, players
		FROM teams ORDER BY id
	`)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to load mirror teams: %w", err)
	}
	defer teamRows.Close()

	var teams []models.Team
	for teamRows.Next() {
		var t models.Team
		var roster []byte
		if err := teamRows.Scan(&t.ID, &t.Name, &t.ShortName, &t.Color, &t.Logo, &t.Budget, &roster); err != nil {
			return nil, nil, false, fmt.Errorf("failed to scan mirror team: %w", err)
		}
		if err := json.Unmarshal(roster, &t.Players); err != nil {
			return nil, nil, false, fmt.Errorf("failed to decode roster for team %d: %w", t.ID, err)
		}
		teams = append(teams, t)
	}
	if err := teamRows.Err(); err != nil {
		return nil, nil, false, fmt.Errorf("failed to read mirror teams: %w", err)
	}

	return players, teams, true, nil
}

func (m *Mirror) publishUpsert(ctx context.Context, table Table, id int, row any) error {
	if m.feed == nil {
		return nil
	}
	return m.feed.Publish(ctx, ChangeNotice{Origin: m.origin, Table: table, Kind: KindUpsert, ID: id}, row)
}

func (m *Mirror) publishDelete(ctx context.Context, table Table, id int) error {
	if m.feed == nil {
		return nil
	}
	return m.feed.Publish(ctx, ChangeNotice{Origin: m.origin, Table: table, Kind: KindDelete, ID: id}, nil)
}
