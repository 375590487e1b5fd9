package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avisingh/spl-auction/internal/auction"
	"github.com/avisingh/spl-auction/internal/gateway"
	"github.com/avisingh/spl-auction/internal/ledger"
	"github.com/avisingh/spl-auction/internal/mirror"
	"github.com/avisingh/spl-auction/internal/seed"
	"github.com/avisingh/spl-auction/internal/store"
)

// Services holds every wired component of the auction board.
type Services struct {
	Store    *store.Store
	Mirror   *mirror.Mirror
	App      *auction.App
	Conns    *gateway.ConnectionManager
	Handler  *gateway.Handler
	consumer *mirror.FeedConsumer
}

func setupServices(ctx context.Context, cfg Config) (*Services, error) {
	rules, err := loadRules(cfg.RulesPath)
	if err != nil {
		return nil, err
	}

	dataset, err := seed.Load(cfg.SeedDir)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, err
	}

	excluded, err := st.LoadExcluded(ctx)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to load exclusion list: %w", err)
	}

	l := ledger.New(dataset.Players, dataset.Teams,
		ledger.WithRules(rules),
		ledger.WithExcluded(excluded),
	)

	var m *mirror.Mirror
	origin := uuid.New().String()
	if cfg.Mirror.Enabled {
		m, err = mirror.Connect(ctx, cfg.Mirror, origin)
		if err != nil {
			st.Close()
			return nil, err
		}
	} else {
		log.Info().Msg("remote mirror disabled, running on local state")
	}

	conns := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())

	opts := []auction.AppOption{
		auction.WithBroadcaster(conns),
		auction.WithAdminPassword(cfg.AdminPassword),
	}
	if m != nil {
		opts = append(opts, auction.WithMirror(m))
	}
	app := auction.NewApp(l, st, opts...)

	if err := app.RestoreState(ctx); err != nil {
		if m != nil {
			m.Close()
		}
		st.Close()
		return nil, err
	}

	svcs := &Services{
		Store:   st,
		Mirror:  m,
		App:     app,
		Conns:   conns,
		Handler: gateway.NewHandler(app, conns),
	}

	if m != nil {
		consumer, err := mirror.NewFeedConsumer(ctx, m.Feed(), l, origin, mirror.DefaultConsumerConfig(origin))
		if err != nil {
			svcs.Close()
			return nil, err
		}
		consumer.Applied = app.ApplyRemoteChange
		svcs.consumer = consumer
	}

	return svcs, nil
}

// Start launches the background loops: broadcast fan-out, autosave and the
// change feed consumer.
func (s *Services) Start(ctx context.Context, cfg Config) {
	go s.Conns.Start(ctx)
	go s.App.StartAutosave(ctx, cfg.AutosaveInterval)
	if s.consumer != nil {
		go func() {
			if err := s.consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("change feed consumer failed")
			}
		}()
	}
}

// Close releases every held resource.
func (s *Services) Close() {
	if s.Mirror != nil {
		s.Mirror.Close()
	}
	if err := s.Store.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close local store")
	}
}
