package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/avisingh/spl-auction/internal/models"
)

// Merger defines what the consumer needs from the in-memory state to apply
// incoming change notices. Implemented by the auction ledger.
type Merger interface {
	ApplyPlayerUpsert(p models.Player)
	ApplyPlayerDelete(id int)
	ApplyTeamUpsert(t models.Team)
	ApplyTeamDelete(id int)
}

// ConsumerConfig holds the JetStream consumer settings for the change feed.
type ConsumerConfig struct {
	StreamName    string
	ConsumerName  string
	SubjectFilter string
	MaxDeliver    int
	AckWait       time.Duration
	MaxAckPending int
}

// DefaultConsumerConfig returns consumer defaults. origin is folded into
// the durable name so each running board tracks its own feed position.
func DefaultConsumerConfig(origin string) ConsumerConfig {
	name := "auction-board"
	if len(origin) >= 8 {
		name = fmt.Sprintf("auction-board-%s", origin[:8])
	}
	return ConsumerConfig{
		StreamName:    "AUCTION_SYNC",
		ConsumerName:  name,
		SubjectFilter: "auction.sync.>",
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
	}
}

// FeedConsumer applies remote change notices to the local state. Notices
// published by this process (matching origin) are acknowledged and skipped.
type FeedConsumer struct {
	merger   Merger
	origin   string
	consumer jetstream.Consumer
	config   ConsumerConfig

	// Applied is invoked after each notice is merged, so the caller can
	// persist and rebroadcast. Optional.
	Applied func(notice ChangeNotice)
}

// NewFeedConsumer creates the durable consumer on the feed's stream.
func NewFeedConsumer(ctx context.Context, feed *Feed, merger Merger, origin string, cfg ConsumerConfig) (*FeedConsumer, error) {
	stream, err := feed.js.Stream(ctx, cfg.StreamName)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}

	consumer, err := stream.Consumer(ctx, cfg.ConsumerName)
	if err != nil {
		consumer, err = stream.CreateConsumer(ctx, jetstream.ConsumerConfig{
			Name:          cfg.ConsumerName,
			Durable:       cfg.ConsumerName,
			Description:   "Auction board change feed consumer",
			FilterSubject: cfg.SubjectFilter,
			DeliverPolicy: jetstream.DeliverNewPolicy,
			AckPolicy:     jetstream.AckExplicitPolicy,
			MaxDeliver:    cfg.MaxDeliver,
			AckWait:       cfg.AckWait,
			MaxAckPending: cfg.MaxAckPending,
			ReplayPolicy:  jetstream.ReplayInstantPolicy,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create consumer: %w", err)
		}
		log.Info().Str("consumer", cfg.ConsumerName).Str("stream", cfg.StreamName).Msg("created JetStream consumer")
	}

	return &FeedConsumer{merger: merger, origin: origin, consumer: consumer, config: cfg}, nil
}

// Start consumes notices until ctx is cancelled.
func (fc *FeedConsumer) Start(ctx context.Context) error {
	log.Info().
		Str("consumer", fc.config.ConsumerName).
		Str("stream", fc.config.StreamName).
		Msg("starting change feed consumer")

	messageCh := make(chan jetstream.Msg, 100)
	consumeCtx, err := fc.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("change feed consumer shutting down")
			return nil
		case msg := <-messageCh:
			if err := fc.processMessage(msg); err != nil {
				log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to process change notice")
				if nakErr := msg.Nak(); nakErr != nil {
					log.Error().Err(nakErr).Msg("failed to NAK message")
				}
				continue
			}
			if ackErr := msg.Ack(); ackErr != nil {
				log.Error().Err(ackErr).Msg("failed to ACK message")
			}
		}
	}
}

func (fc *FeedConsumer) processMessage(msg jetstream.Msg) error {
	var notice ChangeNotice
	if err := json.Unmarshal(msg.Data(), &notice); err != nil {
		return fmt.Errorf("failed to decode change notice: %w", err)
	}

	if notice.Origin == fc.origin {
		return nil
	}

	log.Debug().
		Str("notice_id", notice.NoticeID).
		Str("table", string(notice.Table)).
		Str("kind", string(notice.Kind)).
		Int("id", notice.ID).
		Msg("applying remote change")

	if err := applyNotice(fc.merger, notice); err != nil {
		return err
	}
	if fc.Applied != nil {
		fc.Applied(notice)
	}
	return nil
}

// applyNotice dispatches one notice to the merger.
func applyNotice(m Merger, notice ChangeNotice) error {
	switch {
	case notice.Table == TablePlayers && notice.Kind == KindUpsert:
		var p models.Player
		if err := json.Unmarshal(notice.Row, &p); err != nil {
			return fmt.Errorf("failed to decode player row: %w", err)
		}
		m.ApplyPlayerUpsert(p)
	case notice.Table == TablePlayers && notice.Kind == KindDelete:
		m.ApplyPlayerDelete(notice.ID)
	case notice.Table == TableTeams && notice.Kind == KindUpsert:
		var t models.Team
		if err := json.Unmarshal(notice.Row, &t); err != nil {
			return fmt.Errorf("failed to decode team row: %w", err)
		}
		m.ApplyTeamUpsert(t)
	case notice.Table == TableTeams && notice.Kind == KindDelete:
		m.ApplyTeamDelete(notice.ID)
	default:
		return fmt.Errorf("unknown change notice %s/%s", notice.Table, notice.Kind)
	}
	return nil
}
