package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// Table names a mirrored table in the change feed.
type Table string

const (
	TablePlayers Table = "players"
	TableTeams   Table = "teams"
)

// ChangeKind is the type of mutation carried by a notice.
type ChangeKind string

const (
	KindUpsert ChangeKind = "upsert"
	KindDelete ChangeKind = "delete"
)

// ChangeNotice is one mirrored mutation. Row carries the full record for
// upserts and is empty for deletes. Origin identifies the publishing
// process so it can ignore its own notices on the way back in.
type ChangeNotice struct {
	NoticeID  string          `json:"noticeId"`
	Origin    string          `json:"origin"`
	Table     Table           `json:"table"`
	Kind      ChangeKind      `json:"kind"`
	ID        int             `json:"id"`
	Row       json.RawMessage `json:"row,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// FeedConfig holds the JetStream change feed settings.
type FeedConfig struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration
	MaxMsgs         int64
	DuplicateWindow time.Duration
}

// DefaultFeedConfig returns the change feed defaults.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		URL:             nats.DefaultURL,
		StreamName:      "AUCTION_SYNC",
		SubjectPrefix:   "auction.sync",
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		MaxAge:          24 * time.Hour,
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Hour,
	}
}

// Feed publishes change notices to JetStream.
type Feed struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config FeedConfig
}

// ConnectFeed connects to NATS and ensures the sync stream exists.
func ConnectFeed(ctx context.Context, cfg FeedConfig) (*Feed, error) {
	nc, err := natsConnect(cfg)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	f := &Feed{nc: nc, js: js, config: cfg}
	if err := f.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}
	return f, nil
}

func natsConnect(cfg FeedConfig) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

func (f *Feed) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        f.config.StreamName,
		Description: "Auction state change feed",
		Subjects:    []string{fmt.Sprintf("%s.>", f.config.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      f.config.MaxAge,
		MaxMsgs:     f.config.MaxMsgs,
		Storage:     jetstream.FileStorage,
		Duplicates:  f.config.DuplicateWindow,
	}

	if _, err := f.js.Stream(ctx, f.config.StreamName); err != nil {
		if _, err = f.js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
		log.Info().Str("stream", f.config.StreamName).Msg("created JetStream stream")
	}
	return nil
}

// Publish sends one change notice. row is marshaled into the notice for
// upserts; pass nil for deletes.
func (f *Feed) Publish(ctx context.Context, notice ChangeNotice, row any) error {
	notice.NoticeID = uuid.New().String()
	notice.Timestamp = time.Now().UTC()
	if row != nil {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to encode %s row: %w", notice.Table, err)
		}
		notice.Row = data
	}

	data, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to encode change notice: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", f.config.SubjectPrefix, notice.Table)
	ack, err := f.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Notice-ID": []string{notice.NoticeID},
			"Origin":    []string{notice.Origin},
		},
	},
		jetstream.WithMsgID(notice.NoticeID),
		jetstream.WithExpectStream(f.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("failed to publish change notice: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Str("notice_id", notice.NoticeID).
		Uint64("sequence", ack.Sequence).
		Msg("published change notice")
	return nil
}

// Close closes the NATS connection.
func (f *Feed) Close() {
	if f.nc != nil {
		f.nc.Close()
	}
}
