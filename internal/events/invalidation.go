package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/promata/reservas-gateway/internal/observability"
)

// DefaultSubject carries cache invalidation events between gateway replicas.
const DefaultSubject = "promata.cache.invalidate"

// Invalidator removes cached reads for a resource.
type Invalidator interface {
	Invalidate(ctx context.Context, resource string) (int, error)
}

// Event announces that a backend resource changed.
type Event struct {
	Source   string    `json:"source"`
	Resource string    `json:"resource"`
	SentAt   time.Time `json:"sentAt"`
}

// Transport carries encoded events between replicas. Every subscriber receives every
// message.
type Transport interface {
	Publish(subject string, payload []byte) error
	Subscribe(subject string, handle func(payload []byte)) (stop func() error, err error)
}

type natsTransport struct {
	conn *nats.Conn
}

func (t natsTransport) Publish(subject string, payload []byte) error {
	return t.conn.Publish(subject, payload)
}

func (t natsTransport) Subscribe(subject string, handle func([]byte)) (func() error, error) {
	sub, err := t.conn.Subscribe(subject, func(msg *nats.Msg) {
		handle(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return sub.Drain, nil
}

// Bus invalidates the shared cache and announces the change over NATS. Events published by
// other replicas or backend jobs are applied to the cache as they arrive. A nil connection
// keeps invalidation local.
type Bus struct {
	cache     Invalidator
	transport Transport
	subject   string
	nodeID    string
	logger    zerolog.Logger
}

// NewBus builds a Bus. conn may be nil.
func NewBus(cache Invalidator, conn *nats.Conn, subject string, logger zerolog.Logger) *Bus {
	var transport Transport
	if conn != nil {
		transport = natsTransport{conn: conn}
	}
	return NewBusWithTransport(cache, transport, subject, logger)
}

// NewBusWithTransport builds a Bus over an arbitrary transport. transport may be nil.
func NewBusWithTransport(cache Invalidator, transport Transport, subject string, logger zerolog.Logger) *Bus {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultSubject
	}
	return &Bus{
		cache:     cache,
		transport: transport,
		subject:   subject,
		nodeID:    uuid.NewString(),
		logger:    logger.With().Str("component", "invalidation_bus").Logger(),
	}
}

// Publish invalidates resources locally and broadcasts one event per resource.
func (b *Bus) Publish(ctx context.Context, resources ...string) {
	for _, resource := range resources {
		b.apply(ctx, resource, "local")

		if b.transport == nil {
			continue
		}
		payload, err := json.Marshal(Event{Source: b.nodeID, Resource: resource, SentAt: time.Now().UTC()})
		if err != nil {
			b.logger.Warn().Err(err).Str("resource", resource).Msg("failed to encode invalidation event")
			continue
		}
		if err := b.transport.Publish(b.subject, payload); err != nil {
			b.logger.Warn().Err(err).Str("resource", resource).Msg("failed to publish invalidation event")
		}
	}
}

// Run subscribes every replica to the invalidation subject until ctx is cancelled. Each
// replica receives each event and skips its own. It returns immediately without a transport.
func (b *Bus) Run(ctx context.Context) error {
	if b.transport == nil {
		return nil
	}

	stop, err := b.transport.Subscribe(b.subject, func(payload []byte) {
		b.handle(ctx, payload)
	})
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		if err := stop(); err != nil {
			b.logger.Warn().Err(err).Msg("failed to drain invalidation subscription")
		}
	}()
	return nil
}

func (b *Bus) handle(ctx context.Context, payload []byte) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		b.logger.Warn().Err(err).Msg("invalid invalidation event payload")
		return
	}
	if event.Source == b.nodeID || strings.TrimSpace(event.Resource) == "" {
		return
	}
	b.apply(ctx, event.Resource, "remote")
}

func (b *Bus) apply(ctx context.Context, resource, origin string) {
	observability.Invalidations().WithLabelValues(resource, origin).Inc()
	if b.cache == nil {
		return
	}
	if _, err := b.cache.Invalidate(ctx, resource); err != nil {
		b.logger.Warn().Err(err).Str("resource", resource).Str("origin", origin).Msg("failed to invalidate cache")
	}
}
