// Package events publishes committed session commands to RabbitMQ for the
// billing subsystem, which owns subscriptions and reconciles credit usage.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"trainingdesk/internal/domain/session"
)

const DefaultQueue = "training_sessions.events"

// Message is the body published for each command.
type Message struct {
	CommandID          string         `json:"command_id"`
	Kind               session.Kind   `json:"kind"`
	SessionID          int64          `json:"session_id"`
	MemberID           *int64         `json:"member_id,omitempty"`
	SessionType        session.Type   `json:"session_type,omitempty"`
	Status             session.Status `json:"status,omitempty"`
	SubscriptionBefore *int64         `json:"subscription_before,omitempty"`
	SubscriptionAfter  *int64         `json:"subscription_after,omitempty"`
	ScheduledStart     *time.Time     `json:"scheduled_start,omitempty"`
	OccurredAt         time.Time      `json:"occurred_at"`
}

// NewMessage flattens a command into the billing payload.
func NewMessage(cmd session.Command) Message {
	msg := Message{
		CommandID:  cmd.ID.String(),
		Kind:       cmd.Kind,
		SessionID:  cmd.SessionID,
		OccurredAt: cmd.IssuedAt,
	}

	ref := cmd.After
	if ref == nil {
		ref = cmd.Before
	}
	if ref != nil {
		msg.MemberID = ref.MemberID
		msg.SessionType = ref.Type
		start := ref.ScheduledStart
		msg.ScheduledStart = &start
	}
	if cmd.After != nil {
		msg.Status = cmd.After.Status
		msg.SubscriptionAfter = cmd.After.CountedInSubscriptionID
	}
	if cmd.Before != nil {
		msg.SubscriptionBefore = cmd.Before.CountedInSubscriptionID
	}
	return msg
}

var (
	ErrBufferFull = errors.New("event buffer full")
	ErrClosed     = errors.New("publisher closed")
)

const (
	defaultBuffer         = 256
	defaultDialTimeout    = 3 * time.Second
	defaultPublishTimeout = 5 * time.Second
	defaultMinBackoff     = 500 * time.Millisecond
	defaultMaxBackoff     = 30 * time.Second
)

type Option func(*Publisher)

// WithBuffer sets how many events may wait for the broker before Publish refuses more.
func WithBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = n
		}
	}
}

// WithDialTimeout bounds the TCP connect and AMQP handshake.
func WithDialTimeout(d time.Duration) Option {
	return func(p *Publisher) { p.dialTimeout = d }
}

// WithBackoff sets the first wait between failed deliveries; it doubles up to limit.
func WithBackoff(first, limit time.Duration) Option {
	return func(p *Publisher) { p.minBackoff, p.maxBackoff = first, limit }
}

type outgoing struct {
	id   string
	kind session.Kind
	body []byte
}

// Publisher queues events in memory and delivers them from one background
// goroutine, so request handlers never wait on the broker. It implements
// session.EventSink. While the broker is down the worker retries the head
// event with backoff; Publish fails fast with ErrBufferFull once the buffer fills.
type Publisher struct {
	url   string
	queue string

	buffer         int
	dialTimeout    time.Duration
	publishTimeout time.Duration
	minBackoff     time.Duration
	maxBackoff     time.Duration

	pending chan outgoing
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	// owned by the worker goroutine
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url, queue string, opts ...Option) *Publisher {
	if queue == "" {
		queue = DefaultQueue
	}
	p := &Publisher{
		url:            url,
		queue:          queue,
		buffer:         defaultBuffer,
		dialTimeout:    defaultDialTimeout,
		publishTimeout: defaultPublishTimeout,
		minBackoff:     defaultMinBackoff,
		maxBackoff:     defaultMaxBackoff,
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.pending = make(chan outgoing, p.buffer)

	p.wg.Add(1)
	go p.run()
	return p
}

// Publish enqueues cmd for delivery and returns immediately.
func (p *Publisher) Publish(ctx context.Context, cmd session.Command) error {
	body, err := json.Marshal(NewMessage(cmd))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	select {
	case <-p.done:
		return ErrClosed
	default:
	}

	select {
	case p.pending <- outgoing{id: cmd.ID.String(), kind: cmd.Kind, body: body}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("%w: %d events waiting", ErrBufferFull, p.buffer)
	}
}

// Pending is the number of events not yet handed to the broker.
func (p *Publisher) Pending() int {
	return len(p.pending)
}

func (p *Publisher) run() {
	defer p.wg.Done()
	defer p.reset()

	for {
		select {
		case <-p.done:
			if n := len(p.pending); n > 0 {
				log.Printf("rabbitmq_events_dropped queue=%s count=%d reason=closed", p.queue, n)
			}
			return
		case msg := <-p.pending:
			if !p.deliver(msg) {
				return
			}
		}
	}
}

// deliver retries msg until it is published or the publisher closes.
func (p *Publisher) deliver(msg outgoing) bool {
	backoff := p.minBackoff
	for {
		err := p.send(msg)
		if err == nil {
			return true
		}
		log.Printf("rabbitmq_publish_failed queue=%s kind=%s command_id=%s retry_in=%s err=%v",
			p.queue, msg.kind, msg.id, backoff, err)
		p.reset()

		timer := time.NewTimer(backoff)
		select {
		case <-p.done:
			timer.Stop()
			log.Printf("rabbitmq_events_dropped queue=%s count=%d reason=closed", p.queue, len(p.pending)+1)
			return false
		case <-timer.C:
		}

		backoff *= 2
		if backoff > p.maxBackoff {
			backoff = p.maxBackoff
		}
	}
}

func (p *Publisher) send(msg outgoing) error {
	if err := p.ensureChannel(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.id,
			Type:         string(msg.kind),
			Timestamp:    time.Now().UTC(),
			Body:         msg.body,
		},
	)
}

func (p *Publisher) ensureChannel() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	p.conn, p.ch = conn, ch
	return nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close stops the worker and releases the broker connection. Events still
// buffered are dropped and logged. It waits at most for an in-flight dial or publish.
func (p *Publisher) Close() error {
	p.once.Do(func() { close(p.done) })
	p.wg.Wait()
	return nil
}
