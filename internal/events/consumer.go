package events

import (
	"context"
	"encoding/json"
	"fmt"

	"rescue-coordination/internal/model"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Subscriber reads audit events from a queue bound to the audit exchange.
type Subscriber struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// Subscribe declares queue (durable when named, exclusive when empty) and
// binds it to exchange with pattern, e.g. "report.#" or "report.refused.*".
func Subscribe(uri, exchange, queue, pattern string) (*Subscriber, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	fail := func(err error) (*Subscriber, error) {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	if err := DeclareExchange(ch, exchange); err != nil {
		return fail(err)
	}
	durable := queue != ""
	q, err := ch.QueueDeclare(queue, durable, false, !durable, false, nil)
	if err != nil {
		return fail(fmt.Errorf("failed to declare queue: %w", err))
	}
	if err := ch.QueueBind(q.Name, pattern, exchange, false, nil); err != nil {
		return fail(fmt.Errorf("failed to bind queue: %w", err))
	}

	return &Subscriber{conn: conn, ch: ch, queue: q.Name}, nil
}

// Queue returns the broker-assigned queue name.
func (s *Subscriber) Queue() string {
	return s.queue
}

// Run delivers decoded events to handle until ctx is done or the channel
// closes. Messages that fail to decode are rejected without requeue; a
// handler error requeues the message.
func (s *Subscriber) Run(ctx context.Context, handle func(context.Context, model.AuditEvent) error) error {
	msgs, err := s.ch.Consume(s.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume queue: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			event, err := Decode(d.Body)
			if err != nil {
				_ = d.Nack(false, false)
				continue
			}
			if err := handle(ctx, event); err != nil {
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (s *Subscriber) Close() error {
	var errCh, errConn error
	if s.ch != nil {
		errCh = s.ch.Close()
	}
	if s.conn != nil {
		errConn = s.conn.Close()
	}
	if errCh != nil || errConn != nil {
		return fmt.Errorf("close errors: channel=%v, connection=%v", errCh, errConn)
	}
	return nil
}

// Decode parses a published audit event body.
func Decode(body []byte) (model.AuditEvent, error) {
	var event model.AuditEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return model.AuditEvent{}, fmt.Errorf("decode audit event: %w", err)
	}
	if event.ReportID == 0 || event.Outcome == "" {
		return model.AuditEvent{}, fmt.Errorf("decode audit event: missing report_id or outcome")
	}
	return event, nil
}
