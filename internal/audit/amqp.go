package audit

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPPublisher emits audit events as persistent JSON messages on a
// topic exchange, routed by action name.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      *zap.Logger
}

// DialAMQP connects to the broker and declares the audit exchange
func DialAMQP(url, exchange string, log *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, log: log}, nil
}

// Record publishes the event. Publish failures are logged and
// swallowed; audit must never fail the triggering operation.
func (p *AMQPPublisher) Record(ctx context.Context, event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		p.log.Warn("audit event marshal failed", zap.Error(err))
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(
		pubCtx,
		p.exchange,
		"audit."+event.Action,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode:  amqp.Persistent,
			ContentType:   "application/json",
			Body:          body,
			MessageId:     event.ID,
			CorrelationId: event.Actor,
			Timestamp:     event.Timestamp,
		},
	)
	if err != nil {
		p.log.Warn("audit event publish failed",
			zap.String("action", event.Action), zap.Error(err))
	}
}

// Close releases the channel and connection
func (p *AMQPPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
