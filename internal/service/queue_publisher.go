// Package queue_publisher provides functions to publish domain events to RabbitMQ.
// Errors are logged and returned to allow callers to ignore failures without
// interrupting the main request flow.
package queue_publisher

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"

    q "github.com/iliyamo/ticket-booking/internal/queue"
)

// Publisher dials the broker for every message it sends.
type Publisher struct {
    URL string
    Log zerolog.Logger
}

// New returns a Publisher for the broker at url.
func New(url string, log zerolog.Logger) *Publisher {
    return &Publisher{URL: url, Log: log}
}

// PublishSeatsBooked publishes a SeatsBookedEvent to the "seats.booked" queue.
func (p *Publisher) PublishSeatsBooked(ctx context.Context, event q.SeatsBookedEvent) error {
    return p.publish(ctx, q.SeatsBookedQueue, event)
}

// PublishInventoryReset publishes an InventoryResetEvent to the "seats.reset" queue.
func (p *Publisher) PublishInventoryReset(ctx context.Context, event q.InventoryResetEvent) error {
    return p.publish(ctx, q.InventoryResetQueue, event)
}

// publish never panics; any error is logged and returned so the caller can
// choose to ignore it.  Messages are marked as persistent.
func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        p.Log.Warn().Err(err).Msg("rabbitmq: dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Log.Warn().Err(err).Msg("rabbitmq: channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        queue, // name
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,   // args
    ); err != nil {
        p.Log.Warn().Err(err).Str("queue", queue).Msg("rabbitmq: queue declare failed")
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        p.Log.Warn().Err(err).Msg("rabbitmq: marshal event failed")
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",    // default exchange
        queue, // routing key = queue name
        false, // mandatory
        false, // immediate
        pub,
    ); err != nil {
        p.Log.Warn().Err(err).Str("queue", queue).Msg("rabbitmq: publish failed")
        return err
    }

    return nil
}
