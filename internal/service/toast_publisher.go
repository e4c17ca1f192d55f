// Package service holds the outbound side of the notification pipeline:
// toasts raised by API handlers are published to RabbitMQ so every
// consumer (log file, live dashboards) sees them.
package service

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"

    "github.com/khIbrahim/popcornon/internal/notify"
    "github.com/khIbrahim/popcornon/internal/queue"
)

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
    QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
    PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
    Close() error
}

// ToastPublisher implements notify.Notifier on top of RabbitMQ.  Each
// toast is published as a persistent JSON message.  Failures are logged
// and never reach the caller.
type ToastPublisher struct {
    url     string
    origin  string
    timeout time.Duration
    logger  zerolog.Logger
    open    func(url string) (channel, func(), error)
}

// NewToastPublisher returns a publisher for the broker at url.
func NewToastPublisher(url string, logger zerolog.Logger) *ToastPublisher {
    return &ToastPublisher{
        url:     url,
        origin:  "api",
        timeout: 3 * time.Second,
        logger:  logger.With().Str("component", "toast-publisher").Logger(),
        open:    dialChannel,
    }
}

func dialChannel(url string) (channel, func(), error) {
    conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(2 * time.Second)})
    if err != nil {
        return nil, nil, err
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, nil, err
    }
    return ch, func() { _ = conn.Close() }, nil
}

// Notify publishes t.
func (p *ToastPublisher) Notify(t notify.Toast) {
    ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
    defer cancel()
    if err := p.Publish(ctx, t); err != nil {
        p.logger.Error().Err(err).Str("toast_id", t.ID).Msg("publish toast failed")
    }
}

// Publish sends t to the toast queue and reports failures.
func (p *ToastPublisher) Publish(ctx context.Context, t notify.Toast) error {
    ch, done, err := p.open(p.url)
    if err != nil {
        return err
    }
    defer done()
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(queue.ToastQueueName, true, false, false, false, nil); err != nil {
        return err
    }
    body, err := json.Marshal(queue.EventFromToast(t, p.origin))
    if err != nil {
        return err
    }
    return ch.PublishWithContext(ctx,
        "",                   // default exchange
        queue.ToastQueueName, // routing key = queue name
        false,                // mandatory
        false,                // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent, // store on disk
            Timestamp:    time.Now().UTC(),
            MessageId:    t.ID,
            Body:         body,
        })
}
