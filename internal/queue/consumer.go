package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"

    "github.com/khIbrahim/popcornon/internal/backoff"
    "github.com/khIbrahim/popcornon/internal/notify"
)

// ToastLogName is the file, under the log directory, every consumed toast
// is appended to.
const ToastLogName = "notifications.log"

// StartToastConsumer connects to RabbitMQ, declares the toast queue
// (durable) and forwards every message to sink after appending it to
// <logDir>/notifications.log.  Broker failures are retried with
// exponential backoff; the function only returns once ctx is done.
// Malformed messages are rejected without requeue.
func StartToastConsumer(ctx context.Context, url string, sink notify.Notifier, logDir string, logger zerolog.Logger) error {
    logger = logger.With().Str("component", "toast-consumer").Logger()
    attempt := 0
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            wait := backoff.Exponential(attempt)
            attempt++
            logger.Warn().Err(err).Dur("retry_in", wait).Msg("failed to dial broker")
            if !sleep(ctx, wait) {
                return ctx.Err()
            }
            continue
        }
        attempt = 0 // reset after successful connect
        logger.Info().Msg("connected to broker")

        err = consumeLoop(ctx, conn, sink, logDir, logger)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        logger.Warn().Err(err).Msg("consume loop ended; reconnecting")
        if !sleep(ctx, backoff.Base) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, sink notify.Notifier, logDir string, logger zerolog.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logger.Warn().Err(err).Msg("set QoS failed")
    }
    if _, err := ch.QueueDeclare(ToastQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(ToastQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(d.Body, sink, logDir); err != nil {
                logger.Error().Err(err).Msg("handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func handleMessage(body []byte, sink notify.Notifier, logDir string) error {
    var ev ToastEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Message == "" {
        return errors.New("toast without message")
    }
    if ev.Level == "" {
        ev.Level = notify.LevelInfo
    }
    if err := appendLog(logDir, ev); err != nil {
        return err
    }
    sink.Notify(ev.Toast())
    return nil
}

func appendLog(dir string, ev ToastEvent) error {
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(dir, ToastLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    origin := ev.Origin
    if origin == "" {
        origin = "unknown"
    }
    line := fmt.Sprintf("[%s] %s | id=%s | origin=%s | %q\n",
        ev.CreatedAt.UTC().Format(time.RFC3339), ev.Level, ev.ID, origin, ev.Message)
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
