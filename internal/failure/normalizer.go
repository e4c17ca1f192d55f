package failure

import (
	"github.com/rs/zerolog"

	"github.com/khIbrahim/popcornon/internal/notify"
)

// Normalizer turns caught values into error toasts.
type Normalizer struct {
	notifier notify.Notifier
	logger   zerolog.Logger
}

func New(n notify.Notifier, logger zerolog.Logger) *Normalizer {
	return &Normalizer{notifier: n, logger: logger}
}

// Handle emits exactly one error toast for v.
func (n *Normalizer) Handle(v any) {
	f := Classify(v)
	msg := f.Message()
	ev := n.logger.Warn().Str("kind", f.Kind().String())
	if tf, ok := f.(TransportFailure); ok {
		ev = ev.Int("status", tf.Status)
	}
	if err, ok := v.(error); ok {
		ev = ev.Err(err)
	}
	ev.Msg(msg)
	n.notifier.Notify(notify.New(notify.LevelError, msg))
}

// Recover handles a panic value.  Use it as `defer n.Recover()`.
func (n *Normalizer) Recover() {
	if r := recover(); r != nil {
		n.Handle(r)
	}
}
