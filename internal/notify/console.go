package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorBlue   = "\x1b[34m"
)

var symbols = map[Level]string{
	LevelInfo:    "i",
	LevelSuccess: "✔",
	LevelWarning: "!",
	LevelError:   "✖",
}

var colors = map[Level]string{
	LevelInfo:    colorBlue,
	LevelSuccess: colorGreen,
	LevelWarning: colorYellow,
	LevelError:   colorRed,
}

// Console prints one line per toast.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewConsole writes to w.  Colours are enabled when w is a terminal.
func NewConsole(w io.Writer) *Console {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Console{w: w, color: color}
}

func (c *Console) Notify(t Toast) {
	sym, ok := symbols[t.Level]
	if !ok {
		sym = "-"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.color {
		fmt.Fprintf(c.w, "%s%s %s%s\n", colors[t.Level], sym, t.Message, colorReset)
		return
	}
	fmt.Fprintf(c.w, "%s %s\n", sym, t.Message)
}

// Log writes toasts to a zerolog logger.
type Log struct {
	logger zerolog.Logger
}

func NewLog(logger zerolog.Logger) *Log { return &Log{logger: logger} }

func (l *Log) Notify(t Toast) {
	ev := l.logger.Info()
	switch t.Level {
	case LevelError:
		ev = l.logger.Error()
	case LevelWarning:
		ev = l.logger.Warn()
	}
	ev.Str("toast_id", t.ID).Str("level", string(t.Level)).Msg(t.Message)
}

// Recorder keeps every toast it receives.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Notify(t Toast) {
	r.mu.Lock()
	r.toasts = append(r.toasts, t)
	r.mu.Unlock()
}

// Toasts returns a copy of the recorded toasts.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Toast, len(r.toasts))
	copy(out, r.toasts)
	return out
}

// Messages returns the recorded messages in order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.toasts))
	for _, t := range r.toasts {
		out = append(out, t.Message)
	}
	return out
}
