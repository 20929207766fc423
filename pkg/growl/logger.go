package growl

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// Level is a Logger severity. Levels are ordered; Debug is lowest.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// Levels lists every level in severity order.
var Levels = []Level{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal}

var levelNames = []string{"debug", "info", "warn", "error", "fatal"}

// ErrInvalidLevel is returned for level values that are neither a name nor
// an index into Levels.
var ErrInvalidLevel = errors.New("invalid log level: use a level name (debug, info, warn, error, fatal) or an index 0-4")

func (l Level) valid() bool { return l >= LevelDebug && l <= LevelFatal }

// String returns the lower-case level name.
func (l Level) String() string {
	if !l.valid() {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// Title returns the capitalized level name, which is also the notification
// name the Logger registers for that level.
func (l Level) Title() string {
	s := l.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// Priority maps the level onto the notification priority range.
func (l Level) Priority() Priority {
	return Priority(int(l) - 2)
}

// ParseLevel accepts a Level, a level name or an index 0-4 of any integer
// type. Integral floats count as indexes, as JSON numbers decode to float64.
// Unknown names resolve to LevelInfo; any other value is ErrInvalidLevel.
func ParseLevel(v any) (Level, error) {
	switch val := v.(type) {
	case Level:
		if val.valid() {
			return val, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalidLevel, v)
	case string:
		for i, name := range levelNames {
			if name == val {
				return Level(i), nil
			}
		}
		return LevelInfo, nil
	}

	if idx, ok := levelIndex(v); ok && idx >= int64(LevelDebug) && idx <= int64(LevelFatal) {
		return Level(idx), nil
	}
	return 0, fmt.Errorf("%w: %v", ErrInvalidLevel, v)
}

// levelIndex converts any integer kind, or an integral float, to an int64
// suitable for range checking.
func levelIndex(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return rv.Int(), true
	case rv.CanUint():
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true //nolint:gosec // bounded above
	case rv.CanFloat():
		f := rv.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}

// Logger sends log lines as notifications, one registered notification per
// level.
type Logger struct {
	n       *Notifier
	limiter *rate.Limiter

	mu    sync.Mutex
	level Level
}

// LoggerOption configures a Logger.
type LoggerOption func(*Logger)

// WithRateLimit drops notifications sent faster than limit, allowing bursts
// of burst.
func WithRateLimit(limit rate.Limit, burst int) LoggerOption {
	return func(l *Logger) { l.limiter = rate.NewLimiter(limit, burst) }
}

// NewLogger registers appName with one notification per level and returns a
// Logger at LevelInfo. An empty appName is derived from the executable name.
func NewLogger(n *Notifier, appName string, defaults []string, iconPath string, opts ...LoggerOption) (*Logger, error) {
	if appName == "" {
		appName = filepath.Base(os.Args[0]) + " logger"
	}

	names := make([]string, len(Levels))
	for i, lvl := range Levels {
		names[i] = lvl.Title()
	}
	if err := n.Register(appName, names, defaults, iconPath); err != nil {
		return nil, err
	}

	l := &Logger{n: n, level: LevelInfo}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Level returns the current threshold.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetLevel sets the threshold; see ParseLevel for accepted values.
func (l *Logger) SetLevel(v any) error {
	lvl, err := ParseLevel(v)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.level = lvl
	l.mu.Unlock()
	return nil
}

// Log sends message when level is at or above the threshold. An empty title
// becomes the level's capitalized name.
func (l *Logger) Log(level Level, message, title string) {
	if !level.valid() || level < l.Level() {
		return
	}
	if l.limiter != nil && !l.limiter.Allow() {
		l.n.log.Debug().Stringer("level", level).Msg("rate limited log notification")
		return
	}
	if title == "" {
		title = level.Title()
	}
	l.n.Notify(level.Title(), title, message, WithPriority(level.Priority()))
}

func firstTitle(title []string) string {
	if len(title) == 0 {
		return ""
	}
	return title[0]
}

func (l *Logger) Debug(message string, title ...string) { l.Log(LevelDebug, message, firstTitle(title)) }
func (l *Logger) Info(message string, title ...string)  { l.Log(LevelInfo, message, firstTitle(title)) }
func (l *Logger) Warn(message string, title ...string)  { l.Log(LevelWarn, message, firstTitle(title)) }
func (l *Logger) Error(message string, title ...string) { l.Log(LevelError, message, firstTitle(title)) }
func (l *Logger) Fatal(message string, title ...string) { l.Log(LevelFatal, message, firstTitle(title)) }
