// Package status carries progress reports from pipeline steps to whatever
// front end drives them, without coupling the steps to a particular logger.
package status

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultChannelSize is the buffer size of the channel created by StartHandler
	DefaultChannelSize = 100

	// DefaultFlushTimeout bounds how long cleanup waits for queued updates
	DefaultFlushTimeout = 5 * time.Second
)

// Level is the severity of an update.
type Level string

const (
	LevelInfo     Level = "info"
	LevelProgress Level = "progress"
	LevelSuccess  Level = "success"
	LevelWarning  Level = "warning"
	LevelError    Level = "error"
)

// Stage names the pipeline step an update belongs to.
type Stage string

const (
	StageParse    Stage = "parse"
	StageGenerate Stage = "generate"
	StageRender   Stage = "render"
	StageWrite    Stage = "write"
	StageTofu     Stage = "tofu"
)

// Update is a single progress report.
type Update struct {
	Level   Level
	Message string

	// Deployment is the deployment the update refers to, if any. Several
	// deployment files may be processed at once, so handlers use it to tell
	// the streams apart.
	Deployment string

	Stage Stage

	// Fields holds extra structured data (file paths, resource counts).
	Fields map[string]any

	Timestamp time.Time
}

// NewUpdate creates an Update stamped with the current time.
func NewUpdate(level Level, message string) Update {
	return Update{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func (u Update) WithDeployment(deployment string) Update {
	u.Deployment = deployment
	return u
}

func (u Update) WithStage(stage Stage) Update {
	u.Stage = stage
	return u
}

// WithField adds a key/value pair. The map is copied so updates derived from
// a shared base do not alias each other.
func (u Update) WithField(key string, value any) Update {
	fields := make(map[string]any, len(u.Fields)+1)
	for k, v := range u.Fields {
		fields[k] = v
	}
	fields[key] = value
	u.Fields = fields
	return u
}

// Send delivers update to the channel stored in ctx. It never blocks: with no
// channel attached, or a full one, the update is dropped.
func Send(ctx context.Context, update Update) {
	ch := getChannel(ctx)
	if ch == nil {
		return
	}

	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now()
	}

	select {
	case ch <- update:
	default:
	}
}

// Sendf sends a formatted update at the given level.
func Sendf(ctx context.Context, level Level, format string, args ...any) {
	Send(ctx, NewUpdate(level, fmt.Sprintf(format, args...)))
}

func Infof(ctx context.Context, format string, args ...any) {
	Sendf(ctx, LevelInfo, format, args...)
}

func Progressf(ctx context.Context, format string, args ...any) {
	Sendf(ctx, LevelProgress, format, args...)
}

func Successf(ctx context.Context, format string, args ...any) {
	Sendf(ctx, LevelSuccess, format, args...)
}

func Warningf(ctx context.Context, format string, args ...any) {
	Sendf(ctx, LevelWarning, format, args...)
}

func Errorf(ctx context.Context, format string, args ...any) {
	Sendf(ctx, LevelError, format, args...)
}

// Handler processes updates received on the status channel.
type Handler func(Update)

// CleanupFunc closes the status channel and waits for the handler to drain it.
type CleanupFunc func()

// StartHandler attaches a buffered status channel to ctx and starts a goroutine
// feeding its updates to handler. The returned cleanup must be deferred; it
// closes the channel and waits up to DefaultFlushTimeout for queued updates.
//
//	ctx, cleanup := status.StartHandler(ctx, func(u status.Update) {
//	    slog.Info(u.Message, "stage", u.Stage)
//	})
//	defer cleanup()
func StartHandler(ctx context.Context, handler Handler) (context.Context, CleanupFunc) {
	return StartHandlerWithOptions(ctx, handler, DefaultChannelSize, DefaultFlushTimeout)
}

// StartHandlerWithOptions is StartHandler with a custom buffer size and flush timeout.
func StartHandlerWithOptions(ctx context.Context, handler Handler, channelSize int, flushTimeout time.Duration) (context.Context, CleanupFunc) {
	ch := make(chan Update, channelSize)
	ctx = WithChannel(ctx, ch)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range ch {
			handler(update)
		}
	}()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			close(ch)

			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(flushTimeout):
			}
		})
	}

	return ctx, cleanup
}
