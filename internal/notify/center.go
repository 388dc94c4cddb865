// Package notify fans user-facing notices out to whoever renders them (the
// UI shell, or the log drain when nothing is attached). Publishing never
// blocks the session flow: when the buffer is full the notice is dropped
// and logged.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

const defaultBuffer = 64

const (
	LevelInfo  = "info"
	LevelError = "error"
)

// Notice is one user-facing message.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Center is a single-consumer notification queue backed by a buffered
// channel.
type Center struct {
	ch  chan Notice
	log zerolog.Logger
}

// NewCenter creates a Center with the given buffer size.
// If buffer <= 0, defaultBuffer is used.
func NewCenter(buffer int, log zerolog.Logger) *Center {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Center{ch: make(chan Notice, buffer), log: log}
}

// Publish enqueues a notice without blocking. A full buffer drops the notice.
func (c *Center) Publish(level, message string) {
	select {
	case c.ch <- Notice{Level: level, Message: message}:
	default:
		c.log.Warn().Str("level", level).Str("message", message).Msg("notice dropped, buffer full")
	}
}

// Notices exposes the queue to the consumer.
func (c *Center) Notices() <-chan Notice {
	return c.ch
}

// DrainToLog consumes notices into the log until ctx is cancelled. Used when
// no interactive consumer is attached.
func (c *Center) DrainToLog(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-c.ch:
			c.log.Info().Str("level", n.Level).Msg(n.Message)
		}
	}
}
