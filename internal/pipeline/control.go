package pipeline

import (
	"sync/atomic"

	"github.com/veriperu/dniverify/internal/queue"
)

// controlState holds the worker's pause/stop flags. The flags are mutated
// only by the signal handler and read only by the worker loop, so atomics
// are the whole synchronization story.
type controlState struct {
	paused  atomic.Bool
	stopped atomic.Bool
}

func (c *controlState) apply(message string) {
	switch message {
	case queue.SignalPause:
		c.paused.Store(true)
	case queue.SignalResume:
		c.paused.Store(false)
	case queue.SignalStop:
		c.stopped.Store(true)
	}
}
