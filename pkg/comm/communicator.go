package comm

import (
	"fmt"
	"sync"
	"time"
)

const defaultTimestampFormat = "2006-01-02 03:04:05 PM MST"

// Handler reacts to a message published under a named event ("info",
// "error", "expire", "read_error", or a user-defined name).
type Handler func(message any)

// Communicator is a named endpoint with bounded info/error queues, an
// optional message timestamp prefix, and a table of per-event handlers.
// Every exported method that mutates the communicator's state acquires
// mu; none of the unexported helpers they call acquire it again, since Go
// has no reentrant mutex.
type Communicator struct {
	id               string
	verbosity        Verbosity
	includeTimestamp bool
	timestampFormat  string

	mu       sync.Mutex
	handlers map[string][]Handler
	info     *ringQueue
	errors   *ringQueue
}

// Options configures a new Communicator.
type Options struct {
	Verbosity        Verbosity
	IncludeTimestamp bool
	TimestampFormat  string
	MaximumSize      int
	Handlers         map[string][]Handler
}

// New constructs a Communicator. A zero Options.MaximumSize means
// unbounded queues.
func New(id string, opts Options) (*Communicator, error) {
	if id == "" {
		return nil, newCommunicatorError("a communicator must have a non-empty id")
	}

	verbosity := opts.Verbosity
	if verbosity == 0 {
		verbosity = Quiet
	}
	format := opts.TimestampFormat
	if format == "" {
		format = defaultTimestampFormat
	}

	c := &Communicator{
		id:               id,
		verbosity:        verbosity,
		includeTimestamp: opts.IncludeTimestamp,
		timestampFormat:  format,
		handlers:         map[string][]Handler{},
		info:             newRingQueue(opts.MaximumSize),
		errors:           newRingQueue(opts.MaximumSize),
	}

	for event, handlers := range opts.Handlers {
		for _, h := range handlers {
			if h == nil {
				return nil, newCommunicatorError(fmt.Sprintf("a nil handler was registered for %q on communicator %q", event, id))
			}
			c.handlers[event] = append(c.handlers[event], h)
		}
	}

	return c, nil
}

func (c *Communicator) ID() string           { return c.id }
func (c *Communicator) Verbosity() Verbosity { return c.verbosity }

// RegisterHandler attaches handler to event. A nil handler is rejected outright.
func (c *Communicator) RegisterHandler(event string, handler Handler) error {
	if handler == nil {
		return newCommunicatorError(fmt.Sprintf("a handler for %q must not be nil", event))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], handler)
	return nil
}

func (c *Communicator) handleEventLocked(event string, message any) {
	for _, handler := range c.handlers[event] {
		handler(message)
	}
}

func (c *Communicator) stampLocked(message string) string {
	if !c.includeTimestamp {
		return message
	}
	return fmt.Sprintf("[%s] %s", time.Now().Format(c.timestampFormat), message)
}

// Info enqueues message onto the info queue, evicting the oldest entry
// (firing "expire") if the queue is full, and dropping the message
// entirely if its verbosity is above the communicator's own (a zero
// verbosity is always accepted). When publish is
// true, "info" handlers fire with the stamped message.
func (c *Communicator) Info(message string, verbosity Verbosity, publish bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if verbosity != 0 && c.verbosity < verbosity {
		return
	}

	stamped := c.stampLocked(message)
	if evicted, didEvict := c.info.push(stamped); didEvict {
		c.handleEventLocked("expire", evicted)
	}

	if publish {
		c.handleEventLocked("info", stamped)
	}
}

// Error enqueues message (with err's text appended, if given) onto the
// error queue, following the same verbosity-gate and eviction rules as
// Info.
func (c *Communicator) Error(message string, err error, verbosity Verbosity, publish bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if verbosity != 0 && c.verbosity < verbosity {
		return
	}

	stamped := c.stampLocked(message)
	if err != nil {
		stamped = fmt.Sprintf("%s\n%s", stamped, err.Error())
	}

	if evicted, didEvict := c.errors.push(stamped); didEvict {
		c.handleEventLocked("expire", evicted)
	}

	if publish {
		c.handleEventLocked("error", stamped)
	}
}

// Write enqueues a structured {event, time, data} message as info.
func (c *Communicator) Write(reason string, data any) {
	envelope := map[string]any{
		"event": reason,
		"time":  time.Now().Format(defaultTimestampFormat),
		"data":  data,
	}
	c.Info(fmt.Sprintf("%v", envelope), 0, false)
}

// GetInfo returns a copy of every queued info entry without consuming it,
// preserving order and count.
func (c *Communicator) GetInfo() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.snapshot()
}

// GetErrors returns a copy of every queued error entry without consuming
// it, preserving order and count.
func (c *Communicator) GetErrors() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors.snapshot()
}

// ReadInfo drains and returns every queued info entry.
func (c *Communicator) ReadInfo() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.drainAll()
}

// ReadErrors drains every queued error entry, firing "read_error" for
// each one as it is removed.
func (c *Communicator) ReadErrors() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	drained := c.errors.drainAll()
	for _, e := range drained {
		c.handleEventLocked("read_error", e)
	}
	return drained
}

// Read blocks until the next info entry is available, which it removes
// and returns, or until done is closed.
func (c *Communicator) Read(done <-chan struct{}) (any, bool) {
	for {
		c.mu.Lock()
		if msg, ok := c.info.pop(); ok {
			c.mu.Unlock()
			return msg, true
		}
		c.mu.Unlock()

		select {
		case <-done:
			return nil, false
		case <-time.After(10 * time.Millisecond):
		}
	}
}
