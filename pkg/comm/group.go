package comm

import (
	"encoding/json"
	"sync"

	"github.com/NOAA-OWP/evalcore/pkg/log"
)

// Bridge forwards each Group.Write to an external transport (NATS, in
// this module's case) so out-of-process subscribers can observe
// structured writes alongside in-process handlers. Info, Error and
// "expire" events are not forwarded.
type Bridge interface {
	Publish(subject string, payload []byte) error
}

// Group composes any number of Communicators under a string id and fans
// writes out to all of them. An empty group logs to pkg/log instead of
// silently discarding messages.
type Group struct {
	mu            sync.RWMutex
	communicators map[string]*Communicator
	bridge        Bridge
}

func NewGroup(communicators ...*Communicator) *Group {
	g := &Group{communicators: map[string]*Communicator{}}
	for _, c := range communicators {
		g.communicators[c.ID()] = c
	}
	return g
}

// WithBridge attaches an external transport for out-of-process fan-out.
func (g *Group) WithBridge(bridge Bridge) *Group {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bridge = bridge
	return g
}

// Attach adds or replaces communicators in the group, returning the new
// total count.
func (g *Group) Attach(communicators ...*Communicator) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range communicators {
		g.communicators[c.ID()] = c
	}
	return len(g.communicators)
}

func (g *Group) Get(id string) (*Communicator, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.communicators[id]
	return c, ok
}

func (g *Group) Empty() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.communicators) == 0
}

func (g *Group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.communicators)
}

func (g *Group) snapshot() []*Communicator {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Communicator, 0, len(g.communicators))
	for _, c := range g.communicators {
		out = append(out, c)
	}
	return out
}

// Info sends a basic message to every communicator in the group, logging
// instead when the group is empty.
func (g *Group) Info(message string, verbosity Verbosity, publish bool) {
	communicators := g.snapshot()
	if len(communicators) == 0 {
		log.Debugf("%s", message)
		return
	}
	for _, c := range communicators {
		c.Info(message, verbosity, publish)
	}
}

// Error sends an error to every communicator in the group, logging
// instead when the group is empty.
func (g *Group) Error(message string, err error, verbosity Verbosity, publish bool) {
	communicators := g.snapshot()
	if len(communicators) == 0 {
		log.Errorf("%s: %v", message, err)
		return
	}
	for _, c := range communicators {
		c.Error(message, err, verbosity, publish)
	}
}

// Write fans a structured message out to every communicator whose own
// verbosity meets or exceeds minVerbosity (0 means "write to all"), and
// additionally onto the bridge transport, if attached.
func (g *Group) Write(reason string, data any, minVerbosity Verbosity) {
	for _, c := range g.snapshot() {
		if minVerbosity == 0 || c.Verbosity() >= minVerbosity {
			c.Write(reason, data)
		}
	}

	g.mu.RLock()
	bridge := g.bridge
	g.mu.RUnlock()
	if bridge != nil {
		payload, err := json.Marshal(map[string]any{"event": reason, "data": data})
		if err != nil {
			log.Warnf("comm: could not encode %q bridge payload: %v", reason, err)
			return
		}
		if err := bridge.Publish(reason, payload); err != nil {
			log.Warnf("comm: bridge publish for %q failed: %v", reason, err)
		}
	}
}

// ReadErrors drains every error from the named communicators, or from all
// of them if none are named.
func (g *Group) ReadErrors(communicatorIDs ...string) []any {
	var out []any
	for _, c := range g.selected(communicatorIDs) {
		out = append(out, c.ReadErrors()...)
	}
	return out
}

// ReadInfo drains every info entry from the named communicators, or from
// all of them if none are named.
func (g *Group) ReadInfo(communicatorIDs ...string) []any {
	var out []any
	for _, c := range g.selected(communicatorIDs) {
		out = append(out, c.ReadInfo()...)
	}
	return out
}

func (g *Group) selected(ids []string) []*Communicator {
	if len(ids) == 0 {
		return g.snapshot()
	}
	var out []*Communicator
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, id := range ids {
		if c, ok := g.communicators[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// SendAll reports whether any attached communicator wants every message
// (verbosity All).
func (g *Group) SendAll() bool {
	for _, c := range g.snapshot() {
		if c.Verbosity() == All {
			return true
		}
	}
	return false
}
