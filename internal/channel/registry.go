package channel

import (
	"fmt"

	"github.com/thesoulpath/soulpath/pkg/event"
)

// Registry holds the active channels for the process. It is built once at
// startup from configuration and passed by reference into the gateway and
// dispatcher. There is no ambient global registration. The map is never
// mutated after construction, so reads need no locking.
type Registry struct {
	entries map[event.ChannelID]Entry
}

// NewRegistry builds a registry from the given entries. It fails when two
// adapters claim the same channel id or an adapter reports an unknown id.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[event.ChannelID]Entry, len(entries))}
	for _, e := range entries {
		id := e.Adapter.ID()
		if !id.Valid() {
			return nil, fmt.Errorf("channel: adapter reports unknown channel %q", id)
		}
		if _, exists := r.entries[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateChannel, id)
		}
		r.entries[id] = e
	}
	return r, nil
}

// Entry returns the full entry for the given channel, or ErrNoChannel.
func (r *Registry) Entry(id event.ChannelID) (Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNoChannel, id)
	}
	return e, nil
}

// Adapter returns the adapter for the given channel, or ErrNoChannel.
func (r *Registry) Adapter(id event.ChannelID) (Adapter, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoChannel, id)
	}
	return e.Adapter, nil
}

// Verifier returns the verifier for the given channel, or ErrNoChannel.
func (r *Registry) Verifier(id event.ChannelID) (Verifier, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoChannel, id)
	}
	return e.Verifier, nil
}

// Channels returns the ids of all registered channels.
func (r *Registry) Channels() []event.ChannelID {
	ids := make([]event.ChannelID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}
