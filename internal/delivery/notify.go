package delivery

import "time"

// NotifyingStore wraps a Store and invokes a callback after every successful
// create or update. The gateway uses it to stream record changes to connected
// operators. The callback must not block; slow consumers buffer or drop.
type NotifyingStore struct {
	Store
	notify func(Record)
}

// NewNotifyingStore wraps inner so that fn observes every record write.
func NewNotifyingStore(inner Store, fn func(Record)) *NotifyingStore {
	return &NotifyingStore{Store: inner, notify: fn}
}

// Create implements Store.
func (s *NotifyingStore) Create(rec Record) error {
	if err := s.Store.Create(rec); err != nil {
		return err
	}
	s.notify(rec)
	return nil
}

// Update implements Store.
func (s *NotifyingStore) Update(rec Record) error {
	if err := s.Store.Update(rec); err != nil {
		return err
	}
	s.notify(rec)
	return nil
}

// Prune implements Store. Pruning is housekeeping; it does not notify.
func (s *NotifyingStore) Prune(cutoff time.Time) (int, error) {
	return s.Store.Prune(cutoff)
}
