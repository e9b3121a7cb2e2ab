package events

import (
	"log/slog"
	"slices"
	"sync"
)

// InMemoryEventStore keeps one versioned stream per run. Subscribers are
// called synchronously on the appending goroutine, after the lock is
// released; handler failures are logged.
type InMemoryEventStore struct {
	mu          sync.RWMutex
	streams     map[string][]Event
	subscribers map[string][]EventHandler
	logger      *slog.Logger
}

var _ EventStore = (*InMemoryEventStore)(nil)

// NewInMemoryEventStore creates an empty store logging to slog.Default
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
		logger:      slog.Default(),
	}
}

// AppendEvent stamps event with the next version of streamID and delivers it
// to the subscribers of its type
func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mu.Lock()
	stored := BaseEvent{
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: len(s.streams[streamID]) + 1,
	}
	s.streams[streamID] = append(s.streams[streamID], stored)
	handlers := slices.Clone(s.subscribers[stored.EventType])
	s.mu.Unlock()

	for _, h := range handlers {
		if !h.CanHandle(stored.EventType) {
			continue
		}
		if err := h.Handle(stored); err != nil {
			s.logger.Warn("event handler failed", "type", stored.EventType, "stream", streamID, "error", err)
		}
	}
	return nil
}

// ReadEvents returns the events of streamID from fromVersion on
func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream := s.streams[streamID]
	from := max(fromVersion, 1)
	if from > len(stream) {
		return []Event{}, nil
	}
	return slices.Clone(stream[from-1:]), nil
}

// Subscribe registers handler for every type in eventTypes
func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range eventTypes {
		s.subscribers[t] = append(s.subscribers[t], handler)
	}
	return nil
}

// CountByType tallies the events of one stream by type
func (s *InMemoryEventStore) CountByType(streamID string) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range s.streams[streamID] {
		counts[e.Type()]++
	}
	return counts
}

// Streams returns the IDs of every stream in sorted order
func (s *InMemoryEventStore) Streams() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.streams))
	for id := range s.streams {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
