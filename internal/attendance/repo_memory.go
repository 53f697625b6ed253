package attendance

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"guestlist/internal/reconcile"
)

// MemoryRepository is an in-memory Store for dev mode and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	events  map[string]Event
	guests  map[string][]Guest   // by event id, deduplicated by normalized name
	log     map[string][]Checkin // by event id, append order
	devices map[string]struct{}
	tokens  map[string]time.Time // refresh token -> expiry
}

// NewMemoryRepository creates an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		events:  make(map[string]Event),
		guests:  make(map[string][]Guest),
		log:     make(map[string][]Checkin),
		devices: make(map[string]struct{}),
		tokens:  make(map[string]time.Time),
	}
}

// CreateEvent registers a new event.
func (m *MemoryRepository) CreateEvent(_ context.Context, name string) (Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Event{}, errors.New("event name required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	evt := Event{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	m.events[evt.ID] = evt
	return evt, nil
}

// EventExists reports whether an event id resolves.
func (m *MemoryRepository) EventExists(_ context.Context, eventID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.events[eventID]
	return ok, nil
}

// GetRoster returns the invited-guest roster for an event.
func (m *MemoryRepository) GetRoster(_ context.Context, eventID string) ([]Guest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	roster := make([]Guest, len(m.guests[eventID]))
	copy(roster, m.guests[eventID])
	return roster, nil
}

// AddGuest upserts one roster entry, keyed by the normalized name.
func (m *MemoryRepository) AddGuest(_ context.Context, g Guest) error {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return errors.New("guest name required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := reconcile.Normalize(g.Name)
	roster := m.guests[g.EventID]
	for i, existing := range roster {
		if reconcile.Normalize(existing.Name) == key {
			roster[i].Name = g.Name
			if g.Contact != "" {
				roster[i].Contact = g.Contact
			}
			return nil
		}
	}
	g.CreatedAt = time.Now().UTC()
	m.guests[g.EventID] = append(roster, g)
	return nil
}

// ListCheckins returns the check-in log for an event in append order.
func (m *MemoryRepository) ListCheckins(_ context.Context, eventID string) ([]Checkin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log := make([]Checkin, len(m.log[eventID]))
	copy(log, m.log[eventID])
	return log, nil
}

// AppendCheckin writes a new check-in log row.
func (m *MemoryRepository) AppendCheckin(_ context.Context, c Checkin) (Checkin, error) {
	if strings.TrimSpace(c.Name) == "" {
		return Checkin{}, errors.New("guest name required")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.PartySize <= 0 {
		c.PartySize = 1
	}
	if c.OccurredAt.IsZero() {
		c.OccurredAt = time.Now().UTC()
	}
	c.CreatedAt = time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log[c.EventID] = append(m.log[c.EventID], c)
	return c, nil
}

// UpsertDevice ensures a device record exists.
func (m *MemoryRepository) UpsertDevice(_ context.Context, deviceID string) error {
	if deviceID == "" {
		return errors.New("device id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[deviceID] = struct{}{}
	return nil
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (m *MemoryRepository) SaveRefreshToken(_ context.Context, _, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = expiresAt
	return nil
}
