package attendance

import (
	"context"
	"errors"
	"time"

	"guestlist/internal/metrics"
	"guestlist/internal/reconcile"
)

// ErrEventIDRequired is returned when a caller omits the event id.
var ErrEventIDRequired = errors.New("event id required")

// Store is what the service needs from persistence. Implemented by the
// Postgres Repository and by MemoryRepository.
type Store interface {
	CreateEvent(ctx context.Context, name string) (Event, error)
	EventExists(ctx context.Context, eventID string) (bool, error)
	GetRoster(ctx context.Context, eventID string) ([]Guest, error)
	AddGuest(ctx context.Context, g Guest) error
	ListCheckins(ctx context.Context, eventID string) ([]Checkin, error)
	AppendCheckin(ctx context.Context, c Checkin) (Checkin, error)
	UpsertDevice(ctx context.Context, deviceID string) error
	SaveRefreshToken(ctx context.Context, deviceID, token string, expiresAt time.Time) error
}

// Query carries the parsed, already-defaulted report parameters.
type Query struct {
	EventID     string
	Status      reconcile.StatusFilter
	Source      reconcile.SourceFilter
	Search      string
	Sort        reconcile.SortOrder
	Page        int
	Limit       int
	SummaryOnly bool
}

func (q Query) view() reconcile.ViewOptions {
	return reconcile.ViewOptions{
		Status:      q.Status,
		Source:      q.Source,
		Search:      q.Search,
		Sort:        q.Sort,
		Page:        q.Page,
		Limit:       q.Limit,
		SummaryOnly: q.SummaryOnly,
	}
}

// Report is the reconciled attendance view for one event.
type Report struct {
	EventID string             `json:"eventId"`
	Summary reconcile.Summary  `json:"summary"`
	Items   []reconcile.Record `json:"items"`
	Page    reconcile.PageInfo `json:"page"`
}

// Service derives attendance reports from the roster and the check-in log.
// Every report is recomputed from a fresh snapshot of both collections; the
// optional summary cache only serves summaryOnly reads.
type Service struct {
	store   Store
	cache   *SummaryCache
	metrics *metrics.Metrics
}

// NewService creates a service. cache and m may be nil.
func NewService(store Store, cache *SummaryCache, m *metrics.Metrics) *Service {
	return &Service{store: store, cache: cache, metrics: m}
}

// Report fetches the roster and check-in log for one event and reconciles
// them into present/absent records plus roll-up counters.
func (s *Service) Report(ctx context.Context, q Query) (Report, error) {
	if q.EventID == "" {
		return Report{}, ErrEventIDRequired
	}
	ok, err := s.store.EventExists(ctx, q.EventID)
	if err != nil {
		return Report{}, err
	}
	if !ok {
		return Report{}, ErrEventNotFound
	}

	if q.SummaryOnly && s.cache != nil {
		if summary, err := s.cache.Get(ctx, q.EventID); err == nil && summary != nil {
			return Report{
				EventID: q.EventID,
				Summary: *summary,
				Items:   []reconcile.Record{},
			}, nil
		}
	}

	records, summary, err := s.reconcileEvent(ctx, q.EventID)
	if err != nil {
		return Report{}, err
	}
	items, page := reconcile.Compose(records, q.view())

	if q.SummaryOnly && s.cache != nil {
		_ = s.cache.Set(ctx, q.EventID, summary)
	}

	return Report{EventID: q.EventID, Summary: summary, Items: items, Page: page}, nil
}

// reconcileEvent runs the aggregate/reconcile/summarize pipeline over a
// fresh snapshot of the roster and check-in log.
func (s *Service) reconcileEvent(ctx context.Context, eventID string) ([]reconcile.Record, reconcile.Summary, error) {
	start := time.Now()
	roster, err := s.store.GetRoster(ctx, eventID)
	if err != nil {
		return nil, reconcile.Summary{}, err
	}
	log, err := s.store.ListCheckins(ctx, eventID)
	if err != nil {
		return nil, reconcile.Summary{}, err
	}
	records := reconcile.Reconcile(rosterEntries(roster), reconcile.Aggregate(checkinEvents(log)))
	summary := reconcile.Summarize(len(roster), records)
	if s.metrics != nil {
		s.metrics.ObserveReconcile(time.Since(start))
	}
	return records, summary, nil
}

// CheckIn appends one check-in to the event's log and drops the cached
// summary so the next summaryOnly read recomputes.
func (s *Service) CheckIn(ctx context.Context, c Checkin) (Checkin, error) {
	if c.EventID == "" {
		return Checkin{}, ErrEventIDRequired
	}
	ok, err := s.store.EventExists(ctx, c.EventID)
	if err != nil {
		return Checkin{}, err
	}
	if !ok {
		return Checkin{}, ErrEventNotFound
	}
	saved, err := s.store.AppendCheckin(ctx, c)
	if err != nil {
		return Checkin{}, err
	}
	if s.metrics != nil {
		s.metrics.IncrementCheckins()
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, c.EventID)
	}
	return saved, nil
}

// CreateEvent registers a new event.
func (s *Service) CreateEvent(ctx context.Context, name string) (Event, error) {
	return s.store.CreateEvent(ctx, name)
}

// AddGuests upserts roster entries for an event. Entries with blank names
// are rejected individually; the rest still land.
func (s *Service) AddGuests(ctx context.Context, eventID string, guests []Guest) (int, error) {
	if eventID == "" {
		return 0, ErrEventIDRequired
	}
	ok, err := s.store.EventExists(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrEventNotFound
	}
	added := 0
	for _, g := range guests {
		g.EventID = eventID
		if err := s.store.AddGuest(ctx, g); err != nil {
			continue
		}
		added++
	}
	return added, nil
}

// RegisterDevice validates and persists device metadata.
func (s *Service) RegisterDevice(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return errors.New("device id required")
	}
	return s.store.UpsertDevice(ctx, deviceID)
}

// SaveRefreshToken records an issued refresh token.
func (s *Service) SaveRefreshToken(ctx context.Context, deviceID, token string, expiresAt time.Time) error {
	return s.store.SaveRefreshToken(ctx, deviceID, token, expiresAt)
}

// RefreshSummary recomputes one event's summary from scratch, bypassing the
// cache read, and stores the result. The worker calls this on every check-in
// message so summaryOnly reads stay hot.
func (s *Service) RefreshSummary(ctx context.Context, eventID string) (reconcile.Summary, error) {
	if eventID == "" {
		return reconcile.Summary{}, ErrEventIDRequired
	}
	ok, err := s.store.EventExists(ctx, eventID)
	if err != nil {
		return reconcile.Summary{}, err
	}
	if !ok {
		return reconcile.Summary{}, ErrEventNotFound
	}
	_, summary, err := s.reconcileEvent(ctx, eventID)
	if err != nil {
		return reconcile.Summary{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, eventID, summary)
	}
	return summary, nil
}

func rosterEntries(roster []Guest) []reconcile.RosterEntry {
	entries := make([]reconcile.RosterEntry, len(roster))
	for i, g := range roster {
		entries[i] = reconcile.RosterEntry{Name: g.Name, Contact: g.Contact}
	}
	return entries
}

func checkinEvents(log []Checkin) []reconcile.CheckinEvent {
	events := make([]reconcile.CheckinEvent, len(log))
	for i, c := range log {
		events[i] = reconcile.CheckinEvent{
			Name:      c.Name,
			Contact:   c.Contact,
			PartySize: c.PartySize,
			Timestamp: c.OccurredAt,
			PhotoRef:  c.PhotoRef,
			Invited:   c.Invited,
			Note:      c.Note,
		}
	}
	return events
}
