package attendance

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEventNotFound is returned when an event id does not resolve.
var ErrEventNotFound = errors.New("event not found")

// Repository persists events, rosters, and the check-in log in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateEvent registers a new event.
func (r *Repository) CreateEvent(ctx context.Context, name string) (Event, error) {
	evt := Event{ID: uuid.NewString(), Name: strings.TrimSpace(name)}
	if evt.Name == "" {
		return Event{}, errors.New("event name required")
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO events (id, name)
		VALUES ($1, $2)
		RETURNING created_at
	`, evt.ID, evt.Name)
	if err := row.Scan(&evt.CreatedAt); err != nil {
		return Event{}, err
	}
	return evt, nil
}

// EventExists reports whether an event id resolves.
func (r *Repository) EventExists(ctx context.Context, eventID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = $1`, eventID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetRoster returns the invited-guest roster for an event.
func (r *Repository) GetRoster(ctx context.Context, eventID string) ([]Guest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_id, name, contact, created_at
		FROM guests
		WHERE event_id = $1
		ORDER BY name
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []Guest
	for rows.Next() {
		var g Guest
		if err := rows.Scan(&g.EventID, &g.Name, &g.Contact, &g.CreatedAt); err != nil {
			return nil, err
		}
		roster = append(roster, g)
	}
	return roster, rows.Err()
}

// AddGuest upserts one roster entry, keyed by the normalized name.
func (r *Repository) AddGuest(ctx context.Context, g Guest) error {
	name := strings.TrimSpace(g.Name)
	if name == "" {
		return errors.New("guest name required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO guests (event_id, normalized_name, name, contact)
		VALUES ($1, LOWER($2), $2, $3)
		ON CONFLICT (event_id, normalized_name) DO UPDATE SET
			name = EXCLUDED.name,
			contact = CASE WHEN EXCLUDED.contact <> '' THEN EXCLUDED.contact ELSE guests.contact END
	`, g.EventID, name, g.Contact)
	return err
}

// ListCheckins returns the check-in log for an event in append order.
func (r *Repository) ListCheckins(ctx context.Context, eventID string) ([]Checkin, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, name, contact, party_size, occurred_at, photo_ref, invited, note, created_at
		FROM checkins
		WHERE event_id = $1
		ORDER BY seq
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var log []Checkin
	for rows.Next() {
		var c Checkin
		var occurredAt sql.NullTime
		var invited sql.NullBool
		if err := rows.Scan(&c.ID, &c.EventID, &c.Name, &c.Contact, &c.PartySize,
			&occurredAt, &c.PhotoRef, &invited, &c.Note, &c.CreatedAt); err != nil {
			return nil, err
		}
		if occurredAt.Valid {
			c.OccurredAt = occurredAt.Time
		}
		if invited.Valid {
			c.Invited = &invited.Bool
		}
		log = append(log, c)
	}
	return log, rows.Err()
}

// AppendCheckin writes a new check-in log row. The log is append-only;
// collapsing duplicate names is the reconciler's job, not the writer's.
func (r *Repository) AppendCheckin(ctx context.Context, c Checkin) (Checkin, error) {
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
	var invited sql.NullBool
	if c.Invited != nil {
		invited = sql.NullBool{Bool: *c.Invited, Valid: true}
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO checkins (id, event_id, name, contact, party_size, occurred_at, photo_ref, invited, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at
	`, c.ID, c.EventID, c.Name, c.Contact, c.PartySize, c.OccurredAt, c.PhotoRef, invited, c.Note)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return Checkin{}, err
	}
	return c, nil
}

// UpsertDevice ensures a device record exists.
func (r *Repository) UpsertDevice(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return errors.New("device id required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (device_id)
		VALUES ($1)
		ON CONFLICT (device_id) DO NOTHING
	`, deviceID)
	return err
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, deviceID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (device_id, token, expires_at)
		VALUES ($1, $2, $3)
	`, deviceID, token, expiresAt)
	return err
}
