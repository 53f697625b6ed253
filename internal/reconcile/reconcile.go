package reconcile

import (
	"strings"
	"time"
)

// DefaultInvited is how a check-in that never states an invited flag is
// classified when its guest is on the roster.
const DefaultInvited = true

// Status classifies a reconciled record.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Record is the unit the view and summary stages operate on. Absent rows
// always carry PartySize 0 and nil Timestamp/PhotoRef.
type Record struct {
	Name      string     `json:"name"`
	Contact   string     `json:"contact"`
	Invited   bool       `json:"invited"`
	Status    Status     `json:"status"`
	PartySize int        `json:"partySize"`
	Timestamp *time.Time `json:"timestamp"`
	PhotoRef  *string    `json:"photoRef"`
}

// Reconcile joins the aggregated present set against the roster. Every Merged
// entry yields a present record, pulling contact details from the matching
// roster entry when the log had none. Roster entries with no check-in yield
// absent records. A Merged entry missing from the roster is a walk-in: it is
// present only, never blocks or produces an absent row, and counts as manual
// (invited=false) unless a check-in explicitly said otherwise.
//
// Output order is unspecified; callers sort downstream.
func Reconcile(roster []RosterEntry, merged map[NormalizedName]*Merged) []Record {
	byKey := make(map[NormalizedName]RosterEntry, len(roster))
	for _, g := range roster {
		key := Normalize(g.Name)
		if key == "" {
			continue
		}
		if _, ok := byKey[key]; !ok {
			byKey[key] = g
		}
	}

	records := make([]Record, 0, len(merged)+len(byKey))
	for key, m := range merged {
		rec := Record{
			Status:    StatusPresent,
			PartySize: m.PartySize,
		}
		if !m.Timestamp.IsZero() {
			ts := m.Timestamp
			rec.Timestamp = &ts
		}
		if m.PhotoRef != "" {
			photo := m.PhotoRef
			rec.PhotoRef = &photo
		}
		if g, ok := byKey[key]; ok {
			rec.Name = g.Name
			rec.Contact = m.Contact
			if rec.Contact == "" {
				rec.Contact = g.Contact
			}
			rec.Invited = DefaultInvited
			if m.Invited != nil {
				rec.Invited = *m.Invited
			}
		} else {
			rec.Name = strings.TrimSpace(m.Name)
			rec.Contact = m.Contact
			rec.Invited = m.Invited != nil && *m.Invited
		}
		records = append(records, rec)
	}

	for key, g := range byKey {
		if _, ok := merged[key]; ok {
			continue
		}
		records = append(records, Record{
			Name:    g.Name,
			Contact: g.Contact,
			Invited: DefaultInvited,
			Status:  StatusAbsent,
		})
	}
	return records
}
