package reconcile

import "time"

// RosterEntry is one invited guest, read-only input from the roster store.
type RosterEntry struct {
	Name    string
	Contact string
}

// CheckinEvent is one row of the append-only check-in log. A zero Timestamp
// means the log carried none; a nil Invited means the log did not say.
type CheckinEvent struct {
	Name      string
	Contact   string
	PartySize int
	Timestamp time.Time
	PhotoRef  string
	Invited   *bool
	Note      string
}

// Merged is the collapsed view of every check-in sharing one normalized name.
// Invited stays a pointer so the Reconciler can tell "explicitly set" apart
// from "never mentioned" when classifying walk-ins.
type Merged struct {
	Name      string
	Contact   string
	PartySize int
	Timestamp time.Time
	PhotoRef  string
	Invited   *bool
	Note      string
}

// Aggregate collapses the raw check-in log into one Merged record per
// normalized name. Events are applied in log order: party sizes sum (a
// missing or non-positive size counts as 1), the latest timestamp wins, the
// last non-empty photo/note/contact wins, and the last explicit invited flag
// wins. Events with a blank name are skipped.
func Aggregate(events []CheckinEvent) map[NormalizedName]*Merged {
	merged := make(map[NormalizedName]*Merged, len(events))
	for _, e := range events {
		key := Normalize(e.Name)
		if key == "" {
			continue
		}
		size := e.PartySize
		if size <= 0 {
			size = 1
		}
		m, ok := merged[key]
		if !ok {
			merged[key] = &Merged{
				Name:      e.Name,
				Contact:   e.Contact,
				PartySize: size,
				Timestamp: e.Timestamp,
				PhotoRef:  e.PhotoRef,
				Invited:   e.Invited,
				Note:      e.Note,
			}
			continue
		}
		m.PartySize += size
		if e.Timestamp.After(m.Timestamp) {
			m.Timestamp = e.Timestamp
		}
		if e.PhotoRef != "" {
			m.PhotoRef = e.PhotoRef
		}
		if e.Invited != nil {
			m.Invited = e.Invited
		}
		if e.Note != "" {
			m.Note = e.Note
		}
		if e.Contact != "" {
			m.Contact = e.Contact
		}
	}
	return merged
}
