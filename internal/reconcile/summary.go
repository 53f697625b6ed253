package reconcile

// Summary holds the roll-up counters for one event.
type Summary struct {
	TotalInvited        int `json:"totalInvited"`
	UniquePresent       int `json:"uniquePresent"`
	TotalPresentPeople  int `json:"totalPresentPeople"`
	TotalAbsent         int `json:"totalAbsent"`
	ManualPresentCount  int `json:"manualPresentCount"`
	ManualPresentPeople int `json:"manualPresentPeople"`
}

// Summarize computes the counters from the reconciled set. TotalAbsent is
// TotalInvited minus all present records, walk-ins included, clamped to zero.
// That means a walk-in can offset a genuinely absent invitee in this counter;
// existing report consumers depend on the number being computed this way.
func Summarize(totalInvited int, records []Record) Summary {
	s := Summary{TotalInvited: totalInvited}
	for _, r := range records {
		if r.Status != StatusPresent {
			continue
		}
		s.UniquePresent++
		s.TotalPresentPeople += r.PartySize
		if !r.Invited {
			s.ManualPresentCount++
			s.ManualPresentPeople += r.PartySize
		}
	}
	s.TotalAbsent = totalInvited - s.UniquePresent
	if s.TotalAbsent < 0 {
		s.TotalAbsent = 0
	}
	return s
}
