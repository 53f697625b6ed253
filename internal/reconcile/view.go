package reconcile

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// StatusFilter selects records by present/absent status.
type StatusFilter string

// SourceFilter selects records by invited vs. manual (walk-in) source.
type SourceFilter string

// SortOrder selects the output ordering.
type SortOrder string

const (
	StatusAll     StatusFilter = "all"
	StatusOnlyIn  StatusFilter = "present"
	StatusOnlyOut StatusFilter = "absent"

	SourceAll     SourceFilter = "all"
	SourceInvited SourceFilter = "invited"
	SourceManual  SourceFilter = "manual"

	SortTimeDesc SortOrder = "time_desc"
	SortNameAsc  SortOrder = "name_asc"
)

// Pagination bounds. A limit outside [1, MaxLimit] is clamped; a missing
// (zero) limit falls back to DefaultLimit.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ParseStatusFilter maps a raw query value to a filter, defaulting to all.
func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(s) {
	case StatusOnlyIn, StatusOnlyOut:
		return StatusFilter(s)
	default:
		return StatusAll
	}
}

// ParseSourceFilter maps a raw query value to a filter, defaulting to all.
func ParseSourceFilter(s string) SourceFilter {
	switch SourceFilter(s) {
	case SourceInvited, SourceManual:
		return SourceFilter(s)
	default:
		return SourceAll
	}
}

// ParseSortOrder maps a raw query value to an order, defaulting to time_desc.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == SortNameAsc {
		return SortNameAsc
	}
	return SortTimeDesc
}

// ViewOptions drive the Compose pipeline. Zero values mean defaults.
type ViewOptions struct {
	Status      StatusFilter
	Source      SourceFilter
	Search      string
	Sort        SortOrder
	Page        int
	Limit       int
	SummaryOnly bool
}

// PageInfo describes the slice of the filtered set that was returned.
type PageInfo struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// Compose applies, in order: status filter, source filter, free-text search,
// sort, and pagination. Search matches case-insensitively against the
// normalized name or contact. Out-of-range pages return an empty slice, not
// an error. SummaryOnly short-circuits the whole pipeline.
func Compose(records []Record, opts ViewOptions) ([]Record, PageInfo) {
	if opts.SummaryOnly {
		return []Record{}, PageInfo{}
	}

	search := string(Normalize(opts.Search))
	filtered := make([]Record, 0, len(records))
	for _, r := range records {
		switch opts.Status {
		case StatusOnlyIn:
			if r.Status != StatusPresent {
				continue
			}
		case StatusOnlyOut:
			if r.Status != StatusAbsent {
				continue
			}
		}
		switch opts.Source {
		case SourceInvited:
			if !r.Invited {
				continue
			}
		case SourceManual:
			if r.Invited {
				continue
			}
		}
		if search != "" {
			name := string(Normalize(r.Name))
			contact := string(Normalize(r.Contact))
			if !strings.Contains(name, search) && !strings.Contains(contact, search) {
				continue
			}
		}
		filtered = append(filtered, r)
	}

	sortRecords(filtered, opts.Sort)

	limit := opts.Limit
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}

	total := len(filtered)
	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	info := PageInfo{Page: page, Limit: limit, TotalItems: total, TotalPages: totalPages}

	start := (page - 1) * limit
	if start >= total {
		return []Record{}, info
	}
	end := start + limit
	if end > total {
		end = total
	}
	return filtered[start:end], info
}

// sortRecords orders in place. name_asc uses a locale-aware collator.
// time_desc puts timestamped records first, newest first, then the
// no-timestamp group (absent rows) in name_asc order.
func sortRecords(records []Record, order SortOrder) {
	coll := collate.New(language.Und, collate.IgnoreCase)
	byName := func(a, b Record) bool {
		return coll.CompareString(a.Name, b.Name) < 0
	}
	if order == SortNameAsc {
		sort.SliceStable(records, func(i, j int) bool {
			return byName(records[i], records[j])
		})
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch {
		case a.Timestamp != nil && b.Timestamp != nil:
			return a.Timestamp.After(*b.Timestamp)
		case a.Timestamp != nil:
			return true
		case b.Timestamp != nil:
			return false
		default:
			return byName(a, b)
		}
	})
}
