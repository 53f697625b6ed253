package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestNormalize(t *testing.T) {
	assert.Equal(t, NormalizedName("andi"), Normalize("  Andi "))
	assert.Equal(t, NormalizedName("budi s"), Normalize("BUDI S"))
	assert.Equal(t, NormalizedName(""), Normalize("   "))
	assert.Equal(t, NormalizedName(""), Normalize(""))
}

func TestAggregateSumsPartySizeAndKeepsLatestTimestamp(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)
	t2 := t1.Add(30 * time.Minute)

	merged := Aggregate([]CheckinEvent{
		{Name: "Citra", PartySize: 1, Timestamp: t1},
		{Name: "citra ", PartySize: 3, Timestamp: t2},
	})

	require.Len(t, merged, 1)
	m := merged[Normalize("Citra")]
	require.NotNil(t, m)
	assert.Equal(t, 4, m.PartySize)
	assert.Equal(t, t2, m.Timestamp)
}

func TestAggregateDefaultsPartySizeToOne(t *testing.T) {
	merged := Aggregate([]CheckinEvent{
		{Name: "Andi"},
		{Name: "Andi", PartySize: -2},
	})
	require.Len(t, merged, 1)
	assert.Equal(t, 2, merged["andi"].PartySize)
}

func TestAggregateSkipsBlankNames(t *testing.T) {
	merged := Aggregate([]CheckinEvent{
		{Name: "   ", PartySize: 5},
		{Name: "", PartySize: 2},
		{Name: "Budi"},
	})
	require.Len(t, merged, 1)
	assert.Contains(t, merged, NormalizedName("budi"))
}

func TestAggregateIgnoresOutOfOrderTimestamps(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	// Late arrival of an earlier event must not roll the timestamp back.
	merged := Aggregate([]CheckinEvent{
		{Name: "Deni", Timestamp: t2},
		{Name: "Deni", Timestamp: t1},
	})
	assert.Equal(t, t2, merged["deni"].Timestamp)
}

func TestAggregateTreatsMissingTimestampAsEarliest(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)
	merged := Aggregate([]CheckinEvent{
		{Name: "Eka", Timestamp: t1},
		{Name: "Eka"},
	})
	assert.Equal(t, t1, merged["eka"].Timestamp)
}

func TestAggregateLastNonEmptyFieldWins(t *testing.T) {
	merged := Aggregate([]CheckinEvent{
		{Name: "Fitri", Contact: "0811", PhotoRef: "p1.jpg", Note: "first"},
		{Name: "Fitri", PhotoRef: "p2.jpg"},
		{Name: "Fitri", Note: "corrected"},
	})
	m := merged["fitri"]
	assert.Equal(t, "0811", m.Contact)
	assert.Equal(t, "p2.jpg", m.PhotoRef)
	assert.Equal(t, "corrected", m.Note)
}

func TestAggregateExplicitInvitedOverrides(t *testing.T) {
	merged := Aggregate([]CheckinEvent{
		{Name: "Gita"},
		{Name: "Gita", Invited: boolPtr(false)},
	})
	require.NotNil(t, merged["gita"].Invited)
	assert.False(t, *merged["gita"].Invited)

	// Silence on later events keeps the earlier explicit flag.
	merged = Aggregate([]CheckinEvent{
		{Name: "Hana", Invited: boolPtr(false)},
		{Name: "Hana"},
	})
	require.NotNil(t, merged["hana"].Invited)
	assert.False(t, *merged["hana"].Invited)
}

func TestAggregateSameEventTwiceSumsExplicitSize(t *testing.T) {
	e := CheckinEvent{Name: "Indah", PartySize: 2}
	merged := Aggregate([]CheckinEvent{e, e})
	assert.Equal(t, 4, merged["indah"].PartySize)
}
