package availability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatspan/seatspan/internal/api/intercity"
)

var fourStopRoute = []intercity.RouteStop{
	{Name: "A", Position: 0, Departure: "2026-05-01 08:00:00"},
	{Name: "B", Position: 1, Arrival: "2026-05-01 09:00:00", Departure: "2026-05-01 09:02:00"},
	{Name: "C", Position: 2, Arrival: "2026-05-01 10:00:00", Departure: "2026-05-01 10:02:00"},
	{Name: "D", Position: 3, Arrival: "2026-05-01 11:00:00"},
}

func newFourStopEngine(upstream *fakeUpstream) *Engine {
	directory := &fakeDirectory{stations: map[string]intercity.Station{
		"a": {Name: "A", BookingID: "AB", ScheduleID: "AS"},
		"b": {Name: "B", BookingID: "BB", ScheduleID: "BS"},
		"c": {Name: "C", BookingID: "CB", ScheduleID: "CS"},
		"d": {Name: "D", BookingID: "DB", ScheduleID: "DS"},
	}}
	return NewEngine(upstream, directory, "https://ebilet.intercity.pl", "1010", testLogger())
}

func TestTransferSearchSplitsAtIntermediateStop(t *testing.T) {
	upstream := &fakeUpstream{
		segments: map[string]map[string]int{
			"AS>DS": {"1": 0},
			"AS>CS": {"1": 5},
			"CS>DS": {"1": 4},
		},
	}
	engine := newFourStopEngine(upstream)

	path, segments, found, err := engine.transferSearch(context.Background(), testTrain, fourStopRoute)
	require.NoError(t, err)
	require.True(t, found)

	var names []string
	for _, stop := range path {
		names = append(names, stop.Name)
	}
	assert.Equal(t, []string{"A", "C", "D"}, names)

	require.Len(t, segments, 2)
	assert.Equal(t, 5, segments[0].FreeSeats)
	assert.Equal(t, 4, segments[1].FreeSeats)
	assert.Equal(t,
		"https://ebilet.intercity.pl/wyszukiwanie?dwyj=2026-05-01&swyj=AB&sprzy=CB&polbez=1&time=08:00&ticket100=1010",
		segments[0].BookingLink)
	assert.Equal(t,
		"https://ebilet.intercity.pl/wyszukiwanie?dwyj=2026-05-01&swyj=CB&sprzy=DB&polbez=1&time=10:02&ticket100=1010",
		segments[1].BookingLink)
}

func TestTransferSearchNoReachableStop(t *testing.T) {
	upstream := &fakeUpstream{
		segments: map[string]map[string]int{
			"AS>BS": {"1": 0},
			"AS>CS": {"1": 0},
			"AS>DS": {"1": 0},
		},
	}
	engine := newFourStopEngine(upstream)

	path, segments, found, err := engine.transferSearch(context.Background(), testTrain, fourStopRoute)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, path)
	assert.Nil(t, segments)
}

// Unknown segments narrow the window downward instead of failing the walk:
// A->C and B->D are not offered, so the search settles for the next stop
// each time.
func TestTransferSearchTreatsUnknownSegmentAsUnreachable(t *testing.T) {
	upstream := &fakeUpstream{
		segments: map[string]map[string]int{
			"AS>BS": {"1": 2},
			"BS>CS": {"1": 1},
			"CS>DS": {"1": 1},
		},
	}
	engine := newFourStopEngine(upstream)

	path, segments, found, err := engine.transferSearch(context.Background(), testTrain, fourStopRoute)
	require.NoError(t, err)
	require.True(t, found)

	var names []string
	for _, stop := range path {
		names = append(names, stop.Name)
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, names)
	require.Len(t, segments, 3)
}

func TestTransferSearchStallsMidRoute(t *testing.T) {
	upstream := &fakeUpstream{
		segments: map[string]map[string]int{
			"AS>BS": {"1": 2},
		},
	}
	engine := newFourStopEngine(upstream)

	_, _, found, err := engine.transferSearch(context.Background(), testTrain, fourStopRoute)
	require.NoError(t, err)
	assert.False(t, found)
}
