// Package availability resolves seat availability for a rail journey from
// upstream per-segment occupancy: either one seat held for the whole trip,
// or a chain of segments each of which has some seat free.
package availability

import (
	"fmt"
	"time"

	"github.com/seatspan/seatspan/internal/api/intercity"
	"github.com/seatspan/seatspan/internal/seatmap"
)

// Status is the outcome of one availability evaluation.
type Status string

const (
	StatusSameSeat     Status = "same_seat"
	StatusSeatTransfer Status = "seat_transfer"
	StatusNoSeats      Status = "no_seats"
)

const (
	timeLayout    = "2006-01-02 15:04:05"
	compactLayout = "200601021504"
	dateLayout    = "2006-01-02"
	clockLayout   = "15:04"
)

// Train identifies a previously-selected train. Timestamps use the
// "2006-01-02 15:04:05" domain format.
type Train struct {
	Name          string `json:"name"`
	Number        string `json:"number"`
	Category      string `json:"category"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
}

// StationPair is the resolved departure/arrival station bundle.
type StationPair struct {
	Departure intercity.Station `json:"departure"`
	Arrival   intercity.Station `json:"arrival"`
}

// CarriageSeats is one carriage's share of a segment result.
type CarriageSeats struct {
	Number  string                      `json:"number"`
	Seats   map[string]seatmap.SeatKind `json:"seats"`
	Diagram string                      `json:"diagram"`
}

// SegmentAvailability describes one bookable segment of the journey.
type SegmentAvailability struct {
	From          string          `json:"from"`
	To            string          `json:"to"`
	DepartureTime string          `json:"departure_time"`
	ArrivalTime   string          `json:"arrival_time"`
	Carriages     []CarriageSeats `json:"carriages"`
	FreeSeats     int             `json:"free_seats"`
	BookingLink   string          `json:"booking_link"`
}

// Report is the availability report for one train and journey. Stops is
// populated only for seat transfers; Segments holds one entry for a
// same-seat journey and one per leg for a transfer.
type Report struct {
	Train    Train                 `json:"train"`
	Status   Status                `json:"status"`
	Stops    []intercity.RouteStop `json:"stops"`
	Segments []SegmentAvailability `json:"segments"`
}

func compactTime(s string) (string, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.Format(compactLayout), nil
}

// splitTimestamp breaks a domain timestamp into its date and clock parts
// for booking-link assembly.
func splitTimestamp(s string) (date, clock string, err error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return "", "", fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.Format(dateLayout), t.Format(clockLayout), nil
}

func isoTime(s string) (string, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.Format("2006-01-02T15:04:05"), nil
}
