package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/seatspan/seatspan/internal/api/intercity"
)

// ErrNoRouteData means the upstream does not expose routing for this train,
// so a transfer search cannot even start.
var ErrNoRouteData = errors.New("upstream does not expose routing for this train")

// Upstream is the slice of the gateway API the engine consumes.
type Upstream interface {
	GetComposition(ctx context.Context, seg intercity.Segment) (*intercity.Composition, error)
	GetSeatDiagram(ctx context.Context, seg intercity.Segment, carriageNumber, carriageType string) (string, error)
	GetRoute(ctx context.Context, departureTime, fromID, toID, trainNumber string) ([]intercity.RouteStop, error)
}

// StationResolver resolves a station name to its identifier pair.
type StationResolver interface {
	Resolve(ctx context.Context, name string) (intercity.Station, error)
}

// Engine answers whether a chosen train has a single seat for the whole
// journey and, failing that, whether a chain of individually bookable
// segments covers it.
type Engine struct {
	upstream Upstream
	stations StationResolver
	logger   *logrus.Logger

	bookingURL string
	ticketCode string
}

func NewEngine(upstream Upstream, stations StationResolver, bookingURL, ticketCode string, logger *logrus.Logger) *Engine {
	return &Engine{
		upstream:   upstream,
		stations:   stations,
		logger:     logger,
		bookingURL: bookingURL,
		ticketCode: ticketCode,
	}
}

// Evaluate produces the availability report for one train and station pair.
// Upstream failures bubble unchanged; the only condition turned into a
// non-error outcome is "segment not offered", which steers the search.
func (e *Engine) Evaluate(ctx context.Context, train Train, pair StationPair) (*Report, error) {
	departureCompact, err := compactTime(train.DepartureTime)
	if err != nil {
		return nil, err
	}
	arrivalCompact, err := compactTime(train.ArrivalTime)
	if err != nil {
		return nil, err
	}

	fullJourney := intercity.Segment{
		TrainCategory:      train.Category,
		TrainNumber:        train.Number,
		DepartureTime:      departureCompact,
		DepartureStationID: pair.Departure.ScheduleID,
		ArrivalTime:        arrivalCompact,
		ArrivalStationID:   pair.Arrival.ScheduleID,
	}

	seats, err := e.probeSegment(ctx, fullJourney)
	journeyUnknown := errors.Is(err, intercity.ErrSegmentNotFound)
	if err != nil && !journeyUnknown {
		return nil, err
	}

	if !journeyUnknown && seats.FreeSeats > 0 {
		link, err := e.bookingLink(train.DepartureTime, pair.Departure.BookingID, pair.Arrival.BookingID)
		if err != nil {
			return nil, err
		}

		e.logger.WithFields(logrus.Fields{
			"train":      train.Number,
			"free_seats": seats.FreeSeats,
		}).Info("whole journey bookable on one seat")

		return &Report{
			Train:  train,
			Status: StatusSameSeat,
			Stops:  []intercity.RouteStop{},
			Segments: []SegmentAvailability{{
				From:          pair.Departure.Name,
				To:            pair.Arrival.Name,
				DepartureTime: train.DepartureTime,
				ArrivalTime:   train.ArrivalTime,
				Carriages:     seats.Carriages,
				FreeSeats:     seats.FreeSeats,
				BookingLink:   link,
			}},
		}, nil
	}

	// Whole journey unknown or fully booked: walk the route stop by stop.
	departureISO, err := isoTime(train.DepartureTime)
	if err != nil {
		return nil, err
	}

	stops, err := e.upstream.GetRoute(ctx, departureISO, pair.Departure.BookingID, pair.Arrival.BookingID, train.Number)
	if err != nil {
		return nil, err
	}
	if len(stops) < 2 {
		return nil, fmt.Errorf("%w: %s to %s", ErrNoRouteData, pair.Departure.Name, pair.Arrival.Name)
	}

	// If the very first leg cannot be boarded there is no point searching.
	firstLeg, _, err := e.probeLeg(ctx, train, stops[0], stops[1])
	if err != nil && !errors.Is(err, intercity.ErrSegmentNotFound) {
		return nil, err
	}
	if err != nil || firstLeg.FreeSeats == 0 {
		e.logger.WithFields(logrus.Fields{
			"train": train.Number,
			"from":  stops[0].Name,
			"to":    stops[1].Name,
		}).Info("first leg not boardable")
		return e.noSeatsReport(train), nil
	}

	path, segments, found, err := e.transferSearch(ctx, train, stops)
	if err != nil {
		return nil, err
	}
	if !found {
		return e.noSeatsReport(train), nil
	}

	return &Report{
		Train:    train,
		Status:   StatusSeatTransfer,
		Stops:    path,
		Segments: segments,
	}, nil
}

func (e *Engine) noSeatsReport(train Train) *Report {
	return &Report{
		Train:    train,
		Status:   StatusNoSeats,
		Stops:    []intercity.RouteStop{},
		Segments: []SegmentAvailability{},
	}
}

func (e *Engine) bookingLink(departure, fromBookingID, toBookingID string) (string, error) {
	date, clock, err := splitTimestamp(departure)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/wyszukiwanie?dwyj=%s&swyj=%s&sprzy=%s&polbez=1&time=%s&ticket100=%s",
		e.bookingURL, date, fromBookingID, toBookingID, clock, e.ticketCode), nil
}
