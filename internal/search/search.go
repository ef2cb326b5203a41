// Package search finds candidate direct trains between two stations; its
// output is the availability engine's input.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seatspan/seatspan/internal/api/intercity"
	"github.com/seatspan/seatspan/internal/availability"
)

const (
	inputLayout  = "2006-01-02 15:04"
	domainLayout = "2006-01-02 15:04:05"
)

type connectionsAPI interface {
	SearchConnections(ctx context.Context, date, fromID, toID string) ([]intercity.Connection, error)
	ResolveStation(ctx context.Context, name string) (intercity.Station, error)
}

// Connection is one candidate train for the requested journey.
type Connection struct {
	Train         availability.Train `json:"train"`
	TravelMinutes int                `json:"travel_minutes"`
}

type Finder struct {
	api    connectionsAPI
	logger *logrus.Logger

	// now is swappable so tests can pin the clock.
	now func() time.Time
}

func NewFinder(api connectionsAPI, logger *logrus.Logger) *Finder {
	return &Finder{api: api, logger: logger, now: time.Now}
}

// FindTrains resolves both station names and lists the direct trains
// departing at or after the requested time. A requested time in the past is
// clamped to now. An empty result is not an error.
func (f *Finder) FindTrains(ctx context.Context, from, to, date, clock string) ([]Connection, availability.StationPair, error) {
	requested, err := time.ParseInLocation(inputLayout, date+" "+clock, time.Local)
	if err != nil {
		return nil, availability.StationPair{}, fmt.Errorf("invalid date/time %q %q: %w", date, clock, err)
	}
	if now := f.now(); requested.Before(now) {
		requested = now
	}

	departure, err := f.api.ResolveStation(ctx, from)
	if err != nil {
		return nil, availability.StationPair{}, err
	}
	arrival, err := f.api.ResolveStation(ctx, to)
	if err != nil {
		return nil, availability.StationPair{}, err
	}
	pair := availability.StationPair{Departure: departure, Arrival: arrival}

	connections, err := f.api.SearchConnections(ctx, requested.Format("2006-01-02"), departure.BookingID, arrival.BookingID)
	if err != nil {
		return nil, pair, err
	}

	cutoff := requested.Hour()*60 + requested.Minute()

	var result []Connection
	for _, connection := range connections {
		if len(connection.Trains) == 0 {
			continue
		}

		departsAt, err := time.Parse(domainLayout, connection.DepartureTime)
		if err != nil {
			return nil, pair, fmt.Errorf("%w: departure time %q", intercity.ErrMalformedResponse, connection.DepartureTime)
		}
		if departsAt.Hour()*60+departsAt.Minute() < cutoff {
			continue
		}

		train := connection.Trains[0]
		result = append(result, Connection{
			Train: availability.Train{
				Name:          train.Name,
				Number:        train.Number,
				Category:      train.Category,
				DepartureTime: connection.DepartureTime,
				ArrivalTime:   connection.ArrivalTime,
			},
			TravelMinutes: train.TravelMinutes,
		})
	}

	f.logger.WithFields(logrus.Fields{
		"from":   departure.Name,
		"to":     arrival.Name,
		"date":   requested.Format("2006-01-02"),
		"trains": len(result),
	}).Info("found direct connections")

	return result, pair, nil
}
