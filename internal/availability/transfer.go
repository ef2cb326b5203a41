package availability

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/seatspan/seatspan/internal/api/intercity"
)

// transferSearch finds maximal contiguous bookable segments spanning the
// whole route, greedily extending each one as far as possible so the rider
// changes seats as rarely as possible.
//
// From each current stop it binary-searches the remaining stops for the
// farthest one still reachable with a free seat. The window narrows left on
// both "no free seats" and "segment not offered"; this assumes that if a
// far stop is reachable with a seat then every nearer stop is too, which
// the upstream does not strictly guarantee.
func (e *Engine) transferSearch(ctx context.Context, train Train, stops []intercity.RouteStop) ([]intercity.RouteStop, []SegmentAvailability, bool, error) {
	path := []intercity.RouteStop{stops[0]}
	segments := []SegmentAvailability{}

	current := 0
	last := len(stops) - 1

	for current != last {
		left, right := current+1, last
		best := -1
		var bestSegment SegmentAvailability

		for left <= right {
			mid := (left + right) / 2

			seats, link, err := e.probeLeg(ctx, train, stops[current], stops[mid])
			if errors.Is(err, intercity.ErrSegmentNotFound) {
				right = mid - 1
				continue
			}
			if err != nil {
				return nil, nil, false, err
			}

			e.logger.WithFields(logrus.Fields{
				"train":      train.Number,
				"from":       stops[current].Name,
				"to":         stops[mid].Name,
				"free_seats": seats.FreeSeats,
			}).Debug("probed segment")

			if seats.FreeSeats > 0 {
				best = mid
				bestSegment = SegmentAvailability{
					From:          stops[current].Name,
					To:            stops[mid].Name,
					DepartureTime: stops[current].Departure,
					ArrivalTime:   stops[mid].Arrival,
					Carriages:     seats.Carriages,
					FreeSeats:     seats.FreeSeats,
					BookingLink:   link,
				}
				left = mid + 1
			} else {
				right = mid - 1
			}
		}

		if best == -1 {
			return nil, nil, false, nil
		}

		path = append(path, stops[best])
		segments = append(segments, bestSegment)
		current = best
	}

	return path, segments, true, nil
}

// probeLeg probes the segment between two route stops, resolving both stop
// names and returning the segment's seats together with its booking link.
func (e *Engine) probeLeg(ctx context.Context, train Train, from, to intercity.RouteStop) (*segmentSeats, string, error) {
	fromStation, err := e.stations.Resolve(ctx, from.Name)
	if err != nil {
		return nil, "", err
	}
	toStation, err := e.stations.Resolve(ctx, to.Name)
	if err != nil {
		return nil, "", err
	}

	departureCompact, err := compactTime(from.Departure)
	if err != nil {
		return nil, "", err
	}
	arrivalCompact, err := compactTime(to.Arrival)
	if err != nil {
		return nil, "", err
	}

	seats, err := e.probeSegment(ctx, intercity.Segment{
		TrainCategory:      train.Category,
		TrainNumber:        train.Number,
		DepartureTime:      departureCompact,
		DepartureStationID: fromStation.ScheduleID,
		ArrivalTime:        arrivalCompact,
		ArrivalStationID:   toStation.ScheduleID,
	})
	if err != nil {
		return nil, "", err
	}

	link, err := e.bookingLink(from.Departure, fromStation.BookingID, toStation.BookingID)
	if err != nil {
		return nil, "", err
	}
	return seats, link, nil
}
