package availability

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/sourcegraph/conc/pool"

	"github.com/seatspan/seatspan/internal/api/intercity"
	"github.com/seatspan/seatspan/internal/seatmap"
)

// segmentSeats is the reduced result of probing one segment: every eligible
// carriage's available seats and diagram, sorted by carriage number.
type segmentSeats struct {
	Carriages []CarriageSeats
	FreeSeats int
}

// probeSegment fetches a segment's composition and evaluates every eligible
// carriage. Passes intercity.ErrSegmentNotFound through untouched so callers
// can tell "segment not offered" from "zero free seats".
func (e *Engine) probeSegment(ctx context.Context, seg intercity.Segment) (*segmentSeats, error) {
	composition, err := e.upstream.GetComposition(ctx, seg)
	if err != nil {
		return nil, err
	}
	return e.collectCarriages(ctx, seg, composition.EligibleCarriages())
}

// collectCarriages fans out one seat-diagram fetch per carriage, joins,
// and reduces. Any single failure cancels the siblings and fails the
// whole segment; a partial count would be indistinguishable from a real one.
func (e *Engine) collectCarriages(ctx context.Context, seg intercity.Segment, carriages map[string]string) (*segmentSeats, error) {
	if len(carriages) == 0 {
		return &segmentSeats{}, nil
	}

	fetchers := pool.NewWithResults[CarriageSeats]().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(len(carriages))

	for number, carriageType := range carriages {
		// Per-iteration copies: the go directive is 1.21 (toolchain limit),
		// where range variables are still shared across iterations.
		number, carriageType := number, carriageType
		fetchers.Go(func(ctx context.Context) (CarriageSeats, error) {
			diagram, err := e.upstream.GetSeatDiagram(ctx, seg, number, carriageType)
			if err != nil {
				return CarriageSeats{}, fmt.Errorf("carriage %s: %w", number, err)
			}

			seats, err := seatmap.Parse(diagram)
			if err != nil {
				return CarriageSeats{}, fmt.Errorf("carriage %s: %w", number, err)
			}

			return CarriageSeats{
				Number:  number,
				Seats:   seats,
				Diagram: seatmap.StripScripts(diagram),
			}, nil
		})
	}

	results, err := fetchers.Wait()
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		a, errA := strconv.Atoi(results[i].Number)
		b, errB := strconv.Atoi(results[j].Number)
		if errA == nil && errB == nil {
			return a < b
		}
		return results[i].Number < results[j].Number
	})

	total := 0
	for _, carriage := range results {
		total += len(carriage.Seats)
	}

	return &segmentSeats{Carriages: results, FreeSeats: total}, nil
}
