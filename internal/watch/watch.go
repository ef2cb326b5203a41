// Package watch re-evaluates a single journey on an interval and pushes a
// notification whenever the availability status changes.
package watch

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seatspan/seatspan/internal/availability"
)

type evaluator interface {
	Evaluate(ctx context.Context, train availability.Train, pair availability.StationPair) (*availability.Report, error)
}

type statusNotifier interface {
	SendSameSeat(trainNumber, from, to string, freeSeats int, link string) error
	SendSeatTransfer(trainNumber, from, to string, legs int) error
	SendNoSeats(trainNumber, from, to string) error
}

type Watcher struct {
	engine   evaluator
	notifier statusNotifier
	logger   *logrus.Logger

	train    availability.Train
	pair     availability.StationPair
	interval time.Duration

	mu         sync.Mutex
	lastStatus availability.Status

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewWatcher(engine evaluator, notifier statusNotifier, train availability.Train, pair availability.StationPair, interval time.Duration, logger *logrus.Logger) *Watcher {
	return &Watcher{
		engine:   engine,
		notifier: notifier,
		logger:   logger,
		train:    train,
		pair:     pair,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

func (w *Watcher) Stop() {
	close(w.stopCh)
	w.wg.Wait()
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.check(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped: context cancelled")
			return
		case <-w.stopCh:
			w.logger.Info("watcher stopped: stop signal received")
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	report, err := w.engine.Evaluate(ctx, w.train, w.pair)
	if err != nil {
		w.logger.WithField("error", err).Error("availability check failed")
		return
	}

	w.mu.Lock()
	statusChanged := w.lastStatus != report.Status
	isFirstCheck := w.lastStatus == ""
	w.lastStatus = report.Status
	w.mu.Unlock()

	w.logger.WithFields(logrus.Fields{
		"train":  w.train.Number,
		"from":   w.pair.Departure.Name,
		"to":     w.pair.Arrival.Name,
		"status": report.Status,
	}).Info("availability checked")

	if !statusChanged {
		return
	}
	if isFirstCheck && report.Status == availability.StatusNoSeats {
		// Nothing to announce until seats actually appear.
		return
	}

	if err := w.notifyStatus(report); err != nil {
		w.logger.WithField("error", err).Error("sending availability notification")
	}
}

func (w *Watcher) notifyStatus(report *availability.Report) error {
	from := w.pair.Departure.Name
	to := w.pair.Arrival.Name

	switch report.Status {
	case availability.StatusSameSeat:
		segment := report.Segments[0]
		return w.notifier.SendSameSeat(w.train.Number, from, to, segment.FreeSeats, segment.BookingLink)
	case availability.StatusSeatTransfer:
		return w.notifier.SendSeatTransfer(w.train.Number, from, to, len(report.Segments))
	default:
		return w.notifier.SendNoSeats(w.train.Number, from, to)
	}
}
