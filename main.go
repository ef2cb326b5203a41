package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/seatspan/seatspan/internal/api/intercity"
	"github.com/seatspan/seatspan/internal/availability"
	"github.com/seatspan/seatspan/internal/config"
	"github.com/seatspan/seatspan/internal/notify"
	"github.com/seatspan/seatspan/internal/search"
	"github.com/seatspan/seatspan/internal/server"
	"github.com/seatspan/seatspan/internal/watch"
)

var CLI struct {
	Config string `help:"Path to config file" default:"config.yaml" type:"path"`

	Check CheckCmd `cmd:"" help:"Evaluate seat availability for one train and print the report"`
	Watch WatchCmd `cmd:"" help:"Re-evaluate one journey on an interval and push a notification when availability changes"`
	Serve ServeCmd `cmd:"" help:"Run the HTTP API"`
}

type appContext struct {
	cfg    *config.Config
	logger *logrus.Logger
	client *intercity.Client
	finder *search.Finder
	engine *availability.Engine
}

type journeyFlags struct {
	From  string `help:"Departure station name" required:""`
	To    string `help:"Arrival station name" required:""`
	Date  string `help:"Travel date (YYYY-MM-DD)" required:""`
	Time  string `help:"Earliest departure time (HH:MM)" required:""`
	Train string `help:"Train number; defaults to the first matching train"`
}

// pickTrain finds the requested train among the direct connections for the
// journey, or the first one when no number was given.
func (f journeyFlags) pickTrain(ctx context.Context, app *appContext) (availability.Train, availability.StationPair, error) {
	connections, pair, err := app.finder.FindTrains(ctx, f.From, f.To, f.Date, f.Time)
	if err != nil {
		return availability.Train{}, availability.StationPair{}, err
	}
	if len(connections) == 0 {
		return availability.Train{}, availability.StationPair{}, fmt.Errorf("no direct connections from %s to %s", f.From, f.To)
	}

	if f.Train == "" {
		return connections[0].Train, pair, nil
	}
	for _, connection := range connections {
		if connection.Train.Number == f.Train {
			return connection.Train, pair, nil
		}
	}
	return availability.Train{}, availability.StationPair{}, fmt.Errorf("train %s not found among direct connections", f.Train)
}

type CheckCmd struct {
	journeyFlags
}

func (cmd *CheckCmd) Run(app *appContext) error {
	ctx := context.Background()

	train, pair, err := cmd.pickTrain(ctx, app)
	if err != nil {
		return err
	}

	report, err := app.engine.Evaluate(ctx, train, pair)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

type WatchCmd struct {
	journeyFlags
}

func (cmd *WatchCmd) Run(app *appContext) error {
	pushoverToken := os.Getenv("PUSHOVER_TOKEN")
	pushoverUser := os.Getenv("PUSHOVER_USER")
	if pushoverToken == "" || pushoverUser == "" {
		return fmt.Errorf("PUSHOVER_TOKEN and PUSHOVER_USER environment variables are required")
	}
	notifier := notify.NewNotifier(pushoverToken, pushoverUser, app.logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		app.logger.WithField("signal", sig).Info("received signal, shutting down")
		cancel()
	}()

	train, pair, err := cmd.pickTrain(ctx, app)
	if err != nil {
		return err
	}

	app.logger.WithFields(logrus.Fields{
		"train":    train.Number,
		"from":     pair.Departure.Name,
		"to":       pair.Arrival.Name,
		"interval": app.cfg.Watch.Interval.Std().String(),
	}).Info("watching availability")

	watcher := watch.NewWatcher(app.engine, notifier, train, pair, app.cfg.Watch.Interval.Std(), app.logger)
	watcher.Start(ctx)

	<-ctx.Done()
	watcher.Stop()
	app.logger.Info("watch stopped")
	return nil
}

type ServeCmd struct{}

func (cmd *ServeCmd) Run(app *appContext) error {
	app.logger.WithField("listen", app.cfg.Server.Listen).Info("starting http api")
	return server.New(app.client, app.finder, app.engine, app.logger).Listen(app.cfg.Server.Listen)
}

func main() {
	kctx := kong.Parse(&CLI)

	// Setup structured logging with logfmt
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		logger.WithField("error", err).Fatal("failed to load config")
	}

	client := intercity.NewClient(
		cfg.Upstream.GatewayURL,
		cfg.Upstream.StationsURL,
		cfg.Upstream.DeviceNumber,
		cfg.Upstream.Timeout.Std(),
	)
	directory := intercity.NewDirectory(client)
	engine := availability.NewEngine(client, directory, cfg.Upstream.BookingURL, cfg.Upstream.TicketCode, logger)
	finder := search.NewFinder(client, logger)

	err = kctx.Run(&appContext{
		cfg:    cfg,
		logger: logger,
		client: client,
		finder: finder,
		engine: engine,
	})
	kctx.FatalIfErrorf(err)
}
