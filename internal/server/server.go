// Package server exposes the station directory, connection search, and
// availability engine over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/seatspan/seatspan/internal/api/intercity"
	"github.com/seatspan/seatspan/internal/availability"
	"github.com/seatspan/seatspan/internal/search"
)

type stationSuggester interface {
	SuggestStations(ctx context.Context, query string) ([]string, error)
}

type trainFinder interface {
	FindTrains(ctx context.Context, from, to, date, clock string) ([]search.Connection, availability.StationPair, error)
}

type availabilityEvaluator interface {
	Evaluate(ctx context.Context, train availability.Train, pair availability.StationPair) (*availability.Report, error)
}

type Server struct {
	stations stationSuggester
	finder   trainFinder
	engine   availabilityEvaluator
	logger   *logrus.Logger
}

func New(stations stationSuggester, finder trainFinder, engine availabilityEvaluator, logger *logrus.Logger) *Server {
	return &Server{
		stations: stations,
		finder:   finder,
		engine:   engine,
		logger:   logger,
	}
}

func (s *Server) App() *fiber.App {
	app := fiber.New()
	app.Use(s.requestLogger())

	api := app.Group("/api")
	api.Get("/stations", s.getStations)
	api.Post("/trains", s.postTrains)
	api.Post("/seats", s.postSeats)

	return app
}

func (s *Server) Listen(listen string) error {
	return s.App().Listen(listen)
}

func (s *Server) getStations(c *fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"error": "name query parameter is required"})
	}

	names, err := s.stations.SuggestStations(c.UserContext(), name)
	if err != nil {
		return s.renderError(c, err)
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(names)
}

type trainsRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Date string `json:"date"`
	Time string `json:"time"`
}

func (s *Server) postTrains(c *fiber.Ctx) error {
	var req trainsRequest
	if err := c.BodyParser(&req); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.From == "" || req.To == "" || req.Date == "" || req.Time == "" {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"error": "from, to, date, and time are required"})
	}

	connections, pair, err := s.finder.FindTrains(c.UserContext(), req.From, req.To, req.Date, req.Time)
	if err != nil {
		return s.renderError(c, err)
	}
	if connections == nil {
		connections = []search.Connection{}
	}

	return c.JSON(fiber.Map{
		"trains":   connections,
		"stations": pair,
	})
}

type seatsRequest struct {
	Train    availability.Train       `json:"train"`
	Stations availability.StationPair `json:"stations"`
}

func (s *Server) postSeats(c *fiber.Ctx) error {
	var req seatsRequest
	if err := c.BodyParser(&req); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Train.Number == "" || req.Stations.Departure.ScheduleID == "" || req.Stations.Arrival.ScheduleID == "" {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{"error": "train and resolved stations are required"})
	}

	report, err := s.engine.Evaluate(c.UserContext(), req.Train, req.Stations)
	if err != nil {
		return s.renderError(c, err)
	}
	return c.JSON(report)
}

func (s *Server) renderError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, intercity.ErrStationNotFound), errors.Is(err, availability.ErrNoRouteData):
		c.Status(fiber.StatusNotFound)
	case errors.Is(err, intercity.ErrUpstreamUnavailable), errors.Is(err, intercity.ErrMalformedResponse):
		c.Status(fiber.StatusBadGateway)
	default:
		c.Status(fiber.StatusInternalServerError)
	}
	return c.JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		startTime := time.Now()
		err := c.Next()

		entry := s.logger.WithFields(logrus.Fields{
			"status":  c.Response().StatusCode(),
			"method":  c.Method(),
			"path":    c.Path(),
			"latency": time.Since(startTime).String(),
		})

		code := c.Response().StatusCode()
		switch {
		case code >= fiber.StatusInternalServerError:
			entry.Error("http request")
		case code >= fiber.StatusBadRequest:
			entry.Warn("http request")
		default:
			entry.Info("http request")
		}

		return err
	}
}
