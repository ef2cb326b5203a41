package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatspan/seatspan/internal/api/intercity"
	"github.com/seatspan/seatspan/internal/availability"
	"github.com/seatspan/seatspan/internal/search"
)

type fakeBackend struct {
	suggestions []string
	suggestErr  error

	connections []search.Connection
	pair        availability.StationPair
	findErr     error

	report      *availability.Report
	evaluateErr error
}

func (f *fakeBackend) SuggestStations(ctx context.Context, query string) ([]string, error) {
	return f.suggestions, f.suggestErr
}

func (f *fakeBackend) FindTrains(ctx context.Context, from, to, date, clock string) ([]search.Connection, availability.StationPair, error) {
	return f.connections, f.pair, f.findErr
}

func (f *fakeBackend) Evaluate(ctx context.Context, train availability.Train, pair availability.StationPair) (*availability.Report, error) {
	return f.report, f.evaluateErr
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestServer(backend *fakeBackend) *Server {
	return New(backend, backend, backend, testLogger())
}

func postJSON(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestGetStations(t *testing.T) {
	server := newTestServer(&fakeBackend{suggestions: []string{"Krakow Glowny", "Krakow Plaszow"}})
	app := server.App()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/stations?name=krakow", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var names []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&names))
	assert.Equal(t, []string{"Krakow Glowny", "Krakow Plaszow"}, names)
}

func TestGetStationsRequiresName(t *testing.T) {
	app := newTestServer(&fakeBackend{}).App()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/stations", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostTrains(t *testing.T) {
	backend := &fakeBackend{
		connections: []search.Connection{{
			Train:         availability.Train{Number: "1234", Category: "IC"},
			TravelMinutes: 120,
		}},
		pair: availability.StationPair{
			Departure: intercity.Station{Name: "Warszawa Centralna", BookingID: "WB"},
			Arrival:   intercity.Station{Name: "Poznan Glowny", BookingID: "PB"},
		},
	}
	app := newTestServer(backend).App()

	resp, err := app.Test(postJSON(t, "/api/trains", map[string]string{
		"from": "Warszawa Centralna",
		"to":   "Poznan Glowny",
		"date": "2026-05-01",
		"time": "10:00",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Trains   []search.Connection      `json:"trains"`
		Stations availability.StationPair `json:"stations"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Trains, 1)
	assert.Equal(t, "1234", body.Trains[0].Train.Number)
	assert.Equal(t, "WB", body.Stations.Departure.BookingID)
}

func TestPostTrainsValidatesBody(t *testing.T) {
	app := newTestServer(&fakeBackend{}).App()

	resp, err := app.Test(postJSON(t, "/api/trains", map[string]string{"from": "A"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostSeats(t *testing.T) {
	backend := &fakeBackend{
		report: &availability.Report{
			Train:    availability.Train{Number: "1234"},
			Status:   availability.StatusSameSeat,
			Stops:    []intercity.RouteStop{},
			Segments: []availability.SegmentAvailability{{FreeSeats: 4, BookingLink: "link"}},
		},
	}
	app := newTestServer(backend).App()

	resp, err := app.Test(postJSON(t, "/api/seats", seatsRequest{
		Train: availability.Train{Number: "1234", Category: "IC", DepartureTime: "2026-05-01 10:00:00", ArrivalTime: "2026-05-01 12:00:00"},
		Stations: availability.StationPair{
			Departure: intercity.Station{ScheduleID: "WS"},
			Arrival:   intercity.Station{ScheduleID: "PS"},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var report availability.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, availability.StatusSameSeat, report.Status)
	require.Len(t, report.Segments, 1)
	assert.Equal(t, 4, report.Segments[0].FreeSeats)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		backend    *fakeBackend
		wantStatus int
	}{
		{
			"station not found",
			&fakeBackend{findErr: fmt.Errorf("resolving: %w", intercity.ErrStationNotFound)},
			http.StatusNotFound,
		},
		{
			"no route data",
			&fakeBackend{evaluateErr: fmt.Errorf("%w: A to B", availability.ErrNoRouteData)},
			http.StatusNotFound,
		},
		{
			"upstream unavailable",
			&fakeBackend{findErr: fmt.Errorf("%w: status 500", intercity.ErrUpstreamUnavailable)},
			http.StatusBadGateway,
		},
		{
			"malformed response",
			&fakeBackend{evaluateErr: fmt.Errorf("%w: bad json", intercity.ErrMalformedResponse)},
			http.StatusBadGateway,
		},
		{
			"unclassified",
			&fakeBackend{evaluateErr: fmt.Errorf("boom")},
			http.StatusInternalServerError,
		},
	}

	seatsBody := seatsRequest{
		Train: availability.Train{Number: "1234"},
		Stations: availability.StationPair{
			Departure: intercity.Station{ScheduleID: "WS"},
			Arrival:   intercity.Station{ScheduleID: "PS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestServer(tt.backend).App()

			var req *http.Request
			if tt.backend.findErr != nil {
				req = postJSON(t, "/api/trains", map[string]string{
					"from": "A", "to": "B", "date": "2026-05-01", "time": "10:00",
				})
			} else {
				req = postJSON(t, "/api/seats", seatsBody)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
