package intercity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	trainsEndpoint = "/server/public/endpoint/Pociagi"

	methodSearchConnections = "wyszukajPolaczenia"
	methodGetRoute          = "pobierzTrasePrzejazdu"

	// Route stop timestamps arrive as Java Date.toString values.
	routeTimeLayout = "Mon Jan 2 15:04:05 MST 2006"
	domainTimeLayout = "2006-01-02 15:04:05"
)

var (
	// ErrStationNotFound means no directory entry matched the name exactly.
	ErrStationNotFound = errors.New("station not found")
	// ErrSegmentNotFound means the train does not offer the probed segment.
	// It is a search-control signal, not a failure.
	ErrSegmentNotFound = errors.New("segment not offered")
	// ErrUpstreamUnavailable covers non-success responses and access denials.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrMalformedResponse covers undecodable payloads.
	ErrMalformedResponse = errors.New("malformed response")
)

// Client is a PKP Intercity gateway client.
type Client struct {
	httpClient   *http.Client
	gatewayURL   string
	stationsURL  string
	deviceNumber string
}

// NewClient creates a new gateway client. The timeout applies uniformly to
// every request.
func NewClient(gatewayURL, stationsURL, deviceNumber string, timeout time.Duration) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		gatewayURL:   strings.TrimRight(gatewayURL, "/"),
		stationsURL:  strings.TrimRight(stationsURL, "/"),
		deviceNumber: deviceNumber,
	}
}

// SearchConnections lists the direct trains between two stations on a date.
// Station ids are booking ids.
func (c *Client) SearchConnections(ctx context.Context, date, fromID, toID string) ([]Connection, error) {
	payload := connectionsRequest{
		DeviceNumber:    c.deviceNumber,
		Method:          methodSearchConnections,
		DepartureTime:   date + " 00:00:00",
		ArrivalTime:     date + " 23:59:59",
		FromStation:     fromID,
		ToStation:       toID,
		ViaStations:     []string{},
		MaxTransferMins: 1440,
		MaxTransfers:    2,
		DirectOnly:      1,
		TrainCategories: []string{},
		CarrierCodes:    []string{},
		SeatKinds:       []string{},
		SeatTypes:       []string{},
		MinTransferMins: 3,
	}

	var result connectionsResponse
	if err := c.postTrains(ctx, payload, &result); err != nil {
		return nil, fmt.Errorf("searching connections: %w", err)
	}
	return result.Connections, nil
}

// GetRoute fetches a train's full ordered stop sequence. Station ids are
// booking ids; departureTime is the train's departure in RFC 3339 form.
func (c *Client) GetRoute(ctx context.Context, departureTime, fromID, toID, trainNumber string) ([]RouteStop, error) {
	payload := routeRequest{
		DeviceNumber:  c.deviceNumber,
		Method:        methodGetRoute,
		DepartureTime: departureTime,
		FromStation:   fromID,
		ToStation:     toID,
		TrainNumber:   trainNumber,
	}

	var result routeResponse
	if err := c.postTrains(ctx, payload, &result); err != nil {
		return nil, fmt.Errorf("fetching route: %w", err)
	}

	stops := make([]RouteStop, 0, len(result.Route.Stops))
	for _, stop := range result.Route.Stops {
		arrival, err := normalizeRouteTime(stop.Arrival)
		if err != nil {
			return nil, fmt.Errorf("fetching route: %w: arrival time %q", ErrMalformedResponse, stop.Arrival)
		}
		departure, err := normalizeRouteTime(stop.Departure)
		if err != nil {
			return nil, fmt.Errorf("fetching route: %w: departure time %q", ErrMalformedResponse, stop.Departure)
		}
		stops = append(stops, RouteStop{
			Name:      stop.Name,
			Position:  stop.Position,
			Arrival:   arrival,
			Departure: departure,
		})
	}
	return stops, nil
}

// GetComposition fetches the carriage composition of a train on one segment.
// Returns ErrSegmentNotFound when the train does not offer the segment.
func (c *Client) GetComposition(ctx context.Context, seg Segment) (*Composition, error) {
	url := fmt.Sprintf("%s/grm/sklad/wbnet/%s/%s/%s/%s/%s/%s",
		c.gatewayURL,
		seg.TrainCategory, seg.TrainNumber,
		seg.DepartureTime, seg.DepartureStationID,
		seg.ArrivalTime, seg.ArrivalStationID)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching composition: %w", err)
	}

	var result Composition
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("fetching composition: %w: %v", ErrMalformedResponse, err)
	}

	if result.StatusCode == http.StatusNotFound {
		return nil, ErrSegmentNotFound
	}
	return &result, nil
}

// GetSeatDiagram fetches the SVG seat diagram of one carriage on a segment.
func (c *Client) GetSeatDiagram(ctx context.Context, seg Segment, carriageNumber, carriageType string) (string, error) {
	url := fmt.Sprintf("%s/grm/wagon/svg/wbnet/%s/%s/%s/%s/%s/%s/%s/%s",
		c.gatewayURL,
		seg.TrainCategory, seg.TrainNumber,
		carriageNumber, carriageType,
		seg.DepartureTime, seg.ArrivalTime,
		seg.DepartureStationID, seg.ArrivalStationID)

	body, err := c.get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetching seat diagram: %w", err)
	}
	return string(body), nil
}

func (c *Client) postTrains(ctx context.Context, payload any, result any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+trainsEndpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status code %d", ErrUpstreamUnavailable, resp.StatusCode)
	}
	if strings.Contains(strings.ToUpper(string(body)), "ACCESS DENIED") {
		return fmt.Errorf("%w: access denied", ErrUpstreamUnavailable)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUpstreamUnavailable, err)
	}
	return body, nil
}

func setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")
}

func normalizeRouteTime(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	t, err := time.Parse(routeTimeLayout, s)
	if err != nil {
		return "", err
	}
	return t.Format(domainTimeLayout), nil
}
