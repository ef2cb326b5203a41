package intercity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// ResolveStation looks a station up by name, matching the canonical name
// case-insensitively and exactly. Partial matches do not resolve.
func (c *Client) ResolveStation(ctx context.Context, name string) (Station, error) {
	entries, err := c.queryStations(ctx, name)
	if err != nil {
		return Station{}, err
	}

	for _, entry := range entries {
		if strings.EqualFold(entry.Name, name) {
			return Station{
				Name:       entry.Name,
				BookingID:  entry.BookingID,
				ScheduleID: entry.ScheduleID,
			}, nil
		}
	}
	return Station{}, fmt.Errorf("%w: %s", ErrStationNotFound, name)
}

// SuggestStations lists station names matching a query, prefix matches
// first. Wildcard "any station" entries are dropped.
func (c *Client) SuggestStations(ctx context.Context, query string) ([]string, error) {
	entries, err := c.queryStations(ctx, query)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Name), "dowolna") {
			continue
		}
		names = append(names, entry.Name)
	}

	lowerQuery := strings.ToLower(query)
	sort.SliceStable(names, func(i, j int) bool {
		iPrefix := strings.HasPrefix(strings.ToLower(names[i]), lowerQuery)
		jPrefix := strings.HasPrefix(strings.ToLower(names[j]), lowerQuery)
		if iPrefix != jPrefix {
			return iPrefix
		}
		return names[i] < names[j]
	})
	return names, nil
}

func (c *Client) queryStations(ctx context.Context, query string) ([]stationEntry, error) {
	body, err := c.get(ctx, c.stationsURL+"/station/get/?q="+url.QueryEscape(query))
	if err != nil {
		return nil, fmt.Errorf("querying stations: %w", err)
	}

	var entries []stationEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("querying stations: %w: %v", ErrMalformedResponse, err)
	}
	return entries, nil
}

type stationResolver interface {
	ResolveStation(ctx context.Context, name string) (Station, error)
}

// Directory caches station resolutions by name. Resolution is a pure lookup,
// and the transfer search resolves the same handful of stop names over and
// over, so one round trip per distinct name is enough.
type Directory struct {
	resolver stationResolver

	mu    sync.Mutex
	cache map[string]Station
}

func NewDirectory(resolver stationResolver) *Directory {
	return &Directory{
		resolver: resolver,
		cache:    make(map[string]Station),
	}
}

func (d *Directory) Resolve(ctx context.Context, name string) (Station, error) {
	key := strings.ToLower(name)

	d.mu.Lock()
	station, ok := d.cache[key]
	d.mu.Unlock()
	if ok {
		return station, nil
	}

	station, err := d.resolver.ResolveStation(ctx, name)
	if err != nil {
		return Station{}, err
	}

	d.mu.Lock()
	d.cache[key] = station
	d.mu.Unlock()
	return station, nil
}
