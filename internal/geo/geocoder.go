// AngelaMos | 2026
// geocoder.go

// Package geo resolves free-text locations to coordinates via an external
// provider, with a redis cache keyed by the normalized location string so
// repeat lookups never leave the process boundary.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/bandmate/backend/internal/config"
	"github.com/bandmate/backend/internal/core"
)

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

type Resolver interface {
	Resolve(ctx context.Context, location string) (Coordinates, error)
}

type Geocoder struct {
	baseURL string
	client  *http.Client
	redis   *redis.Client
}

func NewGeocoder(cfg config.GeocodeConfig, redisClient *redis.Client) *Geocoder {
	return &Geocoder{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		redis:   redisClient,
	}
}

type providerResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *Geocoder) Resolve(
	ctx context.Context,
	location string,
) (Coordinates, error) {
	key := cacheKey(location)

	if cached, err := g.redis.Get(ctx, key).Result(); err == nil {
		if coords, ok := parseCached(cached); ok {
			return coords, nil
		}
	}

	coords, err := g.lookup(ctx, location)
	if err != nil {
		return Coordinates{}, err
	}

	cached := fmt.Sprintf("%g,%g", coords.Latitude, coords.Longitude)
	//nolint:errcheck // cache write is best-effort
	_ = g.redis.Set(ctx, key, cached, 0).Err()

	return coords, nil
}

func (g *Geocoder) lookup(
	ctx context.Context,
	location string,
) (Coordinates, error) {
	reqURL := fmt.Sprintf(
		"%s?q=%s&format=json&limit=1",
		g.baseURL,
		url.QueryEscape(location),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", "bandmate-api")

	resp, err := g.client.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf(
			"geocode request: unexpected status %d",
			resp.StatusCode,
		)
	}

	var results []providerResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(results) == 0 {
		return Coordinates{}, fmt.Errorf(
			"geocode %q: %w",
			location,
			core.ErrNotFound,
		)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse latitude: %w", err)
	}

	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse longitude: %w", err)
	}

	return Coordinates{Latitude: lat, Longitude: lon}, nil
}

func cacheKey(location string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(location)), " ")
	return "geo:" + normalized
}

func parseCached(value string) (Coordinates, bool) {
	parts := strings.SplitN(value, ",", 2)
	if len(parts) != 2 {
		return Coordinates{}, false
	}

	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Coordinates{}, false
	}

	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Coordinates{}, false
	}

	return Coordinates{Latitude: lat, Longitude: lon}, true
}
