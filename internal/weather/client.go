package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/brandongraves08/ecobee-learning/internal/errors"
)

const (
	weatherAPIBaseURL = "http://api.weatherapi.com/v1/current.json"

	requestTimeout  = 10 * time.Second
	breakerCooldown = 2 * time.Minute
	breakerTripAt   = 3
)

// WeatherAPIClient looks up the current outdoor temperature for a location
// from WeatherAPI.com. Calls are guarded by a circuit breaker so a dead
// upstream stops costing a request per poll.
type WeatherAPIClient struct {
	apiKey   string
	location string
	baseURL  string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

func NewWeatherAPIClient(apiKey, location string) (*WeatherAPIClient, error) {
	errFactory := errors.New()

	if apiKey == "" {
		return nil, errFactory.New(ErrMissingAPIKey)
	}
	if location == "" {
		return nil, errFactory.WithMessage(ErrInvalidConfig, "location is required")
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "weatherapi",
		Timeout: breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAt
		},
	})

	return &WeatherAPIClient{
		apiKey:   apiKey,
		location: location,
		baseURL:  weatherAPIBaseURL,
		client:   &http.Client{Timeout: requestTimeout},
		breaker:  breaker,
	}, nil
}

func (c *WeatherAPIClient) CurrentTemperature(ctx context.Context) (float64, error) {
	temp, err := c.breaker.Execute(func() (interface{}, error) {
		value, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, errors.New().Wrap(ErrUpstreamUnavailable, err)
		}
		return 0, err
	}

	value, ok := temp.(float64)
	if !ok {
		return 0, errors.New().New(ErrInvalidResponse)
	}

	return value, nil
}

func (c *WeatherAPIClient) fetch(ctx context.Context) (float64, error) {
	errFactory := errors.New()

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return 0, errFactory.Wrap(ErrInvalidConfig, err)
	}

	query := endpoint.Query()
	query.Set("key", c.apiKey)
	query.Set("q", c.location)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return 0, errFactory.Wrap(ErrUpstreamUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, errFactory.Wrap(ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return 0, errFactory.New(ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return 0, errFactory.WithData(ErrUpstreamUnavailable, resp.Status)
	}

	var body struct {
		Current struct {
			TempF float64 `json:"temp_f"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, errFactory.Wrap(ErrInvalidResponse, err)
	}

	return body.Current.TempF, nil
}
