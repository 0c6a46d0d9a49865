// Package weather fetches multi-day forecasts from the Weather Underground
// API and maps the three response shapes (error, disambiguation, forecast)
// onto a tagged outcome.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/cagomez/forecastbot/internal/httputil"
	"github.com/cagomez/forecastbot/internal/metrics"
	"github.com/cagomez/forecastbot/internal/models"
)

const defaultBaseURL = "http://api.wunderground.com"

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewClient(apiKey string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "wunderground",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  httputil.NewClient(),
		circuit: cb,
	}
}

// forecastResponse covers all three shapes the forecast10day endpoint can
// return. Exactly one of Error, Results, or Forecast is meaningful.
type forecastResponse struct {
	Response struct {
		Error *struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"error"`
		Results json.RawMessage `json:"results"`
	} `json:"response"`
	Forecast *struct {
		SimpleForecast struct {
			ForecastDay []wireDay `json:"forecastday"`
		} `json:"simpleforecast"`
	} `json:"forecast"`
}

type wireDay struct {
	Date struct {
		WeekdayShort string `json:"weekday_short"`
		Month        int    `json:"month"`
		Day          int    `json:"day"`
		Year         int    `json:"year"`
	} `json:"date"`
	Conditions string  `json:"conditions"`
	High       wireTemp `json:"high"`
	Low        wireTemp `json:"low"`
}

// wireTemp tolerates the API serving fahrenheit as either a quoted string
// or a bare number.
type wireTemp struct {
	Fahrenheit flexInt `json:"fahrenheit"`
}

type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Some responses carry "88.0"; take the integer part.
		v, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("parse fahrenheit %q: %w", s, err)
		}
		n = int(v)
	}
	*f = flexInt(n)
	return nil
}

// Fetch requests a 10-day forecast for the given location. Provider-level
// not-found and ambiguity are outcomes, not errors; only transport, HTTP,
// and parse faults return an error.
func (c *Client) Fetch(ctx context.Context, loc models.Location) (models.Outcome, error) {
	reqURL := fmt.Sprintf("%s/api/%s/forecast10day/q/%s/%s.json",
		c.baseURL, c.apiKey, url.PathEscape(loc.State), url.PathEscape(loc.City))

	start := time.Now()
	raw, err := c.circuit.Execute(func() (interface{}, error) {
		return c.get(ctx, reqURL)
	})
	metrics.WeatherAPILatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return models.Outcome{}, fmt.Errorf("fetch forecast for %s, %s: %w", loc.City, loc.State, err)
	}
	metrics.WeatherAPICallsTotal.WithLabelValues("ok").Inc()

	var data forecastResponse
	if err := json.Unmarshal(raw.([]byte), &data); err != nil {
		return models.Outcome{}, fmt.Errorf("unmarshal forecast: %w", err)
	}

	switch {
	case data.Response.Error != nil:
		return models.Outcome{Kind: models.OutcomeNotFound}, nil
	case len(data.Response.Results) > 0:
		return models.Outcome{Kind: models.OutcomeAmbiguous}, nil
	case data.Forecast == nil:
		return models.Outcome{}, fmt.Errorf("forecast response missing forecast block")
	}

	days := make([]models.ForecastDay, 0, 10)
	for _, d := range data.Forecast.SimpleForecast.ForecastDay {
		if len(days) == 10 {
			break
		}
		days = append(days, models.ForecastDay{
			Weekday:    d.Date.WeekdayShort,
			Month:      d.Date.Month,
			Day:        d.Date.Day,
			Year:       d.Date.Year,
			Conditions: d.Conditions,
			HighF:      int(d.High.Fahrenheit),
			LowF:       int(d.Low.Fahrenheit),
		})
	}
	if len(days) == 0 {
		return models.Outcome{}, fmt.Errorf("forecast response contained no days")
	}

	return models.Outcome{Kind: models.OutcomeSuccess, Days: days}, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("fetch forecast: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("retryable: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch forecast: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}
