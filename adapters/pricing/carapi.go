package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"lease-analyzer/core/valuation"
	apperrors "lease-analyzer/internal/errors"
)

// DefaultCarAPIURL is the public carapi.app endpoint.
const DefaultCarAPIURL = "https://carapi.app/api"

// carAPIVehicle is one entry of the /vehicles search response.
type carAPIVehicle struct {
	ID           int      `json:"id"`
	Make         string   `json:"make"`
	Model        string   `json:"model"`
	Year         int      `json:"year"`
	Trim         string   `json:"trim,omitempty"`
	Body         string   `json:"body,omitempty"`
	Engine       string   `json:"engine,omitempty"`
	Transmission string   `json:"transmission,omitempty"`
	Drivetrain   string   `json:"drivetrain,omitempty"`
	FuelType     string   `json:"fuel_type,omitempty"`
	HighwayMPG   int      `json:"highway_mpg,omitempty"`
	CityMPG      int      `json:"city_mpg,omitempty"`
	MSRP         *float64 `json:"msrp,omitempty"`
}

type carAPIResponse struct {
	Data []carAPIVehicle `json:"data"`
}

// CarAPI looks vehicles up on carapi.app.
type CarAPI struct {
	baseURL string
	client  *http.Client
}

// NewCarAPI creates a CarAPI client. An empty baseURL uses DefaultCarAPIURL;
// a zero timeout uses five seconds.
func NewCarAPI(baseURL string, timeout time.Duration) *CarAPI {
	if baseURL == "" {
		baseURL = DefaultCarAPIURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CarAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements valuation.PriceSource.
func (c *CarAPI) Name() string {
	return "carapi.app"
}

// Lookup searches by make, model and year. An exact (case-insensitive)
// match is preferred; otherwise the first result is used. A vehicle with
// no MSRP yields ErrNoMatch.
func (c *CarAPI) Lookup(ctx context.Context, brand, model string, year int) (*valuation.Quote, error) {
	q := url.Values{}
	q.Set("make", brand)
	q.Set("model", model)
	q.Set("year", strconv.Itoa(year))
	q.Set("limit", "10")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/vehicles?"+q.Encode(), nil)
	if err != nil {
		return nil, apperrors.Internal("build carapi request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.Network("carapi request failed", fmt.Errorf("%w: %v", ErrUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: carapi status %d", ErrUnavailable, resp.StatusCode)
	}

	var body carAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode carapi response: %v", ErrUnavailable, err)
	}

	match := bestMatch(body.Data, brand, model, year)
	if match == nil || match.MSRP == nil || *match.MSRP <= 0 {
		return nil, ErrNoMatch
	}

	return &valuation.Quote{
		MSRP:     decimal.NewFromFloat(*match.MSRP).Round(0),
		Trim:     match.Trim,
		Provider: c.Name(),
	}, nil
}

func bestMatch(vehicles []carAPIVehicle, brand, model string, year int) *carAPIVehicle {
	if len(vehicles) == 0 {
		return nil
	}
	for i := range vehicles {
		v := &vehicles[i]
		if strings.EqualFold(v.Make, brand) && strings.EqualFold(v.Model, model) && v.Year == year {
			return v
		}
	}
	return &vehicles[0]
}
