package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"sentinelle/internal/locations"
	"sentinelle/internal/types"
)

// ForecastBundle is the validated result of one upstream fetch: current
// conditions plus one observation per forecast day, ordered by date offset
// ascending.
type ForecastBundle struct {
	Current types.WeatherObservation
	Daily   []types.WeatherObservation
}

// WeatherClient fetches current and forecast conditions for one location.
// Implementations may fail or rate-limit; callers own the fallback chain.
type WeatherClient interface {
	Fetch(ctx context.Context, loc locations.Location) (*ForecastBundle, error)
}

// forecastDays is the number of daily entries retained from the upstream
// response, matching the dashboard's 5-day outlook.
const forecastDays = 5

// OpenWeatherClient implements WeatherClient against the OpenWeather One Call
// API. All requests go through the resilient BaseClient.
type OpenWeatherClient struct {
	base    *BaseClient
	baseURL string
	apiKey  string
}

// NewOpenWeatherClient creates an OpenWeather One Call client.
func NewOpenWeatherClient(base *BaseClient, baseURL, apiKey string) *OpenWeatherClient {
	return &OpenWeatherClient{
		base:    base,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// oneCallResponse mirrors the subset of the One Call payload the service
// consumes. Wind speeds arrive in m/s, precipitation probability as 0-1.
type oneCallResponse struct {
	Current struct {
		Temp      float64 `json:"temp"`
		Humidity  int     `json:"humidity"`
		WindSpeed float64 `json:"wind_speed"`
		Pressure  float64 `json:"pressure"`
		Rain      struct {
			OneHour float64 `json:"1h"`
		} `json:"rain"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"current"`
	Daily []struct {
		Temp struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
			Day float64 `json:"day"`
		} `json:"temp"`
		Humidity  int     `json:"humidity"`
		WindSpeed float64 `json:"wind_speed"`
		Pressure  float64 `json:"pressure"`
		Pop       float64 `json:"pop"`
		Rain      float64 `json:"rain"`
		Weather   []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"daily"`
}

// Fetch retrieves current and 5-day forecast conditions for the location and
// converts them into the internal observation schema at this boundary.
func (c *OpenWeatherClient) Fetch(ctx context.Context, loc locations.Location) (*ForecastBundle, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.4f", loc.Lat))
	q.Set("lon", fmt.Sprintf("%.4f", loc.Lon))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	q.Set("lang", "fr")
	q.Set("exclude", "minutely,hourly")

	reqURL := fmt.Sprintf("%s/onecall?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build upstream request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("upstream returned %d", resp.StatusCode),
			nil,
		)
	}

	var payload oneCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamUnavailable, "failed to decode upstream response", err)
	}
	if len(payload.Daily) == 0 {
		return nil, types.NewAppError(types.ErrCodeUpstreamUnavailable, "upstream response missing daily forecast", nil)
	}

	now := time.Now().UTC()
	bundle := &ForecastBundle{
		Current: types.WeatherObservation{
			Location:           loc.Name,
			Timestamp:          now,
			TemperatureMin:     payload.Daily[0].Temp.Min,
			TemperatureCurrent: payload.Current.Temp,
			TemperatureMax:     payload.Daily[0].Temp.Max,
			WindSpeed:          msToKmh(payload.Current.WindSpeed),
			Humidity:           payload.Current.Humidity,
			Precipitation:      payload.Current.Rain.OneHour,
			PrecipProbability:  int(payload.Daily[0].Pop * 100),
			Pressure:           payload.Current.Pressure,
			Description:        firstDescription(payload.Current.Weather),
			Source:             types.SourceLive,
		},
	}

	days := payload.Daily
	if len(days) > forecastDays {
		days = days[:forecastDays]
	}
	for i, d := range days {
		bundle.Daily = append(bundle.Daily, types.WeatherObservation{
			Location:           loc.Name,
			Timestamp:          now.AddDate(0, 0, i),
			TemperatureMin:     d.Temp.Min,
			TemperatureCurrent: d.Temp.Day,
			TemperatureMax:     d.Temp.Max,
			WindSpeed:          msToKmh(d.WindSpeed),
			Humidity:           d.Humidity,
			Precipitation:      d.Rain,
			PrecipProbability:  int(d.Pop * 100),
			Pressure:           d.Pressure,
			Description:        firstDescription(d.Weather),
			Source:             types.SourceLive,
		})
	}

	return bundle, nil
}

// msToKmh converts upstream wind speeds (m/s) to the km/h used internally.
func msToKmh(ms float64) float64 {
	return ms * 3.6
}

func firstDescription(weather []struct {
	Description string `json:"description"`
}) string {
	if len(weather) == 0 {
		return ""
	}
	return weather[0].Description
}
