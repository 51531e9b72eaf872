package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// WeatherSkill answers current-conditions and simple forecast queries
// via the OpenWeather API. It needs an API key; without one the skill
// errors and routing falls through to the next stage.
type WeatherSkill struct {
	httpClient *http.Client
	apiBase    string
}

var imperialCountries = map[string]bool{"US": true}

var (
	weatherWordRx    = regexp.MustCompile(`(?i)\b(weather|forecast)\b`)
	weatherLocInRx   = regexp.MustCompile(`(?i)\b(?:in|for|at|near|around|and)\b\s+(.+)$`)
	weatherLocRevRx  = regexp.MustCompile(`(?i)^(.+?)\s*,?\s*(?:weather|forecast)\b`)
	forecastAskedRx  = regexp.MustCompile(`(?i)\bforecast\b`)
	shortCodeRx      = regexp.MustCompile(`^[A-Za-z]{1,3}$`)
	andToInRx        = regexp.MustCompile(`(?i)\band\b\s+`)
)

func (s *WeatherSkill) Name() string { return "weather" }
func (s *WeatherSkill) Description() string {
	return "Current conditions and simple forecasts via OpenWeather."
}

func (s *WeatherSkill) Triggers() []string {
	return []string{`\b(weather|forecast|temp(?:erature)?|rain|wind|snow|humidity|humid)\b`}
}

func (s *WeatherSkill) client() *http.Client {
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	return s.httpClient
}

func (s *WeatherSkill) base() string {
	if s.apiBase != "" {
		return s.apiBase
	}
	return "https://api.openweathermap.org"
}

// normalizeLocationText cleans up spoken location text: trims
// punctuation, fixes the common STT "and X" for "in X", title-cases
// words while uppercasing short region codes (tx, us, fr).
func normalizeLocationText(s string) string {
	s = strings.Trim(strings.TrimSpace(s), " .,!?:;\"'()[]{}")
	low := andToInRx.ReplaceAllString(strings.ToLower(s), "in ")
	words := strings.Fields(low)
	for i, w := range words {
		if shortCodeRx.MatchString(strings.Trim(w, ",")) {
			words[i] = strings.ToUpper(w)
		} else if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// extractLocationText is forgiving about phrasing:
// "what's the weather in Marble Falls, Texas?", "Marble Falls weather",
// "forecast for London".
func extractLocationText(query string) string {
	q := strings.TrimSpace(query)
	core := strings.TrimSpace(weatherWordRx.ReplaceAllString(q, ""))

	if m := weatherLocInRx.FindStringSubmatch(core); m != nil {
		return normalizeLocationText(m[1])
	}
	if m := weatherLocRevRx.FindStringSubmatch(q); m != nil {
		return normalizeLocationText(m[1])
	}
	if idx := strings.Index(q, ","); idx >= 0 {
		return normalizeLocationText(q[idx+1:])
	}
	if core != "" {
		return normalizeLocationText(core)
	}
	return normalizeLocationText(q)
}

type geoResult struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Name    string  `json:"name"`
	State   string  `json:"state"`
	Country string  `json:"country"`
}

func (s *WeatherSkill) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Orion/1.0 (+https://example.local)")

	resp, err := s.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var payload struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &payload)
		if payload.Message != "" {
			return fmt.Errorf("weather API: %s", payload.Message)
		}
		return fmt.Errorf("weather API: HTTP %d", resp.StatusCode)
	}
	return json.Unmarshal(body, out)
}

func (s *WeatherSkill) geocode(ctx context.Context, apiKey, locText string) (*geoResult, string, error) {
	if locText == "" {
		locText = "Austin, US"
	}

	query := func(loc string) ([]geoResult, error) {
		u := fmt.Sprintf("%s/geo/1.0/direct?q=%s&limit=1&appid=%s",
			s.base(), url.QueryEscape(loc), url.QueryEscape(apiKey))
		var results []geoResult
		if err := s.getJSON(ctx, u, &results); err != nil {
			return nil, err
		}
		return results, nil
	}

	results, err := query(locText)
	if err != nil {
		return nil, "", err
	}
	if len(results) == 0 && !strings.Contains(locText, ",") {
		// second chance: common U.S. towns
		results, err = query(locText + ", US")
		if err != nil {
			return nil, "", err
		}
	}
	if len(results) == 0 {
		return nil, "", nil
	}

	item := results[0]
	display := item.Name
	if display == "" {
		display = locText
	}
	switch {
	case item.State != "" && item.Country != "":
		display = fmt.Sprintf("%s, %s, %s", display, item.State, item.Country)
	case item.Country != "":
		display = fmt.Sprintf("%s, %s", display, item.Country)
	}
	return &item, display, nil
}

func unitsFor(country string) string {
	if imperialCountries[strings.ToUpper(country)] {
		return "imperial"
	}
	return "metric"
}

func fmtTemp(val float64, units string) string {
	unit := "C"
	if units == "imperial" {
		unit = "F"
	}
	return fmt.Sprintf("%.0f°%s", val, unit)
}

func fmtWind(speed float64, units string) string {
	unit := "m/s"
	if units == "imperial" {
		unit = "mph"
	}
	return fmt.Sprintf("%.0f %s", speed, unit)
}

type currentWeather struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64  `json:"temp"`
		FeelsLike float64  `json:"feels_like"`
		Humidity  *float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type forecastResponse struct {
	City struct {
		Timezone int `json:"timezone"` // seconds offset from UTC
	} `json:"city"`
	List []struct {
		Dt      int64 `json:"dt"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	} `json:"list"`
}

func (s *WeatherSkill) Run(ctx context.Context, query string, sc *Context) (string, error) {
	apiKey := ""
	if sc != nil && sc.Cfg != nil {
		apiKey = sc.Cfg.Skills.OpenWeatherAPIKey
	}
	if apiKey == "" {
		return "", fmt.Errorf("openweather API key not set")
	}

	locText := extractLocationText(query)
	if locText == "" {
		if sc != nil && sc.Mem != nil {
			if def, ok := sc.Mem.Recall("weather_default"); ok {
				locText = def
			}
		}
	}

	geo, display, err := s.geocode(ctx, apiKey, locText)
	if err != nil {
		return "", err
	}
	if geo == nil {
		return fmt.Sprintf("Sorry, I couldn't find that location: %q.", locText), nil
	}
	units := unitsFor(geo.Country)

	if forecastAskedRx.MatchString(query) {
		return s.forecast(ctx, apiKey, geo, display, units)
	}
	return s.current(ctx, apiKey, geo, display, units)
}

func (s *WeatherSkill) current(ctx context.Context, apiKey string, geo *geoResult, display, units string) (string, error) {
	u := fmt.Sprintf("%s/data/2.5/weather?lat=%f&lon=%f&units=%s&appid=%s",
		s.base(), geo.Lat, geo.Lon, units, url.QueryEscape(apiKey))
	var j currentWeather
	if err := s.getJSON(ctx, u, &j); err != nil {
		return "", err
	}

	desc := ""
	if len(j.Weather) > 0 {
		desc = titleCaseWords(j.Weather[0].Description)
	}
	humidity := ""
	if j.Main.Humidity != nil {
		humidity = fmt.Sprintf(", humidity %.0f%%", *j.Main.Humidity)
	}
	return fmt.Sprintf("%s: %s. Temp %s (feels %s), wind %s%s.",
		display, desc,
		fmtTemp(j.Main.Temp, units), fmtTemp(j.Main.FeelsLike, units),
		fmtWind(j.Wind.Speed, units), humidity), nil
}

func (s *WeatherSkill) forecast(ctx context.Context, apiKey string, geo *geoResult, display, units string) (string, error) {
	// cnt=8 is ~24h at 3h steps; we show the next ~12 hours.
	u := fmt.Sprintf("%s/data/2.5/forecast?lat=%f&lon=%f&units=%s&cnt=8&appid=%s",
		s.base(), geo.Lat, geo.Lon, units, url.QueryEscape(apiKey))
	var j forecastResponse
	if err := s.getJSON(ctx, u, &j); err != nil {
		return "", err
	}

	loc := time.FixedZone("local", j.City.Timezone)
	var rows []string
	for i, e := range j.List {
		if i >= 4 {
			break
		}
		local := time.Unix(e.Dt, 0).In(loc)
		hhmm := strings.TrimPrefix(local.Format("3PM"), "0")
		desc := ""
		if len(e.Weather) > 0 {
			desc = titleCaseWords(e.Weather[0].Description)
		}
		rows = append(rows, fmt.Sprintf("%s: %s, %s", hhmm, desc, fmtTemp(e.Main.Temp, units)))
	}
	if len(rows) == 0 {
		return fmt.Sprintf("%s: No forecast data available.", display), nil
	}
	return fmt.Sprintf("%s — next 12 hours:\n%s", display, strings.Join(rows, "; ")), nil
}

func titleCaseWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func init() {
	RegisterFactory("weather", func() Skill { return &WeatherSkill{} })
}
