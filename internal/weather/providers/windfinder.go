package providers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"

	"github.com/i474232898/windboard/internal/common"
	"github.com/i474232898/windboard/internal/weather"
)

const windfinderDayLayout = "Monday, Jan 2"

// NormalizeWindfinder extracts forecast rows from a windfinder forecast page.
// Each day block carries a headline such as "Monday, Jun 23"; each row carries
// an hour ("14h"), speed and gust in mph, a direction arrow whose title is the
// bearing relative to south, and a temperature.
//
// A row is skipped when any of time, speed, gust, direction or temperature is
// missing, unparsable or zero. A real calm (0 mph) row is dropped too.
func NormalizeWindfinder(doc *goquery.Document, loc *time.Location, year int) []weather.ForecastPoint {
	var points []weather.ForecastPoint

	doc.Find("div.weathertable.forecast-day").Each(func(_ int, day *goquery.Selection) {
		headline := strings.TrimSpace(day.Find("h3.weathertable__headline").First().Text())
		date, err := time.Parse(windfinderDayLayout, headline)
		if err != nil {
			return
		}

		day.Find("div.weathertable__row").Each(func(_ int, row *goquery.Selection) {
			if p, ok := windfinderRow(row, date, loc, year); ok {
				points = append(points, p)
			}
		})
	})

	return points
}

func windfinderRow(row *goquery.Selection, date time.Time, loc *time.Location, year int) (weather.ForecastPoint, bool) {
	hourText := strings.TrimSpace(firstText(row, "div.data-time span.value"))
	hour, err := strconv.Atoi(strings.TrimSuffix(hourText, "h"))
	if hourText == "" || err != nil || hour < 0 || hour > 23 {
		return weather.ForecastPoint{}, false
	}

	speed := selectionFloat(row, "div.data-bar span.units-ws")
	gust := selectionFloat(row, "div.data-gusts span.units-ws")
	temp := selectionFloat(row, "div.data-temp span.units-at")

	var direction float64
	if title, ok := row.Find("div.directionarrow").First().Attr("title"); ok {
		if deg, err := common.ParseFloat(strings.TrimSpace(strings.ReplaceAll(title, "°", ""))); err == nil && deg != 0 {
			direction = weather.FlipDirection(deg)
		}
	}

	if speed == 0 || gust == 0 || direction == 0 || temp == 0 {
		return weather.ForecastPoint{}, false
	}

	ts := time.Date(year, date.Month(), date.Day(), hour, 0, 0, 0, loc)
	return weather.ForecastPoint{
		Time:        ts.Unix(),
		SpeedKnots:  weather.MilesPerHourToKnots(speed),
		GustKnots:   weather.MilesPerHourToKnots(gust),
		Direction:   direction,
		Temperature: temp,
	}, true
}

func firstText(s *goquery.Selection, selector string) string {
	return s.Find(selector).First().Text()
}

// selectionFloat returns 0 for a missing or unparsable element.
func selectionFloat(s *goquery.Selection, selector string) float64 {
	sel := s.Find(selector).First()
	if sel.Length() == 0 {
		return 0
	}
	v, err := common.ParseFloat(strings.TrimSpace(sel.Text()))
	if err != nil {
		return 0
	}
	return v
}

// WindfinderProvider scrapes the windfinder forecast page of one spot.
type WindfinderProvider struct {
	name    string
	spot    string
	baseURL string
	loc     *time.Location
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewWindfinderProvider(client *http.Client, spot string, loc *time.Location) *WindfinderProvider {
	return &WindfinderProvider{
		name:    "windfinder",
		spot:    spot,
		baseURL: "https://www.windfinder.com/forecast/",
		loc:     loc,
		httpCfg: DefaultHTTPConfig(client),
		circuit: newCircuit("windfinder"),
		now:     time.Now,
	}
}

func (p *WindfinderProvider) Name() string {
	return p.name
}

func (p *WindfinderProvider) Units() weather.Units {
	return weather.Units{Temperature: "C", WindSpeed: "mph"}
}

func (p *WindfinderProvider) Forecast(ctx context.Context) ([]weather.ForecastPoint, error) {
	now := p.now()
	values := url.Values{}
	values.Set("tz", fmt.Sprintf("%d", utcOffsetHours(now, p.loc)))

	body, err := getWithResilience(ctx, p.httpCfg, p.circuit, p.baseURL+url.PathEscape(p.spot)+"?"+values.Encode())
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse windfinder page: %w", err)
	}
	return NormalizeWindfinder(doc, p.loc, now.In(p.loc).Year()), nil
}
