package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/windboard/internal/history"
	"github.com/i474232898/windboard/internal/store"
	"github.com/i474232898/windboard/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, ingestor *history.Ingestor) {
	v1 := app.Group("/api/v1")

	v1.Get("/providers", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"providers": service.Providers(),
		})
	})

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		var q boardQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		board, err := service.Board(q.days())
		if err != nil {
			if errors.Is(err, weather.ErrNoProviders) {
				return fiber.NewError(fiber.StatusServiceUnavailable, "no providers configured")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to build forecast board")
		}
		return c.JSON(board)
	})

	v1.Get("/forecast/:provider", func(c *fiber.Ctx) error {
		snap, err := service.Latest(c.Params("provider"))
		if err != nil {
			switch {
			case errors.Is(err, weather.ErrUnknownProvider):
				return fiber.NewError(fiber.StatusNotFound, "unknown provider")
			case errors.Is(err, store.ErrNotFound):
				return fiber.NewError(fiber.StatusNotFound, "no forecast data for provider yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch forecast")
		}
		return c.JSON(snap)
	})

	v1.Get("/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := ingestor.Records(req.From, req.To)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read observation history")
		}
		if records == nil {
			records = []weather.ForecastPoint{}
		}

		return c.JSON(fiber.Map{
			"from":    req.From,
			"to":      req.To,
			"records": records,
		})
	})
}

// boardQuery holds query parameters for the aligned board.
type boardQuery struct {
	Days *int `validate:"omitempty,min=1,max=14"`
}

// days returns 0 when the horizon was not given, leaving the configured default.
func (b boardQuery) days() int {
	if b.Days == nil {
		return 0
	}
	return *b.Days
}

func (b *boardQuery) bind(c *fiber.Ctx) error {
	s := c.Query("days")
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("days must be an integer")
	}
	b.Days = &n
	return nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
