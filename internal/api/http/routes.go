package httpapi

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/renewable-site-aggregation/internal/grid"
	"github.com/i474232898/renewable-site-aggregation/internal/site"
	"github.com/i474232898/renewable-site-aggregation/internal/store"
	"github.com/i474232898/renewable-site-aggregation/internal/yield"
)

var validate = validator.New()

// classification errors raised by a refresh; they describe bad site or grid
// input rather than a server fault.
var unprocessable = []error{
	grid.ErrOutOfRange,
	grid.ErrIrregularAxis,
	grid.ErrInvalidResource,
	site.ErrUnresolvedSite,
	site.ErrInvalidSite,
	site.ErrInvalidCapacity,
	site.ErrDuplicateName,
	yield.ErrAmbiguousCellSelection,
	yield.ErrSiteNotInLayout,
	yield.ErrNoSites,
}

// ErrorHandler renders every error as a JSON body with the status code of
// the fiber.Error it carries, or 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *yield.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/sites", func(c *fiber.Ctx) error {
		run, err := service.Latest()
		if err != nil {
			return toHTTPError(err, "failed to load latest run")
		}
		return c.JSON(fiber.Map{
			"runId":      run.ID,
			"computedAt": run.ComputedAt,
			"provider":   run.Provider,
			"sites":      run.Summaries(),
		})
	})

	v1.Get("/sites/:name", func(c *fiber.Ctx) error {
		name, err := siteName(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		series, err := service.Site(name)
		if err != nil {
			return toHTTPError(err, "failed to load site series")
		}
		return c.JSON(series)
	})

	v1.Get("/sites/:name/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		points, err := service.History(req.Name, req.From, req.To)
		if err != nil {
			return toHTTPError(err, "failed to load site history")
		}

		return c.JSON(fiber.Map{
			"site":   req.Name,
			"from":   req.From,
			"to":     req.To,
			"points": points,
		})
	})

	v1.Get("/layout", func(c *fiber.Ctx) error {
		run, err := service.Latest()
		if err != nil {
			return toHTTPError(err, "failed to load latest run")
		}
		return c.JSON(fiber.Map{
			"runId":  run.ID,
			"axes":   run.Axes,
			"layout": run.Layout,
		})
	})

	v1.Post("/refresh", func(c *fiber.Ctx) error {
		run, err := service.Refresh(c.UserContext())
		if err != nil {
			return toHTTPError(err, "refresh failed")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"runId":      run.ID,
			"computedAt": run.ComputedAt,
			"provider":   run.Provider,
			"sites":      run.Summaries(),
		})
	})
}

func toHTTPError(err error, fallback string) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, yield.ErrUnknownSite) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	for _, target := range unprocessable {
		if errors.Is(err, target) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
	}
	return fiber.NewError(fiber.StatusInternalServerError, fallback+": "+err.Error())
}

func siteName(c *fiber.Ctx) (string, error) {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return "", err
	}
	if err := validate.Var(name, "required,max=256"); err != nil {
		return "", errors.New("invalid site name")
	}
	return name, nil
}

// historyQuery holds the parameters of the history endpoint.
type historyQuery struct {
	Name string    `validate:"required"`
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	name, err := siteName(c)
	if err != nil {
		return err
	}
	h.Name = name

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
