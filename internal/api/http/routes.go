// Package httpapi exposes the engine's observable state and mutators to a
// presentation client over HTTP. It holds no state of its own.
package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"glasscast/internal/auth"
	"glasscast/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, engine *weather.Engine, gate *auth.Gate) {
	v1 := app.Group("/api/v1")

	v1.Post("/auth/register", func(c *fiber.Ctx) error {
		req, err := parseCredentials(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := gate.Register(c.Context(), req.Email, req.Password); err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"authenticated": gate.Authenticated()})
	})

	v1.Post("/auth/login", func(c *fiber.Ctx) error {
		req, err := parseCredentials(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := gate.Login(c.Context(), req.Email, req.Password); err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"authenticated": true})
	})

	v1.Post("/auth/logout", func(c *fiber.Ctx) error {
		gate.SignOut()
		return c.JSON(fiber.Map{"authenticated": false})
	})

	// The observable working set: what a UI binds to.
	v1.Get("/state", func(c *fiber.Ctx) error {
		state := fiber.Map{
			"favoriteCities":  engine.FavoriteCities(),
			"loading":         engine.Loading(),
			"lastError":       engine.LastError(),
			"citySuggestions": engine.Suggestions(),
			"authenticated":   gate.Authenticated(),
		}
		if current, ok := engine.CurrentCity(); ok {
			state["currentCity"] = current
		}
		return c.JSON(state)
	})

	v1.Get("/cities/suggest", func(c *fiber.Ctx) error {
		suggestions := engine.FetchSuggestions(c.Context(), c.Query("q"))
		return c.JSON(fiber.Map{"suggestions": suggestions})
	})

	v1.Post("/cities/current", func(c *fiber.Ctx) error {
		var req resolveRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		record, err := engine.ResolveCityByQuery(c.Context(), req.Query)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(record)
	})

	v1.Post("/favorites", func(c *fiber.Ctx) error {
		var req favoriteRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		record, err := engine.AddFavorite(c.Context(), req.ID, req.Name)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(record)
	})

	v1.Get("/favorites/server", func(c *fiber.Ctx) error {
		ids, err := engine.ServerFavoriteIDs(c.Context())
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"cityIds": ids})
	})

	v1.Post("/favorites/refresh", func(c *fiber.Ctx) error {
		if err := engine.RefreshFavorites(c.Context()); err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"favoriteCities": engine.FavoriteCities()})
	})
}

type resolveRequest struct {
	Query string `json:"query" validate:"required"`
}

type favoriteRequest struct {
	ID   int    `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func parseCredentials(c *fiber.Ctx) (credentialsRequest, error) {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return req, err
	}
	if err := validate.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

// toHTTPError maps the engine/gate error taxonomy to status codes.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, weather.ErrSearch):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, weather.ErrFetch), errors.Is(err, weather.ErrFavorite):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, auth.ErrAuth):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
