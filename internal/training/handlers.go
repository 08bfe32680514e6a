package training

import (
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

type sessionRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ActivityType string   `json:"activity_type"`
	Date         string   `json:"date"`
	StartTime    string   `json:"start_time"`
	DurationSec  *int64   `json:"duration_sec"`
	DistanceKm   *float64 `json:"distance_km"`
	Calories     *int     `json:"calories"`
}

func (req sessionRequest) toSession() Session {
	session := Session{
		Title:        req.Title,
		Description:  req.Description,
		ActivityType: req.ActivityType,
		DurationSec:  req.DurationSec,
		DistanceKm:   req.DistanceKm,
		Calories:     req.Calories,
	}
	if d, err := time.Parse("2006-01-02", req.Date); err == nil {
		session.Date = &d
	}
	if ts, err := time.Parse(time.RFC3339, req.StartTime); err == nil {
		session.StartTime = &ts
	}
	return session
}

// RegisterRoutes wires the session endpoints. defaultWeightKg is the
// explicit calorie fallback used when no weight accompanies an upload.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler, defaultWeightKg float64) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req sessionRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		input := req.toSession()
		input.UserID, _ = c.Locals("user_id").(string)
		if input.UserID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user_id missing")
		}

		session, err := svc.CreateManual(c.Context(), input)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	r.Post("/upload", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user_id missing")
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file required")
		}
		f, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		// The profile weight comes with the request; the config fallback is
		// applied here at the boundary, never inside the derivation.
		weight := defaultWeightKg
		if v := c.FormValue("weight_kg"); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
				weight = parsed
			}
		}

		session, err := svc.Ingest(c.Context(), userID, &weight, fileHeader.Filename, data)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		sessions, err := svc.Sessions(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(sessions)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		session, err := svc.GetSession(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		return c.JSON(session)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req sessionRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		session, err := svc.UpdateSession(c.Context(), c.Params("id"), req.toSession())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(session)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteSession(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/points", authMiddleware, func(c *fiber.Ctx) error {
		points, err := svc.Points(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(points)
	})
}
