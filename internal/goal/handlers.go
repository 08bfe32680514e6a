package goal

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var goal Goal
		if err := c.BodyParser(&goal); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		goal.UserID, _ = c.Locals("user_id").(string)
		if goal.UserID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user_id missing")
		}

		created, err := svc.CreateGoal(c.Context(), goal)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		goals, err := svc.Goals(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(goals)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		goal, err := svc.GetGoal(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "goal not found")
		}
		return c.JSON(goal)
	})

	r.Get("/:id/progress", authMiddleware, func(c *fiber.Ctx) error {
		progress, err := svc.Progress(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(progress)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var patch Goal
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		updated, err := svc.UpdateGoal(c.Context(), c.Params("id"), patch)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(updated)
	})

	r.Patch("/:id/active", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Active bool `json:"active"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := svc.SetActive(c.Context(), c.Params("id"), req.Active); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteGoal(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
