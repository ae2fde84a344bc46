// handlers/admin_routes.go
package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"hide-seek-bot/middleware"
	"hide-seek-bot/models"
	"hide-seek-bot/services"
)

const registerUsage = `body must be {"id": "<message id>", "preset": "green|yellow|teal|purple"} or {"id": "<message id>", "points": N, "remaining": N, "bonus": false}`

type registerItemRequest struct {
	ID        string `json:"id"`
	Preset    string `json:"preset"`
	Points    *int   `json:"points"`
	Remaining *int   `json:"remaining"`
	Bonus     bool   `json:"bonus"`
}

type itemView struct {
	models.Item
	Description string `json:"description"`
}

type leaderboardEntry struct {
	Rank       int    `json:"rank"`
	UserID     string `json:"user_id"`
	Points     int64  `json:"points"`
	BonusCount int64  `json:"bonus_count"`
}

func toItemView(item models.Item) itemView {
	return itemView{Item: item, Description: services.DescribeItem(item)}
}

// SetupScoreRoutes exposes the read-only score endpoints.
func SetupScoreRoutes(app *fiber.App, admin *services.AdminService) {
	app.Get("/scores/:user_id", func(c *fiber.Ctx) error {
		userID := c.Params("user_id")
		points, err := admin.QueryScore(c.UserContext(), userID)
		if err != nil {
			return respondError(c, err, "user_id must be a user id")
		}
		return c.JSON(fiber.Map{"user_id": userID, "points": points})
	})

	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		scores, err := admin.LeaderboardPage(c.UserContext(), page)
		if err != nil {
			return respondError(c, err, "page must be a positive integer")
		}
		offset := (page - 1) * admin.PageSize()
		entries := make([]leaderboardEntry, 0, len(scores))
		for i, s := range scores {
			entries = append(entries, leaderboardEntry{
				Rank:       offset + i + 1,
				UserID:     s.UserID,
				Points:     s.Points,
				BonusCount: s.BonusCount,
			})
		}
		return c.JSON(fiber.Map{"page": page, "page_size": admin.PageSize(), "entries": entries})
	})
}

// SetupAdminRoutes mounts item management behind the admin token and returns the /admin group.
func SetupAdminRoutes(app *fiber.App, admin *services.AdminService, token string) fiber.Router {
	group := app.Group("/admin", middleware.AdminAuthMiddleware(token))

	group.Post("/items", func(c *fiber.Ctx) error {
		var req registerItemRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body", "usage": registerUsage})
		}

		var existed bool
		var err error
		switch {
		case req.Preset != "":
			existed, err = admin.RegisterPreset(c.UserContext(), req.Preset, req.ID)
		case req.Points != nil && req.Remaining != nil:
			existed, err = admin.RegisterItem(c.UserContext(), req.ID, *req.Points, *req.Remaining, req.Bonus)
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "preset or points and remaining are required", "usage": registerUsage})
		}
		if err != nil {
			return respondError(c, err, registerUsage)
		}
		if existed {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "item already registered", "id": req.ID})
		}

		item, err := admin.Item(c.UserContext(), req.ID)
		if err != nil || item == nil {
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": req.ID})
		}
		return c.Status(fiber.StatusCreated).JSON(toItemView(*item))
	})

	group.Get("/items", func(c *fiber.Ctx) error {
		items, err := admin.Items(c.UserContext())
		if err != nil {
			return respondError(c, err, "")
		}
		views := make([]itemView, 0, len(items))
		for _, item := range items {
			views = append(views, toItemView(item))
		}
		return c.JSON(views)
	})

	group.Get("/items/:id", func(c *fiber.Ctx) error {
		item, err := admin.Item(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err, "id must be a message id")
		}
		if item == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "item not registered"})
		}
		return c.JSON(toItemView(*item))
	})

	group.Delete("/items/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		existed, err := admin.UnregisterItem(c.UserContext(), id)
		if err != nil {
			return respondError(c, err, "id must be a message id")
		}
		if !existed {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "item not registered"})
		}
		return c.JSON(fiber.Map{"deleted": id})
	})

	group.Get("/dump", func(c *fiber.Ctx) error {
		report, err := admin.Dump(c.UserContext())
		if err != nil {
			return respondError(c, err, "")
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(report)
	})

	group.Post("/dump/archive", func(c *fiber.Ctx) error {
		url, err := admin.ArchiveDump(c.UserContext())
		if err != nil {
			return respondError(c, err, "")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
	})

	return group
}

// SetupHiddenRoutes mounts hidden-set management for single-claim mode on the admin group.
func SetupHiddenRoutes(admin fiber.Router, single *services.SingleClaimService) {
	admin.Get("/hidden", func(c *fiber.Ctx) error {
		ids, err := single.Hidden(c.UserContext())
		if err != nil {
			return respondError(c, err, "")
		}
		return c.JSON(fiber.Map{"items": ids})
	})

	admin.Post("/hidden/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if err := single.Hide(c.UserContext(), id); err != nil {
			return respondError(c, err, "id must be a message id")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"hidden": id})
	})

	admin.Delete("/hidden/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		removed, err := single.Unhide(c.UserContext(), id)
		if err != nil {
			return respondError(c, err, "id must be a message id")
		}
		if !removed {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "item not hidden"})
		}
		return c.JSON(fiber.Map{"removed": id})
	})
}

func respondError(c *fiber.Ctx, err error, usage string) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		body := fiber.Map{"error": strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": ")}
		if usage != "" {
			body["usage"] = usage
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.Is(err, services.ErrStoreUnavailable):
		log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "store unavailable, try again"})
	case errors.Is(err, services.ErrArchiveDisabled):
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
