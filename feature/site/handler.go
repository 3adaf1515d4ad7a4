package site

import (
	"errors"
	"strings"

	"rebelinux-site/core/logger"
	"rebelinux-site/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StateHeader reports the outcome of the page's component cycle.
const StateHeader = "X-Components-State"

// Handler handles HTTP requests for pages and fragments.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the site routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/components/:name", h.HandleFragment)
	app.Get("/", h.HandlePage)
	app.Get("/:page", h.HandlePage)
}

// HandleFragment serves a shared fragment.
// @Summary Get Fragment
// @Description Returns a shared HTML fragment (header.html, footer.html) from storage.
// @Tags site
// @Produce html
// @Param name path string true "Fragment file name"
// @Success 200 {string} string "Fragment markup"
// @Failure 400 {object} map[string]string "Invalid name"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /components/{name} [get]
func (h *Handler) HandleFragment(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	name := c.Params("name")

	body, err := h.service.Fragment(c.Context(), name)
	if err != nil {
		return h.fail(c, l, "Fragment request failed", err)
	}

	c.Type("html", "utf-8")
	return c.Send(body)
}

// HandlePage assembles and serves a page.
// @Summary Get Page
// @Description Assembles a page shell with its shared fragments. Fragment failures degrade the page instead of failing the request.
// @Tags site
// @Produce html
// @Param page path string false "Page name (defaults to index)"
// @Success 200 {string} string "Assembled page"
// @Failure 400 {object} map[string]string "Invalid name"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /{page} [get]
func (h *Handler) HandlePage(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	name := strings.TrimSuffix(c.Params("page", "index"), ".html")

	page, err := h.service.Page(c.Context(), name, c.Path(), l)
	if err != nil {
		return h.fail(c, l, "Page assembly failed", err)
	}

	if page.CycleErr != nil {
		l.Warn("Page served without some components",
			zap.String("page", name),
			zap.Strings("failed", page.Report.Failed),
			zap.Error(page.CycleErr))
		c.Set(StateHeader, "error")
	} else {
		c.Set(StateHeader, "loaded")
	}

	c.Type("html", "utf-8")
	return c.Send(page.HTML)
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	switch {
	case errors.Is(err, ErrInvalidName):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	default:
		l.Error(msg, zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
