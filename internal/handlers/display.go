package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"solana-portfolio-tracker/internal/display"
	"solana-portfolio-tracker/internal/models"
	"solana-portfolio-tracker/pkg/logger"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

// loadingRefreshSeconds is how often the page reloads while the loading screen is up
const loadingRefreshSeconds = 1

// DisplayController is the part of the display controller the handlers use
type DisplayController interface {
	Snapshot() *display.Snapshot
	Restart()
	Running() bool
}

// DisplayHandler renders the display and exposes its state
type DisplayHandler struct {
	controller DisplayController
}

// NewDisplayHandler creates a new DisplayHandler instance
func NewDisplayHandler(controller DisplayController) *DisplayHandler {
	return &DisplayHandler{
		controller: controller,
	}
}

// LoadTemplates installs the page templates on engine
func LoadTemplates(engine *gin.Engine) {
	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"fixed": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}).ParseFS(templatesFS, "templates/*.html"))
	engine.SetHTMLTemplate(tmpl)
}

// GetPage handles GET / by rendering the current snapshot
func (h *DisplayHandler) GetPage(c *gin.Context) {
	snap := h.controller.Snapshot()

	refresh := loadingRefreshSeconds
	if !snap.Loading && snap.PollIntervalSeconds > 0 {
		refresh = snap.PollIntervalSeconds
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Snapshot": snap,
		"Refresh":  refresh,
	})
}

// GetSnapshot handles GET /api/display
func (h *DisplayHandler) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.Snapshot())
}

// Restart handles POST /api/display/restart
func (h *DisplayHandler) Restart(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	if !h.controller.Running() {
		models.HandleError(c, models.NewAppError(
			models.ErrorCodeDisplayUnavailable,
			"Display controller is not running",
		), log)
		return
	}

	h.controller.Restart()
	log.Info("Display restart requested")

	c.JSON(http.StatusAccepted, gin.H{
		"status": "restarting",
	})
}
