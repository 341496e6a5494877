package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/kjstillabower/crop-advisory-service/internal/dashboard"
	"github.com/kjstillabower/crop-advisory-service/internal/models"
	"github.com/kjstillabower/crop-advisory-service/internal/validation"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"trendArrow": trendArrow,
}).ParseFS(templateFS, "templates/dashboard.html"))

// pageData is the template input: the view plus the tab to show.
type pageData struct {
	dashboard.View
	ActiveTab string
}

// GetPage handles GET /sessions/{id}/page. ?tab= picks the visible tab;
// unknown values show the default tab.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r)
	if !ok {
		return
	}
	view := d.View()
	active := view.DefaultTab
	if tab, err := validation.ValidateTab(r.URL.Query().Get("tab")); err == nil {
		active = tab
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, pageData{View: view, ActiveTab: active}); err != nil {
		loggerFrom(r).Error("render dashboard page", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "RENDER_FAILED", "Unable to render dashboard")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func trendArrow(trend models.Trend) string {
	switch trend {
	case models.TrendUp:
		return "↑"
	case models.TrendDown:
		return "↓"
	default:
		return "→"
	}
}
