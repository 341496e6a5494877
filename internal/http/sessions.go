package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/crop-advisory-service/internal/dashboard"
	"github.com/kjstillabower/crop-advisory-service/internal/models"
	"github.com/kjstillabower/crop-advisory-service/internal/validation"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const multipartMemory = 1 << 20

// Index handles GET /: opens a new dashboard and redirects the browser to it.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	d, err := h.sessions.Create(r.Context())
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	http.Redirect(w, r, pagePath(d.ID()), http.StatusSeeOther)
}

// CreateSession handles POST /sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	d, err := h.sessions.Create(r.Context())
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+d.ID())
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":   d.ID(),
		"view": d.View(),
	})
}

// GetSession handles GET /sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, d.View())
}

// GetTab handles GET /sessions/{id}/tabs/{tab}.
func (h *Handler) GetTab(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r)
	if !ok {
		return
	}
	tab, err := d.Tab(mux.Vars(r)["tab"])
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tab)
}

// DeleteSession handles DELETE /sessions/{id}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ValidateSessionID(mux.Vars(r)["id"])
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	if err := h.sessions.Delete(id); err != nil {
		writeSessionError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectLanguage handles PUT and POST /sessions/{id}/language.
func (h *Handler) SelectLanguage(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r)
	if !ok {
		return
	}
	var body struct {
		Language string `json:"language"`
	}
	if !decodeBody(w, r, &body, func(form map[string][]string) {
		body.Language = first(form["language"])
	}) {
		return
	}
	if err := d.SelectLanguage(body.Language); err != nil {
		writeSessionError(w, r, err)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, pagePath(d.ID()), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"language": d.Language()})
}

// PressAlerts handles POST /sessions/{id}/alerts. The button does nothing.
func (h *Handler) PressAlerts(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r)
	if !ok {
		return
	}
	if err := d.PressAlerts(); err != nil {
		writeSessionError(w, r, err)
		return
	}
	h.respondAccepted(w, r, d, http.StatusNoContent, nil)
}

// UploadPestImage handles POST /sessions/{id}/pest-image. The multipart field
// "image" carries the file; any file type is accepted and its bytes are never
// inspected. A request without the field is a no-op.
func (h *Handler) UploadPestImage(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isBodyTooLarge(err) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE",
				"upload exceeds "+strconv.FormatInt(h.maxUploadBytes, 10)+" bytes")
			return
		}
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "expected multipart/form-data body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		h.respondAccepted(w, r, d, http.StatusNoContent, nil)
		return
	}
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "unreadable image field")
		return
	}
	_ = file.Close()

	img := &models.UploadedImage{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		ReceivedAt:  time.Now().UTC(),
	}
	if err := d.UploadPestImage(img); err != nil {
		writeSessionError(w, r, err)
		return
	}
	h.respondAccepted(w, r, d, http.StatusAccepted, map[string]interface{}{"image": img})
}

// SetDraft handles PUT /sessions/{id}/chat/draft.
func (h *Handler) SetDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r)
	if !ok {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &body, func(form map[string][]string) {
		body.Text = first(form["text"])
	}) {
		return
	}
	if err := d.SetDraft(body.Text); err != nil {
		writeSessionError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitChat handles POST /sessions/{id}/chat. Without a text field the
// current draft is submitted. Whitespace-only text is a no-op (204).
func (h *Handler) SubmitChat(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r)
	if !ok {
		return
	}
	var body struct {
		Text *string `json:"text"`
	}
	if !decodeBody(w, r, &body, func(form map[string][]string) {
		if v, present := form["text"]; present {
			text := first(v)
			body.Text = &text
		}
	}) {
		return
	}
	text := d.Draft()
	if body.Text != nil {
		text = *body.Text
	}
	sent, err := d.SubmitChatMessage(text)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	if !sent {
		h.respondAccepted(w, r, d, http.StatusNoContent, nil)
		return
	}
	h.respondAccepted(w, r, d, http.StatusAccepted, map[string]bool{"sent": true})
}

// ListNotifications handles GET /sessions/{id}/notifications?after=N.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboardFor(w, r)
	if !ok {
		return
	}
	after, err := parseAfter(r.URL.Query().Get("after"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", "after must be a non-negative integer")
		return
	}
	resp := map[string]interface{}{
		"notifications": d.Feed().Since(after),
		"latest":        nil,
	}
	if n, ok := d.Feed().Latest(); ok {
		resp["latest"] = n
	}
	writeJSON(w, http.StatusOK, resp)
}

// dashboardFor resolves the {id} path variable. On failure the error response
// is already written.
func (h *Handler) dashboardFor(w http.ResponseWriter, r *http.Request) (*dashboard.Dashboard, bool) {
	id, err := validation.ValidateSessionID(mux.Vars(r)["id"])
	if err != nil {
		writeSessionError(w, r, err)
		return nil, false
	}
	d, err := h.sessions.Get(id)
	if err != nil {
		writeSessionError(w, r, err)
		return nil, false
	}
	return d, true
}

// respondAccepted finishes a mutating request: browsers are sent back to the
// page, API clients get status and optional body.
func (h *Handler) respondAccepted(w http.ResponseWriter, r *http.Request, d *dashboard.Dashboard, status int, body interface{}) {
	if wantsHTML(r) {
		http.Redirect(w, r, pagePath(d.ID()), http.StatusSeeOther)
		return
	}
	if body == nil {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, body)
}

// decodeBody reads a JSON body into v, or hands form values to fromForm. An
// empty body leaves v untouched. Returns false after writing a 400.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, fromForm func(map[string][]string)) bool {
	if isJSON(r) {
		err := json.NewDecoder(r.Body).Decode(v)
		if err != nil && !errors.Is(err, io.EOF) {
			writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "malformed JSON body")
			return false
		}
		return true
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "malformed form body")
		return false
	}
	fromForm(r.PostForm)
	return true
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// wantsHTML reports whether the request came from a browser form.
func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

func parseAfter(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func pagePath(id string) string {
	return "/sessions/" + id + "/page"
}

func loggerFrom(r *http.Request) *zap.Logger {
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}
