package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cvbuilder/backend/internal/form"
	"github.com/cvbuilder/backend/internal/middleware"
	"github.com/cvbuilder/backend/internal/models"
	"github.com/cvbuilder/backend/internal/services"
	"github.com/cvbuilder/backend/internal/templates"
)

const heartbeatInterval = 25 * time.Second

type CVHandler struct {
	cvs       *services.CVService
	logger    *zap.SugaredLogger
	maxUpload int64
	baseURL   string
}

func NewCVHandler(cvs *services.CVService, logger *zap.SugaredLogger, maxUploadBytes int64, baseURL string) *CVHandler {
	return &CVHandler{
		cvs:       cvs,
		logger:    logger,
		maxUpload: maxUploadBytes,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// savePayload is the JSON body, or the "data" part of a multipart body.
type savePayload struct {
	Values      models.CVForm `json:"values"`
	Template    string        `json:"template"`
	RemoveImage bool          `json:"remove_image"`
}

func (h *CVHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	list := h.cvs.Templates().List()
	out := make([]models.TemplateInfo, 0, len(list))
	for _, t := range list {
		out = append(out, t.Info())
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(out))
}

func (h *CVHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.cvs.List(r.Context(), middleware.CurrentPrincipal(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, "ListCVs", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(h.summaries(docs)))
}

// Stream pushes the full CV list as a server-sent event on every change.
func (h *CVHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Streaming unsupported"))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	p := middleware.CurrentPrincipal(ctx)
	updates, err := h.cvs.Subscribe(ctx, p)
	if err != nil {
		writeServiceError(w, h.logger, "StreamCVs", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case docs, ok := <-updates:
			if !ok {
				return
			}
			b, err := json.Marshal(h.summaries(docs))
			if err != nil {
				h.logger.Errorw("StreamCVs: encode failed", "user_id", p.ID, "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: cvs\ndata: %s\n\n", b); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// New returns the values a fresh form starts with.
func (h *CVHandler) New(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.CVEditView{
		Values:   form.New().Values(),
		Template: templates.DefaultKey,
	}))
}

// Get loads a CV into the edit form.
func (h *CVHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cvId")
	doc, err := h.cvs.GetOwned(r.Context(), middleware.CurrentPrincipal(r.Context()), id)
	if err != nil {
		writeServiceError(w, h.logger, "GetCV", err)
		return
	}

	view := models.CVEditView{
		ID:       doc.ID,
		Values:   form.FromDocument(doc).Values(),
		Template: h.cvs.Templates().ResolveIndex(doc.TemplateIndex).Key,
	}
	if doc.HasImage() {
		view.Image = &models.ImageView{Src: doc.ImgSrc, ID: doc.ImgID}
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(view))
}

// Validate reports field errors without saving, for inline form feedback.
func (h *CVHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var values models.CVForm
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	st := form.New()
	st.Replace(values)
	errs, _ := st.Submit(r.Context(), func(context.Context, models.CVForm) error { return nil })
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]bool{"valid": true}))
}

func (h *CVHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, services.ModeCreate, "")
}

func (h *CVHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, services.ModeEdit, chi.URLParam(r, "cvId"))
}

func (h *CVHandler) save(w http.ResponseWriter, r *http.Request, mode services.SaveMode, id string) {
	p := middleware.CurrentPrincipal(r.Context())
	if p == nil {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	req, err := h.decodeSave(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse(err.Error()))
		return
	}
	req.Mode = mode
	req.ID = id

	savedID, err := h.cvs.Save(r.Context(), p, req)
	if err != nil {
		writeServiceError(w, h.logger, "SaveCV", err)
		return
	}

	status := http.StatusOK
	if mode == services.ModeCreate {
		status = http.StatusCreated
	}
	writeJSON(w, status, models.NewSuccessResponse(models.SaveCVResponse{
		ID:          savedID,
		DownloadURL: h.downloadURL(savedID),
	}))
}

var errBadImage = errors.New("Invalid image type. Allowed: PNG, JPEG")

func (h *CVHandler) decodeSave(r *http.Request) (services.SaveRequest, error) {
	var req services.SaveRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType != "multipart/form-data" {
		var payload savePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return req, errors.New("Invalid request body")
		}
		return payloadRequest(payload), nil
	}

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return req, errors.New("File too large or invalid form data")
	}
	var payload savePayload
	if err := json.Unmarshal([]byte(r.FormValue("data")), &payload); err != nil {
		return req, errors.New("Invalid data field")
	}
	if v := r.FormValue("remove_image"); v != "" {
		payload.RemoveImage, _ = strconv.ParseBool(v)
	}
	req = payloadRequest(payload)

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return req, errors.New("Invalid image file")
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		return req, errors.New("Image too large")
	}
	b, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil || int64(len(b)) > h.maxUpload {
		return req, errors.New("Image too large")
	}
	contentType := http.DetectContentType(b)
	declared := header.Header.Get("Content-Type")
	if !isValidImageType(contentType) || (declared != "" && !isValidImageType(declared)) {
		return req, errBadImage
	}

	req.Image = services.ImageIntent{
		Action:      services.ImageAttached,
		Reader:      bytes.NewReader(b),
		ContentType: contentType,
	}
	return req, nil
}

func payloadRequest(p savePayload) services.SaveRequest {
	req := services.SaveRequest{Values: p.Values, Template: p.Template}
	if p.RemoveImage {
		req.Image.Action = services.ImageRemoved
	}
	return req
}

func (h *CVHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cvId")
	if err := h.cvs.Delete(r.Context(), middleware.CurrentPrincipal(r.Context()), id); err != nil {
		writeServiceError(w, h.logger, "DeleteCV", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "CV deleted successfully"}))
}

// Preview renders a stored CV as HTML. Only the owner may preview.
func (h *CVHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cvId")
	if _, err := h.cvs.GetOwned(r.Context(), middleware.CurrentPrincipal(r.Context()), id); err != nil {
		writeServiceError(w, h.logger, "PreviewCV", err)
		return
	}
	out, err := h.cvs.Preview(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "PreviewCV", err)
		return
	}
	writeRendered(w, out, false)
}

// PreviewDraft renders the posted, unsaved form.
func (h *CVHandler) PreviewDraft(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		savePayload
		ImgSrc string `json:"imgSrc"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	out, err := h.cvs.PreviewDraft(payload.Values, payload.Template, payload.ImgSrc)
	if err != nil {
		writeServiceError(w, h.logger, "PreviewDraft", err)
		return
	}
	writeRendered(w, out, false)
}

// Download streams the PDF export. Unknown ids send the user back to their
// profile.
func (h *CVHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("CVID")
	out, err := h.cvs.Export(r.Context(), id)
	if errors.Is(err, services.ErrCVNotFound) {
		http.Redirect(w, r, "/profile", http.StatusFound)
		return
	}
	if err != nil {
		h.logger.Errorw("DownloadCV: export failed", "cv_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to export CV"))
		return
	}
	writeRendered(w, out, true)
}

func writeRendered(w http.ResponseWriter, out *services.Rendered, attachment bool) {
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Body)))
	if out.Filename != "" {
		disposition := "inline"
		if attachment {
			disposition = "attachment"
		}
		w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": out.Filename}))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(out.Body)
}

func (h *CVHandler) summaries(docs []*models.CVDocument) []models.CVSummary {
	out := make([]models.CVSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.CVSummary{
			ID:            d.ID,
			ProjectName:   d.DisplayName(),
			TemplateIndex: d.TemplateIndex,
			ImgSrc:        d.ImgSrc,
			CreatedAt:     d.CreatedAt,
			PreviewURL:    "/api/cvs/" + d.ID + "/preview",
			DownloadURL:   h.downloadURL(d.ID),
			EditURL:       "/new-cv?id=" + url.QueryEscape(d.ID),
		})
	}
	return out
}

func (h *CVHandler) downloadURL(id string) string {
	return h.baseURL + "/downloadCV?CVID=" + url.QueryEscape(id)
}

func isValidImageType(contentType string) bool {
	validTypes := map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
	}
	return validTypes[contentType]
}
