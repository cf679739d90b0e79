package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romariotrain/shortfeed/internal/video/domain"
	"github.com/romariotrain/shortfeed/internal/video/models"
	"github.com/romariotrain/shortfeed/internal/video/service"
)

// UserHeader carries the id of the uploading user. Authentication happens in
// front of this service.
const UserHeader = "X-User-ID"

// multipart overhead allowed on top of the clip itself
const formOverhead = 1 << 20

type Handler struct {
	svc *service.Service
	log zerolog.Logger
}

func New(svc *service.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		svc: svc,
		log: logger.With().Str("component", "http_api").Logger(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListFeed(w http.ResponseWriter, r *http.Request) {
	videos, err := h.svc.ListFeed(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVideoListResponse(videos))
}

func (h *Handler) ListQueue(w http.ResponseWriter, r *http.Request) {
	videos, err := h.svc.ListQueue(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVideoListResponse(videos))
}

func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}

	get := h.svc.GetPublicVideo
	if isModerator(r.Context()) {
		get = h.svc.GetVideo
	}
	v, err := get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVideoResponse(v))
}

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}
	defer r.Body.Close()

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid json body")
		return
	}
	decision, err := domain.ParseDecision(req.Decision)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	v, err := h.svc.Decide(r.Context(), id, decision)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVideoResponse(v))
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	owner, err := uuid.Parse(strings.TrimSpace(r.Header.Get(UserHeader)))
	if err != nil || owner == uuid.Nil {
		writeErrorJSON(w, http.StatusUnauthorized, "missing user")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.svc.MaxUploadBytes()+formOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorJSON(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeErrorJSON(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	v, err := h.svc.Submit(r.Context(), service.SubmitInput{
		Owner:       owner,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVideoResponse(v))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeErrorJSON(w, status, "internal error")
		return
	}
	writeErrorJSON(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidDecision):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, models.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
