package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/tmnhat/pantry-scan/internal/core/domain"
	"github.com/tmnhat/pantry-scan/internal/core/service"
	"github.com/tmnhat/pantry-scan/internal/port"
)

type HTTPHandler struct {
	scans     *service.ScanService
	inventory *service.InventoryService
	extractor port.Extractor
}

func NewHTTPHandler(scans *service.ScanService, inventory *service.InventoryService, extractor port.Extractor) *HTTPHandler {
	return &HTTPHandler{scans: scans, inventory: inventory, extractor: extractor}
}

func (h *HTTPHandler) Register(router *httprouter.Router) {
	router.GET("/health", h.HealthCheck)

	router.GET("/api/scan", h.GetScan)
	router.POST("/api/scan/start", h.StartScan)
	router.POST("/api/scan/name", h.CaptureName)
	router.POST("/api/scan/expiry", h.CaptureExpiry)
	router.PUT("/api/scan/fields", h.SetFields)
	router.POST("/api/scan/save", h.SaveScan)
	router.POST("/api/scan/retake", h.RetakeScan)
	router.POST("/api/scan/cancel", h.CancelScan)

	router.GET("/api/inventory", h.ListInventory)
	router.DELETE("/api/inventory/:id", h.DeleteRecord)

	router.POST("/api/recipes/suggest", h.SuggestRecipes)
}

type sessionResponse struct {
	Session domain.ScanSession `json:"session"`
	Warning string             `json:"warning,omitempty"`
}

type errorResponse struct {
	Error   string              `json:"error"`
	Session *domain.ScanSession `json:"session,omitempty"`
}

type fieldsRequest struct {
	Name       string `json:"name"`
	ExpiryDate string `json:"expiryDate"`
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) GetScan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, sessionResponse{Session: h.scans.Session()})
}

func (h *HTTPHandler) StartScan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, sessionResponse{Session: h.scans.Start()})
}

func (h *HTTPHandler) CaptureName(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	session, err := h.scans.CaptureName(r.Context())
	writeSession(w, session, err)
}

func (h *HTTPHandler) CaptureExpiry(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	session, err := h.scans.CaptureExpiry(r.Context())
	writeSession(w, session, err)
}

func (h *HTTPHandler) SetFields(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req fieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	session, err := h.scans.SetFields(req.Name, req.ExpiryDate)
	writeSession(w, session, err)
}

func (h *HTTPHandler) SaveScan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	session, err := h.scans.Save(r.Context())
	if errors.Is(err, domain.ErrStorage) {
		// The record is saved in memory; only the durable mirror is behind.
		writeJSON(w, http.StatusOK, sessionResponse{
			Session: session,
			Warning: "saved, but the durable copy could not be written: " + err.Error(),
		})
		return
	}
	writeSession(w, session, err)
}

func (h *HTTPHandler) RetakeScan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	session, err := h.scans.RetakeAll()
	writeSession(w, session, err)
}

func (h *HTTPHandler) CancelScan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, sessionResponse{Session: h.scans.Cancel()})
}

func (h *HTTPHandler) ListInventory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]any{"records": h.inventory.List()})
}

func (h *HTTPHandler) DeleteRecord(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	err := h.inventory.Remove(r.Context(), ps.ByName("id"))
	if errors.Is(err, domain.ErrStorage) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"warning": "removed, but the durable copy could not be written: " + err.Error(),
		})
		return
	}
	if err != nil {
		writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) SuggestRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	names := h.inventory.ItemNames()
	recipes, err := h.extractor.SuggestRecipes(r.Context(), names)
	if err != nil {
		writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipes": recipes})
}

func writeSession(w http.ResponseWriter, session domain.ScanSession, err error) {
	if err != nil {
		writeJSON(w, statusForError(err), errorResponse{Error: err.Error(), Session: &session})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: session})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNoDevice):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotReady),
		errors.Is(err, service.ErrScanBusy),
		errors.Is(err, service.ErrWrongStage):
		return http.StatusConflict
	case errors.Is(err, domain.ErrQuota):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
