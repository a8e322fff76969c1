package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rl1809/asset-vault/internal/adapter/export"
	"github.com/rl1809/asset-vault/internal/core/domain"
	"github.com/rl1809/asset-vault/internal/core/service"
)

type HTTPHandler struct {
	assetService *service.AssetService
	validate     *validator.Validate
	logger       *zap.Logger
}

type RefreshHTTPRequest struct {
	RequestID string `json:"request_id" validate:"omitempty,max=64,printascii"`
}

type RefreshHTTPResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Status    string `json:"status,omitempty"`
}

type ForestHTTPResponse struct {
	OwnerID int64       `json:"owner_id"`
	Count   int         `json:"count"`
	Assets  []AssetJSON `json:"assets"`
}

type AssetJSON struct {
	ItemID      int64       `json:"item_id"`
	TypeID      int32       `json:"type_id"`
	Name        string      `json:"name"`
	Group       string      `json:"group,omitempty"`
	Category    string      `json:"category,omitempty"`
	Quantity    int64       `json:"quantity"`
	Flag        string      `json:"flag"`
	Singleton   bool        `json:"singleton,omitempty"`
	LocationID  int64       `json:"location_id"`
	Source      string      `json:"source"`
	AncestorIDs []int64     `json:"ancestor_ids"`
	Children    []AssetJSON `json:"children,omitempty"`
}

func NewHTTPHandler(assetService *service.AssetService, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		assetService: assetService,
		validate:     validator.New(),
		logger:       logger,
	}
}

// Register mounts the API routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /api/owners/{id}/assets", h.Forest)
	mux.HandleFunc("GET /api/owners/{id}/assets.xlsx", h.ForestXLSX)
	mux.HandleFunc("POST /api/owners/{id}/refresh", h.Refresh)
}

func (h *HTTPHandler) Forest(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerIDParam(w, r)
	if !ok {
		return
	}
	forest, err := h.assetService.Forest(r.Context(), ownerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ForestHTTPResponse{
		OwnerID: ownerID,
		Count:   forest.Len(),
		Assets:  forestJSON(forest),
	})
}

func (h *HTTPHandler) ForestXLSX(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerIDParam(w, r)
	if !ok {
		return
	}
	forest, err := h.assetService.Forest(r.Context(), ownerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteAssetsXLSX(&buf, forest); err != nil {
		h.logger.Error("export failed", zap.Int64("owner_id", ownerID), zap.Error(err))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=assets-%d.xlsx", ownerID))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *HTTPHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerIDParam(w, r)
	if !ok {
		return
	}

	var req RefreshHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, RefreshHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, RefreshHTTPResponse{
			Success: false,
			Message: "invalid request_id",
		})
		return
	}

	queued, err := h.assetService.RequestRefresh(r.Context(), req.RequestID, ownerID)
	if err != nil {
		status, message := h.statusFor(err)
		writeJSON(w, status, RefreshHTTPResponse{
			Success: false,
			Message: message,
		})
		return
	}

	writeJSON(w, http.StatusAccepted, RefreshHTTPResponse{
		Success:   true,
		Message:   "refresh queued",
		RequestID: queued.ID,
		Status:    string(queued.Status),
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, err error) {
	status, message := h.statusFor(err)
	writeJSON(w, status, map[string]string{"error": message})
}

func (h *HTTPHandler) statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrOwnerNotFound):
		return http.StatusNotFound, "owner not found"
	case errors.Is(err, service.ErrDuplicateRequest):
		return http.StatusConflict, "duplicate request"
	}
	h.logger.Error("request failed", zap.Error(err))
	return http.StatusInternalServerError, "internal error"
}

func ownerIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	ownerID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || ownerID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid owner id"})
		return 0, false
	}
	return ownerID, true
}

func forestJSON(forest []*domain.Asset) []AssetJSON {
	out := make([]AssetJSON, 0, len(forest))
	for _, a := range forest {
		ancestors := make([]int64, 0, len(a.Ancestors))
		for _, ancestor := range a.Ancestors {
			ancestors = append(ancestors, ancestor.Record.ItemID)
		}
		node := AssetJSON{
			ItemID:      a.Record.ItemID,
			TypeID:      a.Record.TypeID,
			Name:        a.Item.Name,
			Group:       a.Item.Group,
			Category:    a.Item.Category,
			Quantity:    a.Record.Quantity,
			Flag:        domain.FlagName(a.Record.FlagID),
			Singleton:   a.Record.Singleton,
			LocationID:  a.LocationID,
			Source:      string(a.Source),
			AncestorIDs: ancestors,
		}
		if len(a.Children) > 0 {
			node.Children = forestJSON(a.Children)
		}
		out = append(out, node)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
