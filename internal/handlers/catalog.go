package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/c-moralesv/lexagenda/internal/model"
	"github.com/c-moralesv/lexagenda/internal/storage"
)

type Catalog interface {
	GetLawyer(ctx context.Context, id string) (model.Lawyer, error)
	GetService(ctx context.Context, id string) (model.Service, error)
	ListLawyers(ctx context.Context) ([]model.Lawyer, error)
	ListServices(ctx context.Context) ([]model.Service, error)
}

// CatalogHandler exposes the public lawyer and service directories the
// booking form is built from.
type CatalogHandler struct {
	catalog Catalog
	logger  *slog.Logger
}

func NewCatalogHandler(catalog Catalog, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) Lawyers(w http.ResponseWriter, r *http.Request) {
	lawyers, err := h.catalog.ListLawyers(r.Context())
	if err != nil {
		h.logger.Error("catalog handler: list lawyers", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	type lawyerJSON struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Specialty string `json:"specialty,omitempty"`
	}
	out := make([]lawyerJSON, 0, len(lawyers))
	for _, l := range lawyers {
		out = append(out, lawyerJSON{ID: l.ID, Name: l.Name, Specialty: l.Specialty})
	}
	writeJSON(w, http.StatusOK, map[string]any{"lawyers": out})
}

func (h *CatalogHandler) Lawyer(w http.ResponseWriter, r *http.Request) {
	lawyer, err := h.catalog.GetLawyer(r.Context(), r.PathValue("id"))
	if storage.IsNotFound(err) || (err == nil && !lawyer.Active) {
		writeError(w, http.StatusNotFound, "unknown lawyer")
		return
	}
	if err != nil {
		h.logger.Error("catalog handler: get lawyer", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        lawyer.ID,
		"name":      lawyer.Name,
		"specialty": lawyer.Specialty,
	})
}

func (h *CatalogHandler) Services(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListServices(r.Context())
	if err != nil {
		h.logger.Error("catalog handler: list services", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	type serviceJSON struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		Price           string `json:"price"`
		DurationMinutes int    `json:"duration_minutes"`
	}
	out := make([]serviceJSON, 0, len(services))
	for _, s := range services {
		out = append(out, serviceJSON{ID: s.ID, Name: s.Name, Price: s.Price, DurationMinutes: s.DurationMinutes})
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": out})
}

func (h *CatalogHandler) Service(w http.ResponseWriter, r *http.Request) {
	service, err := h.catalog.GetService(r.Context(), r.PathValue("id"))
	if storage.IsNotFound(err) || (err == nil && !service.Active) {
		writeError(w, http.StatusNotFound, "unknown service")
		return
	}
	if err != nil {
		h.logger.Error("catalog handler: get service", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":               service.ID,
		"name":             service.Name,
		"price":            service.Price,
		"duration_minutes": service.DurationMinutes,
	})
}
