package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "cnes-dashboard/internal/common/errors"
	"cnes-dashboard/internal/common/validation"
	"cnes-dashboard/internal/fetcher"
	"cnes-dashboard/internal/models"
	"cnes-dashboard/internal/query"
	"cnes-dashboard/pkg/registry"
)

// MaxPageSize bounds page_size so one request cannot pull a whole table.
const MaxPageSize = 1000

type PageFetcher interface {
	Fetch(ctx context.Context, criteria models.FilterCriteria, page models.PageRequest) (*fetcher.Result, error)
	Regions(ctx context.Context) (*models.DistinctValuesIndex, error)
}

type RecordLookup interface {
	Lookup(ctx context.Context, identifier string) (*models.EstablishmentRecord, error)
}

type Handler struct {
	fetcher   PageFetcher
	lookup    RecordLookup
	registry  *registry.FieldRegistry
	errors    *apperrors.ErrorHandler
	readiness *Readiness
}

func NewHandler(f PageFetcher, l RecordLookup, reg *registry.FieldRegistry, errs *apperrors.ErrorHandler, readiness *Readiness) *Handler {
	if reg == nil {
		reg = registry.Default()
	}
	return &Handler{
		fetcher:   f,
		lookup:    l,
		registry:  reg,
		errors:    errs,
		readiness: readiness,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	writeError(w, r, h.errors.Handle(r.Context(), operation, err))
}

type establishmentsResponse struct {
	Rows    []models.Record       `json:"rows"`
	Page    query.PageInfo        `json:"page"`
	Summary string                `json:"summary"`
	Filters models.FilterCriteria `json:"filters"`
	Cached  bool                  `json:"cached"`
}

// ListEstablishments handles GET /api/v1/establishments.
func (h *Handler) ListEstablishments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	criteria := models.FilterCriteria{
		Region:    q.Get("estado"),
		SubRegion: q.Get("municipio"),
	}
	if err := validation.ValidateFilterValue("estado", criteria.Region); err != nil {
		h.fail(w, r, "list_establishments", err)
		return
	}
	if err := validation.ValidateFilterValue("municipio", criteria.SubRegion); err != nil {
		h.fail(w, r, "list_establishments", err)
		return
	}

	page, err := parsePositive(q.Get("page"), "page", 0)
	if err != nil {
		h.fail(w, r, "list_establishments", err)
		return
	}
	size, err := parsePositive(q.Get("page_size"), "page_size", MaxPageSize)
	if err != nil {
		h.fail(w, r, "list_establishments", err)
		return
	}

	result, err := h.fetcher.Fetch(r.Context(), criteria, models.PageRequest{Page: page, Size: size})
	if err != nil {
		h.fail(w, r, "list_establishments", err)
		return
	}

	writeJSON(w, http.StatusOK, establishmentsResponse{
		Rows:    result.Rows,
		Page:    result.Page,
		Summary: result.Summary(),
		Filters: result.Criteria,
		Cached:  result.Cached,
	})
}

// parsePositive reads an optional positive integer; empty means 0 (use the
// default). max of 0 means unbounded.
func parsePositive(raw, name string, max int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperrors.NewValidationError(
			fmt.Sprintf("%s must be a positive integer", name),
			fmt.Sprintf("%s=%q", name, raw),
		)
	}
	if max > 0 && n > max {
		return 0, apperrors.NewValidationError(
			fmt.Sprintf("%s must be at most %d", name, max),
			fmt.Sprintf("%s=%d", name, n),
		)
	}
	return n, nil
}

// ListRegions handles GET /api/v1/regions. With estado set, only that
// region's sub-regions are returned.
func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	idx, err := h.fetcher.Regions(r.Context())
	if err != nil {
		h.fail(w, r, "list_regions", err)
		return
	}

	if region := strings.TrimSpace(r.URL.Query().Get("estado")); region != "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"estado":     region,
			"subRegions": idx.SubRegions(region),
		})
		return
	}

	regions := idx.Regions()
	subRegions := make(map[string][]string, len(regions))
	for _, region := range regions {
		subRegions[region] = idx.SubRegions(region)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"regions":    regions,
		"subRegions": subRegions,
	})
}

// GetEstablishment handles GET /api/v1/cnes/{id}.
func (h *Handler) GetEstablishment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.lookup.Lookup(r.Context(), id)
	if err != nil {
		h.fail(w, r, "lookup_establishment", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"record": record,
		"view":   h.registry.Render(record.Fields()),
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if ok, reason := h.readiness.Ready(); !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": reason,
			"time":   time.Now().Format(time.RFC3339),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}
