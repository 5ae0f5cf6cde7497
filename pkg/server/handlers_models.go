package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"strategos-hq/riskengine/pkg/model"
	"strategos-hq/riskengine/pkg/store"
)

func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// versionID resolves an optional model version id. Empty means the tenant's
// active version.
func (s *Server) versionID(ctx context.Context, tenant, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	mv, err := s.deps.Store.ActiveModelVersion(ctx, tenant)
	if err != nil {
		return "", err
	}
	return mv.ID, nil
}

// loadConfig loads the resolved configuration named by the model_version_id
// query parameter, or the active one.
func (s *Server) loadConfig(r *http.Request, tenant string) (*model.ResolvedConfig, error) {
	return s.deps.Store.Load(r.Context(), tenant, r.URL.Query().Get("model_version_id"))
}

func (s *Server) handleCreateModelVersion(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var req store.NewModelVersion
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}

	mv, err := s.deps.Store.CreateModelVersion(r.Context(), tenant, req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, mv, nil)
}

func (s *Server) handleListModelVersions(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	versions, err := s.deps.Store.ListModelVersions(r.Context(), tenant)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, versions, map[string]any{"count": len(versions)})
}

type modelVersionView struct {
	*model.ModelVersion
	Locked bool `json:"locked"`
}

func (s *Server) handleGetModelVersion(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	id := urlParam(r, "id")

	mv, err := s.deps.Store.GetModelVersion(r.Context(), tenant, id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	locked, err := s.deps.Store.IsLocked(r.Context(), tenant, id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, modelVersionView{ModelVersion: mv, Locked: locked}, nil)
}

func (s *Server) handleActivateModelVersion(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	mv, err := s.deps.Store.ActivateModelVersion(r.Context(), tenant, urlParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, mv, nil)
}

func (s *Server) handleCloneModelVersion(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var req store.NewModelVersion
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}

	mv, err := s.deps.Store.CloneModelVersion(r.Context(), tenant, urlParam(r, "id"), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, mv, nil)
}

func (s *Server) handleGetModelConfig(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	id := urlParam(r, "id")
	if id == "active" {
		id = ""
	}

	cfg, err := s.deps.Store.Load(r.Context(), tenant, id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, cfg, nil)
}

func (s *Server) handleCreateMetric(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var req store.NewMetric
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}

	m, err := s.deps.Store.CreateMetric(r.Context(), tenant, urlParam(r, "id"), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, m, nil)
}

func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	cfg, err := s.deps.Store.Load(r.Context(), tenant, urlParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, cfg.Metrics, map[string]any{"count": len(cfg.Metrics)})
}

func (s *Server) handleCreateCoefficient(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var req store.NewCoefficient
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}

	c, err := s.deps.Store.CreateCoefficient(r.Context(), tenant, urlParam(r, "id"), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, c, nil)
}

func (s *Server) handleListCoefficients(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	cfg, err := s.deps.Store.Load(r.Context(), tenant, urlParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, cfg.Coefficients, map[string]any{"count": len(cfg.Coefficients)})
}

type toggleRequest struct {
	IsActive *bool `json:"is_active"`
}

// handleToggle flips the is_active flag of a configuration row.
func (s *Server) handleToggle(resource store.Toggleable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := s.tenant(r)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		var req toggleRequest
		if err := decode(r, &req); err != nil {
			writeFailure(w, r, err)
			return
		}
		if req.IsActive == nil {
			writeFailure(w, r, model.NewInvalidInputError("is_active", "is required"))
			return
		}

		id := urlParam(r, "id")
		if err := s.deps.Store.SetActive(r.Context(), tenant, resource, id, *req.IsActive); err != nil {
			writeFailure(w, r, err)
			return
		}
		writeData(w, r, http.StatusOK, map[string]any{
			"resource":  resource,
			"id":        id,
			"is_active": *req.IsActive,
		}, nil)
	}
}
