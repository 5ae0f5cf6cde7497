package server

import (
	"net/http"

	"strategos-hq/riskengine/pkg/store"
)

type createStateRequest struct {
	ModelVersionID string `json:"model_version_id,omitempty"`
	store.NewState
}

func (s *Server) handleCreateState(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var req createStateRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	mvID, err := s.versionID(r.Context(), tenant, req.ModelVersionID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	state, err := s.deps.Store.CreateState(r.Context(), tenant, mvID, req.NewState)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, state, nil)
}

func (s *Server) handleListStates(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	cfg, err := s.loadConfig(r, tenant)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, cfg.States, map[string]any{
		"count":            len(cfg.States),
		"model_version_id": cfg.ModelVersion.ID,
	})
}

func (s *Server) handleAddThreshold(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var req store.NewThreshold
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}

	th, err := s.deps.Store.AddThreshold(r.Context(), tenant, urlParam(r, "id"), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, th, nil)
}

func (s *Server) handleListThresholds(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	state, err := s.deps.Store.GetState(r.Context(), tenant, urlParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, state.Thresholds, map[string]any{"count": len(state.Thresholds)})
}

type createTemplateRequest struct {
	ModelVersionID string `json:"model_version_id,omitempty"`
	store.NewTemplate
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var req createTemplateRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	mvID, err := s.versionID(r.Context(), tenant, req.ModelVersionID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	tpl, err := s.deps.Store.CreateTemplate(r.Context(), tenant, mvID, req.NewTemplate)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, tpl, nil)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	mvID, err := s.versionID(r.Context(), tenant, r.URL.Query().Get("model_version_id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	templates, err := s.deps.Store.ListTemplates(r.Context(), tenant, mvID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, templates, map[string]any{
		"count":            len(templates),
		"model_version_id": mvID,
	})
}

type createRestructuringRuleRequest struct {
	ModelVersionID string `json:"model_version_id,omitempty"`
	store.NewRestructuringRule
}

func (s *Server) handleCreateRestructuringRule(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var req createRestructuringRuleRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	mvID, err := s.versionID(r.Context(), tenant, req.ModelVersionID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	rr, err := s.deps.Store.CreateRestructuringRule(r.Context(), tenant, mvID, req.NewRestructuringRule)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, rr, nil)
}

func (s *Server) handleListRestructuringRules(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.tenant(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	cfg, err := s.loadConfig(r, tenant)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, cfg.RestructuringRules, map[string]any{
		"count":            len(cfg.RestructuringRules),
		"model_version_id": cfg.ModelVersion.ID,
	})
}
