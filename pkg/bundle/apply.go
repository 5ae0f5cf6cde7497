package bundle

import (
	"context"
	"fmt"
	"log/slog"

	"strategos-hq/riskengine/pkg/model"
	"strategos-hq/riskengine/pkg/store"
)

// Creator is the write side of the store a bundle is applied through.
// *store.Store satisfies it.
type Creator interface {
	CreateModelVersion(ctx context.Context, tenantID string, in store.NewModelVersion) (*model.ModelVersion, error)
	CreateMetric(ctx context.Context, tenantID, modelVersionID string, in store.NewMetric) (*model.Metric, error)
	CreateCoefficient(ctx context.Context, tenantID, modelVersionID string, in store.NewCoefficient) (*model.Coefficient, error)
	CreateRule(ctx context.Context, tenantID, modelVersionID string, in store.NewRule) (*model.Rule, error)
	CreateState(ctx context.Context, tenantID, modelVersionID string, in store.NewState) (*model.StateDefinition, error)
	CreateTemplate(ctx context.Context, tenantID, modelVersionID string, in store.NewTemplate) (*model.RestructuringTemplate, error)
	CreateRestructuringRule(ctx context.Context, tenantID, modelVersionID string, in store.NewRestructuringRule) (*model.RestructuringRule, error)
	ActivateModelVersion(ctx context.Context, tenantID, id string) (*model.ModelVersion, error)
}

// Apply validates b and creates it as a new model version of the tenant.
// Items are created in bundle order so positions follow the file. When a
// step fails the partially built version stays inactive and the error names
// the failing item.
func Apply(ctx context.Context, c Creator, tenantID string, b *Bundle) (*model.ModelVersion, error) {
	if err := Validate(b); err != nil {
		return nil, err
	}

	mv, err := c.CreateModelVersion(ctx, tenantID, store.NewModelVersion{
		Name:        b.ModelVersion.Name,
		Description: b.ModelVersion.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("create model version %q: %w", b.ModelVersion.Name, err)
	}

	for _, m := range b.Metrics {
		if _, err := c.CreateMetric(ctx, tenantID, mv.ID, m); err != nil {
			return mv, fmt.Errorf("create metric %q: %w", m.Name, err)
		}
	}
	for _, co := range b.Coefficients {
		if _, err := c.CreateCoefficient(ctx, tenantID, mv.ID, co); err != nil {
			return mv, fmt.Errorf("create coefficient %q: %w", co.Name, err)
		}
	}
	for _, r := range b.Rules {
		if _, err := c.CreateRule(ctx, tenantID, mv.ID, r); err != nil {
			return mv, fmt.Errorf("create rule %q: %w", r.Name, err)
		}
	}

	stateIDs := make(map[string]string, len(b.States))
	for _, s := range b.States {
		created, err := c.CreateState(ctx, tenantID, mv.ID, s)
		if err != nil {
			return mv, fmt.Errorf("create state %q: %w", s.Name, err)
		}
		stateIDs[s.Name] = created.ID
	}

	templateIDs := make(map[string]string, len(b.Templates))
	for i := range b.Templates {
		t := &b.Templates[i]
		payload, err := t.PayloadJSON()
		if err != nil {
			return mv, fmt.Errorf("template %q: %w", t.Name, err)
		}
		created, err := c.CreateTemplate(ctx, tenantID, mv.ID, store.NewTemplate{Name: t.Name, Payload: payload})
		if err != nil {
			return mv, fmt.Errorf("create template %q: %w", t.Name, err)
		}
		templateIDs[t.Name] = created.ID
	}

	for _, rr := range b.Restructuring {
		in := store.NewRestructuringRule{TemplateID: templateIDs[rr.Template]}
		if rr.State != "" {
			in.StateDefinitionID = stateIDs[rr.State]
		}
		if _, err := c.CreateRestructuringRule(ctx, tenantID, mv.ID, in); err != nil {
			return mv, fmt.Errorf("bind template %q: %w", rr.Template, err)
		}
	}

	if b.ModelVersion.Activate {
		mv, err = c.ActivateModelVersion(ctx, tenantID, mv.ID)
		if err != nil {
			return nil, fmt.Errorf("activate model version: %w", err)
		}
	}

	slog.Default().Info("bundle applied",
		"component", "bundle",
		"tenant_id", tenantID,
		"model_version_id", mv.ID,
		"name", mv.Name,
		"active", mv.IsActive,
		"rules", len(b.Rules),
		"states", len(b.States),
	)
	return mv, nil
}
