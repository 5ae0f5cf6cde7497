package server

import (
	"context"

	"strategos-hq/riskengine/pkg/model"
	"strategos-hq/riskengine/pkg/store"
)

// Store is the configuration and session store the API manages.
// *store.Store satisfies it.
type Store interface {
	CreateModelVersion(ctx context.Context, tenantID string, in store.NewModelVersion) (*model.ModelVersion, error)
	GetModelVersion(ctx context.Context, tenantID, id string) (*model.ModelVersion, error)
	ActiveModelVersion(ctx context.Context, tenantID string) (*model.ModelVersion, error)
	ListModelVersions(ctx context.Context, tenantID string) ([]model.ModelVersion, error)
	ActivateModelVersion(ctx context.Context, tenantID, id string) (*model.ModelVersion, error)
	CloneModelVersion(ctx context.Context, tenantID, sourceID string, in store.NewModelVersion) (*model.ModelVersion, error)
	IsLocked(ctx context.Context, tenantID, modelVersionID string) (bool, error)
	Load(ctx context.Context, tenantID, modelVersionID string) (*model.ResolvedConfig, error)

	CreateMetric(ctx context.Context, tenantID, modelVersionID string, in store.NewMetric) (*model.Metric, error)
	CreateCoefficient(ctx context.Context, tenantID, modelVersionID string, in store.NewCoefficient) (*model.Coefficient, error)
	CreateRule(ctx context.Context, tenantID, modelVersionID string, in store.NewRule) (*model.Rule, error)
	GetRule(ctx context.Context, tenantID, id string) (*model.Rule, error)
	AddCondition(ctx context.Context, tenantID, ruleID string, in store.NewCondition) (*model.RuleCondition, error)
	AddImpact(ctx context.Context, tenantID, ruleID string, in store.NewImpact) (*model.RuleImpact, error)
	CreateState(ctx context.Context, tenantID, modelVersionID string, in store.NewState) (*model.StateDefinition, error)
	GetState(ctx context.Context, tenantID, id string) (*model.StateDefinition, error)
	AddThreshold(ctx context.Context, tenantID, stateID string, in store.NewThreshold) (*model.StateThreshold, error)
	CreateTemplate(ctx context.Context, tenantID, modelVersionID string, in store.NewTemplate) (*model.RestructuringTemplate, error)
	ListTemplates(ctx context.Context, tenantID, modelVersionID string) ([]model.RestructuringTemplate, error)
	CreateRestructuringRule(ctx context.Context, tenantID, modelVersionID string, in store.NewRestructuringRule) (*model.RestructuringRule, error)
	SetActive(ctx context.Context, tenantID string, resource store.Toggleable, id string, active bool) error

	CreateSession(ctx context.Context, tenantID string, in store.NewSession) (*model.TransformationSession, error)
	GetSession(ctx context.Context, tenantID, id string) (*model.TransformationSession, error)
	ListSessions(ctx context.Context, tenantID string, limit int) ([]model.TransformationSession, error)
	SnapshotHistory(ctx context.Context, tenantID, sessionID string) (*model.SnapshotHistory, error)
}
