// Package activity contains the Temporal activity structs executed by the
// worker. Activities are thin wrappers over the core services; orchestration
// decisions live in the workflows.
package activity

import (
	"context"

	"github.com/zeyadrezk/rds-provisioner/internal/core"
	"github.com/zeyadrezk/rds-provisioner/internal/model"
)

// Provision contains the provisioning lifecycle activities.
type Provision struct {
	provisioning *core.ProvisioningService
	instances    *core.RDSInstanceService
}

// NewProvision creates a new Provision activity struct.
func NewProvision(provisioning *core.ProvisioningService, instances *core.RDSInstanceService) *Provision {
	return &Provision{provisioning: provisioning, instances: instances}
}

// CreateInstance issues the provider creation call for a queued database
// record. Failures have already been written to the record when this
// returns an error.
func (a *Provision) CreateInstance(ctx context.Context, databaseID string) error {
	return a.provisioning.CreateInstance(ctx, databaseID)
}

// Reconcile performs one status poll for the given watch target.
func (a *Provision) Reconcile(ctx context.Context, params model.WatchParams) (*core.WatchDecision, error) {
	if params.Kind == model.WatchKindRDSInstance {
		return a.instances.Reconcile(ctx, params.ID)
	}
	return a.provisioning.ReconcileDatabase(ctx, params.ID)
}

// FinalizeDatabase runs the post-readiness steps for a database whose
// endpoint was just captured: schema bootstrap, credential distribution and
// the completed transition.
func (a *Provision) FinalizeDatabase(ctx context.Context, databaseID string) error {
	return a.provisioning.FinalizeDatabase(ctx, databaseID)
}

// MarkMonitoringFailed settles a watch target whose polling budget ran out.
func (a *Provision) MarkMonitoringFailed(ctx context.Context, params model.WatchParams) error {
	if params.Kind == model.WatchKindRDSInstance {
		return a.instances.MarkMonitoringFailed(ctx, params.ID)
	}
	return a.provisioning.MarkDatabaseMonitoringFailed(ctx, params.ID)
}

// DeleteInstance issues the provider deletion call for a database record.
func (a *Provision) DeleteInstance(ctx context.Context, params core.DeleteDatabaseParams) error {
	return a.provisioning.DeleteInstance(ctx, params)
}

// ProvisionClientDatabases creates one database per active subscribed
// service, each with its own provisioning workflow. A failing service never
// blocks the others; the per-service outcome is in the result map.
func (a *Provision) ProvisionClientDatabases(ctx context.Context, clientID string) (map[string]model.ProvisionResult, error) {
	return a.provisioning.ProvisionClientDatabases(ctx, clientID)
}
