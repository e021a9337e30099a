package core

import (
	"context"
	"errors"

	"github.com/zeyadrezk/rds-provisioner/internal/model"
	"github.com/zeyadrezk/rds-provisioner/internal/rds"
)

// ProviderGateway is the slice of the provider API the orchestrator uses.
// *rds.Gateway satisfies it.
type ProviderGateway interface {
	CreateInstance(ctx context.Context, p rds.CreateInstanceParams) (string, error)
	DescribeInstance(ctx context.Context, identifier string) (*rds.InstanceState, error)
	DeleteInstance(ctx context.Context, identifier string, skipFinalSnapshot bool, finalSnapshotID string) error
	CreateSubnetGroup(ctx context.Context, name, description string, subnetIDs []string) error
	DefaultEngineVersion(ctx context.Context, engine string) (string, error)
}

// CredentialDistributor pushes connection credentials to external secret
// stores. Failures are the distributor's to report; provisioning never fails
// on distribution.
type CredentialDistributor interface {
	Distribute(ctx context.Context, client *model.Client, service *model.Service, database *model.Database)
}

// SchemaInitializer applies a named schema template to a reachable database.
type SchemaInitializer interface {
	Initialize(ctx context.Context, database *model.Database, template string) error
}

// Observation is one poll of a provider instance.
type Observation struct {
	Status   string
	Endpoint *rds.Endpoint
	// Missing means the provider no longer reports the identifier.
	Missing bool
}

// WatchDecision is what one reconcile pass tells the status poller.
type WatchDecision struct {
	// Done stops the poll loop; the record reached a settled state.
	Done bool
	// Observed is the provider-reported status, or the local error sentinel
	// when the provider could not be asked.
	Observed string
	// Captured means this pass recorded the endpoint and finalization
	// (schema, credentials) should run next.
	Captured bool
}

// observeInstance maps one describe call onto an Observation. A failed
// describe yields the error sentinel rather than an error: provider
// flakiness is a retryable observation, and the attempt budget lives in the
// poll loop, not here.
func observeInstance(ctx context.Context, gw ProviderGateway, identifier string) Observation {
	state, err := gw.DescribeInstance(ctx, identifier)
	if err != nil {
		if errors.Is(err, rds.ErrInstanceNotFound) {
			return Observation{Missing: true}
		}
		return Observation{Status: model.InstanceStatusError}
	}
	return Observation{Status: state.Status, Endpoint: state.Endpoint}
}
