package model

// Provisioning state machine values. Queued and CreatingInstance are entered
// synchronously during the initial provisioning call; everything else is set
// from asynchronous reconciliation.
const (
	ProvisioningQueued             = "queued"
	ProvisioningCreatingInstance   = "creating_instance"
	ProvisioningCreating           = "creating"
	ProvisioningInitializingSchema = "initializing_schema"
	ProvisioningSchemaInitialized  = "schema_initialized"
	ProvisioningSchemaNotFound     = "schema_not_found"
	ProvisioningSchemaFailed       = "schema_failed"
	ProvisioningCompleted          = "completed"
	ProvisioningFailed             = "failed"
	ProvisioningDeleting           = "deleting"
	ProvisioningDeleteFailed       = "delete_failed"
	ProvisioningMonitoringFailed   = "monitoring_failed"
)

// Provider-reported instance states we interpret. RDS reports many more; any
// unrecognized value is stored verbatim and treated as terminal by the poller.
const (
	// InstanceStatusPending is local: the record exists but the provider has
	// not yet accepted a creation call.
	InstanceStatusPending = "pending"

	InstanceStatusCreating  = "creating"
	InstanceStatusAvailable = "available"
	InstanceStatusDeleting  = "deleting"
	InstanceStatusFailed    = "failed"

	// InstanceStatusDeleted is local: the provider stopped reporting the
	// identifier after a deletion request.
	InstanceStatusDeleted = "deleted"

	// InstanceStatusError is a local sentinel, never a provider value: the
	// describe call itself failed and the provider state is unknown.
	InstanceStatusError = "error"
)
