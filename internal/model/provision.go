package model

// Watch target kinds for the shared status poller.
const (
	WatchKindDatabase    = "database"
	WatchKindRDSInstance = "rds_instance"
)

// WatchParams identifies the record one watch workflow run polls. Attempt is
// the zero-based count of completed polls, carried across continue-as-new so
// the budget survives history truncation.
type WatchParams struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Attempt int    `json:"attempt"`
}

// ProvisionResult is the per-service outcome of provisioning a client,
// keyed by service slug in the caller's result map.
type ProvisionResult struct {
	Success    bool   `json:"success"`
	DatabaseID string `json:"database_id,omitempty"`
	Message    string `json:"message"`
}
