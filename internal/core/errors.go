package core

import "fmt"

// ProvisioningError is raised when the provider rejects a creation call. It
// carries the originating record identifiers and free-form context (e.g. the
// provider error code) so callers can decide whether to regenerate
// identifiers or abandon; blind retries are wrong for most causes.
type ProvisioningError struct {
	ClientID   string
	DatabaseID string
	ServiceID  string
	Context    map[string]string
	Err        error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning failed for client %s database %s: %v", e.ClientID, e.DatabaseID, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}
