package core

import (
	"context"
	"fmt"

	"github.com/zeyadrezk/rds-provisioner/internal/model"
)

// DatabaseService is the record store for the central Database entity. It is
// the single source of truth for an instance's lifecycle; only the
// orchestrator and the status poller write through it.
type DatabaseService struct {
	db DB
}

func NewDatabaseService(db DB) *DatabaseService {
	return &DatabaseService{db: db}
}

const databaseColumns = `id, client_id, service_id, name, instance_identifier, host, port,
	 database_name, username, password, status, rds_instance_id, engine, engine_version,
	 instance_class, storage_type, allocated_storage, encrypted, provisioning_status,
	 error_message, created_at, updated_at`

func scanDatabase(row interface{ Scan(...any) error }) (*model.Database, error) {
	var d model.Database
	err := row.Scan(&d.ID, &d.ClientID, &d.ServiceID, &d.Name, &d.InstanceIdentifier,
		&d.Host, &d.Port, &d.DatabaseName, &d.Username, &d.Password, &d.Status,
		&d.RDSInstanceID, &d.Engine, &d.EngineVersion, &d.InstanceClass, &d.StorageType,
		&d.AllocatedStorage, &d.Encrypted, &d.ProvisioningStatus, &d.ErrorMessage,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *DatabaseService) Insert(ctx context.Context, d *model.Database) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO databases (id, client_id, service_id, name, instance_identifier,
		   database_name, username, password, status, engine, engine_version,
		   instance_class, storage_type, allocated_storage, encrypted,
		   provisioning_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		d.ID, d.ClientID, d.ServiceID, d.Name, d.InstanceIdentifier,
		d.DatabaseName, d.Username, d.Password, d.Status, d.Engine, d.EngineVersion,
		d.InstanceClass, d.StorageType, d.AllocatedStorage, d.Encrypted,
		d.ProvisioningStatus, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert database: %w", err)
	}
	return nil
}

func (s *DatabaseService) GetByID(ctx context.Context, id string) (*model.Database, error) {
	d, err := scanDatabase(s.db.QueryRow(ctx,
		`SELECT `+databaseColumns+` FROM databases WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get database %s: %w", id, err)
	}
	return d, nil
}

func (s *DatabaseService) ListByClient(ctx context.Context, clientID string) ([]model.Database, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+databaseColumns+` FROM databases WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list databases for client %s: %w", clientID, err)
	}
	defer rows.Close()

	var databases []model.Database
	for rows.Next() {
		d, err := scanDatabase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan database row: %w", err)
		}
		databases = append(databases, *d)
	}
	return databases, rows.Err()
}

// SetStatus records the provider-reported status verbatim. Idempotent:
// re-applying the same observed value is a no-op by construction.
func (s *DatabaseService) SetStatus(ctx context.Context, id, status string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE databases SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("set database status: %w", err)
	}
	return nil
}

func (s *DatabaseService) SetProvisioningStatus(ctx context.Context, id, status string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE databases SET provisioning_status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("set provisioning status: %w", err)
	}
	return nil
}

// SetEngineVersion persists the resolved version when configuration left it
// to the provider's default.
func (s *DatabaseService) SetEngineVersion(ctx context.Context, id, version string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE databases SET engine_version = $1, updated_at = now() WHERE id = $2`, version, id)
	if err != nil {
		return fmt.Errorf("set engine version: %w", err)
	}
	return nil
}

// MarkFailed records a failure state with its cause. error_message is never
// cleared afterwards; the last failure stays visible.
func (s *DatabaseService) MarkFailed(ctx context.Context, id, provisioningStatus, errorMessage string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE databases SET provisioning_status = $1, error_message = $2, updated_at = now()
		 WHERE id = $3`, provisioningStatus, errorMessage, id)
	if err != nil {
		return fmt.Errorf("mark database failed: %w", err)
	}
	return nil
}

// SetInstanceCreated records the provider's acceptance of the creation call.
func (s *DatabaseService) SetInstanceCreated(ctx context.Context, id, rdsInstanceID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE databases SET rds_instance_id = $1, provisioning_status = $2, status = $3, updated_at = now()
		 WHERE id = $4`, rdsInstanceID, model.ProvisioningCreating, model.InstanceStatusCreating, id)
	if err != nil {
		return fmt.Errorf("set instance created: %w", err)
	}
	return nil
}

// CaptureEndpoint records host/port, but only while host is still unset. The
// returned flag reports whether this call was the one that captured the
// endpoint; finalization (schema, credentials) keys off it so it runs exactly
// once even when reconcile calls race. Provisioning status is untouched here;
// finalization owns the remaining transitions.
func (s *DatabaseService) CaptureEndpoint(ctx context.Context, id, host string, port int) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE databases SET host = $1, port = $2, updated_at = now()
		 WHERE id = $3 AND host IS NULL`, host, port, id)
	if err != nil {
		return false, fmt.Errorf("capture endpoint: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkDeleted settles a deleting record once the provider stops reporting
// the instance.
func (s *DatabaseService) MarkDeleted(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE databases SET status = $1, updated_at = now() WHERE id = $2`,
		model.InstanceStatusDeleted, id)
	if err != nil {
		return fmt.Errorf("mark database deleted: %w", err)
	}
	return nil
}

// SetDeleting records that the provider accepted the deletion request. The
// record itself is kept for audit; there is no hard delete.
func (s *DatabaseService) SetDeleting(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE databases SET status = $1, provisioning_status = $2, updated_at = now() WHERE id = $3`,
		model.InstanceStatusDeleting, model.ProvisioningDeleting, id)
	if err != nil {
		return fmt.Errorf("set database deleting: %w", err)
	}
	return nil
}
