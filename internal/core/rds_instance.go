package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/zeyadrezk/rds-provisioner/internal/config"
	"github.com/zeyadrezk/rds-provisioner/internal/model"
	"github.com/zeyadrezk/rds-provisioner/internal/platform"
	"github.com/zeyadrezk/rds-provisioner/internal/rds"
)

// RDSInstanceService is the direct management path: caller-supplied
// credentials, a random identifier, no subscription model and no schema or
// credential steps. Creation is synchronous up to the provider accepting the
// call; status tracking reuses the watch workflow.
type RDSInstanceService struct {
	db      DB
	tc      temporalclient.Client
	gateway ProviderGateway
	cfg     *config.Config
	logger  zerolog.Logger
}

func NewRDSInstanceService(db DB, tc temporalclient.Client, gateway ProviderGateway, cfg *config.Config, logger zerolog.Logger) *RDSInstanceService {
	return &RDSInstanceService{
		db:      db,
		tc:      tc,
		gateway: gateway,
		cfg:     cfg,
		logger:  logger.With().Str("component", "rds_instance").Logger(),
	}
}

// CreateRDSInstanceParams carries the caller-supplied creation inputs.
type CreateRDSInstanceParams struct {
	ClientID        string
	DatabaseName    string
	Username        string
	Password        string
	SubnetGroupName string
}

// Create ensures the subnet group, issues the provider creation call with a
// random identifier, records the row as creating and starts the watch
// workflow.
func (s *RDSInstanceService) Create(ctx context.Context, p CreateRDSInstanceParams) (*model.RDSInstance, error) {
	identifier := platform.NewName("rds-", 8)

	subnetGroup := p.SubnetGroupName
	if subnetGroup == "" {
		subnetGroup = s.cfg.RDS.SubnetGroupName
	}
	if len(s.cfg.RDS.SubnetIDs) > 0 {
		err := s.gateway.CreateSubnetGroup(ctx, subnetGroup,
			fmt.Sprintf("Subnet group for %s RDS instances", s.cfg.Environment), s.cfg.RDS.SubnetIDs)
		if err != nil {
			return nil, err
		}
	}

	_, err := s.gateway.CreateInstance(ctx, rds.CreateInstanceParams{
		Identifier:   identifier,
		DatabaseName: p.DatabaseName,
		Engine:       s.cfg.RDS.Engine,
		Username:     p.Username,
		Password:     p.Password,

		InstanceClass:       s.cfg.RDS.InstanceClass,
		StorageType:         s.cfg.RDS.StorageType,
		AllocatedStorage:    s.cfg.RDS.AllocatedStorage,
		MaxAllocatedStorage: s.cfg.RDS.MaxAllocatedStorage,
		BackupRetentionDays: s.cfg.RDS.BackupRetentionDays,
		Encrypted:           s.cfg.RDS.Encrypted,
		PubliclyAccessible:  s.cfg.RDS.PubliclyAccessible,
		MultiAZ:             s.cfg.RDS.MultiAZ,

		SubnetGroupName:  subnetGroup,
		SecurityGroupIDs: s.cfg.RDS.SecurityGroupIDs,

		Tags: map[string]string{
			"Client":      p.ClientID,
			"Environment": s.cfg.Environment,
			"ManagedBy":   "rds-provisioner",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create rds instance: %w", err)
	}

	now := time.Now().UTC()
	inst := &model.RDSInstance{
		ID:                 platform.NewID(),
		ClientID:           p.ClientID,
		InstanceIdentifier: identifier,
		Status:             model.InstanceStatusCreating,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO rds_instances (id, client_id, instance_identifier, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		inst.ID, inst.ClientID, inst.InstanceIdentifier, inst.Status, inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert rds instance: %w", err)
	}

	if err := startWorkflow(ctx, s.tc, "WatchInstanceWorkflow",
		workflowID("rds-instance-watch", inst.ID),
		model.WatchParams{Kind: model.WatchKindRDSInstance, ID: inst.ID}); err != nil {
		s.logger.Error().Err(err).Str("rds_instance_id", inst.ID).Msg("start watch workflow")
	}

	return inst, nil
}

func (s *RDSInstanceService) GetByID(ctx context.Context, id string) (*model.RDSInstance, error) {
	var inst model.RDSInstance
	err := s.db.QueryRow(ctx,
		`SELECT id, client_id, instance_identifier, status, endpoint, port, created_at, updated_at
		 FROM rds_instances WHERE id = $1`, id,
	).Scan(&inst.ID, &inst.ClientID, &inst.InstanceIdentifier, &inst.Status,
		&inst.Endpoint, &inst.Port, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get rds instance %s: %w", id, err)
	}
	return &inst, nil
}

// Get returns the record after a best-effort status refresh. A refresh
// failure is logged and the stored record returned as-is.
func (s *RDSInstanceService) Get(ctx context.Context, id string) (*model.RDSInstance, error) {
	inst, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, inst); err != nil {
		s.logger.Warn().Err(err).Str("rds_instance_id", inst.ID).Msg("refresh rds instance status")
	}
	return inst, nil
}

// List returns all records, refreshing each one best-effort. A record whose
// refresh fails is returned with its stored status.
func (s *RDSInstanceService) List(ctx context.Context) ([]model.RDSInstance, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, client_id, instance_identifier, status, endpoint, port, created_at, updated_at
		 FROM rds_instances ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list rds instances: %w", err)
	}
	defer rows.Close()

	var instances []model.RDSInstance
	for rows.Next() {
		var inst model.RDSInstance
		if err := rows.Scan(&inst.ID, &inst.ClientID, &inst.InstanceIdentifier, &inst.Status,
			&inst.Endpoint, &inst.Port, &inst.CreatedAt, &inst.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan rds instance row: %w", err)
		}
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range instances {
		if err := s.refresh(ctx, &instances[i]); err != nil {
			s.logger.Warn().Err(err).Str("rds_instance_id", instances[i].ID).Msg("refresh rds instance status")
		}
	}
	return instances, nil
}

// refresh pulls the provider's current view into the record, including the
// endpoint once available.
func (s *RDSInstanceService) refresh(ctx context.Context, inst *model.RDSInstance) error {
	state, err := s.gateway.DescribeInstance(ctx, inst.InstanceIdentifier)
	if err != nil {
		return err
	}
	inst.Status = state.Status
	if state.Status == model.InstanceStatusAvailable && state.Endpoint != nil {
		inst.Endpoint = &state.Endpoint.Address
		inst.Port = &state.Endpoint.Port
	}
	_, err = s.db.Exec(ctx,
		`UPDATE rds_instances SET status = $1, endpoint = $2, port = $3, updated_at = now() WHERE id = $4`,
		inst.Status, inst.Endpoint, inst.Port, inst.ID)
	if err != nil {
		return fmt.Errorf("update rds instance %s: %w", inst.ID, err)
	}
	return nil
}

// Delete requests provider deletion without a final snapshot, marks the row
// deleting and starts the watch workflow to observe completion.
func (s *RDSInstanceService) Delete(ctx context.Context, id string) error {
	inst, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.gateway.DeleteInstance(ctx, inst.InstanceIdentifier, true, ""); err != nil {
		return fmt.Errorf("delete rds instance: %w", err)
	}
	if err := s.SetStatus(ctx, inst.ID, model.InstanceStatusDeleting); err != nil {
		return err
	}

	if err := startWorkflow(ctx, s.tc, "WatchInstanceWorkflow",
		workflowID("rds-instance-delete-watch", inst.ID),
		model.WatchParams{Kind: model.WatchKindRDSInstance, ID: inst.ID}); err != nil {
		s.logger.Error().Err(err).Str("rds_instance_id", inst.ID).Msg("start watch workflow")
	}
	return nil
}

func (s *RDSInstanceService) SetStatus(ctx context.Context, id, status string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE rds_instances SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("set rds instance status: %w", err)
	}
	return nil
}

// Reconcile performs one status poll. Same shape as the database path but
// with no finalization: capturing the endpoint is the terminal step.
func (s *RDSInstanceService) Reconcile(ctx context.Context, id string) (*WatchDecision, error) {
	inst, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	obs := observeInstance(ctx, s.gateway, inst.InstanceIdentifier)

	switch {
	case obs.Status == model.InstanceStatusError:
		return &WatchDecision{Observed: model.InstanceStatusError}, nil

	case obs.Missing:
		if inst.Status == model.InstanceStatusDeleting {
			if err := s.SetStatus(ctx, inst.ID, model.InstanceStatusDeleted); err != nil {
				return nil, err
			}
			return &WatchDecision{Done: true, Observed: model.InstanceStatusDeleted}, nil
		}
		if err := s.SetStatus(ctx, inst.ID, model.InstanceStatusFailed); err != nil {
			return nil, err
		}
		return &WatchDecision{Done: true, Observed: model.InstanceStatusDeleted}, nil

	case obs.Status == model.InstanceStatusAvailable && obs.Endpoint != nil:
		inst.Status = obs.Status
		inst.Endpoint = &obs.Endpoint.Address
		inst.Port = &obs.Endpoint.Port
		_, err := s.db.Exec(ctx,
			`UPDATE rds_instances SET status = $1, endpoint = $2, port = $3, updated_at = now() WHERE id = $4`,
			inst.Status, inst.Endpoint, inst.Port, inst.ID)
		if err != nil {
			return nil, fmt.Errorf("update rds instance %s: %w", inst.ID, err)
		}
		return &WatchDecision{Done: true, Observed: obs.Status, Captured: true}, nil

	case obs.Status == model.InstanceStatusFailed:
		if err := s.SetStatus(ctx, inst.ID, obs.Status); err != nil {
			return nil, err
		}
		return &WatchDecision{Done: true, Observed: obs.Status}, nil

	default:
		if err := s.SetStatus(ctx, inst.ID, obs.Status); err != nil {
			return nil, err
		}
		return &WatchDecision{Observed: obs.Status}, nil
	}
}

// MarkMonitoringFailed settles a record whose polling budget ran out.
func (s *RDSInstanceService) MarkMonitoringFailed(ctx context.Context, id string) error {
	return s.SetStatus(ctx, id, model.ProvisioningMonitoringFailed)
}
