package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/zeyadrezk/rds-provisioner/internal/config"
	"github.com/zeyadrezk/rds-provisioner/internal/model"
	"github.com/zeyadrezk/rds-provisioner/internal/naming"
	"github.com/zeyadrezk/rds-provisioner/internal/platform"
	"github.com/zeyadrezk/rds-provisioner/internal/rds"
	"github.com/zeyadrezk/rds-provisioner/internal/schema"
	"github.com/zeyadrezk/rds-provisioner/internal/secrets"
)

// ProvisioningService drives the database lifecycle end to end: record
// creation and workflow start on the API side, provider calls and state
// transitions on the worker side. Both sides share this type so the state
// machine lives in one place.
type ProvisioningService struct {
	db      DB
	tc      temporalclient.Client
	gateway ProviderGateway
	schema  SchemaInitializer
	secrets CredentialDistributor
	cfg     *config.Config
	logger  zerolog.Logger

	databases *DatabaseService
	clients   *ClientService
	catalog   *ServiceCatalog
}

func NewProvisioningService(
	db DB,
	tc temporalclient.Client,
	gateway ProviderGateway,
	schemaInit SchemaInitializer,
	distributor CredentialDistributor,
	cfg *config.Config,
	logger zerolog.Logger,
) *ProvisioningService {
	return &ProvisioningService{
		db:      db,
		tc:      tc,
		gateway: gateway,
		schema:  schemaInit,
		secrets: distributor,
		cfg:     cfg,
		logger:  logger.With().Str("component", "provisioning").Logger(),

		databases: NewDatabaseService(db),
		clients:   NewClientService(db),
		catalog:   NewServiceCatalog(db),
	}
}

// Databases exposes the record store for read paths.
func (s *ProvisioningService) Databases() *DatabaseService { return s.databases }

// ProvisionServiceDatabase validates the subscription, creates the queued
// record with generated names and credentials, and starts the provisioning
// workflow. Returns the record as inserted; the caller sees queued.
func (s *ProvisioningService) ProvisionServiceDatabase(ctx context.Context, clientID, serviceID string) (*model.Database, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !client.IsActive {
		return nil, fmt.Errorf("client %s is not active", clientID)
	}
	service, err := s.catalog.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !service.IsActive {
		return nil, fmt.Errorf("service %s is not active", serviceID)
	}
	subscribed, err := s.clients.IsSubscribed(ctx, clientID, serviceID)
	if err != nil {
		return nil, err
	}
	if !subscribed {
		return nil, fmt.Errorf("client %s is not subscribed to service %s", clientID, serviceID)
	}

	username, err := naming.Username(client.Slug, service.Slug)
	if err != nil {
		return nil, fmt.Errorf("generate username for %s/%s: %w", client.Slug, service.Slug, err)
	}

	now := time.Now().UTC()
	d := &model.Database{
		ID:                 platform.NewID(),
		ClientID:           clientID,
		ServiceID:          &service.ID,
		Name:               naming.DatabaseName(client.Slug, service.Slug),
		InstanceIdentifier: naming.InstanceIdentifier(s.cfg.Environment, client.Slug, service.Slug),
		DatabaseName:       naming.DatabaseName(client.Slug, service.Slug),
		Username:           username,
		Password:           naming.Password(),
		Status:             model.InstanceStatusPending,
		Engine:             s.cfg.RDS.Engine,
		EngineVersion:      s.cfg.RDS.EngineVersion,
		InstanceClass:      s.cfg.RDS.InstanceClass,
		StorageType:        s.cfg.RDS.StorageType,
		AllocatedStorage:   s.cfg.RDS.AllocatedStorage,
		Encrypted:          s.cfg.RDS.Encrypted,
		ProvisioningStatus: model.ProvisioningQueued,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.databases.Insert(ctx, d); err != nil {
		return nil, err
	}

	if err := startWorkflow(ctx, s.tc, "ProvisionDatabaseWorkflow", workflowID("database", d.ID), d.ID); err != nil {
		msg := fmt.Sprintf("start provisioning workflow: %v", err)
		if markErr := s.databases.MarkFailed(ctx, d.ID, model.ProvisioningFailed, msg); markErr != nil {
			s.logger.Error().Err(markErr).Str("database_id", d.ID).Msg("mark failed after workflow start error")
		}
		return nil, fmt.Errorf("start ProvisionDatabaseWorkflow: %w", err)
	}

	return d, nil
}

// ProvisionClientDatabases provisions one database per active subscribed
// service, keyed by service slug. A failing service never blocks the others.
func (s *ProvisioningService) ProvisionClientDatabases(ctx context.Context, clientID string) (map[string]model.ProvisionResult, error) {
	services, err := s.clients.ListActiveServices(ctx, clientID)
	if err != nil {
		return nil, err
	}

	results := make(map[string]model.ProvisionResult, len(services))
	for _, svc := range services {
		d, err := s.ProvisionServiceDatabase(ctx, clientID, svc.ID)
		if err != nil {
			s.logger.Error().Err(err).
				Str("client_id", clientID).
				Str("service_id", svc.ID).
				Msg("provision service database")
			results[svc.Slug] = model.ProvisionResult{Success: false, Message: err.Error()}
			continue
		}
		results[svc.Slug] = model.ProvisionResult{
			Success:    true,
			DatabaseID: d.ID,
			Message:    "provisioning started",
		}
	}
	return results, nil
}

// CreateInstance issues the provider creation call for a queued record.
// Resolves the engine version when configuration does not pin one, and
// ensures the subnet group when subnet IDs are configured.
func (s *ProvisioningService) CreateInstance(ctx context.Context, databaseID string) error {
	d, err := s.databases.GetByID(ctx, databaseID)
	if err != nil {
		return err
	}
	client, err := s.clients.GetByID(ctx, d.ClientID)
	if err != nil {
		return err
	}
	var service *model.Service
	if d.ServiceID != nil {
		if service, err = s.catalog.GetByID(ctx, *d.ServiceID); err != nil {
			return err
		}
	}

	if err := s.databases.SetProvisioningStatus(ctx, d.ID, model.ProvisioningCreatingInstance); err != nil {
		return err
	}

	if d.EngineVersion == "" {
		version, err := s.gateway.DefaultEngineVersion(ctx, d.Engine)
		if err != nil {
			return s.failCreate(ctx, d, err)
		}
		if err := s.databases.SetEngineVersion(ctx, d.ID, version); err != nil {
			return err
		}
		d.EngineVersion = version
	}

	if len(s.cfg.RDS.SubnetIDs) > 0 {
		err := s.gateway.CreateSubnetGroup(ctx, s.cfg.RDS.SubnetGroupName,
			fmt.Sprintf("Subnet group for %s", s.cfg.Environment), s.cfg.RDS.SubnetIDs)
		if err != nil {
			return s.failCreate(ctx, d, err)
		}
	}

	tags := map[string]string{
		"Client":      client.Slug,
		"Environment": s.cfg.Environment,
		"ManagedBy":   secrets.ManagedByTag,
	}
	if service != nil {
		tags["Service"] = service.Slug
	}

	identifier, err := s.gateway.CreateInstance(ctx, rds.CreateInstanceParams{
		Identifier:    d.InstanceIdentifier,
		DatabaseName:  d.DatabaseName,
		Engine:        d.Engine,
		EngineVersion: d.EngineVersion,
		Username:      d.Username,
		Password:      d.Password,

		InstanceClass:       d.InstanceClass,
		StorageType:         d.StorageType,
		AllocatedStorage:    d.AllocatedStorage,
		MaxAllocatedStorage: s.cfg.RDS.MaxAllocatedStorage,
		BackupRetentionDays: s.cfg.RDS.BackupRetentionDays,
		Encrypted:           d.Encrypted,
		PubliclyAccessible:  s.cfg.RDS.PubliclyAccessible,
		MultiAZ:             s.cfg.RDS.MultiAZ,
		DeletionProtection:  s.cfg.RDS.DeletionProtection,

		SubnetGroupName:  s.cfg.RDS.SubnetGroupName,
		SecurityGroupIDs: s.cfg.RDS.SecurityGroupIDs,

		MonitoringInterval: s.cfg.RDS.MonitoringInterval,
		MonitoringRoleARN:  s.cfg.RDS.MonitoringRoleARN,

		Tags: tags,
	})
	if err != nil {
		return s.failCreate(ctx, d, err)
	}

	if err := s.databases.SetInstanceCreated(ctx, d.ID, identifier); err != nil {
		return err
	}

	s.logger.Info().
		Str("database_id", d.ID).
		Str("instance_identifier", identifier).
		Msg("rds instance creation accepted")
	return nil
}

func (s *ProvisioningService) failCreate(ctx context.Context, d *model.Database, cause error) error {
	if err := s.databases.MarkFailed(ctx, d.ID, model.ProvisioningFailed, cause.Error()); err != nil {
		s.logger.Error().Err(err).Str("database_id", d.ID).Msg("mark failed after create error")
	}
	perr := &ProvisioningError{
		ClientID:   d.ClientID,
		DatabaseID: d.ID,
		Context:    map[string]string{"instance_identifier": d.InstanceIdentifier},
		Err:        cause,
	}
	if d.ServiceID != nil {
		perr.ServiceID = *d.ServiceID
	}
	if code := rds.ErrorCode(cause); code != "" {
		perr.Context["aws_error_code"] = code
	}
	return perr
}

// ReconcileDatabase performs one status poll for a provisioning or deleting
// record. Provider flakiness is reported as the error sentinel without
// touching the record; only real observations mutate state.
func (s *ProvisioningService) ReconcileDatabase(ctx context.Context, databaseID string) (*WatchDecision, error) {
	d, err := s.databases.GetByID(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	obs := observeInstance(ctx, s.gateway, d.InstanceIdentifier)

	if d.ProvisioningStatus == model.ProvisioningDeleting {
		return s.reconcileDeleting(ctx, d, obs)
	}

	switch {
	case obs.Status == model.InstanceStatusError:
		return &WatchDecision{Observed: model.InstanceStatusError}, nil

	case obs.Missing:
		// An instance we are waiting on vanished out from under us.
		if err := s.databases.MarkFailed(ctx, d.ID, model.ProvisioningFailed, "instance disappeared during provisioning"); err != nil {
			return nil, err
		}
		return &WatchDecision{Done: true, Observed: model.InstanceStatusDeleted}, nil

	case obs.Status == model.InstanceStatusFailed:
		if err := s.databases.SetStatus(ctx, d.ID, obs.Status); err != nil {
			return nil, err
		}
		if err := s.databases.MarkFailed(ctx, d.ID, model.ProvisioningFailed, "instance entered failed state"); err != nil {
			return nil, err
		}
		return &WatchDecision{Done: true, Observed: obs.Status}, nil

	case obs.Status == model.InstanceStatusAvailable && obs.Endpoint != nil:
		if err := s.databases.SetStatus(ctx, d.ID, obs.Status); err != nil {
			return nil, err
		}
		captured, err := s.databases.CaptureEndpoint(ctx, d.ID, obs.Endpoint.Address, obs.Endpoint.Port)
		if err != nil {
			return nil, err
		}
		return &WatchDecision{Done: true, Observed: obs.Status, Captured: captured}, nil

	default:
		if err := s.databases.SetStatus(ctx, d.ID, obs.Status); err != nil {
			return nil, err
		}
		return &WatchDecision{Observed: obs.Status}, nil
	}
}

func (s *ProvisioningService) reconcileDeleting(ctx context.Context, d *model.Database, obs Observation) (*WatchDecision, error) {
	if obs.Missing {
		if err := s.databases.MarkDeleted(ctx, d.ID); err != nil {
			return nil, err
		}
		return &WatchDecision{Done: true, Observed: model.InstanceStatusDeleted}, nil
	}
	if obs.Status == model.InstanceStatusError {
		return &WatchDecision{Observed: model.InstanceStatusError}, nil
	}
	if err := s.databases.SetStatus(ctx, d.ID, obs.Status); err != nil {
		return nil, err
	}
	return &WatchDecision{Observed: obs.Status}, nil
}

// FinalizeDatabase runs exactly once per record, after the endpoint capture:
// schema initialization when the service carries a template, credential
// distribution, then the completed transition. Schema problems settle the
// record in schema_not_found or schema_failed; credentials are still
// distributed because the instance itself is usable.
func (s *ProvisioningService) FinalizeDatabase(ctx context.Context, databaseID string) error {
	d, err := s.databases.GetByID(ctx, databaseID)
	if err != nil {
		return err
	}
	client, err := s.clients.GetByID(ctx, d.ClientID)
	if err != nil {
		return err
	}
	var service *model.Service
	if d.ServiceID != nil {
		if service, err = s.catalog.GetByID(ctx, *d.ServiceID); err != nil {
			return err
		}
	}

	schemaOK := true
	if service != nil && service.SchemaTemplate != nil && *service.SchemaTemplate != "" {
		if err := s.databases.SetProvisioningStatus(ctx, d.ID, model.ProvisioningInitializingSchema); err != nil {
			return err
		}
		switch err := s.schema.Initialize(ctx, d, *service.SchemaTemplate); {
		case errors.Is(err, schema.ErrTemplateNotFound):
			schemaOK = false
			if err := s.databases.MarkFailed(ctx, d.ID, model.ProvisioningSchemaNotFound, err.Error()); err != nil {
				return err
			}
		case err != nil:
			schemaOK = false
			if err := s.databases.MarkFailed(ctx, d.ID, model.ProvisioningSchemaFailed, err.Error()); err != nil {
				return err
			}
		default:
			if err := s.databases.SetProvisioningStatus(ctx, d.ID, model.ProvisioningSchemaInitialized); err != nil {
				return err
			}
		}
	}

	s.secrets.Distribute(ctx, client, service, d)

	if schemaOK {
		if err := s.databases.SetProvisioningStatus(ctx, d.ID, model.ProvisioningCompleted); err != nil {
			return err
		}
	}

	s.logger.Info().
		Str("database_id", d.ID).
		Bool("schema_ok", schemaOK).
		Msg("database finalized")
	return nil
}

// MarkDatabaseMonitoringFailed settles a record whose status polling budget
// ran out. The instance may still come up on the provider side; the record
// flags the gap for operators instead of guessing.
func (s *ProvisioningService) MarkDatabaseMonitoringFailed(ctx context.Context, databaseID string) error {
	return s.databases.MarkFailed(ctx, databaseID, model.ProvisioningMonitoringFailed,
		"status polling attempts exhausted before the instance settled")
}

// RequestClientProvisioning starts the client-wide provisioning workflow.
func (s *ProvisioningService) RequestClientProvisioning(ctx context.Context, clientID string) error {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return err
	}
	if !client.IsActive {
		return fmt.Errorf("client %s is not active", clientID)
	}
	if err := startWorkflow(ctx, s.tc, "ProvisionClientWorkflow", workflowID("client-provision", clientID), clientID); err != nil {
		return fmt.Errorf("start ProvisionClientWorkflow: %w", err)
	}
	return nil
}

// RequestDeletion starts the deletion workflow for an existing record.
func (s *ProvisioningService) RequestDeletion(ctx context.Context, params DeleteDatabaseParams) error {
	d, err := s.databases.GetByID(ctx, params.DatabaseID)
	if err != nil {
		return err
	}
	if d.ProvisioningStatus == model.ProvisioningDeleting {
		return nil
	}
	if err := startWorkflow(ctx, s.tc, "DeleteDatabaseWorkflow", workflowID("database-delete", d.ID), params); err != nil {
		return fmt.Errorf("start DeleteDatabaseWorkflow: %w", err)
	}
	return nil
}

// DeleteDatabaseParams is the deletion workflow argument.
type DeleteDatabaseParams struct {
	DatabaseID        string
	SkipFinalSnapshot bool
	// FinalSnapshotID overrides the derived snapshot name. Ignored when
	// SkipFinalSnapshot is set.
	FinalSnapshotID string
}

// DeleteInstance issues the provider deletion call. Unless the caller skips
// it, a final snapshot named after the instance and the request time is
// taken first.
func (s *ProvisioningService) DeleteInstance(ctx context.Context, params DeleteDatabaseParams) error {
	d, err := s.databases.GetByID(ctx, params.DatabaseID)
	if err != nil {
		return err
	}

	snapshotID := params.FinalSnapshotID
	if snapshotID == "" {
		snapshotID = naming.SnapshotIdentifier(d.InstanceIdentifier, time.Now().UTC().Format("20060102150405"))
	}
	if err := s.gateway.DeleteInstance(ctx, d.InstanceIdentifier, params.SkipFinalSnapshot, snapshotID); err != nil {
		if markErr := s.databases.MarkFailed(ctx, d.ID, model.ProvisioningDeleteFailed, err.Error()); markErr != nil {
			s.logger.Error().Err(markErr).Str("database_id", d.ID).Msg("mark delete_failed")
		}
		return err
	}

	if err := s.databases.SetDeleting(ctx, d.ID); err != nil {
		return err
	}
	s.logger.Info().
		Str("database_id", d.ID).
		Str("instance_identifier", d.InstanceIdentifier).
		Bool("skip_final_snapshot", params.SkipFinalSnapshot).
		Msg("rds instance deletion accepted")
	return nil
}
