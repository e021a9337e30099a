package core

import (
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/zeyadrezk/rds-provisioner/internal/config"
)

type Services struct {
	Client       *ClientService
	Catalog      *ServiceCatalog
	Database     *DatabaseService
	Provisioning *ProvisioningService
	RDSInstance  *RDSInstanceService
}

func NewServices(
	db DB,
	tc temporalclient.Client,
	gateway ProviderGateway,
	schemaInit SchemaInitializer,
	distributor CredentialDistributor,
	cfg *config.Config,
	logger zerolog.Logger,
) *Services {
	return &Services{
		Client:       NewClientService(db),
		Catalog:      NewServiceCatalog(db),
		Database:     NewDatabaseService(db),
		Provisioning: NewProvisioningService(db, tc, gateway, schemaInit, distributor, cfg, logger),
		RDSInstance:  NewRDSInstanceService(db, tc, gateway, cfg, logger),
	}
}
