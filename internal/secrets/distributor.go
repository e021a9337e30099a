// Package secrets publishes connection parameters for newly-available
// databases to AWS Parameter Store and Secrets Manager. Distribution is
// best-effort: failures are logged and never fail provisioning.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/rs/zerolog"

	"github.com/zeyadrezk/rds-provisioner/internal/config"
	"github.com/zeyadrezk/rds-provisioner/internal/model"
)

// ManagedByTag marks every secret object this service creates.
const ManagedByTag = "rds-provisioner"

// SSMAPI is the Parameter Store surface consumed.
type SSMAPI interface {
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// SecretsManagerAPI is the Secrets Manager surface consumed.
type SecretsManagerAPI interface {
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
}

type Distributor struct {
	ssm    SSMAPI
	sm     SecretsManagerAPI
	cfg    *config.Config
	logger zerolog.Logger
}

func NewDistributor(cfg *config.Config, logger zerolog.Logger) *Distributor {
	var creds aws.CredentialsProvider
	if cfg.AWSAccessKeyID != "" {
		creds = credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, "")
	}
	return &Distributor{
		ssm:    ssm.New(ssm.Options{Region: cfg.AWSRegion, Credentials: creds}),
		sm:     secretsmanager.New(secretsmanager.Options{Region: cfg.AWSRegion, Credentials: creds}),
		cfg:    cfg,
		logger: logger.With().Str("component", "credential-distributor").Logger(),
	}
}

// NewDistributorWithClients wires explicit API implementations. Used by tests.
func NewDistributorWithClients(cfg *config.Config, logger zerolog.Logger, ssmClient SSMAPI, smClient SecretsManagerAPI) *Distributor {
	return &Distributor{ssm: ssmClient, sm: smClient, cfg: cfg, logger: logger}
}

// Distribute writes connection parameters to every enabled sink. It never
// returns an error; reconciliation success is not contingent on it.
func (d *Distributor) Distribute(ctx context.Context, client *model.Client, service *model.Service, database *model.Database) {
	if d.cfg.ParameterStore.Enabled {
		if err := d.storeParameters(ctx, client, database); err != nil {
			d.logger.Error().Err(err).
				Str("database_id", database.ID).
				Msg("failed to store credentials in parameter store")
		}
	}
	if d.cfg.SecretsManager.Enabled {
		if err := d.createSecret(ctx, client, service, database); err != nil {
			d.logger.Error().Err(err).
				Str("database_id", database.ID).
				Msg("failed to store credentials in secrets manager")
		}
	}
}

func (d *Distributor) storeParameters(ctx context.Context, client *model.Client, database *model.Database) error {
	base := fmt.Sprintf("%s%s/%s", d.cfg.ParameterStore.Prefix, client.Slug, database.Name)

	params := []struct {
		key    string
		value  string
		secure bool
	}{
		{"host", d.hostOf(database), false},
		{"port", fmt.Sprintf("%d", d.portOf(database)), false},
		{"database", database.DatabaseName, false},
		{"username", database.Username, false},
		{"password", database.Password, true},
	}

	for _, p := range params {
		paramType := ssmtypes.ParameterTypeString
		if p.secure {
			paramType = ssmtypes.ParameterTypeSecureString
		}
		_, err := d.ssm.PutParameter(ctx, &ssm.PutParameterInput{
			Name:      aws.String(base + "/" + p.key),
			Value:     aws.String(p.value),
			Type:      paramType,
			Overwrite: aws.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("put parameter %s/%s: %w", base, p.key, err)
		}
	}

	d.logger.Info().
		Str("database_id", database.ID).
		Str("parameter_base", base).
		Msg("credentials stored in parameter store")
	return nil
}

func (d *Distributor) createSecret(ctx context.Context, client *model.Client, service *model.Service, database *model.Database) error {
	secretID := fmt.Sprintf("%s%s/%s", d.cfg.SecretsManager.Prefix, client.Slug, database.Name)

	payload, err := json.Marshal(map[string]any{
		"host":     d.hostOf(database),
		"port":     d.portOf(database),
		"dbname":   database.DatabaseName,
		"username": database.Username,
		"password": database.Password,
		"engine":   database.Engine,
	})
	if err != nil {
		return fmt.Errorf("marshal secret payload: %w", err)
	}

	serviceName := "General"
	if service != nil {
		serviceName = service.Name
	}

	_, err = d.sm.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(secretID),
		Description:  aws.String(fmt.Sprintf("Database connection details for %s - %s", client.Name, database.Name)),
		SecretString: aws.String(string(payload)),
		Tags: []smtypes.Tag{
			{Key: aws.String("Client"), Value: aws.String(client.Name)},
			{Key: aws.String("Service"), Value: aws.String(serviceName)},
			{Key: aws.String("Environment"), Value: aws.String(d.cfg.Environment)},
			{Key: aws.String("ManagedBy"), Value: aws.String(ManagedByTag)},
		},
	})
	if err != nil {
		return fmt.Errorf("create secret %s: %w", secretID, err)
	}

	d.logger.Info().
		Str("database_id", database.ID).
		Str("secret_id", secretID).
		Msg("credentials stored in secrets manager")
	return nil
}

// hostOf falls back to the conventional RDS hostname when the endpoint has
// not been captured yet.
func (d *Distributor) hostOf(database *model.Database) string {
	if database.Host != nil && *database.Host != "" {
		return *database.Host
	}
	return database.InstanceIdentifier + ".rds.amazonaws.com"
}

func (d *Distributor) portOf(database *model.Database) int {
	if database.Port != nil {
		return *database.Port
	}
	return 5432
}
