// Package rds wraps the AWS RDS API behind the narrow surface the
// provisioning engine needs. One gateway serves every engine; engine,
// version, and network topology arrive as parameters, never literals.
package rds

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsrds "github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/aws/smithy-go"

	"github.com/zeyadrezk/rds-provisioner/internal/config"
)

// API is the subset of the RDS client the gateway calls. *awsrds.Client
// satisfies it; tests substitute a mock.
type API interface {
	CreateDBInstance(ctx context.Context, params *awsrds.CreateDBInstanceInput, optFns ...func(*awsrds.Options)) (*awsrds.CreateDBInstanceOutput, error)
	DescribeDBInstances(ctx context.Context, params *awsrds.DescribeDBInstancesInput, optFns ...func(*awsrds.Options)) (*awsrds.DescribeDBInstancesOutput, error)
	DeleteDBInstance(ctx context.Context, params *awsrds.DeleteDBInstanceInput, optFns ...func(*awsrds.Options)) (*awsrds.DeleteDBInstanceOutput, error)
	CreateDBSubnetGroup(ctx context.Context, params *awsrds.CreateDBSubnetGroupInput, optFns ...func(*awsrds.Options)) (*awsrds.CreateDBSubnetGroupOutput, error)
	DescribeDBEngineVersions(ctx context.Context, params *awsrds.DescribeDBEngineVersionsInput, optFns ...func(*awsrds.Options)) (*awsrds.DescribeDBEngineVersionsOutput, error)
}

type Gateway struct {
	client API
}

// NewGateway builds a gateway against the real AWS API. Static credentials
// are used when configured; otherwise the SDK's default chain applies.
func NewGateway(cfg *config.Config) *Gateway {
	opts := awsrds.Options{Region: cfg.AWSRegion}
	if cfg.AWSAccessKeyID != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, "")
	}
	return &Gateway{client: awsrds.New(opts)}
}

// NewGatewayWithClient wires an explicit API implementation. Used by tests.
func NewGatewayWithClient(client API) *Gateway {
	return &Gateway{client: client}
}

// CreateInstanceParams carries every creation parameter; the orchestrator
// fills it from the record plus injected configuration.
type CreateInstanceParams struct {
	Identifier    string
	DatabaseName  string
	Engine        string
	EngineVersion string
	Username      string
	Password      string

	InstanceClass       string
	StorageType         string
	AllocatedStorage    int
	MaxAllocatedStorage int
	BackupRetentionDays int
	Encrypted           bool
	PubliclyAccessible  bool
	MultiAZ             bool
	DeletionProtection  bool

	SubnetGroupName  string
	SecurityGroupIDs []string

	MonitoringInterval int
	MonitoringRoleARN  string

	Tags map[string]string
}

// CreateInstance starts asynchronous instance creation and returns the
// provider-assigned instance identifier. The provider only begins work here;
// completion is discovered by polling DescribeInstance.
func (g *Gateway) CreateInstance(ctx context.Context, p CreateInstanceParams) (string, error) {
	input := &awsrds.CreateDBInstanceInput{
		DBInstanceIdentifier:  aws.String(p.Identifier),
		Engine:                aws.String(p.Engine),
		MasterUsername:        aws.String(p.Username),
		MasterUserPassword:    aws.String(p.Password),
		DBInstanceClass:       aws.String(p.InstanceClass),
		StorageType:           aws.String(p.StorageType),
		AllocatedStorage:      aws.Int32(int32(p.AllocatedStorage)),
		MaxAllocatedStorage:   aws.Int32(int32(p.MaxAllocatedStorage)),
		BackupRetentionPeriod: aws.Int32(int32(p.BackupRetentionDays)),
		StorageEncrypted:      aws.Bool(p.Encrypted),
		PubliclyAccessible:    aws.Bool(p.PubliclyAccessible),
		MultiAZ:               aws.Bool(p.MultiAZ),
		DeletionProtection:    aws.Bool(p.DeletionProtection),
		DBSubnetGroupName:     aws.String(p.SubnetGroupName),
		VpcSecurityGroupIds:   p.SecurityGroupIDs,
		Tags:                  buildTags(p.Tags),
	}
	// DBName and EngineVersion are optional: an instance without an initial
	// database is valid, and an unpinned version lets the provider default.
	if p.DatabaseName != "" {
		input.DBName = aws.String(p.DatabaseName)
	}
	if p.EngineVersion != "" {
		input.EngineVersion = aws.String(p.EngineVersion)
	}
	if p.MonitoringInterval > 0 {
		input.MonitoringInterval = aws.Int32(int32(p.MonitoringInterval))
		input.MonitoringRoleArn = aws.String(p.MonitoringRoleARN)
	}

	out, err := g.client.CreateDBInstance(ctx, input)
	if err != nil {
		return "", fmt.Errorf("create db instance %s: %w", p.Identifier, err)
	}
	if out.DBInstance == nil || out.DBInstance.DBInstanceIdentifier == nil {
		return p.Identifier, nil
	}
	return *out.DBInstance.DBInstanceIdentifier, nil
}

// Endpoint is the reachable address of an available instance.
type Endpoint struct {
	Address string
	Port    int
}

// InstanceState is what DescribeInstance reports. Endpoint is nil until the
// provider publishes one.
type InstanceState struct {
	Status   string
	Endpoint *Endpoint
}

// DescribeInstance returns the provider's current view of the instance.
// ErrInstanceNotFound reports that the provider no longer knows the
// identifier. During deletion this is the success signal.
var ErrInstanceNotFound = errors.New("db instance not found")

func (g *Gateway) DescribeInstance(ctx context.Context, identifier string) (*InstanceState, error) {
	out, err := g.client.DescribeDBInstances(ctx, &awsrds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(identifier),
	})
	if err != nil {
		var notFound *types.DBInstanceNotFoundFault
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("describe db instance %s: %w", identifier, ErrInstanceNotFound)
		}
		return nil, fmt.Errorf("describe db instance %s: %w", identifier, err)
	}
	if len(out.DBInstances) == 0 {
		return nil, fmt.Errorf("describe db instance %s: %w", identifier, ErrInstanceNotFound)
	}

	inst := out.DBInstances[0]
	state := &InstanceState{Status: aws.ToString(inst.DBInstanceStatus)}
	if inst.Endpoint != nil && inst.Endpoint.Address != nil {
		state.Endpoint = &Endpoint{
			Address: aws.ToString(inst.Endpoint.Address),
			Port:    int(aws.ToInt32(inst.Endpoint.Port)),
		}
	}
	return state, nil
}

// DeleteInstance starts asynchronous deletion. finalSnapshotID is ignored
// when skipFinalSnapshot is set.
func (g *Gateway) DeleteInstance(ctx context.Context, identifier string, skipFinalSnapshot bool, finalSnapshotID string) error {
	input := &awsrds.DeleteDBInstanceInput{
		DBInstanceIdentifier: aws.String(identifier),
		SkipFinalSnapshot:    aws.Bool(skipFinalSnapshot),
	}
	if !skipFinalSnapshot {
		input.FinalDBSnapshotIdentifier = aws.String(finalSnapshotID)
	}
	if _, err := g.client.DeleteDBInstance(ctx, input); err != nil {
		return fmt.Errorf("delete db instance %s: %w", identifier, err)
	}
	return nil
}

// CreateSubnetGroup ensures the named subnet group exists. A group that
// already exists is success.
func (g *Gateway) CreateSubnetGroup(ctx context.Context, name, description string, subnetIDs []string) error {
	_, err := g.client.CreateDBSubnetGroup(ctx, &awsrds.CreateDBSubnetGroupInput{
		DBSubnetGroupName:        aws.String(name),
		DBSubnetGroupDescription: aws.String(description),
		SubnetIds:                subnetIDs,
	})
	if err != nil {
		var exists *types.DBSubnetGroupAlreadyExistsFault
		if errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("create db subnet group %s: %w", name, err)
	}
	return nil
}

// DefaultEngineVersion picks the newest supported version for the engine.
// Used when configuration does not pin one.
func (g *Gateway) DefaultEngineVersion(ctx context.Context, engine string) (string, error) {
	out, err := g.client.DescribeDBEngineVersions(ctx, &awsrds.DescribeDBEngineVersionsInput{
		Engine: aws.String(engine),
	})
	if err != nil {
		return "", fmt.Errorf("describe engine versions for %s: %w", engine, err)
	}
	if len(out.DBEngineVersions) == 0 {
		return "", fmt.Errorf("no supported versions for engine %s", engine)
	}
	// The API returns versions in ascending order.
	latest := out.DBEngineVersions[len(out.DBEngineVersions)-1]
	return aws.ToString(latest.EngineVersion), nil
}

// ErrorCode extracts the provider error code from an AWS API error, e.g.
// "DBInstanceAlreadyExists". Empty for non-API errors.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func buildTags(tags map[string]string) []types.Tag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]types.Tag, 0, len(tags))
	// Fixed order keeps request signing deterministic in tests.
	for _, key := range []string{"Client", "Service", "Environment", "ManagedBy"} {
		if v, ok := tags[key]; ok {
			out = append(out, types.Tag{Key: aws.String(key), Value: aws.String(v)})
		}
	}
	for k, v := range tags {
		switch k {
		case "Client", "Service", "Environment", "ManagedBy":
			continue
		}
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	return out
}
