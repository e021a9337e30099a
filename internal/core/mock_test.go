package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/zeyadrezk/rds-provisioner/internal/model"
	"github.com/zeyadrezk/rds-provisioner/internal/rds"
)

// ---------- Mock DB ----------

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// ---------- Mock Row ----------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// ---------- Mock Rows ----------

// mockRows implements pgx.Rows for testing.
// It iterates through a list of scan functions, one per row.
type mockRows struct {
	callIndex int
	scanFuncs []func(dest ...any) error
	err       error
}

func newMockRows(scanFuncs ...func(dest ...any) error) *mockRows {
	return &mockRows{scanFuncs: scanFuncs}
}

func (m *mockRows) Next() bool {
	return m.callIndex < len(m.scanFuncs)
}

func (m *mockRows) Scan(dest ...any) error {
	if m.callIndex < len(m.scanFuncs) {
		fn := m.scanFuncs[m.callIndex]
		m.callIndex++
		return fn(dest...)
	}
	return nil
}

func (m *mockRows) Err() error                                  { return m.err }
func (m *mockRows) Close()                                      {}
func (m *mockRows) CommandTag() pgconn.CommandTag               { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) RawValues() [][]byte                         { return nil }
func (m *mockRows) Values() ([]any, error)                      { return nil, nil }
func (m *mockRows) Conn() *pgx.Conn                             { return nil }

// ---------- Mock provider gateway ----------

// mockGateway implements ProviderGateway for testing.
type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateInstance(ctx context.Context, p rds.CreateInstanceParams) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) DescribeInstance(ctx context.Context, identifier string) (*rds.InstanceState, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rds.InstanceState), args.Error(1)
}

func (m *mockGateway) DeleteInstance(ctx context.Context, identifier string, skipFinalSnapshot bool, finalSnapshotID string) error {
	args := m.Called(ctx, identifier, skipFinalSnapshot, finalSnapshotID)
	return args.Error(0)
}

func (m *mockGateway) CreateSubnetGroup(ctx context.Context, name, description string, subnetIDs []string) error {
	args := m.Called(ctx, name, description, subnetIDs)
	return args.Error(0)
}

func (m *mockGateway) DefaultEngineVersion(ctx context.Context, engine string) (string, error) {
	args := m.Called(ctx, engine)
	return args.String(0), args.Error(1)
}

// ---------- Mock schema initializer ----------

type mockSchema struct {
	mock.Mock
}

func (m *mockSchema) Initialize(ctx context.Context, database *model.Database, template string) error {
	args := m.Called(ctx, database, template)
	return args.Error(0)
}

// ---------- Mock credential distributor ----------

type mockDistributor struct {
	mock.Mock
}

func (m *mockDistributor) Distribute(ctx context.Context, client *model.Client, service *model.Service, database *model.Database) {
	m.Called(ctx, client, service, database)
}
