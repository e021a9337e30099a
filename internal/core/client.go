package core

import (
	"context"
	"fmt"

	"github.com/zeyadrezk/rds-provisioner/internal/model"
)

// ClientService manages tenant records and their service subscriptions.
// Tenant lifecycle is owned by external flows; the orchestrator only reads.
type ClientService struct {
	db DB
}

func NewClientService(db DB) *ClientService {
	return &ClientService{db: db}
}

func (s *ClientService) Create(ctx context.Context, client *model.Client) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO clients (id, name, slug, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		client.ID, client.Name, client.Slug, client.IsActive, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (s *ClientService) GetByID(ctx context.Context, id string) (*model.Client, error) {
	var c model.Client
	err := s.db.QueryRow(ctx,
		`SELECT id, name, slug, is_active, created_at, updated_at
		 FROM clients WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get client %s: %w", id, err)
	}
	return &c, nil
}

// Subscribe links a client to a service. Re-subscribing reactivates an
// existing link.
func (s *ClientService) Subscribe(ctx context.Context, clientID, serviceID string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO client_services (client_id, service_id, is_active, created_at, updated_at)
		 VALUES ($1, $2, true, now(), now())
		 ON CONFLICT (client_id, service_id) DO UPDATE SET is_active = true, updated_at = now()`,
		clientID, serviceID,
	)
	if err != nil {
		return fmt.Errorf("subscribe client %s to service %s: %w", clientID, serviceID, err)
	}
	return nil
}

// IsSubscribed reports whether the client holds an active subscription to
// the service.
func (s *ClientService) IsSubscribed(ctx context.Context, clientID, serviceID string) (bool, error) {
	var subscribed bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM client_services
		   WHERE client_id = $1 AND service_id = $2 AND is_active
		 )`, clientID, serviceID,
	).Scan(&subscribed)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}
	return subscribed, nil
}

// ListActiveServices returns the active services the client is actively
// subscribed to, the set ProvisionClientDatabases iterates.
func (s *ClientService) ListActiveServices(ctx context.Context, clientID string) ([]model.Service, error) {
	rows, err := s.db.Query(ctx,
		`SELECT s.id, s.name, s.slug, s.schema_template, s.is_active, s.created_at, s.updated_at
		 FROM services s
		 JOIN client_services cs ON cs.service_id = s.id
		 WHERE cs.client_id = $1 AND cs.is_active AND s.is_active
		 ORDER BY s.slug`, clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active services for client %s: %w", clientID, err)
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var svc model.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Slug, &svc.SchemaTemplate, &svc.IsActive, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan service row: %w", err)
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}
