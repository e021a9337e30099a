package core

import (
	"context"
	"fmt"

	"github.com/zeyadrezk/rds-provisioner/internal/model"
)

// ServiceCatalog manages the provisionable product offerings. Read-only to
// the orchestrator; mutation endpoints exist for platform bootstrap.
type ServiceCatalog struct {
	db DB
}

func NewServiceCatalog(db DB) *ServiceCatalog {
	return &ServiceCatalog{db: db}
}

func (s *ServiceCatalog) Create(ctx context.Context, service *model.Service) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO services (id, name, slug, schema_template, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		service.ID, service.Name, service.Slug, service.SchemaTemplate,
		service.IsActive, service.CreatedAt, service.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	return nil
}

func (s *ServiceCatalog) GetByID(ctx context.Context, id string) (*model.Service, error) {
	var svc model.Service
	err := s.db.QueryRow(ctx,
		`SELECT id, name, slug, schema_template, is_active, created_at, updated_at
		 FROM services WHERE id = $1`, id,
	).Scan(&svc.ID, &svc.Name, &svc.Slug, &svc.SchemaTemplate, &svc.IsActive, &svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get service %s: %w", id, err)
	}
	return &svc, nil
}

func (s *ServiceCatalog) List(ctx context.Context) ([]model.Service, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, slug, schema_template, is_active, created_at, updated_at
		 FROM services ORDER BY slug`,
	)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
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
