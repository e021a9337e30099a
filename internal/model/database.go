package model

import "time"

// Database is one provisioned RDS instance bound to a client and optionally
// a service. Host and Port stay nil until the provider reports the instance
// available. Password is write-once and never serialized; external read paths
// only ever see the redacted struct.
type Database struct {
	ID                 string    `json:"id" db:"id"`
	ClientID           string    `json:"client_id" db:"client_id"`
	ServiceID          *string   `json:"service_id,omitempty" db:"service_id"`
	Name               string    `json:"name" db:"name"`
	InstanceIdentifier string    `json:"instance_identifier" db:"instance_identifier"`
	Host               *string   `json:"host,omitempty" db:"host"`
	Port               *int      `json:"port,omitempty" db:"port"`
	DatabaseName       string    `json:"database_name" db:"database_name"`
	Username           string    `json:"username" db:"username"`
	Password           string    `json:"-" db:"password"`
	Status             string    `json:"status" db:"status"`
	RDSInstanceID      *string   `json:"rds_instance_id,omitempty" db:"rds_instance_id"`
	Engine             string    `json:"engine" db:"engine"`
	EngineVersion      string    `json:"engine_version" db:"engine_version"`
	InstanceClass      string    `json:"instance_class" db:"instance_class"`
	StorageType        string    `json:"storage_type" db:"storage_type"`
	AllocatedStorage   int       `json:"allocated_storage" db:"allocated_storage"`
	Encrypted          bool      `json:"encrypted" db:"encrypted"`
	ProvisioningStatus string    `json:"provisioning_status" db:"provisioning_status"`
	ErrorMessage       *string   `json:"error_message,omitempty" db:"error_message"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}
