package model

import "time"

// RDSInstance is the lighter-weight tracking record for instances managed
// directly, outside the client/service subscription model. ClientID is an
// opaque reference, not a foreign key.
type RDSInstance struct {
	ID                 string    `json:"id" db:"id"`
	ClientID           string    `json:"client_id" db:"client_id"`
	InstanceIdentifier string    `json:"instance_identifier" db:"instance_identifier"`
	Status             string    `json:"status" db:"status"`
	Endpoint           *string   `json:"endpoint,omitempty" db:"endpoint"`
	Port               *int      `json:"port,omitempty" db:"port"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}
