package request

type CreateRDSInstance struct {
	ClientID        string `json:"client_id" validate:"required"`
	DBName          string `json:"db_name" validate:"required"`
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	SubnetGroupName string `json:"subnet_group_name" validate:"omitempty"`
}
