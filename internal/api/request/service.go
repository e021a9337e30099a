package request

type CreateService struct {
	Name           string  `json:"name" validate:"required"`
	Slug           string  `json:"slug" validate:"required,slug"`
	SchemaTemplate *string `json:"schema_template" validate:"omitempty,slug"`
}
