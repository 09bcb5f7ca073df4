package dto

type CreateRoleRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=websites requests super"`
}

type SetRoleActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}
