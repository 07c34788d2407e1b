package handler

import (
	"strings"

	"estatehub/internal/access/models"
	"estatehub/internal/access/service"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/validation"
)

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"notblank,max=128"`
	Password string `json:"password" validate:"min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=tenant_admin manager agent user"`
}

func (r *CreateUserRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = models.NormalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

func (r *CreateUserRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

func (r *CreateUserRequest) ToCommand() *service.CreateUserCommand {
	return &service.CreateUserCommand{
		Email:    r.Email,
		Name:     r.Name,
		Password: r.Password,
		Role:     models.Role(r.Role),
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = models.NormalizeEmail(r.Email)
}

func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}
