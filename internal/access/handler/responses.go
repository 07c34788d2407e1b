package handler

import (
	"time"

	"estatehub/internal/access/models"
	"estatehub/internal/access/service"
)

type UserResponse struct {
	ID          string             `json:"id"`
	TenantID    string             `json:"tenant_id,omitempty"`
	Email       string             `json:"email"`
	Name        string             `json:"name"`
	Role        string             `json:"role"`
	Permissions models.Permissions `json:"permissions"`
	Active      bool               `json:"active"`
	CreatedAt   time.Time          `json:"created_at"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

func toUserResponse(u *models.User) UserResponse {
	resp := UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(u.Role),
		Permissions: u.Permissions,
		Active:      u.Active,
		CreatedAt:   u.CreatedAt,
	}
	if u.TenantID != nil {
		resp.TenantID = u.TenantID.String()
	}
	return resp
}

func toUserResponses(users []*models.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return out
}

func toLoginResponse(res *service.LoginResult) LoginResponse {
	return LoginResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		User:        toUserResponse(res.User),
	}
}
