// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type InviteUserRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name"     validate:"required,min=1,max=100"`
	Role     string `json:"role"     validate:"required,oneof=admin recruiter viewer"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"     validate:"omitempty,min=1,max=100"`
	PhotoURL *string `json:"photoUrl,omitempty" validate:"omitempty,http_url,max=2048"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin recruiter viewer"`
}

// UserResponse is the user block of login and profile payloads.
type UserResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	AuthType  string     `json:"authType"`
	PhotoURL  string     `json:"photoUrl,omitempty"`
	Active    *bool      `json:"active,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type ListUsersParams struct {
	Page               int
	PageSize           int
	Search             string
	Role               string
	IncludeDeactivated bool
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ToSummary is the compact form embedded in the login response.
func ToSummary(u *User) UserResponse {
	resp := UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		AuthType: u.AuthType,
	}
	if u.PhotoURL != nil {
		resp.PhotoURL = *u.PhotoURL
	}
	return resp
}

func ToUserResponse(u *User) UserResponse {
	resp := ToSummary(u)
	active := !u.IsDeactivated()
	created := u.CreatedAt
	resp.Active = &active
	resp.CreatedAt = &created
	return resp
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
