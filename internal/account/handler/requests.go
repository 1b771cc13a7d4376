package handler

import (
	"net/http"
	"strconv"
	"strings"

	"coliving/internal/account/models"
	"coliving/internal/account/service"
	"coliving/internal/identity"
	dErrors "coliving/pkg/domain-errors"
)

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = models.NormalizeEmail(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
}

func (r *RegisterRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}

func (r *RegisterRequest) input() service.RegisterInput {
	return service.RegisterInput{
		Email:       r.Email,
		Password:    r.Password,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		PhoneNumber: r.PhoneNumber,
	}
}

// UpdateUserRequest serves both PUT and PATCH; absent fields are left unchanged.
type UpdateUserRequest struct {
	Email       *string   `json:"email"`
	Password    *string   `json:"password"`
	FirstName   *string   `json:"firstName"`
	LastName    *string   `json:"lastName"`
	PhoneNumber *string   `json:"phoneNumber"`
	Roles       *[]string `json:"roles"`
	IsActive    *bool     `json:"isActive"`
}

func (r *UpdateUserRequest) input() (service.UpdateInput, error) {
	in := service.UpdateInput{
		Profile: models.Profile{
			Email:       r.Email,
			FirstName:   r.FirstName,
			LastName:    r.LastName,
			PhoneNumber: r.PhoneNumber,
		},
		Password: r.Password,
		IsActive: r.IsActive,
	}
	if r.Roles != nil {
		roles, err := identity.ParseRoles(*r.Roles)
		if err != nil {
			return service.UpdateInput{}, err
		}
		in.Roles = roles
	}
	return in, nil
}

// LoginRequest is the body of /api/login_check.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}
	return nil
}

// userFilter reads ?email=&firstName=&lastName=&roles=&isActive=.
func userFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	f := models.Filter{
		Email:     strings.TrimSpace(q.Get("email")),
		FirstName: strings.TrimSpace(q.Get("firstName")),
		LastName:  strings.TrimSpace(q.Get("lastName")),
	}
	if raw := q.Get("roles"); raw != "" {
		role, err := identity.ParseRole(raw)
		if err != nil {
			return f, dErrors.New(dErrors.CodeBadRequest, "unknown role: "+raw)
		}
		f.Role = role
	}
	if raw := q.Get("isActive"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, dErrors.New(dErrors.CodeBadRequest, "isActive must be true or false")
		}
		f.IsActive = &b
	}
	return f, nil
}
