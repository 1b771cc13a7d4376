package handler

import (
	"net/http"
	"strings"

	"coliving/internal/verification/models"
	"coliving/internal/verification/service"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
)

type CreateSpaceVerificationRequest struct {
	ColivingSpaceID string  `json:"colivingSpaceId"`
	PrivateSpaceID  string  `json:"privateSpaceId"`
	Notes           *string `json:"notes"`
}

func (r *CreateSpaceVerificationRequest) Normalize() {
	r.ColivingSpaceID = strings.TrimSpace(r.ColivingSpaceID)
	r.PrivateSpaceID = strings.TrimSpace(r.PrivateSpaceID)
}

func (r *CreateSpaceVerificationRequest) Validate() error {
	if r.ColivingSpaceID == "" {
		return dErrors.New(dErrors.CodeValidation, "colivingSpaceId is required")
	}
	return nil
}

func (r *CreateSpaceVerificationRequest) input() (service.SpaceInput, error) {
	space, err := id.ParseColivingSpaceID(r.ColivingSpaceID)
	if err != nil {
		return service.SpaceInput{}, err
	}
	in := service.SpaceInput{ColivingSpaceID: space, Notes: r.Notes}
	if r.PrivateSpaceID != "" {
		room, err := id.ParsePrivateSpaceID(r.PrivateSpaceID)
		if err != nil {
			return service.SpaceInput{}, err
		}
		in.PrivateSpaceID = &room
	}
	return in, nil
}

type CreateUserVerificationRequest struct {
	UserID       string  `json:"userId"`
	DocumentType string  `json:"documentType"`
	DocumentURL  string  `json:"documentUrl"`
	Notes        *string `json:"notes"`
}

func (r *CreateUserVerificationRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.DocumentType = strings.TrimSpace(r.DocumentType)
}

func (r *CreateUserVerificationRequest) Validate() error {
	if r.UserID == "" {
		return dErrors.New(dErrors.CodeValidation, "userId is required")
	}
	return nil
}

func (r *CreateUserVerificationRequest) input() (service.UserInput, error) {
	subject, err := id.ParseUserID(r.UserID)
	if err != nil {
		return service.UserInput{}, err
	}
	return service.UserInput{
		UserID:       subject,
		DocumentType: r.DocumentType,
		DocumentURL:  r.DocumentURL,
		Notes:        r.Notes,
	}, nil
}

// UpdateVerificationRequest is shared by both kinds.
type UpdateVerificationRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

func (r *UpdateVerificationRequest) Validate() error {
	if r.Status == nil && r.Notes == nil {
		return dErrors.New(dErrors.CodeValidation, "status or notes is required")
	}
	return nil
}

func (r *UpdateVerificationRequest) input() service.UpdateInput {
	in := service.UpdateInput{Notes: r.Notes}
	if r.Status != nil {
		status := models.Status(strings.ToUpper(strings.TrimSpace(*r.Status)))
		in.Status = &status
	}
	return in
}

func parseStatus(raw string) (models.Status, error) {
	status := models.Status(strings.ToUpper(strings.TrimSpace(raw)))
	if status != "" && !status.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "unknown status: "+raw)
	}
	return status, nil
}

// spaceFilter reads ?status=&colivingSpaceId=&privateSpaceId=.
func spaceFilter(r *http.Request) (models.SpaceFilter, error) {
	q := r.URL.Query()
	var f models.SpaceFilter
	status, err := parseStatus(q.Get("status"))
	if err != nil {
		return f, err
	}
	f.Status = status
	if raw := q.Get("colivingSpaceId"); raw != "" {
		space, err := id.ParseColivingSpaceID(raw)
		if err != nil {
			return f, err
		}
		f.ColivingSpaceID = &space
	}
	if raw := q.Get("privateSpaceId"); raw != "" {
		room, err := id.ParsePrivateSpaceID(raw)
		if err != nil {
			return f, err
		}
		f.PrivateSpaceID = &room
	}
	return f, nil
}

// userFilter reads ?status=&userId=&documentType=.
func userFilter(r *http.Request) (models.UserFilter, error) {
	q := r.URL.Query()
	var f models.UserFilter
	status, err := parseStatus(q.Get("status"))
	if err != nil {
		return f, err
	}
	f.Status = status
	if raw := q.Get("userId"); raw != "" {
		subject, err := id.ParseUserID(raw)
		if err != nil {
			return f, err
		}
		f.UserID = &subject
	}
	f.DocumentType = strings.TrimSpace(q.Get("documentType"))
	return f, nil
}
