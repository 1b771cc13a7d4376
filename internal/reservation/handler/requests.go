package handler

import (
	"net/http"
	"strings"
	"time"

	"coliving/internal/reservation/models"
	"coliving/internal/reservation/service"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
)

// dateLayouts accepted for startDate/endDate: a calendar day or a full timestamp.
var dateLayouts = []string{time.DateOnly, time.RFC3339}

func parseDate(raw, field string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, dErrors.New(dErrors.CodeValidation, field+" must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
}

type CreateReservationRequest struct {
	PrivateSpaceID string  `json:"privateSpaceId"`
	StartDate      string  `json:"startDate"`
	EndDate        string  `json:"endDate"`
	IsForTwo       bool    `json:"isForTwo"`
	LodgingTax     float64 `json:"lodgingTax"`
	TotalPrice     float64 `json:"totalPrice"`
}

func (r *CreateReservationRequest) Normalize() {
	r.PrivateSpaceID = strings.TrimSpace(r.PrivateSpaceID)
	r.StartDate = strings.TrimSpace(r.StartDate)
	r.EndDate = strings.TrimSpace(r.EndDate)
}

func (r *CreateReservationRequest) Validate() error {
	if r.PrivateSpaceID == "" {
		return dErrors.New(dErrors.CodeValidation, "privateSpaceId is required")
	}
	if r.StartDate == "" || r.EndDate == "" {
		return dErrors.New(dErrors.CodeValidation, "startDate and endDate are required")
	}
	return nil
}

func (r *CreateReservationRequest) input() (service.CreateInput, error) {
	room, err := id.ParsePrivateSpaceID(r.PrivateSpaceID)
	if err != nil {
		return service.CreateInput{}, err
	}
	start, err := parseDate(r.StartDate, "startDate")
	if err != nil {
		return service.CreateInput{}, err
	}
	end, err := parseDate(r.EndDate, "endDate")
	if err != nil {
		return service.CreateInput{}, err
	}
	return service.CreateInput{
		PrivateSpaceID: room,
		StartDate:      start,
		EndDate:        end,
		IsForTwo:       r.IsForTwo,
		LodgingTax:     r.LodgingTax,
		TotalPrice:     r.TotalPrice,
	}, nil
}

// UpdateReservationRequest carries the only mutable field of a reservation.
type UpdateReservationRequest struct {
	Status string `json:"status"`
}

func (r *UpdateReservationRequest) Normalize() {
	r.Status = strings.ToUpper(strings.TrimSpace(r.Status))
}

func (r *UpdateReservationRequest) Validate() error {
	if r.Status == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	return nil
}

type CreateReviewRequest struct {
	ReservationID string `json:"reservationId"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

func (r *CreateReviewRequest) Normalize() {
	r.ReservationID = strings.TrimSpace(r.ReservationID)
}

func (r *CreateReviewRequest) Validate() error {
	if r.ReservationID == "" {
		return dErrors.New(dErrors.CodeValidation, "reservationId is required")
	}
	return nil
}

// reservationFilter reads ?status=&clientId=&privateSpaceId=&startDate[after]=&endDate[before]=.
func reservationFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	var f models.Filter
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		f.Status = models.Status(strings.ToUpper(raw))
		if !f.Status.IsValid() {
			return f, dErrors.New(dErrors.CodeBadRequest, "unknown status: "+raw)
		}
	}
	if raw := q.Get("clientId"); raw != "" {
		client, err := id.ParseUserID(raw)
		if err != nil {
			return f, err
		}
		f.ClientID = &client
	}
	if raw := q.Get("privateSpaceId"); raw != "" {
		room, err := id.ParsePrivateSpaceID(raw)
		if err != nil {
			return f, err
		}
		f.PrivateSpaceID = &room
	}
	if raw := q.Get("startDate[after]"); raw != "" {
		t, err := parseDate(raw, "startDate[after]")
		if err != nil {
			return f, err
		}
		f.StartsAfter = &t
	}
	if raw := q.Get("endDate[before]"); raw != "" {
		t, err := parseDate(raw, "endDate[before]")
		if err != nil {
			return f, err
		}
		f.EndsBefore = &t
	}
	return f, nil
}

// reviewFilter reads ?reservationId=&authorId=.
func reviewFilter(r *http.Request) (models.ReviewFilter, error) {
	q := r.URL.Query()
	var f models.ReviewFilter
	if raw := q.Get("reservationId"); raw != "" {
		rid, err := id.ParseReservationID(raw)
		if err != nil {
			return f, err
		}
		f.ReservationID = &rid
	}
	if raw := q.Get("authorId"); raw != "" {
		author, err := id.ParseUserID(raw)
		if err != nil {
			return f, err
		}
		f.AuthorID = &author
	}
	return f, nil
}
