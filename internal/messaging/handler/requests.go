package handler

import (
	"net/http"
	"strconv"
	"strings"

	"coliving/internal/messaging/models"
	"coliving/internal/messaging/service"
	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
)

type SendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

func (r *SendMessageRequest) Normalize() {
	r.ReceiverID = strings.TrimSpace(r.ReceiverID)
}

func (r *SendMessageRequest) Validate() error {
	if r.ReceiverID == "" {
		return dErrors.New(dErrors.CodeValidation, "receiverId is required")
	}
	return nil
}

func (r *SendMessageRequest) input() (service.SendInput, error) {
	receiver, err := id.ParseUserID(r.ReceiverID)
	if err != nil {
		return service.SendInput{}, err
	}
	return service.SendInput{ReceiverID: receiver, Content: r.Content}, nil
}

// UpdateMessageRequest only supports marking a message as seen.
type UpdateMessageRequest struct {
	Seen bool `json:"seen"`
}

func (r *UpdateMessageRequest) Validate() error {
	if !r.Seen {
		return dErrors.New(dErrors.CodeValidation, "seen must be true")
	}
	return nil
}

// messageFilter reads ?senderId=&receiverId=&unseen=.
func messageFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	var f models.Filter
	if raw := q.Get("senderId"); raw != "" {
		sender, err := id.ParseUserID(raw)
		if err != nil {
			return f, err
		}
		f.SenderID = &sender
	}
	if raw := q.Get("receiverId"); raw != "" {
		receiver, err := id.ParseUserID(raw)
		if err != nil {
			return f, err
		}
		f.ReceiverID = &receiver
	}
	if raw := q.Get("unseen"); raw != "" {
		unseen, err := strconv.ParseBool(raw)
		if err != nil {
			return f, dErrors.New(dErrors.CodeBadRequest, "unseen must be a boolean")
		}
		f.Unseen = unseen
	}
	return f, nil
}
