package models

import (
	"strings"
	"time"

	id "coliving/pkg/domain"
	dErrors "coliving/pkg/domain-errors"
)

const maxContentLength = 5000

// Message is a direct message between two users.
type Message struct {
	ID         id.MessageID `json:"id"`
	SenderID   id.UserID    `json:"senderId"`
	ReceiverID id.UserID    `json:"receiverId"`
	Content    string       `json:"content"`
	SentAt     time.Time    `json:"sentAt"`
	SeenAt     *time.Time   `json:"seenAt,omitempty"`
}

func NewMessage(msgID id.MessageID, sender, receiver id.UserID, content string, now time.Time) (*Message, error) {
	if sender.IsNil() || receiver.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "message requires a sender and a receiver")
	}
	if sender == receiver {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "cannot send a message to yourself")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "content cannot be empty")
	}
	if len(content) > maxContentLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "content is too long")
	}
	return &Message{
		ID:         msgID,
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		SentAt:     now,
	}, nil
}

// MarkSeen stamps SeenAt once. Later calls keep the first timestamp.
func (m *Message) MarkSeen(now time.Time) {
	if m.SeenAt == nil {
		m.SeenAt = &now
	}
}

// Involves reports whether userID is a party to the conversation.
func (m *Message) Involves(userID id.UserID) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}
