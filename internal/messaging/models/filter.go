package models

import id "coliving/pkg/domain"

// Filter narrows message listings. Nil fields match all.
type Filter struct {
	SenderID   *id.UserID
	ReceiverID *id.UserID
	Unseen     bool
}

func (f Filter) Matches(m *Message) bool {
	if f.SenderID != nil && m.SenderID != *f.SenderID {
		return false
	}
	if f.ReceiverID != nil && m.ReceiverID != *f.ReceiverID {
		return false
	}
	if f.Unseen && m.SeenAt != nil {
		return false
	}
	return true
}

// Clone returns a deep copy.
func (m *Message) Clone() *Message {
	c := *m
	if m.SeenAt != nil {
		t := *m.SeenAt
		c.SeenAt = &t
	}
	return &c
}
