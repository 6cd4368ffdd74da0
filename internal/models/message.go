package models

import "time"

type ChatMessage struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	Content       string    `db:"content"`
	IsUser        bool      `db:"is_user"`
	PersonalityID *int64    `db:"personality_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// StandaloneMessageID is the wire-level sentinel clients send when a
// confirmation has no originating chat message (direct or batch entry).
const StandaloneMessageID = -1

// MessageRef is a tagged reference to the chat message a draft or
// confirmation originated from. The zero value is the standalone variant,
// so a missing reference can never collide with a real message id.
type MessageRef struct {
	id    int64
	valid bool
}

func StandaloneRef() MessageRef {
	return MessageRef{}
}

func RefFromMessage(id int64) MessageRef {
	return MessageRef{id: id, valid: true}
}

// RefFromWireID converts the wire representation, treating the -1 sentinel
// (and any other non-positive id) as standalone.
func RefFromWireID(id int64) MessageRef {
	if id <= 0 {
		return StandaloneRef()
	}
	return RefFromMessage(id)
}

func (r MessageRef) IsStandalone() bool {
	return !r.valid
}

// MessageID returns the referenced message id; ok is false for the
// standalone variant.
func (r MessageRef) MessageID() (id int64, ok bool) {
	return r.id, r.valid
}
