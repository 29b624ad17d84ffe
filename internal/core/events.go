package core

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/pagesync/internal/domain"
)

// Inbound event types.
const (
	EventJoinRoom   = "join_room"
	EventLeaveRoom  = "leave_room"
	EventChangePage = "change_page"
	EventMessage    = "message"
	EventPing       = "ping"
)

// Outbound event types. EventMessage is shared by both directions.
const (
	EventAdminCheck  = "admin_check"
	EventRoomUsers   = "roomUsers"
	EventPageChanged = "page_changed"
	EventPong        = "pong"
)

// Envelope wraps every frame on the wire.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type AdminCheck struct {
	IsAdmin bool `json:"isAdmin"`
}

type PageChanged struct {
	PageNumber int `json:"pageNumber"`
}

// ChatMessage is a user chat line. System notices go out as bare strings
// under the same event type.
type ChatMessage struct {
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
	Text     string        `json:"text"`
}

func joinNotice(username string) string  { return fmt.Sprintf("User %s has joined the room.", username) }
func leaveNotice(username string) string { return fmt.Sprintf("User %s has left the room.", username) }
func promotedNotice(username string) string {
	return fmt.Sprintf("User %s is now the admin.", username)
}

const adminLeftNotice = "The admin has left the room."

// Encode marshals an event into a wire frame.
func Encode(event string, data any) (Frame, error) {
	b, err := json.Marshal(Envelope{Type: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return b, nil
}
