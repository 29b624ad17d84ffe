package core

import (
	"github.com/dkeye/pagesync/internal/domain"
)

// JoinResult describes what a Join did.
type JoinResult struct {
	IsAdmin  bool
	Rejoined bool
	Publish  PublishResult
}

// LeaveResult describes what a Leave did. Zero value means the session was
// not a member.
type LeaveResult struct {
	Removed  bool
	WasAdmin bool
	NewAdmin SessionID
	Empty    bool
	Publish  PublishResult
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
// Every method is serialized against every other on the same room.
type RoomService interface {
	MemberCount() int
	Info() RoomInfo

	Join(ms MemberSession) (JoinResult, error)
	ChangePage(from SessionID, page int) (bool, PublishResult)
	RelayMessage(from SessionID, text string) (bool, PublishResult)
	Leave(sid SessionID) LeaveResult
	// Close evicts nobody; it only marks the room closed so late joins retry
	// against a fresh instance.
	Close()
}

// RoomManager owns room name to RoomService. A room is listed iff it has at
// least one member.
type RoomManager interface {
	GetOrCreate(name domain.RoomName) RoomService
	Get(name domain.RoomName) (RoomService, bool)
	Remove(name domain.RoomName, room RoomService) bool
	List() []RoomInfo
	StopAll()
}
