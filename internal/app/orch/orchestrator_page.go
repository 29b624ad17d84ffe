package orch

import (
	"github.com/dkeye/pagesync/internal/core"
	"github.com/dkeye/pagesync/internal/domain"
)

// ChangePage moves the shared cursor if sid is the room's admin.
func (o *Orchestrator) ChangePage(sid core.SessionID, roomName domain.RoomName, page int) bool {
	room, ok := o.Rooms.Get(roomName)
	if !ok {
		return false
	}
	accepted, res := room.ChangePage(sid, page)
	o.handleDropped(room, res)
	return accepted
}

// RelayMessage sends a chat line from sid to everyone in the room.
func (o *Orchestrator) RelayMessage(sid core.SessionID, roomName domain.RoomName, text string) bool {
	room, ok := o.Rooms.Get(roomName)
	if !ok {
		return false
	}
	relayed, res := room.RelayMessage(sid, text)
	o.handleDropped(room, res)
	return relayed
}
