package core

import "errors"

// ErrRoomClosed is returned by Join on a room that emptied out and was
// unlinked from its manager. Callers fetch the room again and retry.
var ErrRoomClosed = errors.New("room closed")

// RoomOptions tunes a room's behaviour.
type RoomOptions struct {
	// PromoteAdmin hands the admin role to the next member in join order
	// when the admin leaves. Without it the room keeps pointing at the
	// departed admin and nobody can change the page anymore.
	PromoteAdmin bool

	// OnEmpty runs under the room's lock once the last member left.
	OnEmpty func(RoomService)
}
