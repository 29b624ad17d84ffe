package domain

import (
	"errors"
	"strings"
)

var ErrRoomNameEmpty = errors.New("room name empty")

// RoomName is the free-text key a room is registered under. It is chosen by
// whoever joins first.
type RoomName string

type Room struct {
	Name RoomName
}

// ParseRoomName rejects blank names. Surrounding whitespace is kept: two
// names that differ only in padding are two different rooms.
func ParseRoomName(raw string) (RoomName, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrRoomNameEmpty
	}
	return RoomName(raw), nil
}
