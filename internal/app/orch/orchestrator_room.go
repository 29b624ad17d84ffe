package orch

import (
	"errors"

	"github.com/dkeye/pagesync/internal/core"
	"github.com/dkeye/pagesync/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join adds sid to roomName under the given display name, creating the room
// if needed. A room that closed between lookup and join is fetched again.
// Blank or over long names are refused.
func (o *Orchestrator) Join(sid core.SessionID, roomName domain.RoomName, username string) (core.JoinResult, bool) {
	sig, ok := o.Registry.Signal(sid)
	if !ok {
		return core.JoinResult{}, false
	}
	user, err := domain.NewUser(domain.UserID(sid), username, o.MaxUsernameLen)
	if err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("join refused")
		return core.JoinResult{}, false
	}
	sess := core.NewMemberSession(domain.NewMember(user), sig)

	for {
		room := o.Rooms.GetOrCreate(roomName)
		res, err := room.Join(sess)
		if errors.Is(err, core.ErrRoomClosed) {
			log.Debug().Str("module", "orch").Str("room", string(roomName)).Msg("room closed during join, retrying")
			continue
		}
		o.Registry.AddRoom(sid, roomName)
		o.handleDropped(room, res.Publish)
		log.Debug().Str("module", "orch").Str("room", string(roomName)).Int("members", room.MemberCount()).Msg("joined")
		return res, true
	}
}

// Leave removes sid from roomName. Unknown rooms and members are ignored.
func (o *Orchestrator) Leave(sid core.SessionID, roomName domain.RoomName) bool {
	o.Registry.RemoveRoom(sid, roomName)
	room, ok := o.Rooms.Get(roomName)
	if !ok {
		return false
	}
	res := room.Leave(sid)
	o.handleDropped(room, res.Publish)
	return res.Removed
}

// OnDisconnect leaves every room the connection joined and forgets it.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	rooms := o.Registry.Unbind(sid)
	for _, name := range rooms {
		o.Leave(sid, name)
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Int("rooms", len(rooms)).Msg("disconnected")
}
