package signal

import (
	"encoding/json"

	"github.com/dkeye/pagesync/internal/core"
	"github.com/dkeye/pagesync/internal/domain"
	"github.com/rs/zerolog/log"
)

type joinPayload struct {
	RoomName string `json:"roomName"`
	Username string `json:"username"`
}

type leavePayload struct {
	RoomName string `json:"roomName"`
}

func (ctl *SignalWSController) handleJoin(sid core.SessionID, data json.RawMessage) {
	var p joinPayload
	if err := decode(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad join payload")
		return
	}
	room, err := domain.ParseRoomName(p.RoomName)
	if err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join ignored")
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(room)).Str("username", p.Username).Msg("join")
	ctl.Orch.Join(sid, room, p.Username)
}

// handleLeave leaves one room; the connection itself stays open.
func (ctl *SignalWSController) handleLeave(sid core.SessionID, data json.RawMessage) {
	var p leavePayload
	if err := decode(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad leave payload")
		return
	}
	room, err := domain.ParseRoomName(p.RoomName)
	if err != nil {
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(room)).Msg("leave")
	ctl.Orch.Leave(sid, room)
}
