package signal

import (
	"encoding/json"

	"github.com/dkeye/pagesync/internal/core"
	"github.com/dkeye/pagesync/internal/domain"
	"github.com/rs/zerolog/log"
)

type changePagePayload struct {
	RoomName   string `json:"roomName"`
	PageNumber *int   `json:"pageNumber"`
}

type messagePayload struct {
	RoomName string  `json:"roomName"`
	Message  *string `json:"message"`
}

func (ctl *SignalWSController) handleChangePage(sid core.SessionID, data json.RawMessage) {
	var p changePagePayload
	if err := decode(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad change_page payload")
		return
	}
	room, err := domain.ParseRoomName(p.RoomName)
	if err != nil || p.PageNumber == nil {
		return
	}
	if !ctl.Orch.ChangePage(sid, room, *p.PageNumber) {
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Str("room", string(room)).Msg("change_page dropped")
	}
}

func (ctl *SignalWSController) handleMessage(sid core.SessionID, data json.RawMessage) {
	var p messagePayload
	if err := decode(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad message payload")
		return
	}
	room, err := domain.ParseRoomName(p.RoomName)
	if err != nil || p.Message == nil {
		return
	}
	text := *p.Message
	if ctl.opts.MaxMessageLen > 0 && len(text) > ctl.opts.MaxMessageLen {
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Int("len", len(text)).Msg("message too long")
		return
	}
	if !ctl.limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("message rate limited")
		return
	}
	ctl.Orch.RelayMessage(sid, room, text)
}
