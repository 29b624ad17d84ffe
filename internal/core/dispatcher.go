package core

import (
	"github.com/rs/zerolog/log"
)

// Dispatcher fans events out to member sessions. Delivery is best effort:
// a failed TrySend is recorded in the result and never stops the rest.
type Dispatcher struct{}

// Send delivers one event to a single session.
func (d Dispatcher) Send(to MemberSession, event string, data any) PublishResult {
	return d.Broadcast([]MemberSession{to}, event, data)
}

// Broadcast encodes the event once and queues it on every target except the
// excluded sessions.
func (d Dispatcher) Broadcast(targets []MemberSession, event string, data any, exclude ...SessionID) PublishResult {
	res := PublishResult{}
	if len(targets) == 0 {
		return res
	}
	frame, err := Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "core.dispatch").Msg("encode event")
		return res
	}

	for _, m := range targets {
		if excluded(m.ID(), exclude) {
			continue
		}
		if err := m.Signal().TrySend(frame); err != nil {
			log.Debug().Err(err).Str("module", "core.dispatch").Str("sid", string(m.ID())).Str("event", event).Msg("drop")
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	return res
}

func excluded(sid SessionID, exclude []SessionID) bool {
	for _, e := range exclude {
		if e == sid {
			return true
		}
	}
	return false
}
