package orch

import (
	"github.com/dkeye/pagesync/internal/app"
	"github.com/dkeye/pagesync/internal/core"
	"github.com/rs/zerolog/log"
)

// Orchestrator ties connections to rooms. Handlers for one connection are
// invoked sequentially by its read pump; handlers for different connections
// run concurrently.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy

	// MaxUsernameLen caps display names in runes; zero means the domain default.
	MaxUsernameLen int
}

func (o *Orchestrator) handleDropped(room core.RoomService, res core.PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("sid", string(slow.ID())).Msg("kicking slow member")
			o.KickBySID(slow.ID())
		case app.NoAction:
		}
	}
}

// KickBySID closes the connection; the regular disconnect path then leaves
// every room it was in.
func (o *Orchestrator) KickBySID(sid core.SessionID) bool {
	return o.Registry.Cancel(sid)
}

// Shutdown closes every room and every live connection.
func (o *Orchestrator) Shutdown() {
	o.Rooms.StopAll()
	n := o.Registry.CancelAll()
	log.Info().Str("module", "orch").Int("sessions", n).Msg("shutdown")
}
