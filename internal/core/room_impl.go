package core

import (
	"sync"

	"github.com/dkeye/pagesync/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room     *domain.Room
	opts     RoomOptions
	dispatch Dispatcher

	mu      sync.Mutex
	members []MemberSession
	page    int
	admin   SessionID
	closed  bool
}

func NewRoomService(room *domain.Room, opts RoomOptions) RoomService {
	return &roomImpl{
		room: room,
		opts: opts,
		page: 1,
	}
}

func (r *roomImpl) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

func (r *roomImpl) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomInfo{
		Name:        r.room.Name,
		MemberCount: len(r.members),
		PageNumber:  r.page,
		AdminID:     domain.UserID(r.admin),
		Members:     r.snapshot(),
	}
}

func (r *roomImpl) Join(ms MemberSession) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return JoinResult{}, ErrRoomClosed
	}

	sid := ms.ID()
	res := JoinResult{}
	if i := r.indexOf(sid); i >= 0 {
		res.Rejoined = true
		ms = r.members[i]
	} else {
		r.members = append(r.members, ms)
		if r.admin == "" {
			r.admin = sid
		}
	}
	res.IsAdmin = sid == r.admin

	res.Publish.Merge(r.dispatch.Send(ms, EventAdminCheck, AdminCheck{IsAdmin: res.IsAdmin}))
	res.Publish.Merge(r.dispatch.Send(ms, EventPageChanged, PageChanged{PageNumber: r.page}))
	res.Publish.Merge(r.dispatch.Broadcast(r.members, EventRoomUsers, r.snapshot()))
	if !res.Rejoined {
		res.Publish.Merge(r.dispatch.Broadcast(r.members, EventMessage, joinNotice(ms.Meta().Username()), sid))
	}

	log.Info().Str("module", "core.room").Str("room", string(r.room.Name)).Str("sid", string(sid)).
		Str("username", ms.Meta().Username()).Bool("admin", res.IsAdmin).Bool("rejoin", res.Rejoined).Msg("member joined")
	return res, nil
}

func (r *roomImpl) ChangePage(from SessionID, page int) (bool, PublishResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.admin != from || r.indexOf(from) < 0 {
		log.Debug().Str("module", "core.room").Str("room", string(r.room.Name)).Str("sid", string(from)).Msg("page change rejected")
		return false, PublishResult{}
	}

	r.page = page
	res := r.dispatch.Broadcast(r.members, EventPageChanged, PageChanged{PageNumber: page})
	log.Info().Str("module", "core.room").Str("room", string(r.room.Name)).Int("page", page).Msg("page changed")
	return true, res
}

func (r *roomImpl) RelayMessage(from SessionID, text string) (bool, PublishResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(from)
	if i < 0 {
		return false, PublishResult{}
	}

	sender := r.members[i].Meta()
	res := r.dispatch.Broadcast(r.members, EventMessage, ChatMessage{
		UserID:   sender.ID(),
		Username: sender.Username(),
		Text:     text,
	})
	return true, res
}

func (r *roomImpl) Leave(sid SessionID) LeaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(sid)
	if i < 0 {
		return LeaveResult{}
	}

	gone := r.members[i]
	r.members = append(r.members[:i:i], r.members[i+1:]...)
	res := LeaveResult{Removed: true, WasAdmin: sid == r.admin}

	res.Publish.Merge(r.dispatch.Broadcast(r.members, EventRoomUsers, r.snapshot()))
	res.Publish.Merge(r.dispatch.Broadcast(r.members, EventMessage, leaveNotice(gone.Meta().Username())))

	if res.WasAdmin {
		res.Publish.Merge(r.dispatch.Broadcast(r.members, EventMessage, adminLeftNotice))
		if r.opts.PromoteAdmin && len(r.members) > 0 {
			next := r.members[0]
			r.admin = next.ID()
			res.NewAdmin = r.admin
			res.Publish.Merge(r.dispatch.Send(next, EventAdminCheck, AdminCheck{IsAdmin: true}))
			res.Publish.Merge(r.dispatch.Broadcast(r.members, EventMessage, promotedNotice(next.Meta().Username())))
		}
	}

	log.Info().Str("module", "core.room").Str("room", string(r.room.Name)).Str("sid", string(sid)).
		Bool("was_admin", res.WasAdmin).Int("remaining", len(r.members)).Msg("member left")

	if len(r.members) == 0 {
		res.Empty = true
		r.closed = true
		if r.opts.OnEmpty != nil {
			r.opts.OnEmpty(r)
		}
	}
	return res
}

func (r *roomImpl) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// snapshot must be called with mu held.
func (r *roomImpl) snapshot() []MemberDTO {
	out := make([]MemberDTO, 0, len(r.members))
	for _, ms := range r.members {
		out = append(out, MemberDTO{ID: ms.Meta().ID(), Username: ms.Meta().Username()})
	}
	return out
}

func (r *roomImpl) indexOf(sid SessionID) int {
	for i, ms := range r.members {
		if ms.ID() == sid {
			return i
		}
	}
	return -1
}
