package app

import (
	"sync"

	"github.com/dkeye/pagesync/internal/core"
	"github.com/dkeye/pagesync/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomManagerImpl is the in-memory session registry. Rooms unlink themselves
// through Remove while holding their own lock, so the lock order is always
// room then manager; the manager never calls into a room under mu.
type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]core.RoomService
	opts  core.RoomOptions
}

func NewRoomManager(opts core.RoomOptions) core.RoomManager {
	return &RoomManagerImpl{
		rooms: make(map[domain.RoomName]core.RoomService),
		opts:  opts,
	}
}

func (f *RoomManagerImpl) GetOrCreate(name domain.RoomName) core.RoomService {
	f.mu.RLock()
	room, ok := f.rooms[name]
	f.mu.RUnlock()
	if ok {
		return room
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok = f.rooms[name]; ok {
		return room
	}
	opts := f.opts
	opts.OnEmpty = func(r core.RoomService) { f.Remove(name, r) }
	room = core.NewRoomService(&domain.Room{Name: name}, opts)
	f.rooms[name] = room
	log.Info().Str("module", "app.rooms").Str("room", string(name)).Msg("room created")
	return room
}

func (f *RoomManagerImpl) Get(name domain.RoomName) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[name]
	return room, ok
}

// Remove unlinks name only while it still maps to room; a fresh instance
// created under the same name after the old one closed is left alone.
func (f *RoomManagerImpl) Remove(name domain.RoomName, room core.RoomService) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.rooms[name]; !ok || cur != room {
		return false
	}
	delete(f.rooms, name)
	log.Info().Str("module", "app.rooms").Str("room", string(name)).Msg("room removed")
	return true
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	rooms := make([]core.RoomService, 0, len(f.rooms))
	for _, r := range f.rooms {
		rooms = append(rooms, r)
	}
	f.mu.RUnlock()

	out := make([]core.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Info())
	}
	return out
}

func (f *RoomManagerImpl) StopAll() {
	f.mu.Lock()
	rooms := f.rooms
	f.rooms = make(map[domain.RoomName]core.RoomService)
	f.mu.Unlock()

	for _, r := range rooms {
		r.Close()
	}
	log.Info().Str("module", "app.rooms").Int("rooms", len(rooms)).Msg("all rooms stopped")
}
