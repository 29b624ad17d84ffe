package app

import (
	"fmt"

	"github.com/dkeye/pagesync/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
)

// Policy decides what happens to a member whose connection could not take
// a frame.
type Policy interface {
	OnBackPressure(room core.RoomService, member core.MemberSession) BackpressureAction
}

// IgnorePolicy drops the frame and keeps the member.
type IgnorePolicy struct{}

func (IgnorePolicy) OnBackPressure(core.RoomService, core.MemberSession) BackpressureAction {
	return NoAction
}

// KickPolicy disconnects members that fall behind.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(core.RoomService, core.MemberSession) BackpressureAction {
	return KickMember
}

// ParsePolicy maps a config value onto a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "none":
		return IgnorePolicy{}, nil
	case "kick":
		return KickPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", name)
	}
}
