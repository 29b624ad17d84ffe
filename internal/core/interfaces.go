package core

import "github.com/dkeye/pagesync/internal/domain"

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// Merge folds o into p.
func (p *PublishResult) Merge(o PublishResult) {
	p.SendTo += o.SendTo
	p.Dropped = append(p.Dropped, o.Dropped...)
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
}

// RoomInfo is a point-in-time summary of a room.
type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
	PageNumber  int             `json:"page_number"`
	AdminID     domain.UserID   `json:"admin_id,omitempty"`
	Members     []MemberDTO     `json:"members,omitempty"`
}
