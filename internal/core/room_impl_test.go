package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/dkeye/pagesync/internal/domain"
)

var errFull = errors.New("full")

type wireEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// fakeConn records every frame it is handed.
type fakeConn struct {
	mu     sync.Mutex
	events []wireEvent
	fail   bool
}

func (c *fakeConn) TrySend(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errFull
	}
	var ev wireEvent
	if err := json.Unmarshal(f, &ev); err != nil {
		return err
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) ofType(typ string) []wireEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []wireEvent
	for _, ev := range c.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (c *fakeConn) notices() []string {
	var out []string
	for _, ev := range c.ofType(EventMessage) {
		var s string
		if json.Unmarshal(ev.Data, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	c.events = nil
	c.mu.Unlock()
}

func newMember(id, name string) (MemberSession, *fakeConn) {
	conn := &fakeConn{}
	u := &domain.User{ID: domain.UserID(id), Username: name}
	return NewMemberSession(domain.NewMember(u), conn), conn
}

func lastAdminCheck(t *testing.T, c *fakeConn) bool {
	t.Helper()
	evs := c.ofType(EventAdminCheck)
	if len(evs) == 0 {
		t.Fatal("no admin_check received")
	}
	var ac AdminCheck
	if err := json.Unmarshal(evs[len(evs)-1].Data, &ac); err != nil {
		t.Fatal(err)
	}
	return ac.IsAdmin
}

func lastRoomUsers(t *testing.T, c *fakeConn) []MemberDTO {
	t.Helper()
	evs := c.ofType(EventRoomUsers)
	if len(evs) == 0 {
		t.Fatal("no roomUsers received")
	}
	var users []MemberDTO
	if err := json.Unmarshal(evs[len(evs)-1].Data, &users); err != nil {
		t.Fatal(err)
	}
	return users
}

func pages(t *testing.T, c *fakeConn) []int {
	t.Helper()
	var out []int
	for _, ev := range c.ofType(EventPageChanged) {
		var pc PageChanged
		if err := json.Unmarshal(ev.Data, &pc); err != nil {
			t.Fatal(err)
		}
		out = append(out, pc.PageNumber)
	}
	return out
}

func newTestRoom(opts RoomOptions) RoomService {
	return NewRoomService(&domain.Room{Name: "lobby"}, opts)
}

func TestJoinElectsFirstMember(t *testing.T) {
	room := newTestRoom(RoomOptions{})
	a, ac := newMember("a", "alice")
	b, bc := newMember("b", "bob")
	c, cc := newMember("c", "carol")

	for _, m := range []MemberSession{a, b, c} {
		if _, err := room.Join(m); err != nil {
			t.Fatal(err)
		}
	}

	if !lastAdminCheck(t, ac) {
		t.Error("first joiner should be admin")
	}
	if lastAdminCheck(t, bc) || lastAdminCheck(t, cc) {
		t.Error("later joiners should not be admin")
	}
	if got := room.Info().AdminID; got != "a" {
		t.Errorf("admin = %q, want a", got)
	}

	want := []MemberDTO{{"a", "alice"}, {"b", "bob"}, {"c", "carol"}}
	for _, conn := range []*fakeConn{ac, bc, cc} {
		if got := lastRoomUsers(t, conn); !reflect.DeepEqual(got, want) {
			t.Errorf("roomUsers = %v, want %v", got, want)
		}
	}
}

func TestJoinSendsAdminCheckOnlyToJoiner(t *testing.T) {
	room := newTestRoom(RoomOptions{})
	a, ac := newMember("a", "alice")
	b, _ := newMember("b", "bob")
	room.Join(a)
	room.Join(b)

	if n := len(ac.ofType(EventAdminCheck)); n != 1 {
		t.Errorf("alice got %d admin_check events, want 1", n)
	}
}

func TestJoinNoticeGoesToOthers(t *testing.T) {
	room := newTestRoom(RoomOptions{})
	a, ac := newMember("a", "alice")
	b, bc := newMember("b", "bob")
	room.Join(a)
	room.Join(b)

	if got := ac.notices(); !reflect.DeepEqual(got, []string{"User bob has joined the room."}) {
		t.Errorf("alice notices = %v", got)
	}
	if got := bc.notices(); len(got) != 0 {
		t.Errorf("bob should not hear his own join, got %v", got)
	}
}

func TestJoinSyncsCurrentPage(t *testing.T) {
	room := newTestRoom(RoomOptions{})
	a, _ := newMember("a", "alice")
	room.Join(a)
	room.ChangePage("a", 7)

	b, bc := newMember("b", "bob")
	room.Join(b)
	if got := pages(t, bc); !reflect.DeepEqual(got, []int{7}) {
		t.Errorf("late joiner pages = %v, want [7]", got)
	}
}

func TestRejoinIsIdempotent(t *testing.T) {
	room := newTestRoom(RoomOptions{})
	a, ac := newMember("a", "alice")
	b, _ := newMember("b", "bob")
	room.Join(a)
	room.Join(b)
	ac.reset()

	again, _ := newMember("b", "robert")
	res, err := room.Join(again)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Rejoined || res.IsAdmin {
		t.Errorf("unexpected result %+v", res)
	}
	if n := room.MemberCount(); n != 2 {
		t.Errorf("member count = %d, want 2", n)
	}
	want := []MemberDTO{{"a", "alice"}, {"b", "bob"}}
	if got := lastRoomUsers(t, ac); !reflect.DeepEqual(got, want) {
		t.Errorf("roomUsers = %v, want %v", got, want)
	}
	if got := ac.notices(); len(got) != 0 {
		t.Errorf("rejoin should not announce, got %v", got)
	}
}

func TestChangePage(t *testing.T) {
	room := newTestRoom(RoomOptions{})
	a, ac := newMember("a", "alice")
	b, bc := newMember("b", "bob")
	room.Join(a)
	room.Join(b)
	ac.reset()
	bc.reset()

	t.Run("admin", func(t *testing.T) {
		ok, res := room.ChangePage("a", 5)
		if !ok {
			t.Fatal("admin page change rejected")
		}
		if res.SendTo != 2 {
			t.Errorf("sent to %d, want 2", res.SendTo)
		}
		for _, c := range []*fakeConn{ac, bc} {
			if got := pages(t, c); !reflect.DeepEqual(got, []int{5}) {
				t.Errorf("pages = %v, want [5]", got)
			}
		}
		if got := room.Info().PageNumber; got != 5 {
			t.Errorf("page = %d, want 5", got)
		}
	})

	t.Run("non admin", func(t *testing.T) {
		ac.reset()
		bc.reset()
		ok, _ := room.ChangePage("b", 9)
		if ok {
			t.Fatal("non-admin page change accepted")
		}
		if len(pages(t, ac))+len(pages(t, bc)) != 0 {
			t.Error("rejected change was broadcast")
		}
		if got := room.Info().PageNumber; got != 5 {
			t.Errorf("page = %d, want 5", got)
		}
	})

	t.Run("no lower bound", func(t *testing.T) {
		if ok, _ := room.ChangePage("a", 0); !ok {
			t.Fatal("page 0 rejected")
		}
		if got := room.Info().PageNumber; got != 0 {
			t.Errorf("page = %d, want 0", got)
		}
	})
}

func TestRelayMessage(t *testing.T) {
	room := newTestRoom(RoomOptions{})
	a, ac := newMember("a", "alice")
	b, bc := newMember("b", "bob")
	room.Join(a)
	room.Join(b)
	ac.reset()
	bc.reset()

	ok, _ := room.RelayMessage("b", "hi")
	if !ok {
		t.Fatal("member message dropped")
	}
	want := ChatMessage{UserID: "b", Username: "bob", Text: "hi"}
	for _, c := range []*fakeConn{ac, bc} {
		evs := c.ofType(EventMessage)
		if len(evs) != 1 {
			t.Fatalf("got %d messages, want 1", len(evs))
		}
		var got ChatMessage
		if err := json.Unmarshal(evs[0].Data, &got); err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("message = %+v, want %+v", got, want)
		}
	}

	ac.reset()
	if ok, _ := room.RelayMessage("stranger", "hi"); ok {
		t.Error("non-member message relayed")
	}
	if n := len(ac.ofType(EventMessage)); n != 0 {
		t.Errorf("non-member message reached %d frames", n)
	}
}

func TestLeave(t *testing.T) {
	tests := []struct {
		name         string
		promote      bool
		leaver       SessionID
		wantNotices  []string
		wantAdmin    domain.UserID
		wantNewAdmin SessionID
	}{
		{
			name:        "member",
			promote:     true,
			leaver:      "b",
			wantNotices: []string{"User bob has left the room."},
			wantAdmin:   "a",
		},
		{
			name:    "admin promoted",
			promote: true,
			leaver:  "a",
			wantNotices: []string{
				"User alice has left the room.",
				"The admin has left the room.",
				"User bob is now the admin.",
			},
			wantAdmin:    "b",
			wantNewAdmin: "b",
		},
		{
			name:    "admin not promoted",
			promote: false,
			leaver:  "a",
			wantNotices: []string{
				"User alice has left the room.",
				"The admin has left the room.",
			},
			wantAdmin: "a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := newTestRoom(RoomOptions{PromoteAdmin: tt.promote})
			a, _ := newMember("a", "alice")
			b, bc := newMember("b", "bob")
			c, cc := newMember("c", "carol")
			room.Join(a)
			room.Join(b)
			room.Join(c)
			bc.reset()
			cc.reset()

			res := room.Leave(tt.leaver)
			if !res.Removed || res.Empty {
				t.Fatalf("unexpected result %+v", res)
			}
			if res.NewAdmin != tt.wantNewAdmin {
				t.Errorf("new admin = %q, want %q", res.NewAdmin, tt.wantNewAdmin)
			}
			if got := cc.notices(); !reflect.DeepEqual(got, tt.wantNotices) {
				t.Errorf("notices = %v, want %v", got, tt.wantNotices)
			}
			if got := room.Info().AdminID; got != tt.wantAdmin {
				t.Errorf("admin = %q, want %q", got, tt.wantAdmin)
			}
			if room.MemberCount() != 2 {
				t.Errorf("member count = %d, want 2", room.MemberCount())
			}
			if tt.wantNewAdmin == "b" && !lastAdminCheck(t, bc) {
				t.Error("promoted member did not get admin_check(true)")
			}
			if tt.wantNewAdmin == "" && len(bc.ofType(EventAdminCheck)) != 0 {
				t.Error("unexpected admin_check after leave")
			}
		})
	}
}

func TestLeaveSnapshotIsCurrent(t *testing.T) {
	room := newTestRoom(RoomOptions{})
	a, ac := newMember("a", "alice")
	b, _ := newMember("b", "bob")
	c, _ := newMember("c", "carol")
	room.Join(a)
	room.Join(b)
	room.Join(c)

	room.Leave("b")
	want := []MemberDTO{{"a", "alice"}, {"c", "carol"}}
	if got := lastRoomUsers(t, ac); !reflect.DeepEqual(got, want) {
		t.Errorf("roomUsers = %v, want %v", got, want)
	}
}

func TestLeaveUnknownIsNoop(t *testing.T) {
	room := newTestRoom(RoomOptions{})
	a, ac := newMember("a", "alice")
	room.Join(a)
	ac.reset()

	if res := room.Leave("ghost"); res.Removed {
		t.Fatal("ghost removed")
	}
	if len(ac.events) != 0 {
		t.Errorf("no-op leave produced %d events", len(ac.events))
	}
}

func TestLastLeaveClosesRoom(t *testing.T) {
	var emptied RoomService
	room := newTestRoom(RoomOptions{OnEmpty: func(r RoomService) { emptied = r }})
	a, _ := newMember("a", "alice")
	room.Join(a)

	res := room.Leave("a")
	if !res.Empty {
		t.Fatal("room should report empty")
	}
	if emptied != room {
		t.Fatal("OnEmpty not called with the room")
	}
	if _, err := room.Join(a); !errors.Is(err, ErrRoomClosed) {
		t.Errorf("join on closed room: err = %v", err)
	}
	if ok, _ := room.ChangePage("a", 3); ok {
		t.Error("page change on closed room accepted")
	}
}

func TestDeliveryFailureDoesNotStopBroadcast(t *testing.T) {
	room := newTestRoom(RoomOptions{})
	a, ac := newMember("a", "alice")
	b, bc := newMember("b", "bob")
	room.Join(a)
	room.Join(b)
	ac.fail = true
	bc.reset()

	ok, res := room.ChangePage("a", 2)
	if !ok {
		t.Fatal("page change rejected")
	}
	if res.SendTo != 1 || len(res.Dropped) != 1 || res.Dropped[0].ID() != "a" {
		t.Errorf("unexpected publish result %+v", res)
	}
	if got := pages(t, bc); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("pages = %v, want [2]", got)
	}
}

func TestConcurrentJoinsElectOneAdmin(t *testing.T) {
	room := newTestRoom(RoomOptions{})
	const n = 50

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		admins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, _ := newMember(fmt.Sprintf("m%d", i), "user")
			res, err := room.Join(m)
			if err != nil {
				t.Error(err)
				return
			}
			if res.IsAdmin {
				mu.Lock()
				admins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if admins != 1 {
		t.Errorf("admins = %d, want 1", admins)
	}
	if room.MemberCount() != n {
		t.Errorf("member count = %d, want %d", room.MemberCount(), n)
	}
}
