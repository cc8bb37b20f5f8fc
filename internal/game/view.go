package game

import "github.com/uno-arena/uno-server-go/internal/deck"

// OpponentView is what a player learns about another seat: counts and
// flags, never cards.
type OpponentView struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CardCount int    `json:"card_count"`
	IsBot     bool   `json:"is_bot"`
	CalledUno bool   `json:"called_uno"`
	Skipped   bool   `json:"skipped"`
}

// WinnerView names the finished game's winner.
type WinnerView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// StateView is the personalized snapshot pushed to one player after every
// mutation. Opponents sit at fixed seating offsets from the viewer: right
// is the next seat, top the one after, left the one after that.
type StateView struct {
	RoomID      string      `json:"room_id"`
	PlayerID    string      `json:"player_id"`
	HostID      string      `json:"host_id"`
	TurnID      string      `json:"turn_id"`
	Started     bool        `json:"started"`
	Reversed    bool        `json:"reversed"`
	Stack       int         `json:"stack"`
	PlayerCount int         `json:"player_count"`
	Settings    Settings    `json:"settings"`
	Pile        []deck.Card `json:"pile"`
	ActiveColor deck.Color  `json:"active_color"`

	Hand      []deck.Card `json:"hand"`
	CardCount int         `json:"card_count"`
	CalledUno bool        `json:"called_uno"`
	CannotAct bool        `json:"cannot_act"`

	Right *OpponentView `json:"right,omitempty"`
	Top   *OpponentView `json:"top,omitempty"`
	Left  *OpponentView `json:"left,omitempty"`

	Winner *WinnerView `json:"winner,omitempty"`
}

// project builds the viewer's snapshot. Caller holds the room lock.
func (r *Room) project(viewer *Player) *StateView {
	view := &StateView{
		RoomID:      r.ID,
		PlayerID:    viewer.ID,
		Started:     r.started,
		Reversed:    r.reversed,
		Stack:       r.stack,
		PlayerCount: len(r.players),
		Settings:    r.settings,
		Pile:        append([]deck.Card(nil), r.pile...),
		Hand:        append([]deck.Card(nil), viewer.Hand...),
		CardCount:   len(viewer.Hand),
		CalledUno:   viewer.CalledUno,
		CannotAct:   r.cannotAct(viewer),
	}
	if r.host != nil {
		view.HostID = r.host.ID
	}
	if r.turn != nil {
		view.TurnID = r.turn.ID
	}
	if len(r.pile) > 0 {
		view.ActiveColor = r.pile[len(r.pile)-1].Color
	}
	if r.winner != nil {
		view.Winner = &WinnerView{ID: r.winner.ID, Username: r.winner.Username}
	}

	seats := []**OpponentView{&view.Right, &view.Top, &view.Left}
	viewerIdx := r.indexOf(viewer)
	for offset := 1; offset <= 3 && offset < len(r.players); offset++ {
		opponent := r.players[(viewerIdx+offset)%len(r.players)]
		*seats[offset-1] = &OpponentView{
			ID:        opponent.ID,
			Username:  opponent.Username,
			CardCount: len(opponent.Hand),
			IsBot:     opponent.IsBot,
			CalledUno: opponent.CalledUno,
			Skipped:   r.cannotAct(opponent),
		}
	}
	return view
}

// cannotAct reports the window in which a seat holds the turn pointer
// without being allowed to act: the skip/penalty step of a turn advance.
func (r *Room) cannotAct(p *Player) bool {
	return r.started && r.winner == nil && r.turn == p && !p.CanDraw && !p.CanPlay
}
