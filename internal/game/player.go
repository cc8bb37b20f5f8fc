package game

import (
	"sort"

	"github.com/google/uuid"

	"github.com/uno-arena/uno-server-go/internal/deck"
)

// Player is one seat in a room, human or bot. All fields are guarded by the
// owning room's lock once the player is seated.
type Player struct {
	ID       string
	Username string
	Hand     []deck.Card
	IsBot    bool

	// Turn-local state, reset whenever the turn moves on.
	CanDraw   bool
	CanPlay   bool
	Drawing   bool
	CalledUno bool
	MustStack bool
	LastDrawn int
}

// NewPlayer creates a human player with a fresh identity.
func NewPlayer(username string) *Player {
	return &Player{
		ID:        uuid.New().String(),
		Username:  username,
		LastDrawn: -1,
	}
}

// NewBot creates a room-controlled player.
func NewBot(username string) *Player {
	p := NewPlayer(username)
	p.IsBot = true
	return p
}

// FindPlayableCards recomputes the playable flag on every hand card against
// top and returns how many cards are playable. While the player owes a
// stacked penalty only cards of the pending penalty type count.
func (p *Player) FindPlayableCards(top deck.Card) int {
	count := 0
	for i := range p.Hand {
		playable := p.Hand[i].Matches(top)
		if p.MustStack {
			playable = p.Hand[i].Type == top.Type
		}
		p.Hand[i].Playable = playable
		if playable {
			count++
		}
	}
	return count
}

// ClearPlayable drops every playable flag.
func (p *Player) ClearPlayable() {
	for i := range p.Hand {
		p.Hand[i].Playable = false
	}
}

// MarkOnlyPlayable leaves exactly the card at index playable.
func (p *Player) MarkOnlyPlayable(index int) {
	for i := range p.Hand {
		p.Hand[i].Playable = i == index
	}
}

// SortCards orders the hand by color, numbered cards first within a color.
// Display ordering only; legality is unaffected.
func (p *Player) SortCards() {
	sort.SliceStable(p.Hand, func(i, j int) bool {
		if p.Hand[i].Color != p.Hand[j].Color {
			return p.Hand[i].Color < p.Hand[j].Color
		}
		return p.Hand[i].SortValue() < p.Hand[j].SortValue()
	})
}

// IndexOf locates a hand card by identity, -1 when absent.
func (p *Player) IndexOf(cardID string) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

// HoldsType reports whether any hand card has the given type.
func (p *Player) HoldsType(cardType deck.CardType) bool {
	for _, c := range p.Hand {
		if c.Type == cardType {
			return true
		}
	}
	return false
}

// resetTurnFlags strips the per-turn grants when the turn moves away.
func (p *Player) resetTurnFlags() {
	p.CanDraw = false
	p.CanPlay = false
	p.LastDrawn = -1
	p.ClearPlayable()
}

// clearRoomState wipes everything a departing player leaves behind.
func (p *Player) clearRoomState() {
	p.Hand = nil
	p.Drawing = false
	p.CalledUno = false
	p.MustStack = false
	p.resetTurnFlags()
}
