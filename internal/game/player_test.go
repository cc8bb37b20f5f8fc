package game

import (
	"testing"

	"github.com/uno-arena/uno-server-go/internal/deck"
)

func TestFindPlayableCards(t *testing.T) {
	top := number(deck.ColorRed, 5)

	tests := []struct {
		name     string
		hand     []deck.Card
		expected int
	}{
		{
			name:     "empty hand",
			hand:     nil,
			expected: 0,
		},
		{
			name: "color and number matches",
			hand: []deck.Card{
				number(deck.ColorRed, 2),
				number(deck.ColorBlue, 5),
				number(deck.ColorGreen, 9),
			},
			expected: 2,
		},
		{
			name: "wilds always playable",
			hand: []deck.Card{
				wild(deck.TypeWild),
				wild(deck.TypePlus4),
				number(deck.ColorYellow, 1),
			},
			expected: 2,
		},
		{
			name: "nothing matches",
			hand: []deck.Card{
				number(deck.ColorBlue, 1),
				number(deck.ColorGreen, 2),
			},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlayer("tester")
			p.Hand = tt.hand
			got := p.FindPlayableCards(top)
			if got != tt.expected {
				t.Errorf("expected %d playable cards, got %d", tt.expected, got)
			}
			count := 0
			for _, c := range p.Hand {
				if c.Playable {
					count++
				}
			}
			if count != tt.expected {
				t.Errorf("expected %d flagged cards, got %d", tt.expected, count)
			}
		})
	}
}

func TestFindPlayableCardsUnderPendingStack(t *testing.T) {
	p := NewPlayer("tester")
	p.MustStack = true
	p.Hand = []deck.Card{
		action(deck.ColorGreen, deck.TypePlus2),
		number(deck.ColorRed, 5),
		action(deck.ColorRed, deck.TypeSkip),
		wild(deck.TypePlus4),
	}

	got := p.FindPlayableCards(action(deck.ColorRed, deck.TypePlus2))
	if got != 1 {
		t.Fatalf("expected only the matching penalty card, got %d", got)
	}
	if !p.Hand[0].Playable {
		t.Errorf("expected the counter card to be playable")
	}
	for _, c := range p.Hand[1:] {
		if c.Playable {
			t.Errorf("expected %s %s to be blocked under a pending stack", c.Color, c.Type)
		}
	}
}

func TestSortCardsGroupsByColor(t *testing.T) {
	p := NewPlayer("tester")
	p.Hand = []deck.Card{
		number(deck.ColorBlue, 3),
		action(deck.ColorRed, deck.TypeSkip),
		wild(deck.TypeWild),
		number(deck.ColorRed, 7),
		number(deck.ColorYellow, 0),
	}
	p.SortCards()

	for i := 1; i < len(p.Hand); i++ {
		if p.Hand[i].Color < p.Hand[i-1].Color {
			t.Fatalf("hand not grouped by color at %d: %v before %v",
				i, p.Hand[i-1].Color, p.Hand[i].Color)
		}
	}
	if p.Hand[0].Type != deck.TypeWild {
		t.Errorf("expected the colorless wild first, got %v", p.Hand[0].Type)
	}
	if p.Hand[1].Number != 7 || p.Hand[2].Type != deck.TypeSkip {
		t.Errorf("expected numbered red before the red skip, got %v then %v",
			p.Hand[1], p.Hand[2])
	}
}

func TestMarkOnlyPlayable(t *testing.T) {
	p := NewPlayer("tester")
	p.Hand = []deck.Card{
		number(deck.ColorRed, 1),
		number(deck.ColorRed, 2),
		number(deck.ColorRed, 3),
	}
	p.FindPlayableCards(number(deck.ColorRed, 5))
	p.MarkOnlyPlayable(1)

	for i, c := range p.Hand {
		if c.Playable != (i == 1) {
			t.Errorf("card %d: expected playable=%v, got %v", i, i == 1, c.Playable)
		}
	}
}

func TestHoldsType(t *testing.T) {
	p := NewPlayer("tester")
	p.Hand = []deck.Card{
		number(deck.ColorRed, 1),
		action(deck.ColorGreen, deck.TypePlus2),
	}
	if !p.HoldsType(deck.TypePlus2) {
		t.Errorf("expected plus-two to be found")
	}
	if p.HoldsType(deck.TypePlus4) {
		t.Errorf("expected no plus-four in hand")
	}
}

func TestIndexOfFindsByIdentity(t *testing.T) {
	p := NewPlayer("tester")
	a := number(deck.ColorRed, 1)
	b := number(deck.ColorRed, 1)
	p.Hand = []deck.Card{a, b}

	if got := p.IndexOf(b.ID); got != 1 {
		t.Errorf("expected index 1 for the second copy, got %d", got)
	}
	if got := p.IndexOf("missing"); got != -1 {
		t.Errorf("expected -1 for an unknown card, got %d", got)
	}
}

func TestClearRoomStateWipesEverything(t *testing.T) {
	p := NewPlayer("tester")
	p.Hand = []deck.Card{number(deck.ColorRed, 1)}
	p.CanDraw = true
	p.CanPlay = true
	p.Drawing = true
	p.CalledUno = true
	p.MustStack = true
	p.LastDrawn = 0

	p.clearRoomState()

	if p.Hand != nil {
		t.Errorf("expected hand to be dropped")
	}
	if p.CanDraw || p.CanPlay || p.Drawing || p.CalledUno || p.MustStack {
		t.Errorf("expected all flags cleared, got %+v", p)
	}
	if p.LastDrawn != -1 {
		t.Errorf("expected LastDrawn reset, got %d", p.LastDrawn)
	}
}
