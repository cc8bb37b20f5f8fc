package game

import (
	"math/rand"

	"github.com/uno-arena/uno-server-go/internal/deck"
)

// decideMove picks the bot's next action against the current pile top: the
// index of a random playable card plus a color choice for wilds. ok is
// false when nothing is playable and the bot should draw instead.
func (p *Player) decideMove(top deck.Card) (index int, color deck.Color, ok bool) {
	playable := make([]int, 0, len(p.Hand))
	for i, c := range p.Hand {
		if c.Playable {
			playable = append(playable, i)
		}
	}
	if len(playable) == 0 {
		return 0, deck.ColorNone, false
	}

	index = playable[rand.Intn(len(playable))]
	if p.Hand[index].IsWild() {
		color = p.majorityColor()
		if color == deck.ColorNone {
			color = deck.Colors()[rand.Intn(len(deck.Colors()))]
		}
	}
	return index, color, true
}

// majorityColor returns the most common real color in the hand, ColorNone
// when the hand holds only wilds.
func (p *Player) majorityColor() deck.Color {
	counts := make(map[deck.Color]int)
	for _, c := range p.Hand {
		if c.Color != deck.ColorNone {
			counts[c.Color]++
		}
	}
	best := deck.ColorNone
	bestCount := 0
	for _, color := range deck.Colors() {
		if counts[color] > bestCount {
			best = color
			bestCount = counts[color]
		}
	}
	return best
}
