package deck

import (
	"errors"
	"math/rand"
)

// ErrEmptyDeck is returned by Pick and Draw when no cards remain. Callers
// refill from the discard pile before retrying.
var ErrEmptyDeck = errors.New("deck is empty")

// Deck is the ordered draw pile for one room. The front of the slice is the
// top of the pile.
type Deck struct {
	cards []Card
}

// New returns a generated, unshuffled deck.
func New() *Deck {
	d := &Deck{}
	d.Generate()
	return d
}

// Generate rebuilds the standard 108-card composition in deterministic
// order: per color one 0, two each of 1-9 and two each of Plus2, Reverse
// and Skip, followed by four Wild and four Plus4.
func (d *Deck) Generate() {
	cards := make([]Card, 0, 108)
	for _, color := range Colors() {
		cards = append(cards, NewCard(color, TypeNone, 0))
		for number := 1; number <= 9; number++ {
			cards = append(cards, NewCard(color, TypeNone, number))
			cards = append(cards, NewCard(color, TypeNone, number))
		}
		for _, cardType := range []CardType{TypePlus2, TypeReverse, TypeSkip} {
			cards = append(cards, NewCard(color, cardType, -1))
			cards = append(cards, NewCard(color, cardType, -1))
		}
	}
	for i := 0; i < 4; i++ {
		cards = append(cards, NewCard(ColorNone, TypeWild, -1))
		cards = append(cards, NewCard(ColorNone, TypePlus4, -1))
	}
	d.cards = cards
}

// Shuffle permutes the deck with an unbiased Fisher-Yates pass.
func (d *Deck) Shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Pick removes and returns the card at index.
func (d *Deck) Pick(index int) (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrEmptyDeck
	}
	if index < 0 || index >= len(d.cards) {
		return Card{}, errors.New("card index out of range")
	}
	card := d.cards[index]
	d.cards = append(d.cards[:index], d.cards[index+1:]...)
	return card, nil
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (Card, error) {
	return d.Pick(0)
}

// Push appends cards to the bottom of the pile.
func (d *Deck) Push(cards ...Card) {
	d.cards = append(d.cards, cards...)
}

// Len returns the number of cards remaining.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Empty reports whether no cards remain.
func (d *Deck) Empty() bool {
	return len(d.cards) == 0
}

// Cards returns the cards in order. The slice is a copy.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}
