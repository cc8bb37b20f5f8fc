package deck

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Color identifies one of the four card colors. Wild cards carry ColorNone
// until the player who plays them assigns a color.
type Color int

const (
	ColorNone Color = iota
	ColorRed
	ColorYellow
	ColorGreen
	ColorBlue
)

var colorNames = map[Color]string{
	ColorNone:   "none",
	ColorRed:    "red",
	ColorYellow: "yellow",
	ColorGreen:  "green",
	ColorBlue:   "blue",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("color_%d", int(c))
}

// MarshalJSON emits the lowercase color name used on the wire.
func (c Color) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON parses a wire color name. "none" and the empty string map
// to ColorNone.
func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" || s == "none" {
		*c = ColorNone
		return nil
	}
	parsed, ok := ParseColor(s)
	if !ok {
		return fmt.Errorf("unknown color %q", s)
	}
	*c = parsed
	return nil
}

// ParseColor resolves a wire color name to a Color. Only the four real
// colors parse; "none" and unknown names report false.
func ParseColor(s string) (Color, bool) {
	switch s {
	case "red":
		return ColorRed, true
	case "yellow":
		return ColorYellow, true
	case "green":
		return ColorGreen, true
	case "blue":
		return ColorBlue, true
	}
	return ColorNone, false
}

// Colors lists the four assignable colors in deck order.
func Colors() []Color {
	return []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue}
}

// CardType distinguishes numbered cards (TypeNone) from action and wild
// cards.
type CardType int

const (
	TypeNone CardType = iota
	TypePlus2
	TypeReverse
	TypeSkip
	TypeWild
	TypePlus4
)

var cardTypeNames = map[CardType]string{
	TypeNone:    "none",
	TypePlus2:   "plus2",
	TypeReverse: "reverse",
	TypeSkip:    "skip",
	TypeWild:    "wild",
	TypePlus4:   "plus4",
}

func (t CardType) String() string {
	if name, ok := cardTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type_%d", int(t))
}

// MarshalJSON emits the lowercase type name used on the wire.
func (t CardType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON parses a wire type name.
func (t *CardType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for cardType, name := range cardTypeNames {
		if name == s {
			*t = cardType
			return nil
		}
	}
	return fmt.Errorf("unknown card type %q", s)
}

// Card is a single card. Color is mutable only for wild cards; Playable is
// transient per-turn state owned by the holding player.
type Card struct {
	ID       string   `json:"id"`
	Number   int      `json:"number"`
	Color    Color    `json:"color"`
	Type     CardType `json:"type"`
	Playable bool     `json:"playable"`
}

// NewCard builds a card with a fresh identity. Numbered cards pass their
// number; action and wild cards pass -1.
func NewCard(color Color, cardType CardType, number int) Card {
	return Card{
		ID:     uuid.New().String(),
		Number: number,
		Color:  color,
		Type:   cardType,
	}
}

// IsWild reports whether the card is color-assignable.
func (c Card) IsWild() bool {
	return c.Type == TypeWild || c.Type == TypePlus4
}

// IsNumbered reports whether the card is a plain numbered card.
func (c Card) IsNumbered() bool {
	return c.Type == TypeNone
}

// Penalty returns the draw penalty the card imposes, 0 for non-penalty
// cards.
func (c Card) Penalty() int {
	switch c.Type {
	case TypePlus2:
		return 2
	case TypePlus4:
		return 4
	}
	return 0
}

// Matches reports whether the card may be played on top. Wild cards always
// match; otherwise the cards must share a color, a number (numbered cards)
// or an action type.
func (c Card) Matches(top Card) bool {
	if c.IsWild() {
		return true
	}
	if top.Color != ColorNone && c.Color == top.Color {
		return true
	}
	if c.IsNumbered() && top.IsNumbered() && c.Number == top.Number {
		return true
	}
	if !c.IsNumbered() && c.Type == top.Type {
		return true
	}
	return false
}

// SortValue orders cards for display: numbered cards by their number,
// action and wild cards after them in type order.
func (c Card) SortValue() int {
	if c.IsNumbered() {
		return c.Number
	}
	return 10 + int(c.Type)
}
