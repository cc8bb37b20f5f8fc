package game

// Settings configures one room's rule variations. Bluffing is reserved and
// not enforced anywhere yet.
type Settings struct {
	Stacking   bool `json:"stacking"`
	ForcePlay  bool `json:"force_play"`
	Bluffing   bool `json:"bluffing"`
	DrawToPlay bool `json:"draw_to_play"`
	Public     bool `json:"public"`
	MaxPlayers int  `json:"max_players"`
}

// DefaultSettings matches the values a room is created with when the host
// does not override anything.
func DefaultSettings() Settings {
	return Settings{
		Stacking:   true,
		ForcePlay:  false,
		Bluffing:   false,
		DrawToPlay: true,
		Public:     true,
		MaxPlayers: 4,
	}
}

// normalized clamps MaxPlayers into the 2..limit range.
func (s Settings) normalized(limit int) Settings {
	if limit < 2 || limit > 4 {
		limit = 4
	}
	if s.MaxPlayers < 2 || s.MaxPlayers > limit {
		s.MaxPlayers = limit
	}
	return s
}
