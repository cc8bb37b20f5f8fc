package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uno-arena/uno-server-go/internal/deck"
)

func TestDecideMovePicksFlaggedCard(t *testing.T) {
	top := number(deck.ColorRed, 5)
	p := NewBot("bot")
	p.Hand = []deck.Card{
		number(deck.ColorBlue, 1),
		number(deck.ColorRed, 7),
		number(deck.ColorGreen, 2),
	}
	p.FindPlayableCards(top)

	index, color, ok := p.decideMove(top)
	if !ok {
		t.Fatal("expected a playable move")
	}
	if index != 1 {
		t.Fatalf("expected the red seven at index 1, got %d", index)
	}
	if color != deck.ColorNone {
		t.Fatalf("expected no color choice for a non-wild, got %v", color)
	}
}

func TestDecideMoveDrawsWhenNothingPlayable(t *testing.T) {
	top := number(deck.ColorRed, 5)
	p := NewBot("bot")
	p.Hand = []deck.Card{
		number(deck.ColorBlue, 1),
		number(deck.ColorGreen, 2),
	}
	p.FindPlayableCards(top)

	_, _, ok := p.decideMove(top)
	if ok {
		t.Fatal("expected the bot to draw")
	}
}

func TestDecideMoveChoosesMajorityColorForWilds(t *testing.T) {
	top := number(deck.ColorRed, 5)
	p := NewBot("bot")
	p.Hand = []deck.Card{
		wild(deck.TypePlus4),
		number(deck.ColorGreen, 1),
		number(deck.ColorGreen, 2),
		number(deck.ColorBlue, 3),
	}
	p.MarkOnlyPlayable(0)

	index, color, ok := p.decideMove(top)
	require.True(t, ok)
	assert.Equal(t, 0, index)
	assert.Equal(t, deck.ColorGreen, color, "two greens outweigh one blue")
}

func TestDecideMoveColorForAllWildHand(t *testing.T) {
	top := number(deck.ColorRed, 5)
	p := NewBot("bot")
	p.Hand = []deck.Card{wild(deck.TypeWild), wild(deck.TypePlus4)}
	p.FindPlayableCards(top)

	_, color, ok := p.decideMove(top)
	require.True(t, ok)
	assert.NotEqual(t, deck.ColorNone, color, "a wild play always names a color")
}

func TestMajorityColorIgnoresWilds(t *testing.T) {
	p := NewBot("bot")
	p.Hand = []deck.Card{
		wild(deck.TypeWild),
		wild(deck.TypePlus4),
		number(deck.ColorYellow, 4),
	}
	assert.Equal(t, deck.ColorYellow, p.majorityColor())

	p.Hand = []deck.Card{wild(deck.TypeWild)}
	assert.Equal(t, deck.ColorNone, p.majorityColor())
}

func TestBotsPlayWholeTurnsAgainstOneHuman(t *testing.T) {
	env := newTestEnv(t, testTiming(), DefaultSettings(), "ana")
	r := env.room
	require.NoError(t, r.AddBot())
	require.NoError(t, r.StartGame())

	human := env.players[0]

	// Regardless of how many turns the bot chains through, control either
	// returns to the human or the bot finishes the game.
	for i := 0; i < 20; i++ {
		if r.winner != nil {
			assert.True(t, r.winner.IsBot || r.winner == human)
			return
		}
		require.Equal(t, human, r.turn, "turn must rest on the human between actions")
		r.DrawCards(human, VoluntaryDraw)
		if r.turn == human && human.CanPlay {
			r.KeepCard(human)
		}
	}
	assert.Equal(t, 108, totalCards(r), "cards conserved across bot turns")
}

func TestBotCallsUnoAtTwoCards(t *testing.T) {
	env := newTestEnv(t, testTiming(), DefaultSettings(), "ana")
	r := env.room
	require.NoError(t, r.AddBot())
	require.NoError(t, r.StartGame())

	bot := r.players[1]
	human := env.players[0]

	setPile(r, number(deck.ColorRed, 5))
	setTurn(r, bot)
	setHand(r, bot, number(deck.ColorRed, 3), number(deck.ColorBlue, 9))
	setHand(r, human, number(deck.ColorGreen, 2), number(deck.ColorGreen, 4))

	r.mu.Lock()
	r.runBots()
	r.mu.Unlock()

	assert.Len(t, bot.Hand, 1, "called and played without a penalty")
	assert.Equal(t, human, r.turn)
}
