package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/uno-arena/uno-server-go/internal/config"
	"github.com/uno-arena/uno-server-go/internal/deck"
	"github.com/uno-arena/uno-server-go/internal/stats"
)

// VoluntaryDraw is the DrawCards amount for a player-initiated draw with no
// fixed count.
const VoluntaryDraw = -1

// Room is one isolated game instance: seating, deck, discard pile and the
// full turn state machine. One mutex guards everything; the pacing delays
// inside draw and turn sequences release it and re-check their guards on
// resumption.
type Room struct {
	ID string

	mu       sync.Mutex
	logger   *zap.Logger
	notifier Notifier
	stats    *stats.Collector
	timing   config.GameConfig
	onEmpty  func(roomID string)

	host     *Player
	players  []*Player
	deck     *deck.Deck
	pile     []deck.Card
	turn     *Player
	reversed bool
	stack    int
	winner   *Player
	started  bool
	empty    bool
	settings Settings

	inactivity int
	botSeq     int
	stop       chan struct{}
	stopOnce   sync.Once
}

func newRoom(id string, host *Player, settings Settings, notifier Notifier, collector *stats.Collector, timing config.GameConfig, logger *zap.Logger) *Room {
	return &Room{
		ID:       id,
		logger:   logger,
		notifier: notifier,
		stats:    collector,
		timing:   timing,
		host:     host,
		players:  []*Player{host},
		deck:     deck.New(),
		settings: settings,
		stop:     make(chan struct{}),
	}
}

// AddPlayer seats a player. Only lobbies with a free seat accept joins.
func (r *Room) AddPlayer(p *Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("room %s already started", r.ID)
	}
	if len(r.players) >= r.settings.MaxPlayers {
		return fmt.Errorf("room %s is full", r.ID)
	}
	r.players = append(r.players, p)
	r.logger.Info("player joined",
		zap.String("room_id", r.ID),
		zap.String("player_id", p.ID),
		zap.String("username", p.Username),
	)
	r.broadcast()
	return nil
}

// AddBot seats a room-controlled player in the lobby.
func (r *Room) AddBot() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("room %s already started", r.ID)
	}
	if len(r.players) >= r.settings.MaxPlayers {
		return fmt.Errorf("room %s is full", r.ID)
	}
	bot := r.newBot()
	r.players = append(r.players, bot)
	r.stats.BotUsed()
	r.logger.Info("bot added",
		zap.String("room_id", r.ID),
		zap.String("bot_id", bot.ID),
		zap.String("username", bot.Username),
	)
	r.notifyBotSeated(bot, "")
	r.broadcast()
	return nil
}

// StartGame deals and opens play: fresh shuffled deck, one discard, seven
// cards per seat, a random starting player. Rejected once started or with
// fewer than two seats.
func (r *Room) StartGame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("room %s already started", r.ID)
	}
	if len(r.players) < 2 {
		return fmt.Errorf("at least 2 players required to start")
	}

	r.deck.Generate()
	r.deck.Shuffle()

	first, err := r.deck.Draw()
	if err != nil {
		return fmt.Errorf("deal first card: %w", err)
	}
	if first.IsWild() {
		first.Color = deck.Colors()[rand.Intn(len(deck.Colors()))]
	}
	r.pile = []deck.Card{first}

	for _, p := range r.players {
		p.Hand = nil
		for i := 0; i < r.timing.HandSize; i++ {
			r.giveCard(p)
		}
		p.SortCards()
	}

	r.turn = r.players[rand.Intn(len(r.players))]
	r.turn.FindPlayableCards(r.top())
	r.turn.CanDraw = true
	r.turn.CanPlay = true
	r.started = true
	r.inactivity = 0
	go r.watchInactivity()

	r.logger.Info("game started",
		zap.String("room_id", r.ID),
		zap.Int("players", len(r.players)),
		zap.String("first_turn", r.turn.ID),
	)
	r.broadcast()
	r.runBots()
	return nil
}

// PlayCard plays the indexed hand card. For wild cards color names the
// chosen color; it is ignored otherwise. Invalid intents are dropped.
func (r *Room) PlayCard(p *Player, index int, color deck.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started || r.winner != nil {
		return
	}
	r.playCard(p, index, color)
	r.runBots()
}

// DrawCards draws for a player: a positive amount deals that many cards as
// a penalty, VoluntaryDraw starts a player-initiated draw.
func (r *Room) DrawCards(p *Player, amount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started || r.winner != nil {
		return
	}
	if amount > 0 {
		r.forcedDraw(p, amount)
		return
	}
	r.voluntaryDraw(p)
	r.runBots()
}

// KeepCard ends the turn of a player who drew a playable card and chose to
// hold it. Only meaningful while forcePlay is off.
func (r *Room) KeepCard(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started || r.winner != nil || r.settings.ForcePlay {
		return
	}
	if r.turn != p || !p.CanPlay || p.Drawing || p.LastDrawn < 0 {
		return
	}
	r.nextTurn(false, 0)
	r.runBots()
}

// CallUno records the "last card" call. Valid only on the caller's turn
// with exactly two cards in hand.
func (r *Room) CallUno(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started || r.winner != nil {
		return
	}
	if r.turn != p || len(p.Hand) != 2 {
		return
	}
	p.CalledUno = true
	r.logger.Debug("last card called",
		zap.String("room_id", r.ID),
		zap.String("player_id", p.ID),
	)
	r.broadcast()
}

// RemovePlayer unseats a player. With replace a bot inherits the seat and
// hand; without it the seat disappears and a running game may collapse to
// an ended room when only one human would remain.
func (r *Room) RemovePlayer(p *Player, replace bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removePlayer(p, replace)
	if !r.empty {
		r.runBots()
	}
}

// Sync pushes the current state to every seated human. Used by the gateway
// right after room creation, where no mutating operation has broadcast yet.
func (r *Room) Sync() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcast()
}

// IsHost reports whether p currently hosts the room.
func (r *Room) IsHost(p *Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host == p
}

// PlayerByID finds a seated player.
func (r *Room) PlayerByID(id string) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Started reports whether the game has begun.
func (r *Room) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Empty reports whether the room has no humans left.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.empty
}

// Close force-releases the room regardless of seated players. Used on
// server shutdown.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markEmpty()
}

// Summary describes a room for the lobby browser.
type Summary struct {
	ID         string `json:"id"`
	Host       string `json:"host"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
}

// PublicSummary returns the lobby listing entry; ok is false for unlisted,
// started or emptied rooms.
func (r *Room) PublicSummary() (Summary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.settings.Public || r.started || r.empty {
		return Summary{}, false
	}
	s := Summary{
		ID:         r.ID,
		Players:    len(r.players),
		MaxPlayers: r.settings.MaxPlayers,
	}
	if r.host != nil {
		s.Host = r.host.Username
	}
	return s, true
}

// --- internals, room lock held ---

// pause releases the room lock for d. With a zero duration it is a no-op,
// which keeps tests fully synchronous.
func (r *Room) pause(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Unlock()
	time.Sleep(d)
	r.mu.Lock()
}

func (r *Room) top() deck.Card {
	return r.pile[len(r.pile)-1]
}

func (r *Room) indexOf(p *Player) int {
	for i, q := range r.players {
		if q == p {
			return i
		}
	}
	return -1
}

func (r *Room) seated(p *Player) bool {
	return r.indexOf(p) >= 0
}

// getNextPlayer steps 1+offset seats from the current turn holder in the
// active direction, wrapping around the seating list.
func (r *Room) getNextPlayer(offset int) *Player {
	n := len(r.players)
	if n == 0 {
		return nil
	}
	idx := r.indexOf(r.turn)
	if idx < 0 {
		idx = 0
	}
	step := 1 + offset
	if r.reversed {
		idx = ((idx-step)%n + n) % n
	} else {
		idx = (idx + step) % n
	}
	return r.players[idx]
}

// giveCard moves one card from the deck into the hand, refilling the deck
// from the discard pile when needed.
func (r *Room) giveCard(p *Player) deck.Card {
	if r.deck.Empty() {
		r.refillFromPile()
	}
	card, err := r.deck.Draw()
	if err != nil {
		r.logger.Error("deck empty after refill",
			zap.String("room_id", r.ID),
			zap.Int("pile", len(r.pile)),
		)
		return deck.Card{}
	}
	card.Playable = false
	p.Hand = append(p.Hand, card)
	if r.turn == p {
		p.FindPlayableCards(r.top())
	}
	return card
}

// refillFromPile recycles every discard except the top back into the deck.
// Wild cards re-enter colorless.
func (r *Room) refillFromPile() {
	if len(r.pile) <= 1 {
		return
	}
	top := r.pile[len(r.pile)-1]
	for _, card := range r.pile[:len(r.pile)-1] {
		if card.IsWild() {
			card.Color = deck.ColorNone
		}
		card.Playable = false
		r.deck.Push(card)
	}
	r.pile = []deck.Card{top}
	r.deck.Shuffle()
	r.logger.Debug("deck refilled from pile",
		zap.String("room_id", r.ID),
		zap.Int("cards", r.deck.Len()),
	)
}

// forcedDraw deals amount cards with pacing between them. Aborts when the
// target stops being seated mid-sequence.
func (r *Room) forcedDraw(p *Player, amount int) {
	if amount <= 0 || p.Drawing {
		return
	}
	p.Drawing = true
	for i := 0; i < amount; i++ {
		if i > 0 {
			r.pause(r.timing.ForcedDrawDelay)
			if r.empty || !r.seated(p) || !p.Drawing {
				return
			}
		}
		if card := r.giveCard(p); card.ID == "" {
			break
		}
		r.broadcast()
	}
	p.SortCards()
	p.Drawing = false
	r.broadcast()
}

// voluntaryDraw draws until a playable card turns up. The player either
// must play it (forcePlay), may keep it, or loses the turn on the first
// miss when drawToPlay is off. A player owing a stacked penalty absorbs
// the stack instead.
func (r *Room) voluntaryDraw(p *Player) {
	if r.turn != p || !p.CanDraw || p.Drawing {
		return
	}

	if p.MustStack {
		amount := r.stack
		r.clearStackState()
		r.forcedDraw(p, amount)
		if r.empty || !r.seated(p) {
			return
		}
		r.nextTurn(false, 0)
		return
	}

	p.CanDraw = false
	p.Drawing = true
	for {
		card := r.giveCard(p)
		if card.ID == "" {
			p.SortCards()
			p.Drawing = false
			r.nextTurn(false, 0)
			return
		}
		r.broadcast()

		if card.Matches(r.top()) {
			p.SortCards()
			idx := p.IndexOf(card.ID)
			p.MarkOnlyPlayable(idx)
			p.LastDrawn = idx
			p.Drawing = false
			if !r.settings.ForcePlay {
				r.pushEvent(p.ID, EventKeepCard, map[string]interface{}{
					"card": p.Hand[idx],
				})
			}
			r.broadcast()
			return
		}

		if !r.settings.DrawToPlay {
			p.SortCards()
			p.Drawing = false
			r.nextTurn(false, 0)
			return
		}

		r.pause(r.timing.VoluntaryDrawDelay)
		if r.empty || !r.seated(p) || !p.Drawing || r.turn != p {
			return
		}
	}
}

// playCard validates and applies one play, then advances the turn.
func (r *Room) playCard(p *Player, index int, color deck.Color) {
	if r.turn != p || !p.CanPlay || p.Drawing {
		return
	}
	if index < 0 || index >= len(p.Hand) {
		return
	}
	card := p.Hand[index]
	if !card.Playable {
		return
	}
	if card.IsWild() {
		if color == deck.ColorNone {
			return
		}
		card.Color = color
	}

	p.Hand = append(p.Hand[:index], p.Hand[index+1:]...)
	p.MustStack = false
	p.LastDrawn = -1
	card.Playable = false
	r.pile = append(r.pile, card)

	r.stats.CardPlayed()
	if card.Type == deck.TypePlus4 {
		r.stats.Plus4Dealt()
	}
	r.logger.Debug("card played",
		zap.String("room_id", r.ID),
		zap.String("player_id", p.ID),
		zap.String("card_type", card.Type.String()),
		zap.String("card_color", card.Color.String()),
	)

	skip := false
	forced := 0
	switch card.Type {
	case deck.TypePlus2, deck.TypePlus4:
		next := r.getNextPlayer(0)
		if r.settings.Stacking && next.HoldsType(card.Type) {
			next.MustStack = true
			r.stack += card.Penalty()
		} else {
			forced = r.stack + card.Penalty()
			r.clearStackState()
		}
	case deck.TypeReverse:
		r.reversed = !r.reversed
	case deck.TypeSkip:
		skip = true
	}

	if len(p.Hand) == 1 && !p.CalledUno {
		r.forcedDraw(p, 2)
		if r.empty || !r.seated(p) {
			return
		}
	}
	p.CalledUno = false

	r.nextTurn(skip || forced > 0, forced)
}

// nextTurn moves the turn pointer. A skip or forced draw advances through
// an intermediate seat that absorbs the penalty and never gets to act.
func (r *Room) nextTurn(skip bool, forced int) {
	r.inactivity = 0
	if r.turn != nil {
		r.turn.resetTurnFlags()
	}

	if skip || forced > 0 {
		r.turn = r.getNextPlayer(0)
		skipped := r.turn
		r.broadcast()
		r.pause(r.timing.TurnDelay)
		if r.empty || r.winner != nil {
			return
		}
		if !r.seated(skipped) {
			return
		}
		if forced > 0 {
			r.forcedDraw(skipped, forced)
			if r.empty || r.winner != nil {
				return
			}
		}
		if r.turn != skipped {
			return
		}
		r.turn = r.getNextPlayer(0)
	} else {
		r.turn = r.getNextPlayer(0)
	}

	current := r.turn
	current.FindPlayableCards(r.top())
	current.CanDraw = true
	current.CanPlay = true

	if w := r.checkForWinner(); w != nil {
		r.finishGame(w)
		return
	}
	r.broadcast()
}

func (r *Room) checkForWinner() *Player {
	for _, p := range r.players {
		if len(p.Hand) == 0 {
			return p
		}
	}
	return nil
}

func (r *Room) finishGame(w *Player) {
	r.winner = w
	r.stats.GamePlayed()
	r.logger.Info("game finished",
		zap.String("room_id", r.ID),
		zap.String("winner_id", w.ID),
		zap.String("winner", w.Username),
	)
	r.broadcast()
}

// runBots drives bot seats until the turn lands on a human, the game ends
// or the room dies. An explicit loop, so chained bot turns never recurse.
func (r *Room) runBots() {
	for r.started && r.winner == nil && !r.empty && r.turn != nil && r.turn.IsBot {
		bot := r.turn
		if len(bot.Hand) == 2 && !bot.CalledUno {
			bot.CalledUno = true
		}
		index, color, ok := bot.decideMove(r.top())
		if ok {
			r.playCard(bot, index, color)
		} else {
			r.voluntaryDraw(bot)
		}
	}
}

func (r *Room) clearStackState() {
	r.stack = 0
	for _, p := range r.players {
		p.MustStack = false
	}
}

func (r *Room) newBot() *Player {
	r.botSeq++
	return NewBot(fmt.Sprintf("Bot %d", r.botSeq))
}

func (r *Room) notifyBotSeated(bot *Player, replaced string) {
	data := map[string]interface{}{"username": bot.Username}
	if replaced != "" {
		data["replaced"] = replaced
	}
	for _, q := range r.players {
		if !q.IsBot {
			r.pushEvent(q.ID, EventBotAdded, data)
		}
	}
}

// removePlayer unseats p, migrating the host role, substituting a bot when
// asked, and collapsing games that lose their second-to-last human.
func (r *Room) removePlayer(p *Player, replace bool) {
	if r.empty {
		return
	}
	idx := r.indexOf(p)
	if idx < 0 {
		return
	}

	humans := 0
	for _, q := range r.players {
		if !q.IsBot && q != p {
			humans++
		}
	}

	r.logger.Info("player leaving",
		zap.String("room_id", r.ID),
		zap.String("player_id", p.ID),
		zap.Bool("replace", replace),
		zap.Int("humans_left", humans),
	)

	if humans == 0 {
		r.players = append(r.players[:idx], r.players[idx+1:]...)
		p.clearRoomState()
		r.markEmpty()
		return
	}

	if r.host == p {
		candidates := make([]*Player, 0, humans)
		for _, q := range r.players {
			if !q.IsBot && q != p {
				candidates = append(candidates, q)
			}
		}
		r.host = candidates[rand.Intn(len(candidates))]
		r.logger.Info("host migrated",
			zap.String("room_id", r.ID),
			zap.String("host_id", r.host.ID),
		)
	}

	if replace {
		bot := r.newBot()
		bot.Hand = p.Hand
		bot.CalledUno = p.CalledUno
		bot.MustStack = p.MustStack
		r.players[idx] = bot
		r.stats.BotUsed()
		if r.turn == p {
			r.turn = bot
			if r.started && r.winner == nil {
				bot.FindPlayableCards(r.top())
				bot.CanDraw = true
				bot.CanPlay = true
			}
		}
		p.Hand = nil
		p.clearRoomState()
		r.notifyBotSeated(bot, p.Username)
		r.broadcast()
		return
	}

	var next *Player
	if r.turn == p && r.started && r.winner == nil {
		next = r.getNextPlayer(0)
	}
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	if p.MustStack {
		r.stack = 0
	}
	if next != nil && next != p {
		r.turn = next
		next.FindPlayableCards(r.top())
		next.CanDraw = true
		next.CanPlay = true
	}
	p.clearRoomState()

	if r.started && r.winner == nil && humans == 1 {
		for _, q := range r.players {
			if !q.IsBot {
				r.pushEvent(q.ID, EventKicked, nil)
				r.removePlayer(q, false)
				return
			}
		}
	}
	r.broadcast()
}

// markEmpty closes the room once no humans remain. The registry callback
// releases the code.
func (r *Room) markEmpty() {
	if r.empty {
		return
	}
	r.empty = true
	r.turn = nil
	r.stopOnce.Do(func() { close(r.stop) })
	r.logger.Info("room empty", zap.String("room_id", r.ID))
	if r.onEmpty != nil {
		r.onEmpty(r.ID)
	}
}

func (r *Room) watchInactivity() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if r.tickInactivity() {
				return
			}
		}
	}
}

// tickInactivity advances the idle counter; at the limit every human is
// kicked and the room ends. Returns true when the watcher should stop.
func (r *Room) tickInactivity() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.empty {
		return true
	}
	r.inactivity++
	if r.inactivity < r.timing.InactivityLimit {
		return false
	}
	r.logger.Info("room idle limit reached",
		zap.String("room_id", r.ID),
		zap.Int("ticks", r.inactivity),
	)
	r.expireHumans()
	return true
}

func (r *Room) expireHumans() {
	bots := make([]*Player, 0, len(r.players))
	for _, q := range r.players {
		if q.IsBot {
			bots = append(bots, q)
			continue
		}
		r.pushEvent(q.ID, EventKicked, nil)
		q.clearRoomState()
	}
	r.players = bots
	r.markEmpty()
}

// broadcast pushes a personalized snapshot to every seated human.
func (r *Room) broadcast() {
	if r.notifier == nil {
		return
	}
	for _, p := range r.players {
		if p.IsBot {
			continue
		}
		r.notifier.PushState(p.ID, r.project(p))
	}
}

func (r *Room) pushEvent(playerID, event string, data map[string]interface{}) {
	if r.notifier == nil {
		return
	}
	r.notifier.PushEvent(playerID, event, data)
}
