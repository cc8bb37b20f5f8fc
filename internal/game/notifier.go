package game

// Event names delivered through Notifier.PushEvent.
const (
	EventKicked   = "kicked"
	EventKeepCard = "keep_card"
	EventBotAdded = "bot_added"
)

// Notifier delivers room output to connected players. The gateway
// implements it; implementations must not block and must tolerate unknown
// player ids, since bots and departed players have no connection.
type Notifier interface {
	// PushState delivers a personalized room snapshot to one player.
	PushState(playerID string, state *StateView)

	// PushEvent delivers an out-of-band advisory to one player.
	PushEvent(playerID string, event string, data map[string]interface{})
}
