package server

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/uno-arena/uno-server-go/internal/deck"
	"github.com/uno-arena/uno-server-go/internal/game"
)

// Envelope frames every message in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const maxUsernameLength = 20

type createRoomData struct {
	Username string         `json:"username"`
	Settings *game.Settings `json:"settings,omitempty"`
}

type joinRoomData struct {
	Code     string `json:"code"`
	Username string `json:"username"`
}

type kickPlayerData struct {
	PlayerID string `json:"player_id"`
}

type playCardData struct {
	Index int    `json:"index"`
	Color string `json:"color,omitempty"`
}

// handleMessage routes one inbound envelope. Invalid intents are dropped
// with a debug log; the state simply does not change.
func (c *Client) handleMessage(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Debug("malformed envelope", zap.Error(err))
		return
	}

	switch env.Type {
	case "create_room":
		c.handleCreateRoom(env.Data)
	case "join_room":
		c.handleJoinRoom(env.Data)
	case "leave_room":
		c.handleLeaveRoom()
	case "add_bot":
		c.handleAddBot()
	case "kick_player":
		c.handleKickPlayer(env.Data)
	case "start_game":
		c.handleStartGame()
	case "call_uno":
		if player, room := c.current(); room != nil {
			room.CallUno(player)
		}
	case "draw_card":
		if player, room := c.current(); room != nil {
			room.DrawCards(player, game.VoluntaryDraw)
		}
	case "play_card":
		c.handlePlayCard(env.Data)
	case "keep_card":
		if player, room := c.current(); room != nil {
			room.KeepCard(player)
		}
	default:
		c.logger.Debug("unknown intent", zap.String("type", env.Type))
	}
}

func (c *Client) handleCreateRoom(data json.RawMessage) {
	var req createRoomData
	if err := json.Unmarshal(data, &req); err != nil {
		c.logger.Debug("bad create_room payload", zap.Error(err))
		return
	}
	username, ok := cleanUsername(req.Username)
	if !ok {
		c.logger.Debug("create_room without username")
		return
	}
	if player, _ := c.current(); player != nil {
		// switching rooms abandons the old seat
		c.handleLeaveRoom()
	}

	settings := game.DefaultSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}

	player := game.NewPlayer(username)
	room := c.server.rooms.CreateRoom(player, settings)
	c.server.registerClient(player.ID, c)
	c.bind(player, room)
	room.Sync()
}

func (c *Client) handleJoinRoom(data json.RawMessage) {
	var req joinRoomData
	if err := json.Unmarshal(data, &req); err != nil {
		c.logger.Debug("bad join_room payload", zap.Error(err))
		return
	}
	username, ok := cleanUsername(req.Username)
	if !ok {
		c.logger.Debug("join_room without username")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if len(code) != game.CodeLength {
		c.logger.Debug("join_room with malformed code", zap.String("code", code))
		return
	}
	room, ok := c.server.rooms.GetRoom(code)
	if !ok {
		c.logger.Debug("join_room for unknown room", zap.String("code", code))
		return
	}
	if player, _ := c.current(); player != nil {
		c.handleLeaveRoom()
	}

	player := game.NewPlayer(username)
	c.server.registerClient(player.ID, c)
	c.bind(player, room)
	if err := room.AddPlayer(player); err != nil {
		c.server.unregisterClient(player.ID)
		c.detach()
		c.logger.Debug("join_room rejected", zap.String("code", code), zap.Error(err))
		return
	}
}

func (c *Client) handleLeaveRoom() {
	player, room := c.detach()
	if player == nil || room == nil {
		return
	}
	c.server.unregisterClient(player.ID)
	room.RemovePlayer(player, false)
}

func (c *Client) handleAddBot() {
	player, room := c.current()
	if room == nil {
		return
	}
	if !room.IsHost(player) {
		c.logger.Debug("add_bot from non-host")
		return
	}
	if err := room.AddBot(); err != nil {
		c.logger.Debug("add_bot rejected", zap.Error(err))
	}
}

func (c *Client) handleKickPlayer(data json.RawMessage) {
	var req kickPlayerData
	if err := json.Unmarshal(data, &req); err != nil {
		c.logger.Debug("bad kick_player payload", zap.Error(err))
		return
	}
	player, room := c.current()
	if room == nil {
		return
	}
	if !room.IsHost(player) {
		c.logger.Debug("kick_player from non-host")
		return
	}
	if req.PlayerID == player.ID {
		return
	}
	target, ok := room.PlayerByID(req.PlayerID)
	if !ok {
		return
	}
	c.server.kickClient(target.ID)
	room.RemovePlayer(target, false)
}

func (c *Client) handleStartGame() {
	player, room := c.current()
	if room == nil {
		return
	}
	if !room.IsHost(player) {
		c.logger.Debug("start_game from non-host")
		return
	}
	if err := room.StartGame(); err != nil {
		c.logger.Debug("start_game rejected", zap.Error(err))
	}
}

func (c *Client) handlePlayCard(data json.RawMessage) {
	var req playCardData
	if err := json.Unmarshal(data, &req); err != nil {
		c.logger.Debug("bad play_card payload", zap.Error(err))
		return
	}
	player, room := c.current()
	if room == nil {
		return
	}
	color := deck.ColorNone
	if req.Color != "" {
		parsed, ok := deck.ParseColor(req.Color)
		if !ok {
			c.logger.Debug("play_card with unknown color", zap.String("color", req.Color))
			return
		}
		color = parsed
	}
	room.PlayCard(player, req.Index, color)
}

// cleanUsername trims and bounds a submitted username; ok is false when
// nothing usable remains.
func cleanUsername(username string) (string, bool) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", false
	}
	runes := []rune(username)
	if len(runes) > maxUsernameLength {
		username = string(runes[:maxUsernameLength])
	}
	return username, true
}
