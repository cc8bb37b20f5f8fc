package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for demo
	},
}

// Wire shapes mirrored from the real gateway so a frontend can develop
// against canned data without running the full server.

type Card struct {
	ID       string `json:"id"`
	Number   int    `json:"number"`
	Color    string `json:"color"`
	Type     string `json:"type"`
	Playable bool   `json:"playable"`
}

type Opponent struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CardCount int    `json:"card_count"`
	IsBot     bool   `json:"is_bot"`
	CalledUno bool   `json:"called_uno"`
	Skipped   bool   `json:"skipped"`
}

type Settings struct {
	Stacking   bool `json:"stacking"`
	ForcePlay  bool `json:"force_play"`
	Bluffing   bool `json:"bluffing"`
	DrawToPlay bool `json:"draw_to_play"`
	Public     bool `json:"public"`
	MaxPlayers int  `json:"max_players"`
}

type StateView struct {
	RoomID      string    `json:"room_id"`
	PlayerID    string    `json:"player_id"`
	HostID      string    `json:"host_id"`
	TurnID      string    `json:"turn_id"`
	Started     bool      `json:"started"`
	Reversed    bool      `json:"reversed"`
	Stack       int       `json:"stack"`
	PlayerCount int       `json:"player_count"`
	Settings    Settings  `json:"settings"`
	Pile        []Card    `json:"pile"`
	ActiveColor string    `json:"active_color"`
	Hand        []Card    `json:"hand"`
	CardCount   int       `json:"card_count"`
	CalledUno   bool      `json:"called_uno"`
	CannotAct   bool      `json:"cannot_act"`
	Right       *Opponent `json:"right,omitempty"`
	Top         *Opponent `json:"top,omitempty"`
	Left        *Opponent `json:"left,omitempty"`
}

type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string
	roomID   string
}

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	rooms      map[string]*StateView
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]*StateView),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("Client registered: %s", client.playerID)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Client unregistered: %s", client.playerID)
			}
		}
	}
}

var demoColors = []string{"red", "yellow", "green", "blue"}

func demoCard(playable bool) Card {
	return Card{
		ID:       "card-" + time.Now().Format("150405.000000"),
		Number:   rand.Intn(10),
		Color:    demoColors[rand.Intn(len(demoColors))],
		Type:     "none",
		Playable: playable,
	}
}

func (h *Hub) createDemoRoom(roomID string) *StateView {
	h.mu.Lock()
	defer h.mu.Unlock()

	hand := []Card{
		{ID: "card-1", Number: 3, Color: "red", Type: "none", Playable: true},
		{ID: "card-2", Number: 7, Color: "red", Type: "none", Playable: true},
		{ID: "card-3", Number: 5, Color: "yellow", Type: "none"},
		{ID: "card-4", Number: -1, Color: "green", Type: "skip"},
		{ID: "card-5", Number: -1, Color: "blue", Type: "plus2"},
		{ID: "card-6", Number: 0, Color: "blue", Type: "none"},
		{ID: "card-7", Number: -1, Color: "none", Type: "wild", Playable: true},
	}

	state := &StateView{
		RoomID:      roomID,
		PlayerID:    "player1",
		HostID:      "player1",
		TurnID:      "player1",
		Started:     true,
		PlayerCount: 4,
		Settings: Settings{
			Stacking:   true,
			DrawToPlay: true,
			Public:     true,
			MaxPlayers: 4,
		},
		Pile:        []Card{{ID: "pile-1", Number: 3, Color: "red", Type: "none"}},
		ActiveColor: "red",
		Hand:        hand,
		CardCount:   len(hand),
		Right:       &Opponent{ID: "player2", Username: "Bot Riley", CardCount: 7, IsBot: true},
		Top:         &Opponent{ID: "player3", Username: "Casey", CardCount: 5},
		Left:        &Opponent{ID: "player4", Username: "Bot Drew", CardCount: 2, IsBot: true, CalledUno: true},
	}

	h.rooms[roomID] = state
	return state
}

var demoTurnOrder = []string{"player1", "player2", "player3", "player4"}

func nextDemoTurn(current string) string {
	for i, id := range demoTurnOrder {
		if id == current {
			return demoTurnOrder[(i+1)%len(demoTurnOrder)]
		}
	}
	return demoTurnOrder[0]
}

func (h *Hub) handleMessage(client *Client, env Envelope) {
	log.Printf("Received intent: %s from %s", env.Type, client.playerID)

	switch env.Type {
	case "create_room":
		roomID := "DEMO" + time.Now().Format("405")
		state := h.createDemoRoom(roomID)
		client.roomID = roomID
		client.playerID = state.PlayerID
		client.sendState(state)

	case "join_room":
		var data struct {
			Code string `json:"code"`
		}
		json.Unmarshal(env.Data, &data)

		h.mu.RLock()
		state, exists := h.rooms[data.Code]
		h.mu.RUnlock()
		if !exists {
			state = h.createDemoRoom(data.Code)
		}

		client.roomID = state.RoomID
		client.playerID = state.PlayerID
		client.sendState(state)

	case "play_card":
		var data struct {
			Index int    `json:"index"`
			Color string `json:"color"`
		}
		json.Unmarshal(env.Data, &data)

		h.mu.Lock()
		state := h.rooms[client.roomID]
		if state != nil && data.Index >= 0 && data.Index < len(state.Hand) {
			card := state.Hand[data.Index]
			if data.Color != "" {
				card.Color = data.Color
			}
			state.Hand = append(state.Hand[:data.Index], state.Hand[data.Index+1:]...)
			state.Pile = append(state.Pile, card)
			state.CardCount = len(state.Hand)
			state.ActiveColor = card.Color
			state.TurnID = nextDemoTurn(state.TurnID)
		}
		h.mu.Unlock()

		h.broadcastRoom(client.roomID)

	case "draw_card":
		h.mu.Lock()
		state := h.rooms[client.roomID]
		if state != nil {
			state.Hand = append(state.Hand, demoCard(true))
			state.CardCount = len(state.Hand)
		}
		h.mu.Unlock()

		h.broadcastRoom(client.roomID)

	case "call_uno":
		h.mu.Lock()
		state := h.rooms[client.roomID]
		if state != nil {
			state.CalledUno = true
		}
		h.mu.Unlock()

		h.broadcastRoom(client.roomID)
	}
}

func (c *Client) sendState(state *StateView) {
	data, _ := json.Marshal(state)
	response, _ := json.Marshal(Envelope{Type: "state", Data: data})
	c.send <- response
}

func (h *Hub) broadcastRoom(roomID string) {
	h.mu.RLock()
	state := h.rooms[roomID]
	h.mu.RUnlock()

	if state == nil {
		return
	}

	data, _ := json.Marshal(state)
	response, _ := json.Marshal(Envelope{Type: "state", Data: data})

	for client := range h.clients {
		if client.roomID == roomID {
			select {
			case client.send <- response:
			default:
			}
		}
	}
}

func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		hub.handleMessage(c, env)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}

func serveWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
	}

	hub.register <- client

	go client.writePump()
	go client.readPump(hub)
}

func main() {
	hub := newHub()
	go hub.run()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, w, r)
	})

	log.Println("🚀 Demo gateway starting on :8080")
	log.Println("📡 WebSocket endpoint: ws://localhost:8080/ws")
	log.Println("🎴 Serving canned table state for client development")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}
