package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Wire shapes mirrored from the gateway. The driver only reads the fields
// it needs to pick its next intent.

type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type Card struct {
	Number   int    `json:"number"`
	Color    string `json:"color"`
	Type     string `json:"type"`
	Playable bool   `json:"playable"`
}

type StateView struct {
	RoomID    string `json:"room_id"`
	PlayerID  string `json:"player_id"`
	TurnID    string `json:"turn_id"`
	Started   bool   `json:"started"`
	Hand      []Card `json:"hand"`
	CardCount int    `json:"card_count"`
	CannotAct bool   `json:"cannot_act"`
	Winner    *struct {
		ID string `json:"id"`
	} `json:"winner"`
}

type result struct {
	game   int
	won    bool
	plays  int
	states int
	err    error
	took   time.Duration
}

func main() {
	// Get game count from args or use default
	games := 4
	if len(os.Args) > 1 {
		if n, err := strconv.Atoi(os.Args[1]); err == nil && n > 0 {
			games = n
		}
	}

	serverURL := os.Getenv("GATEWAY_URL")
	if serverURL == "" {
		serverURL = "ws://localhost:8080/ws"
	}

	timeout := 5 * time.Minute
	if raw := os.Getenv("GAME_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			timeout = d
		}
	}

	fmt.Println("=== UNO Gateway Load Test ===")
	fmt.Printf("Server: %s\n", serverURL)
	fmt.Printf("Concurrent games: %d\n", games)
	fmt.Printf("Per-game timeout: %s\n", timeout)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []result
	)

	startTime := time.Now()

	for i := 1; i <= games; i++ {
		wg.Add(1)
		go func(game int) {
			defer wg.Done()
			res := runGame(game, serverURL, timeout)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()

			if res.err != nil {
				fmt.Printf("✗ Game %d failed: %v\n", game, res.err)
			} else {
				fmt.Printf("✓ Game %d finished: won=%v plays=%d states=%d (%.1fs)\n",
					game, res.won, res.plays, res.states, res.took.Seconds())
			}
		}(i)
	}

	wg.Wait()
	duration := time.Since(startTime)

	completed := 0
	won := 0
	totalStates := 0
	for _, res := range results {
		if res.err == nil {
			completed++
			if res.won {
				won++
			}
		}
		totalStates += res.states
	}

	fmt.Println("\n=== Load Test Complete ===")
	fmt.Printf("✓ Completed games: %d/%d\n", completed, games)
	if completed < games {
		fmt.Printf("✗ Failed games: %d\n", games-completed)
	}
	fmt.Printf("Driver wins: %d\n", won)
	fmt.Printf("Time taken: %s\n", duration)
	fmt.Printf("Rate: %.0f state pushes/second\n", float64(totalStates)/duration.Seconds())
}

// runGame creates a room against three bots and plays it to completion:
// play the first playable card, otherwise draw. Invalid intents are
// dropped server-side, so acting on a stale state is harmless.
func runGame(game int, serverURL string, timeout time.Duration) result {
	res := result{game: game}
	startTime := time.Now()

	ws, _, err := websocket.DefaultDialer.Dial(serverURL, nil)
	if err != nil {
		res.err = fmt.Errorf("dial: %w", err)
		return res
	}
	defer ws.Close()

	// A read error after this deadline means the game stalled.
	ws.SetReadDeadline(time.Now().Add(timeout))

	send := func(intentType string, data any) error {
		env := Envelope{Type: intentType}
		if data != nil {
			raw, marshalErr := json.Marshal(data)
			if marshalErr != nil {
				return marshalErr
			}
			env.Data = raw
		}
		return ws.WriteJSON(env)
	}

	username := fmt.Sprintf("loadtest-%d", game)
	if err := send("create_room", map[string]string{"username": username}); err != nil {
		res.err = fmt.Errorf("create_room: %w", err)
		return res
	}
	for i := 0; i < 3; i++ {
		if err := send("add_bot", nil); err != nil {
			res.err = fmt.Errorf("add_bot: %w", err)
			return res
		}
	}
	if err := send("start_game", nil); err != nil {
		res.err = fmt.Errorf("start_game: %w", err)
		return res
	}

	for {
		var env Envelope
		if err := ws.ReadJSON(&env); err != nil {
			res.err = fmt.Errorf("read after %d states: %w", res.states, err)
			return res
		}
		if env.Type != "state" {
			continue
		}
		res.states++

		var state StateView
		if err := json.Unmarshal(env.Data, &state); err != nil {
			res.err = fmt.Errorf("decode state: %w", err)
			return res
		}

		if state.Winner != nil {
			res.won = state.Winner.ID == state.PlayerID
			res.took = time.Since(startTime)
			return res
		}
		if !state.Started || state.TurnID != state.PlayerID || state.CannotAct {
			continue
		}

		idx := -1
		for i, card := range state.Hand {
			if card.Playable {
				idx = i
				break
			}
		}
		if idx < 0 {
			if err := send("draw_card", nil); err != nil {
				res.err = fmt.Errorf("draw_card: %w", err)
				return res
			}
			continue
		}

		if len(state.Hand) == 2 {
			if err := send("call_uno", nil); err != nil {
				res.err = fmt.Errorf("call_uno: %w", err)
				return res
			}
		}

		play := map[string]any{"index": idx}
		if card := state.Hand[idx]; card.Type == "wild" || card.Type == "plus4" {
			play["color"] = "red"
		}
		if err := send("play_card", play); err != nil {
			res.err = fmt.Errorf("play_card: %w", err)
			return res
		}
		res.plays++
	}
}
