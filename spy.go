/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Spy Game
//
// One device is passed around the table. Each player in turn taps to see
// either the secret word or a notice that they are the spy, then hides it
// again before handing the device on.
//
// Features:
// - Sessions per game ID: /spy/:gameid and /spy/:gameid/ws
// - Each session remembers which words it has already dealt
// - Every button press is a single websocket frame, applied in order by the
//   session's hub
// - Rejected presses are answered only to the sending connection
// - Sessions are reaped after a configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - QR code of the session URL, for moving the game onto a phone

package main

import (
	crand "crypto/rand"
	"errors"
	"log"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/spybox/round"
	"github.com/Seednode/spybox/words"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Messages coming from the page
type ClientMessage struct {
	Type    string `json:"type"`              // "start_round", "reveal", "hide"
	Players int    `json:"players,omitempty"` // start_round
	Player  int    `json:"player"`            // reveal / hide
}

// StateMessage is everything the page needs to render the current seat.
// Content is only set while the current player is looking.
type StateMessage struct {
	Type           string      `json:"type"` // "state"
	Phase          round.Phase `json:"phase"`
	Round          int         `json:"round"`
	PlayerCount    int         `json:"player_count"`
	SpyCount       int         `json:"spy_count"`
	CurrentPlayer  int         `json:"current_player"`
	CurrentState   round.State `json:"current_state"`
	Content        string      `json:"content,omitempty"`
	MinPlayers     int         `json:"min_players"`
	MaxPlayers     int         `json:"max_players"`
	WordsRemaining int         `json:"words_remaining"`
	WordsTotal     int         `json:"words_total"`
}

// ErrorMessage is sent to a single connection when its action was rejected.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	deviceID string
}

type actionRequest struct {
	client *Client
	msg    ClientMessage
}

// newRand returns a generator seeded from the operating system.
func newRand() *rand.Rand {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return rand.New(rand.NewChaCha8(seed))
}

// newGame builds a fresh word supply and round controller over bank.
func newGame(cfg *Config, bank *words.Bank, rng *rand.Rand) (*words.Supply, *round.Controller, error) {
	supply, err := words.New(bank, rng)
	if err != nil {
		return nil, nil, err
	}

	controller := round.New(supply, rng, round.WithPlayerLimits(cfg.minPlayers, cfg.maxPlayers))

	return supply, controller, nil
}

// Hub is one device's game session. The controller and supply are only
// touched by the run goroutine.
type Hub struct {
	id         string
	controller *round.Controller
	supply     *words.Supply
	clients    map[*Client]bool

	register chan *Client
	unreg    chan *Client
	actions  chan actionRequest
	done     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time
}

func newHub(cfg *Config, gameID string, bank *words.Bank) (*Hub, error) {
	supply, controller, err := newGame(cfg, bank, newRand())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Hub{
		id:         gameID,
		controller: controller,
		supply:     supply,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		actions:    make(chan actionRequest),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}, nil
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case <-h.done:
			return

		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true
			h.sendLocked(c, h.stateLocked())
			h.mu.Unlock()

			logf(cfg, "GAMES: Device %s connected to %s", c.deviceID, h.id)

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case req := <-h.actions:
			h.handleAction(cfg, req)
		}
	}
}

// handleAction applies one button press to the round.
func (h *Hub) handleAction(cfg *Config, req actionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	msg := req.msg

	var err error
	switch msg.Type {
	case "start_round":
		err = h.controller.StartRound(msg.Players)
	case "reveal":
		err = h.controller.Reveal(msg.Player)
	case "hide":
		err = h.controller.Hide(msg.Player)
	default:
		return
	}

	if err != nil {
		if !errors.Is(err, round.ErrInvalidTransition) {
			logf(cfg, "ERROR: %s in %s: %v", msg.Type, h.id, err)
		}

		h.sendLocked(req.client, ErrorMessage{
			Type:    "error",
			Message: err.Error(),
		})
		h.sendLocked(req.client, h.stateLocked())

		return
	}

	switch msg.Type {
	case "start_round":
		logf(cfg, "GAMES: Round %d started in %s with %d players and %d spies",
			h.controller.Round(), h.id, h.controller.PlayerCount(), h.controller.SpyCount())
	case "hide":
		if h.controller.Phase() == round.PhaseComplete {
			logf(cfg, "GAMES: Round %d complete in %s", h.controller.Round(), h.id)
		}
	}

	h.broadcastStateLocked()
}

func (h *Hub) stateLocked() StateMessage {
	c := h.controller
	minPlayers, maxPlayers := c.Limits()

	msg := StateMessage{
		Type:           "state",
		Phase:          c.Phase(),
		Round:          c.Round(),
		PlayerCount:    c.PlayerCount(),
		SpyCount:       c.SpyCount(),
		CurrentPlayer:  c.CurrentPlayerIndex(),
		CurrentState:   c.CurrentPlayerState(),
		MinPlayers:     minPlayers,
		MaxPlayers:     maxPlayers,
		WordsRemaining: h.supply.Remaining(),
		WordsTotal:     h.supply.Len(),
	}

	if content, ok := c.RevealedContentFor(c.CurrentPlayerIndex()); ok {
		msg.Content = content
	}

	return msg
}

// sendLocked queues msg for c, dropping the connection if it has fallen
// behind. h.mu must be held.
func (h *Hub) sendLocked(c *Client, msg any) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcastStateLocked() {
	msg := h.stateLocked()

	for client := range h.clients {
		h.sendLocked(client, msg)
	}
}

// idle reports whether no device is connected and nothing has happened
// since cutoff.
func (h *Hub) idle(cutoff time.Time) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients) == 0 && h.lastActive.Before(cutoff)
}

func (h *Hub) age() time.Duration {
	return time.Since(h.createdAt).Round(time.Second)
}

// closeAll disconnects all clients of this hub and stops its run loop.
func (h *Hub) closeAll() {
	h.stopOnce.Do(func() {
		close(h.done)
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const deviceCookieName = "spybox_id"

func getOrSetDeviceID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(deviceCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     deviceCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by game ID, so each /spy/:gameid
// is its own isolated session.
type GameManager struct {
	cfg         *Config
	mu          sync.Mutex
	hubs        map[string]*Hub
	bank        *words.Bank
	idleTimeout time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

func newGameManager(cfg *Config, bank *words.Bank, idleTimeout time.Duration) *GameManager {
	gm := &GameManager{
		cfg:         cfg,
		hubs:        make(map[string]*Hub),
		bank:        bank,
		idleTimeout: idleTimeout,
		stop:        make(chan struct{}),
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) (*Hub, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub, nil
	}

	hub, err := newHub(cfg, gameID, gm.bank)
	if err != nil {
		return nil, err
	}
	gm.hubs[gameID] = hub
	go hub.run(cfg)

	return hub, nil
}

func (gm *GameManager) sessions() int {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	return len(gm.hubs)
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := crand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reap removes hubs with no connected device that have been idle since
// before cutoff.
func (gm *GameManager) reap(cutoff time.Time) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		if hub.idle(cutoff) {
			delete(gm.hubs, id)
			go hub.closeAll()

			logf(gm.cfg, "GAMES: Reaped idle session %s after %s", id, hub.age())
		}
	}
}

func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-gm.stop:
			return
		case <-ticker.C:
			gm.reap(time.Now().Add(-gm.idleTimeout))
		}
	}
}

// Close ends every session and stops the reaper.
func (gm *GameManager) Close() {
	gm.stopOnce.Do(func() {
		close(gm.stop)
	})

	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		delete(gm.hubs, id)
		hub.closeAll()
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		deviceID := getOrSetDeviceID(w, r)

		hub, err := gm.getHub(cfg, gameID)
		if err != nil {
			logf(cfg, "ERROR: Unable to create session %s: %v", gameID, err)
			http.Error(w, "unable to create game", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			deviceID: deviceID,
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

// maxFrameSize bounds incoming frames; every valid action is far smaller.
const maxFrameSize = 512

func (c *Client) readPump(h *Hub) {
	c.conn.SetReadLimit(maxFrameSize)

	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "start_round", "reveal", "hide":
			select {
			case h.actions <- actionRequest{client: c, msg: msg}:
			case <-h.done:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		scheme := cfg.scheme()
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
		url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

func getIndexHandler(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/spy/index.html")
		if err != nil {
			errs <- err
			http.Error(w, "missing page", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		_ = getOrSetDeviceID(w, r)

		if _, err := w.Write(data); err != nil {
			errs <- err
		}
	}
}

// redirectNewGame handles GET /spy by generating a new random game ID
// (with server-side collision detection) and redirecting to /spy/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s for %s", path, gameID, realIP(r))
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerSpyGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerSpyGame(cfg *Config, bank *words.Bank, path string, mux *httprouter.Router, errs chan<- error) *GameManager {
	gm := newGameManager(cfg, bank, cfg.sessionTimeout)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))
	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg, errs))
	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))
	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler(cfg))

	return gm
}
