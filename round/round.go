/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package round drives a single pass of the device around the table: it
// deals the secret word, picks the spies, and walks each player through
// reveal and hide in seat order.
//
// A Controller is not safe for concurrent use; hosts call it from a single
// goroutine.
package round

import (
	"errors"
	"fmt"
)

// SpyNotice is shown to spies in place of the secret word.
const SpyNotice = "You are the spy!"

const (
	// DefaultMinPlayers is the smallest table a round can be started for.
	DefaultMinPlayers = 2

	// DefaultMaxPlayers is the largest table a round can be started for.
	DefaultMaxPlayers = 20

	// PlayersPerSpy is how many seats share one spy, rounded up.
	PlayersPerSpy = 5
)

// ErrInvalidTransition is matched by every rejected action.
var ErrInvalidTransition = errors.New("invalid transition")

// TransitionError describes a rejected action. State is never modified when
// one is returned.
type TransitionError struct {
	Op     string
	Player int
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Op == "start round" {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s player %d: %s", e.Op, e.Player, e.Reason)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Phase is the state of the round as a whole.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseAwaitingReveal Phase = "awaiting_reveal"
	PhaseRevealed       Phase = "revealed"
	PhaseComplete       Phase = "complete"
)

// State is the reveal state of one seat.
type State string

const (
	StateHidden   State = "hidden"
	StateRevealed State = "revealed"
	StateDone     State = "done"
)

// WordSource deals one secret word per round.
type WordSource interface {
	Select() (string, error)
}

// Rand is the subset of *math/rand/v2.Rand used to pick spies.
type Rand interface {
	IntN(n int) int
}

// SpyCount returns ceil(players/5), kept below players so at least one seat
// sees the word. It returns 0 for fewer than two players.
func SpyCount(players int) int {
	if players < 2 {
		return 0
	}

	n := (players + PlayersPerSpy - 1) / PlayersPerSpy
	if n >= players {
		n = players - 1
	}

	return n
}

// state is rebuilt from scratch on every StartRound.
type state struct {
	players int
	word    string
	spies   map[int]struct{}
	turn    int
	seats   []State
}

// Controller owns the current round.
type Controller struct {
	words WordSource
	rng   Rand

	minPlayers int
	maxPlayers int

	round  int
	active *state
}

// Option configures a Controller.
type Option func(*Controller)

// WithPlayerLimits bounds the player count accepted by StartRound. The
// minimum never drops below DefaultMinPlayers. A max of zero or less leaves
// the table size uncapped; any other max is raised to at least min.
func WithPlayerLimits(min, max int) Option {
	return func(c *Controller) {
		if min < DefaultMinPlayers {
			min = DefaultMinPlayers
		}
		if max > 0 && max < min {
			max = min
		}
		c.minPlayers = min
		c.maxPlayers = max
	}
}

// New returns an idle Controller.
func New(words WordSource, rng Rand, opts ...Option) *Controller {
	c := &Controller{
		words:      words,
		rng:        rng,
		minPlayers: DefaultMinPlayers,
		maxPlayers: DefaultMaxPlayers,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// StartRound replaces any current round with a new one for players seats.
// It is valid in every phase.
func (c *Controller) StartRound(players int) error {
	if players < c.minPlayers {
		return &TransitionError{
			Op:     "start round",
			Reason: fmt.Sprintf("need at least %d players, got %d", c.minPlayers, players),
		}
	}
	if c.maxPlayers > 0 && players > c.maxPlayers {
		return &TransitionError{
			Op:     "start round",
			Reason: fmt.Sprintf("at most %d players allowed, got %d", c.maxPlayers, players),
		}
	}

	word, err := c.words.Select()
	if err != nil {
		return fmt.Errorf("start round: %w", err)
	}

	seats := make([]State, players)
	for i := range seats {
		seats[i] = StateHidden
	}

	c.active = &state{
		players: players,
		word:    word,
		spies:   pickSpies(c.rng, players, SpyCount(players)),
		seats:   seats,
	}
	c.round++

	return nil
}

// pickSpies draws k distinct seats from [0, n) with a partial Fisher-Yates
// shuffle.
func pickSpies(rng Rand, n, k int) map[int]struct{} {
	seats := make([]int, n)
	for i := range seats {
		seats[i] = i
	}

	spies := make(map[int]struct{}, k)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		seats[i], seats[j] = seats[j], seats[i]
		spies[seats[i]] = struct{}{}
	}

	return spies
}

// Reveal shows player their content. Only the current player may reveal,
// and only once.
func (c *Controller) Reveal(player int) error {
	if err := c.check("reveal", player, StateHidden); err != nil {
		return err
	}

	c.active.seats[player] = StateRevealed

	return nil
}

// Hide conceals the revealed player's content and passes the turn on.
func (c *Controller) Hide(player int) error {
	if err := c.check("hide", player, StateRevealed); err != nil {
		return err
	}

	c.active.seats[player] = StateDone
	c.active.turn++

	return nil
}

func (c *Controller) check(op string, player int, want State) error {
	reject := func(reason string) error {
		return &TransitionError{Op: op, Player: player, Reason: reason}
	}

	r := c.active
	switch {
	case r == nil:
		return reject("no round in progress")
	case r.turn >= r.players:
		return reject("round is complete")
	case player < 0 || player >= r.players:
		return reject(fmt.Sprintf("no such player (table has %d)", r.players))
	case player != r.turn:
		return reject(fmt.Sprintf("it is player %d's turn", r.turn))
	case r.seats[player] != want:
		return reject(fmt.Sprintf("player is %s", r.seats[player]))
	}

	return nil
}

// Phase reports where the round stands.
func (c *Controller) Phase() Phase {
	r := c.active
	switch {
	case r == nil:
		return PhaseIdle
	case r.turn >= r.players:
		return PhaseComplete
	case r.seats[r.turn] == StateRevealed:
		return PhaseRevealed
	default:
		return PhaseAwaitingReveal
	}
}

// CurrentPlayerIndex returns the seat whose turn it is. It equals
// PlayerCount once the round is complete, and -1 before the first round.
func (c *Controller) CurrentPlayerIndex() int {
	if c.active == nil {
		return -1
	}
	return c.active.turn
}

// CurrentPlayerState returns the reveal state of the current seat, or
// StateDone when there is no current seat.
func (c *Controller) CurrentPlayerState() State {
	r := c.active
	if r == nil || r.turn >= r.players {
		return StateDone
	}
	return r.seats[r.turn]
}

// PlayerState returns the reveal state of any seat.
func (c *Controller) PlayerState(player int) (State, bool) {
	r := c.active
	if r == nil || player < 0 || player >= r.players {
		return "", false
	}
	return r.seats[player], true
}

// RevealedContentFor returns what player sees right now: the secret word or
// SpyNotice. It reports false unless player is the one currently revealed.
func (c *Controller) RevealedContentFor(player int) (string, bool) {
	r := c.active
	if r == nil || player < 0 || player >= r.players || r.seats[player] != StateRevealed {
		return "", false
	}

	if _, spy := r.spies[player]; spy {
		return SpyNotice, true
	}
	return r.word, true
}

// PlayerCount returns the size of the current table, or 0 before the first
// round.
func (c *Controller) PlayerCount() int {
	if c.active == nil {
		return 0
	}
	return c.active.players
}

// SpyCount returns the number of spies in the current round.
func (c *Controller) SpyCount() int {
	if c.active == nil {
		return 0
	}
	return len(c.active.spies)
}

// Round returns how many rounds have been started.
func (c *Controller) Round() int {
	return c.round
}

// Limits returns the accepted player count range.
func (c *Controller) Limits() (min, max int) {
	return c.minPlayers, c.maxPlayers
}
