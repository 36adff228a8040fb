/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Seednode/spybox/round"
	"github.com/Seednode/spybox/words"
)

// clearScreen moves the cursor home and wipes the terminal, so the next
// player can't scroll back to the previous word.
const clearScreen = "\033[H\033[2J"

// terminal drives a Controller from a line-oriented reader.
type terminal struct {
	cfg        *Config
	in         *bufio.Reader
	out        io.Writer
	supply     *words.Supply
	controller *round.Controller
}

// Play runs rounds in the terminal until the players quit or in is
// exhausted.
func Play(cfg *Config, bank *words.Bank, in io.Reader, out io.Writer) error {
	supply, controller, err := newGame(cfg, bank, newRand())
	if err != nil {
		return err
	}

	t := &terminal{
		cfg:        cfg,
		in:         bufio.NewReader(in),
		out:        out,
		supply:     supply,
		controller: controller,
	}

	err = t.run()
	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}

func (t *terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

func (t *terminal) askPlayers() (int, error) {
	min, max := t.controller.Limits()

	for {
		fmt.Fprintf(t.out, "How many players? (%d-%d): ", min, max)

		line, err := t.readLine()
		if err != nil {
			return 0, err
		}

		n, err := strconv.Atoi(line)
		if err != nil || n < min || n > max {
			fmt.Fprintf(t.out, "Please enter a number from %d to %d.\n", min, max)
			continue
		}

		return n, nil
	}
}

func (t *terminal) run() error {
	players := t.cfg.players

	var err error
	if players == 0 {
		players, err = t.askPlayers()
		if err != nil {
			return err
		}
	}

	for {
		if err := t.controller.StartRound(players); err != nil {
			if !errors.Is(err, round.ErrInvalidTransition) {
				return err
			}

			fmt.Fprintf(t.out, "%v\n", err)

			players, err = t.askPlayers()
			if err != nil {
				return err
			}

			continue
		}

		logf(t.cfg, "GAMES: Round %d started with %d players and %d spies",
			t.controller.Round(), players, t.controller.SpyCount())

		if err := t.playRound(); err != nil {
			return err
		}

		again, n, err := t.askAgain(players)
		if err != nil {
			return err
		}
		if !again {
			fmt.Fprintln(t.out, "Thanks for playing!")
			return nil
		}
		players = n
	}
}

// playRound walks every seat through reveal and hide.
func (t *terminal) playRound() error {
	c := t.controller

	fmt.Fprintf(t.out, "Round %d: %d players, %d %s.\n",
		c.Round(), c.PlayerCount(), c.SpyCount(), plural(c.SpyCount(), "spy", "spies"))

	for c.Phase() != round.PhaseComplete {
		player := c.CurrentPlayerIndex()

		fmt.Fprintf(t.out, "Player %d of %d, take the device and press Enter to see your word.",
			player+1, c.PlayerCount())
		if _, err := t.readLine(); err != nil {
			return err
		}

		if err := c.Reveal(player); err != nil {
			return err
		}

		content, _ := c.RevealedContentFor(player)
		fmt.Fprintf(t.out, "\n\n    %s\n\nPress Enter to hide it.", content)
		if _, err := t.readLine(); err != nil {
			return err
		}

		if err := c.Hide(player); err != nil {
			return err
		}

		fmt.Fprint(t.out, clearScreen)
	}

	fmt.Fprintf(t.out, "Everyone has seen their word. %d of %d words left before the list repeats.\n",
		t.supply.Remaining(), t.supply.Len())

	return nil
}

// askAgain returns whether to play another round and with how many players.
func (t *terminal) askAgain(players int) (bool, int, error) {
	for {
		fmt.Fprintf(t.out, "New round? [Y/n, or a new player count]: ")

		line, err := t.readLine()
		if err != nil {
			return false, 0, err
		}

		switch strings.ToLower(line) {
		case "", "y", "yes":
			return true, players, nil
		case "n", "no", "q", "quit":
			return false, 0, nil
		}

		if n, err := strconv.Atoi(line); err == nil {
			return true, n, nil
		}

		fmt.Fprintln(t.out, "Please answer y, n, or a number.")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
