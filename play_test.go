/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Seednode/spybox/round"
	"github.com/Seednode/spybox/words"
)

func testConfig() *Config {
	return &Config{
		port:       8080,
		minPlayers: round.DefaultMinPlayers,
		maxPlayers: round.DefaultMaxPlayers,
	}
}

func testBank(t *testing.T, list ...string) *words.Bank {
	t.Helper()

	bank, err := words.NewBank(list...)
	if err != nil {
		t.Fatalf("NewBank: %v", err)
	}
	return bank
}

func TestPlayOneRound(t *testing.T) {
	cfg := testConfig()
	cfg.players = 4

	var out bytes.Buffer
	in := strings.NewReader(strings.Repeat("\n", 8) + "n\n")

	if err := Play(cfg, testBank(t, "teapot"), in, &out); err != nil {
		t.Fatalf("Play: %v", err)
	}

	got := out.String()
	if n := strings.Count(got, round.SpyNotice); n != 1 {
		t.Errorf("spy notice shown %d times, want 1", n)
	}
	if n := strings.Count(got, "teapot"); n != 3 {
		t.Errorf("word shown %d times, want 3", n)
	}
	if n := strings.Count(got, clearScreen); n != 4 {
		t.Errorf("screen cleared %d times, want 4", n)
	}
	for _, want := range []string{"Player 1 of 4", "Player 4 of 4", "Round 1: 4 players, 1 spy."} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestPlayAsksForPlayers(t *testing.T) {
	cfg := testConfig()

	input := "1\nabc\n3\n" +
		strings.Repeat("\n", 6) +
		"6\n" +
		strings.Repeat("\n", 12) +
		"quit\n"

	var out bytes.Buffer
	if err := Play(cfg, testBank(t, "teapot", "kettle"), strings.NewReader(input), &out); err != nil {
		t.Fatalf("Play: %v", err)
	}

	got := out.String()
	if n := strings.Count(got, "Please enter a number from 2 to 20."); n != 2 {
		t.Errorf("re-prompted %d times, want 2", n)
	}
	if !strings.Contains(got, "Round 2: 6 players, 2 spies.") {
		t.Errorf("second round not started with 6 players\n%s", got)
	}
	if n := strings.Count(got, round.SpyNotice); n != 3 {
		t.Errorf("spy notice shown %d times, want 3", n)
	}
	if strings.Count(got, "teapot") == 0 || strings.Count(got, "kettle") == 0 {
		t.Errorf("expected both words to be dealt across two rounds\n%s", got)
	}
}

func TestPlayRejectsOversizedTable(t *testing.T) {
	cfg := testConfig()
	cfg.players = 2

	input := strings.Repeat("\n", 4) + "99\n" + "2\n" + strings.Repeat("\n", 4) + "n\n"

	var out bytes.Buffer
	if err := Play(cfg, testBank(t, "teapot"), strings.NewReader(input), &out); err != nil {
		t.Fatalf("Play: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "at most 20 players allowed") {
		t.Errorf("missing rejection\n%s", got)
	}
	if !strings.Contains(got, "Round 2: 2 players, 1 spy.") {
		t.Errorf("second round missing\n%s", got)
	}
}

func TestPlayStopsAtEndOfInput(t *testing.T) {
	cfg := testConfig()
	cfg.players = 5

	var out bytes.Buffer
	if err := Play(cfg, testBank(t, "teapot"), strings.NewReader("\n\n\n"), &out); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if strings.Contains(out.String(), "Thanks for playing!") {
		t.Error("should stop quietly when input ends")
	}
}
