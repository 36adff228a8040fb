/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		return Config{port: 8080, minPlayers: 2, maxPlayers: 20}
	}

	tests := map[string]struct {
		mutate  func(*Config)
		wantErr bool
	}{
		"defaults":         {func(c *Config) {}, false},
		"cert only":        {func(c *Config) { c.tlsCert = "cert.pem" }, true},
		"cert and key":     {func(c *Config) { c.tlsCert, c.tlsKey = "cert.pem", "key.pem" }, false},
		"port zero":        {func(c *Config) { c.port = 0 }, true},
		"port too high":    {func(c *Config) { c.port = 70000 }, true},
		"min below two":    {func(c *Config) { c.minPlayers = 1 }, true},
		"max below min":    {func(c *Config) { c.minPlayers, c.maxPlayers = 6, 5 }, true},
		"players in range": {func(c *Config) { c.players = 7 }, false},
		"players too many": {func(c *Config) { c.players = 21 }, true},
	}

	for name, tt := range tests {
		cfg := base()
		tt.mutate(&cfg)

		err := cfg.validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: validate() = %v, wantErr %t", name, err, tt.wantErr)
		}
	}
}

func TestScheme(t *testing.T) {
	cfg := &Config{}
	if cfg.scheme() != "http" {
		t.Errorf("scheme = %q, want http", cfg.scheme())
	}

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	if cfg.scheme() != "https" {
		t.Errorf("scheme = %q, want https", cfg.scheme())
	}
}

func TestEnvBinding(t *testing.T) {
	t.Setenv("SPYBOX_PORT", "9191")
	t.Setenv("SPYBOX_MAX_PLAYERS", "12")
	t.Setenv("SPYBOX_SESSION_TIMEOUT", "5m")

	cfg := &Config{}
	newCmd(cfg)

	if cfg.port != 9191 {
		t.Errorf("port = %d, want 9191", cfg.port)
	}
	if cfg.maxPlayers != 12 {
		t.Errorf("maxPlayers = %d, want 12", cfg.maxPlayers)
	}
	if cfg.sessionTimeout.Minutes() != 5 {
		t.Errorf("sessionTimeout = %s, want 5m", cfg.sessionTimeout)
	}
	if cfg.minPlayers != 2 {
		t.Errorf("minPlayers = %d, want default 2", cfg.minPlayers)
	}
}

func TestPlayCommand(t *testing.T) {
	list := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(list, []byte("teapot\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{}
	cmd := newCmd(cfg)

	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(strings.Repeat("\n", 6) + "n\n"))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"play", "--players", "3", "--words", list})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got := out.String()
	if n := strings.Count(got, "teapot"); n != 2 {
		t.Errorf("word shown %d times, want 2\n%s", n, got)
	}
	if !strings.Contains(got, "Thanks for playing!") {
		t.Errorf("missing goodbye\n%s", got)
	}
}

func TestPlayCommandEmptyWordList(t *testing.T) {
	list := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(list, []byte("# nothing here\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newCmd(&Config{})
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"play", "-n", "3", "-w", list})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for an empty word list")
	}
}
