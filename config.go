/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/spybox/round"
	"github.com/Seednode/spybox/words"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	maxPlayers     int
	minPlayers     int
	players        int
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
	wordList       string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.minPlayers < round.DefaultMinPlayers {
		return fmt.Errorf("invalid minimum player count (must be at least %d): %d", round.DefaultMinPlayers, c.minPlayers)
	}
	if c.maxPlayers < c.minPlayers {
		return fmt.Errorf("maximum player count %d is below minimum %d", c.maxPlayers, c.minPlayers)
	}
	if c.players != 0 && (c.players < c.minPlayers || c.players > c.maxPlayers) {
		return fmt.Errorf("invalid player count (must be between %d-%d inclusive): %d", c.minPlayers, c.maxPlayers, c.players)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// loadBank validates cfg and reads the configured word list.
func loadBank(cfg *Config) (*words.Bank, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	bank, err := words.Load(cfg.wordList)
	if err != nil {
		return nil, err
	}

	source := cfg.wordList
	if source == "" {
		source = "built-in list"
	}
	logf(cfg, "START: Loaded %d words from %s", bank.Len(), source)

	return bank, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newPlayCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in this terminal, passing the keyboard from player to player.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			bank, err := loadBank(cfg)
			if err != nil {
				return err
			}
			return Play(cfg, bank, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()
	fs.IntVarP(&cfg.players, "players", "n", 0, "number of players, or 0 to ask (env: SPYBOX_PLAYERS)")
	bindFlags(v, fs)

	return cmd
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SPYBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "spybox",
		Short:         "A pass-the-device spy word game, served to your browser or played in the terminal.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			bank, err := loadBank(cfg)
			if err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, bank)
		},
	}

	pfs := cmd.PersistentFlags()
	pfs.IntVar(&cfg.maxPlayers, "max-players", round.DefaultMaxPlayers, "largest table a round can be started for (env: SPYBOX_MAX_PLAYERS)")
	pfs.IntVar(&cfg.minPlayers, "min-players", round.DefaultMinPlayers, "smallest table a round can be started for (env: SPYBOX_MIN_PLAYERS)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: SPYBOX_VERBOSE)")
	pfs.StringVarP(&cfg.wordList, "words", "w", "", "newline-separated word list, or empty for the built-in list (env: SPYBOX_WORDS)")

	fs := cmd.Flags()
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SPYBOX_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SPYBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: SPYBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: SPYBOX_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: SPYBOX_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: SPYBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: SPYBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: SPYBOX_VERSION)")

	bindFlags(v, pfs)
	bindFlags(v, fs)

	cmd.AddCommand(newPlayCmd(cfg, v))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("spybox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
