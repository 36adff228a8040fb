/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package words holds the bank of candidate secret words and remembers which
// of them have already been dealt in the current session.
package words

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmptySupply is returned when the word bank has no entries. No round can
// be started without at least one word.
var ErrEmptySupply = errors.New("word supply is empty")

//go:embed default.txt
var defaultList string

// Rand is the subset of *math/rand/v2.Rand used for selection.
type Rand interface {
	IntN(n int) int
}

// Bank is an ordered, read-only list of unique words. It is safe to share a
// Bank between sessions.
type Bank struct {
	words []string
}

// Parse reads a newline separated word list. Blank lines and lines starting
// with '#' are skipped, and repeated entries (ignoring case) keep only their
// first occurrence.
func Parse(r io.Reader) (*Bank, error) {
	b := &Bank{}
	seen := make(map[string]struct{})

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key := strings.ToLower(line)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		b.words = append(b.words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}

	if len(b.words) == 0 {
		return nil, ErrEmptySupply
	}

	return b, nil
}

// Load reads a word list from file, or the built-in list when file is empty.
func Load(file string) (*Bank, error) {
	if file == "" {
		return Parse(strings.NewReader(defaultList))
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list %q: %w", file, err)
	}
	defer f.Close()

	b, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	return b, nil
}

// NewBank builds a Bank directly from a slice, applying the same cleanup
// rules as Parse.
func NewBank(list ...string) (*Bank, error) {
	return Parse(strings.NewReader(strings.Join(list, "\n")))
}

// Len returns the number of words in the bank.
func (b *Bank) Len() int {
	return len(b.words)
}

// Words returns a copy of the bank contents in order.
func (b *Bank) Words() []string {
	out := make([]string, len(b.words))
	copy(out, b.words)
	return out
}

// Supply deals words from a Bank without repeating one until every word has
// been dealt, at which point it starts over.
//
// A Supply is not safe for concurrent use.
type Supply struct {
	bank *Bank
	used map[string]struct{}
	rng  Rand
}

// New returns a Supply with an empty used set.
func New(bank *Bank, rng Rand) (*Supply, error) {
	if bank == nil || len(bank.words) == 0 {
		return nil, ErrEmptySupply
	}

	return &Supply{
		bank: bank,
		used: make(map[string]struct{}, len(bank.words)),
		rng:  rng,
	}, nil
}

// Select picks uniformly among the words not yet dealt and marks the result
// as used. Once every word has been dealt the used set is cleared, so Select
// only fails if the bank is empty.
func (s *Supply) Select() (string, error) {
	if s == nil || s.bank == nil || len(s.bank.words) == 0 {
		return "", ErrEmptySupply
	}

	if len(s.used) >= len(s.bank.words) {
		clear(s.used)
	}

	unused := make([]string, 0, len(s.bank.words)-len(s.used))
	for _, w := range s.bank.words {
		if _, ok := s.used[w]; !ok {
			unused = append(unused, w)
		}
	}

	word := unused[s.rng.IntN(len(unused))]
	s.used[word] = struct{}{}

	return word, nil
}

// Used reports whether word has been dealt since the last recycle.
func (s *Supply) Used(word string) bool {
	_, ok := s.used[word]
	return ok
}

// Remaining returns how many words can still be dealt before recycling.
func (s *Supply) Remaining() int {
	return len(s.bank.words) - len(s.used)
}

// Len returns the size of the underlying bank.
func (s *Supply) Len() int {
	return len(s.bank.words)
}

// Reset forgets every dealt word.
func (s *Supply) Reset() {
	clear(s.used)
}
