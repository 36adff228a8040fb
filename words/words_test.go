/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package words

import (
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestParse(t *testing.T) {
	in := `
# comment
  apple
banana

Apple
cherry pie
banana
`
	b, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []string{"apple", "banana", "cherry pie"}
	if diff := cmp.Diff(want, b.Words()); diff != "" {
		t.Errorf("unexpected words (-want +got)\n%s", diff)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "\n\n", "# only\n# comments\n"} {
		if _, err := Parse(strings.NewReader(in)); !errors.Is(err, ErrEmptySupply) {
			t.Errorf("Parse(%q): got %v, want ErrEmptySupply", in, err)
		}
	}
}

func TestLoadDefault(t *testing.T) {
	b, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Len() == 0 {
		t.Fatal("built-in list is empty")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.txt")
	if err := os.WriteFile(good, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Load(good)
	if err != nil {
		t.Fatalf("Load(%q): %v", good, err)
	}
	if b.Len() != 2 {
		t.Errorf("got %d words, want 2", b.Len())
	}

	empty := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(empty, []byte("# nothing\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(empty); !errors.Is(err, ErrEmptySupply) {
		t.Errorf("Load(%q): got %v, want ErrEmptySupply", empty, err)
	}

	if _, err := Load(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewEmpty(t *testing.T) {
	if _, err := New(nil, testRand()); !errors.Is(err, ErrEmptySupply) {
		t.Errorf("New(nil): got %v, want ErrEmptySupply", err)
	}
	if _, err := New(&Bank{}, testRand()); !errors.Is(err, ErrEmptySupply) {
		t.Errorf("New(empty): got %v, want ErrEmptySupply", err)
	}

	var s *Supply
	if _, err := s.Select(); !errors.Is(err, ErrEmptySupply) {
		t.Errorf("nil Select: got %v, want ErrEmptySupply", err)
	}
}

func TestSelectNoRepeatUntilExhausted(t *testing.T) {
	list := []string{"a", "b", "c", "d", "e", "f", "g"}
	b, err := NewBank(list...)
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(b, testRand())
	if err != nil {
		t.Fatal(err)
	}

	for pass := 0; pass < 3; pass++ {
		seen := make(map[string]bool)
		for i := range list {
			w, err := s.Select()
			if err != nil {
				t.Fatalf("pass %d select %d: %v", pass, i, err)
			}
			if seen[w] {
				t.Fatalf("pass %d: %q repeated before all words were dealt", pass, w)
			}
			seen[w] = true

			if got, want := s.Remaining(), len(list)-i-1; got != want {
				t.Errorf("pass %d: remaining = %d, want %d", pass, got, want)
			}
		}
		if len(seen) != len(list) {
			t.Errorf("pass %d: dealt %d distinct words, want %d", pass, len(seen), len(list))
		}
	}
}

func TestSelectRecyclesTwoWords(t *testing.T) {
	b, err := NewBank("left", "right")
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(b, testRand())
	if err != nil {
		t.Fatal(err)
	}

	first, _ := s.Select()
	second, _ := s.Select()
	if first == second {
		t.Fatalf("second word repeated the first: %q", first)
	}

	third, err := s.Select()
	if err != nil {
		t.Fatalf("third select: %v", err)
	}
	if third != "left" && third != "right" {
		t.Errorf("third word %q not from the bank", third)
	}
	if !s.Used(third) {
		t.Errorf("%q not marked used after recycle", third)
	}
	if s.Remaining() != 1 {
		t.Errorf("remaining after recycle = %d, want 1", s.Remaining())
	}
}

func TestSelectUniform(t *testing.T) {
	b, _ := NewBank("a", "b", "c", "d")
	s, _ := New(b, testRand())

	counts := make(map[string]int)
	for range 4000 {
		s.Reset()
		w, _ := s.Select()
		counts[w]++
	}
	for _, w := range b.Words() {
		if counts[w] < 800 || counts[w] > 1200 {
			t.Errorf("%q chosen %d times out of 4000", w, counts[w])
		}
	}
}

func TestReset(t *testing.T) {
	b, _ := NewBank("x", "y", "z")
	s, _ := New(b, testRand())

	w, _ := s.Select()
	s.Reset()
	if s.Used(w) {
		t.Errorf("%q still used after Reset", w)
	}
	if s.Remaining() != s.Len() {
		t.Errorf("remaining = %d, want %d", s.Remaining(), s.Len())
	}
}
