package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"
)

func TestGenerateCount(t *testing.T) {
	g := NewSeeded(1)
	words := g.Generate([]string{"one", "two", "three"}, 10, 0, 0, nil)
	if len(words) != 10 {
		t.Fatalf("word count = %d, want 10", len(words))
	}
	for _, w := range words {
		if w != "one" && w != "two" && w != "three" {
			t.Fatalf("unexpected word %q", w)
		}
	}
}

func TestGenerateCapsAndPunct(t *testing.T) {
	g := NewSeeded(1)
	words := g.Generate([]string{"abc"}, 50, 1, 1, []rune{'!'})
	for _, w := range words {
		if !unicode.IsUpper([]rune(w)[0]) {
			t.Fatalf("word %q not capitalized with caps=1", w)
		}
		if !strings.HasSuffix(w, "!") {
			t.Fatalf("word %q missing punctuation with punct=1", w)
		}
	}
}

func TestGenerateWeightedPrefersWeakKeys(t *testing.T) {
	g := NewSeeded(1)
	words := []string{"aaaa", "bbbb"}
	weak := map[rune]struct{}{'a': {}}
	out := g.GenerateWeighted(words, 200, 0, 0, nil, weak, 10)
	countA := 0
	for _, w := range out {
		if w == "aaaa" {
			countA++
		}
	}
	if countA <= 120 {
		t.Fatalf("weak-biased generator picked aaaa only %d/200 times", countA)
	}
}

func TestLoadWords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "words.txt")
	if err := os.WriteFile(path, []byte("alpha\n\n beta \n"), 0o644); err != nil {
		t.Fatalf("write words: %v", err)
	}
	words, err := LoadWords(path)
	if err != nil {
		t.Fatalf("load words: %v", err)
	}
	if len(words) != 2 || words[0] != "alpha" || words[1] != "beta" {
		t.Fatalf("words = %v", words)
	}
}

func TestLoadWordsOrDefault(t *testing.T) {
	words, err := LoadWordsOrDefault(filepath.Join(t.TempDir(), "missing.txt"))
	if err != nil {
		t.Fatalf("load default words: %v", err)
	}
	if len(words) == 0 {
		t.Fatal("default word list is empty")
	}
}
