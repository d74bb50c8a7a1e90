package prompt

import (
	_ "embed"
	"os"
	"strings"
)

//go:embed words_en.txt
var embeddedWords string

// DefaultWords returns the built-in English word list, used when no
// custom word list file exists.
func DefaultWords() []string {
	var words []string
	for _, line := range strings.Split(embeddedWords, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	return words
}

// LoadWordsOrDefault loads the word list at path, falling back to the
// built-in list when the file does not exist.
func LoadWordsOrDefault(path string) ([]string, error) {
	words, err := LoadWords(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultWords(), nil
		}
		return nil, err
	}
	return words, nil
}
