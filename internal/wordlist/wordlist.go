// Package wordlist loads word lists from files.
package wordlist

import (
	"bufio"
	"errors"
	"os"
	"strings"
)

// ErrEmpty reports a word list without any usable entries.
var ErrEmpty = errors.New("word list is empty")

// LoadWords reads one entry per line from the provided file path. Blank lines
// and lines starting with '#' are skipped.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	words = Clean(words)
	if len(words) == 0 {
		return nil, ErrEmpty
	}
	return words, nil
}
