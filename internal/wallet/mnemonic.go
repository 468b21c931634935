package wallet

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

const (
	// WordListSize is the number of entries in a PGP-style word list:
	// an even and an odd word for every byte value.
	WordListSize = 512

	// DefaultWordCount is 32 seed bytes plus one checksum word
	DefaultWordCount = 33
)

// Mnemonic decodes word list seeds. Byte b at position i is written as
// words[2*b + i%2]; the final word encodes sha256(seed)[0].
type Mnemonic struct {
	words     []string
	index     map[string]int
	wordCount int
}

// NewMnemonic builds a verifier from a 512-entry word list. A wordCount of
// zero uses DefaultWordCount.
func NewMnemonic(words []string, wordCount int) (*Mnemonic, error) {
	if len(words) != WordListSize {
		return nil, fmt.Errorf("word list must have %d entries, got %d", WordListSize, len(words))
	}
	if wordCount == 0 {
		wordCount = DefaultWordCount
	}
	if wordCount < 2 {
		return nil, fmt.Errorf("word count must be at least 2, got %d", wordCount)
	}

	index := make(map[string]int, len(words))
	normalized := make([]string, len(words))
	for i, w := range words {
		key := normalize(w)
		if key == "" {
			return nil, fmt.Errorf("word list entry %d is empty", i)
		}
		if prev, exists := index[key]; exists {
			return nil, fmt.Errorf("word list entry %d duplicates entry %d (%q)", i, prev, w)
		}
		index[key] = i
		normalized[i] = key
	}

	return &Mnemonic{
		words:     normalized,
		index:     index,
		wordCount: wordCount,
	}, nil
}

// LoadWordList reads one word per line, skipping blank lines and # comments
func LoadWordList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	return words, nil
}

// WordCount returns the number of words a valid phrase has
func (m *Mnemonic) WordCount() int {
	return m.wordCount
}

// Verify decodes phrase and returns the hex encoded seed
func (m *Mnemonic) Verify(ctx context.Context, phrase string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	seed, err := m.Decode(phrase)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(seed), nil
}

// Decode returns the seed bytes encoded by phrase
func (m *Mnemonic) Decode(phrase string) ([]byte, error) {
	fields := strings.Fields(phrase)
	if len(fields) != m.wordCount {
		return nil, invalid(ErrWordCount, fmt.Sprintf("want %d, got %d", m.wordCount, len(fields)))
	}

	decoded := make([]byte, len(fields))
	for i, word := range fields {
		idx, ok := m.index[normalize(word)]
		if !ok {
			return nil, invalid(ErrUnknownWord, fmt.Sprintf("word %d", i+1))
		}
		if idx%2 != i%2 {
			return nil, invalid(ErrParity, fmt.Sprintf("word %d", i+1))
		}
		decoded[i] = byte(idx / 2)
	}

	seed := decoded[:len(decoded)-1]
	sum := sha256.Sum256(seed)
	if decoded[len(decoded)-1] != sum[0] {
		return nil, invalid(ErrChecksum, "")
	}
	return seed, nil
}

// Encode writes seed as a phrase including the checksum word
func (m *Mnemonic) Encode(seed []byte) (string, error) {
	if len(seed) != m.wordCount-1 {
		return "", fmt.Errorf("seed must be %d bytes, got %d", m.wordCount-1, len(seed))
	}

	sum := sha256.Sum256(seed)
	all := append(append([]byte{}, seed...), sum[0])

	words := make([]string, len(all))
	for i, b := range all {
		words[i] = m.words[int(b)*2+i%2]
	}
	return strings.Join(words, " "), nil
}

func normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}
