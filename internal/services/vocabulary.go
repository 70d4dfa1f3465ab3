package services

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

//go:embed vocabulary.txt
var defaultVocabulary string

// Vocabulary is a compiled, read-only list of skill terms. It is safe for
// concurrent use.
type Vocabulary struct {
	terms    []string
	patterns []*regexp.Regexp
	index    map[string]struct{}
}

// LoadVocabulary reads the vocabulary at path, or the built-in list when path
// is empty.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return ParseVocabulary(strings.NewReader(defaultVocabulary))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary: %w", err)
	}
	defer f.Close()

	return ParseVocabulary(f)
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() *Vocabulary {
	v, err := ParseVocabulary(strings.NewReader(defaultVocabulary))
	if err != nil {
		panic(err)
	}
	return v
}

func ParseVocabulary(r io.Reader) (*Vocabulary, error) {
	v := &Vocabulary{index: make(map[string]struct{})}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		term := NormalizeSkill(line)
		if _, dup := v.index[term]; dup {
			continue
		}

		re, err := compileTerm(term)
		if err != nil {
			return nil, fmt.Errorf("invalid vocabulary term %q: %w", line, err)
		}

		v.index[term] = struct{}{}
		v.terms = append(v.terms, term)
		v.patterns = append(v.patterns, re)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}

	return v, nil
}

// compileTerm builds a case-insensitive matcher that only fires when the term
// is not glued to a letter, digit, '+' or '#'. Spaces inside the term match
// any run of whitespace, '-' or '_'.
func compileTerm(term string) (*regexp.Regexp, error) {
	words := strings.Fields(term)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	body := strings.Join(words, `[\s\-_]+`)
	return regexp.Compile(`(?i)(?:^|[^\p{L}\p{N}+#])` + body + `(?:$|[^\p{L}\p{N}+#])`)
}

func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

func (v *Vocabulary) Len() int {
	return len(v.terms)
}

func (v *Vocabulary) Contains(term string) bool {
	_, ok := v.index[NormalizeSkill(term)]
	return ok
}

// Find returns every vocabulary term that occurs in text, in vocabulary order.
func (v *Vocabulary) Find(text string) []string {
	var found []string
	for i, re := range v.patterns {
		if re.MatchString(text) {
			found = append(found, v.terms[i])
		}
	}
	return found
}

// OccursIn reports whether term appears in text on word boundaries.
func OccursIn(term, text string) bool {
	term = NormalizeSkill(term)
	if term == "" {
		return false
	}
	re, err := compileTerm(term)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}
