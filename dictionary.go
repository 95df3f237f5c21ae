package ccwalker

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// lemmaLinePattern matches lines of the form
// "<lemma>[optional "/"-prefixed POS]-><word1>, <word2>, ...". Lines that
// don't match are skipped.
var lemmaLinePattern = regexp.MustCompile(`^([^/]+)[^->]*->(.+)$`)

// LemmaDictionary is the word->lemma lookup table loaded once at startup
// from lemmatised_words.txt. It is immutable after load and safe to share
// across goroutines; callers load it once in main and pass it down.
type LemmaDictionary struct {
	words map[string]string
}

// LoadLemmaDictionary reads path and builds a LemmaDictionary. A missing or
// unreadable dictionary file is fatal at startup.
func LoadLemmaDictionary(path string) (*LemmaDictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dict := &LemmaDictionary{words: make(map[string]string)}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		m := lemmaLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lemma := strings.TrimSpace(m[1])
		for _, word := range strings.Split(m[2], ",") {
			word = strings.TrimSpace(word)
			if word == "" {
				continue
			}
			dict.words[word] = lemma
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return dict, nil
}

// Lookup returns the lemma for word, or word itself if no mapping exists.
func (d *LemmaDictionary) Lookup(word string) string {
	if d == nil {
		return word
	}
	if lemma, ok := d.words[word]; ok {
		return lemma
	}
	return word
}

// Len reports how many word->lemma mappings were loaded.
func (d *LemmaDictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.words)
}
