package richtext

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidDelimiter is returned when a delimiter specification is neither
// a single character, a set of characters, nor a predicate.
var ErrInvalidDelimiter = errors.New("invalid delimiter specification")

// WordPunctuation lists the non-alphanumeric characters that belong to words.
const WordPunctuation = "+-*/@$%^&_=<>~:"

// IsWordRune reports whether r belongs to the default word alphabet.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(WordPunctuation, r)
}

// Token is a unit of split text: either a maximal run of word characters or
// a single delimiter character.
type Token struct {
	Text  string
	Delim bool
}

// Splitter cuts text into tokens, keeping every delimiter as its own token.
type Splitter struct {
	isDelim func(rune) bool
}

var defaultSplitter = &Splitter{isDelim: func(r rune) bool { return !IsWordRune(r) }}

// DefaultSplitter returns the splitter whose delimiters are all characters
// outside the word alphabet.
func DefaultSplitter() *Splitter {
	return defaultSplitter
}

// NewSplitter builds a splitter from a delimiter specification: a rune or
// byte, a set given as a string or []rune, or a func(rune) bool predicate.
func NewSplitter(delim any) (*Splitter, error) {
	switch d := delim.(type) {
	case rune:
		return &Splitter{isDelim: func(r rune) bool { return r == d }}, nil
	case byte:
		return &Splitter{isDelim: func(r rune) bool { return r == rune(d) }}, nil
	case string:
		if d == "" {
			return nil, fmt.Errorf("%w: empty character set", ErrInvalidDelimiter)
		}
		return &Splitter{isDelim: func(r rune) bool { return strings.ContainsRune(d, r) }}, nil
	case []rune:
		if len(d) == 0 {
			return nil, fmt.Errorf("%w: empty character set", ErrInvalidDelimiter)
		}
		set := make(map[rune]struct{}, len(d))
		for _, r := range d {
			set[r] = struct{}{}
		}
		return &Splitter{isDelim: func(r rune) bool {
			_, ok := set[r]
			return ok
		}}, nil
	case func(rune) bool:
		if d == nil {
			return nil, fmt.Errorf("%w: nil predicate", ErrInvalidDelimiter)
		}
		return &Splitter{isDelim: d}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidDelimiter, delim)
	}
}

// WordSplitter returns a splitter whose words are letters, digits and the
// characters in extra. An empty extra set is allowed.
func WordSplitter(extra string) *Splitter {
	return &Splitter{isDelim: func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune(extra, r)
	}}
}

// Split tokenizes s with the default splitter.
func Split(s string) []Token {
	return defaultSplitter.Split(s)
}

// Split scans s left to right. Invalid UTF-8 bytes are treated as single
// characters so no input byte is ever dropped.
func (sp *Splitter) Split(s string) []Token {
	var tokens []Token
	start := -1
	for i := 0; i < len(s); {
		r, w := utf8.DecodeRuneInString(s[i:])
		if sp.isDelim(r) {
			if start >= 0 {
				tokens = append(tokens, Token{Text: s[start:i]})
				start = -1
			}
			tokens = append(tokens, Token{Text: s[i : i+w], Delim: true})
		} else if start < 0 {
			start = i
		}
		i += w
	}
	if start >= 0 {
		tokens = append(tokens, Token{Text: s[start:]})
	}
	return tokens
}
