// Package memo formats the note attached to every commit payment and parses
// it back out of the provider's transaction history.
package memo

import (
	"errors"
	"fmt"
	"html"
	"strings"
)

const (
	notePrefix     = "Commit payment:\n"
	nameDelimiter  = "__"
	urlScheme      = "https://"
	shortShaLength = 8

	// UnknownDestination is reported when a note carries no attribution.
	UnknownDestination = "Unknown"
)

// ErrParse is returned when a note lacks a usable commit URL or sha.
var ErrParse = errors.New("unparseable payment note")

// Note is the structured content of a payment note.
type Note struct {
	Destination string
	URL         string
	ShortSha    string
}

// Format builds the note sent along with a commit payment.
func Format(username, commitURL string) string {
	return notePrefix + nameDelimiter + username + nameDelimiter + " " + commitURL
}

// Parse extracts attribution, commit URL and short sha from a note.
// Notes may arrive HTML-escaped.
func Parse(note string) (Note, error) {
	text := html.UnescapeString(note)

	url, err := parseURL(text)
	if err != nil {
		return Note{}, err
	}

	sha, err := parseSha(url)
	if err != nil {
		return Note{}, err
	}

	return Note{
		Destination: parseDestination(text),
		URL:         url,
		ShortSha:    sha,
	}, nil
}

func parseDestination(text string) string {
	start := strings.Index(text, nameDelimiter)
	if start == -1 {
		return UnknownDestination
	}

	rest := strings.Index(text[start+1:], nameDelimiter)
	if rest == -1 {
		return UnknownDestination
	}

	end := start + 1 + rest
	if end < start+len(nameDelimiter) {
		// "___" has no room for a name between the delimiters.
		return UnknownDestination
	}

	return text[start+len(nameDelimiter) : end]
}

func parseURL(text string) (string, error) {
	idx := strings.Index(text, urlScheme)
	if idx == -1 {
		return "", fmt.Errorf("%w: no commit url", ErrParse)
	}
	return strings.TrimSpace(text[idx:]), nil
}

func parseSha(url string) (string, error) {
	parts := strings.Split(url, "/")
	full := parts[len(parts)-1]

	if len(full) < shortShaLength {
		return "", fmt.Errorf("%w: commit sha %q too short", ErrParse, full)
	}

	return full[:shortShaLength], nil
}
