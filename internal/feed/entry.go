package feed

import (
	"fmt"
	"strings"
	"time"
)

const (
	AtomNamespace    = "http://www.w3.org/2005/Atom"
	BloggerNamespace = "http://schemas.google.com/blogger/2018"

	EntryTypePost    = "POST"
	EntryStatusLive  = "LIVE"
	DefaultTitle     = "Untitled"
	DefaultAuthor    = "Unknown"
	alternateLinkRel = "alternate"
)

// Entry is one live post taken from a feed.
type Entry struct {
	Title       string
	Content     string
	AuthorName  string
	AuthorEmail string
	Published   time.Time // always UTC
	OriginID    string
	OriginURL   string
	Categories  []string // distinct, in document order
}

type rawEntry struct {
	ID        string `xml:"http://www.w3.org/2005/Atom id"`
	Title     string `xml:"http://www.w3.org/2005/Atom title"`
	Content   string `xml:"http://www.w3.org/2005/Atom content"`
	Published string `xml:"http://www.w3.org/2005/Atom published"`
	Author    struct {
		Name  string `xml:"http://www.w3.org/2005/Atom name"`
		Email string `xml:"http://www.w3.org/2005/Atom email"`
	} `xml:"http://www.w3.org/2005/Atom author"`
	Categories []struct {
		Term string `xml:"term,attr"`
	} `xml:"http://www.w3.org/2005/Atom category"`
	Links []struct {
		Rel  string `xml:"rel,attr"`
		Href string `xml:"href,attr"`
	} `xml:"http://www.w3.org/2005/Atom link"`
	Type     string `xml:"http://schemas.google.com/blogger/2018 type"`
	Status   string `xml:"http://schemas.google.com/blogger/2018 status"`
	Filename string `xml:"http://schemas.google.com/blogger/2018 filename"`
}

func (raw *rawEntry) isLivePost() bool {
	return strings.TrimSpace(raw.Type) == EntryTypePost && strings.TrimSpace(raw.Status) == EntryStatusLive
}

func (raw *rawEntry) toEntry(now time.Time) (Entry, error) {
	entry := Entry{
		Title:       strings.TrimSpace(raw.Title),
		Content:     raw.Content,
		AuthorName:  strings.TrimSpace(raw.Author.Name),
		AuthorEmail: strings.TrimSpace(raw.Author.Email),
		OriginID:    strings.TrimSpace(raw.ID),
		OriginURL:   strings.TrimSpace(raw.Filename),
	}
	if entry.Title == "" {
		entry.Title = DefaultTitle
	}
	if entry.AuthorName == "" {
		entry.AuthorName = DefaultAuthor
	}
	if entry.OriginURL == "" {
		for _, link := range raw.Links {
			if link.Rel == alternateLinkRel && link.Href != "" {
				entry.OriginURL = link.Href
				break
			}
		}
	}

	published, err := ParseTimestamp(raw.Published, now)
	if err != nil {
		return Entry{}, &EntryError{OriginID: entry.OriginID, Err: err}
	}
	entry.Published = published

	seen := make(map[string]bool, len(raw.Categories))
	for _, c := range raw.Categories {
		term := strings.TrimSpace(c.Term)
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		entry.Categories = append(entry.Categories, term)
	}

	return entry, nil
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp, normalizing a trailing "Z"
// to "+00:00". Timestamps without an offset are taken as UTC. An empty
// value yields fallback. The result is in UTC.
func ParseTimestamp(value string, fallback time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback.UTC(), nil
	}
	if strings.HasSuffix(value, "Z") || strings.HasSuffix(value, "z") {
		value = value[:len(value)-1] + "+00:00"
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid published timestamp %q", value)
}
