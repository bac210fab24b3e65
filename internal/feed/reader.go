package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/net/html/charset"
)

// Reader yields live post entries from an Atom document. It is not safe
// for concurrent use and cannot be rewound.
type Reader struct {
	dec     *xml.Decoder
	now     func() time.Time
	started bool
	err     error // sticky; set once the stream is finished or broken

	charsetErr error
}

// NewReader returns a Reader over r. Entries without a published timestamp
// are stamped with the time they are read.
// Documents declaring a non UTF-8 encoding are transcoded.
func NewReader(r io.Reader) *Reader {
	rd := &Reader{
		dec: xml.NewDecoder(r),
		now: time.Now,
	}
	rd.dec.CharsetReader = func(label string, in io.Reader) (io.Reader, error) {
		out, err := charset.NewReaderLabel(label, in)
		if err != nil {
			rd.charsetErr = err
		}
		return out, err
	}
	return rd
}

// Next returns the next live post. It returns io.EOF after the closing feed
// element, *EntryError for a rejected entry (reading may continue), and
// *ParseError or *SourceUnavailableError when the stream is unusable.
func (r *Reader) Next() (Entry, error) {
	if r.err != nil {
		return Entry{}, r.err
	}
	if !r.started {
		r.started = true
		if err := r.openFeed(); err != nil {
			r.err = err
			return Entry{}, err
		}
	}

	for {
		tok, err := r.dec.Token()
		if err != nil {
			r.err = r.classify(err)
			return Entry{}, r.err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != AtomNamespace || t.Name.Local != "entry" {
				if err := r.dec.Skip(); err != nil {
					r.err = r.classify(err)
					return Entry{}, r.err
				}
				continue
			}

			var raw rawEntry
			if err := r.dec.DecodeElement(&raw, &t); err != nil {
				r.err = r.classify(err)
				return Entry{}, r.err
			}
			if !raw.isLivePost() {
				continue
			}
			return raw.toEntry(r.now())

		case xml.EndElement:
			// Children are consumed whole, so this closes the feed.
			r.err = io.EOF
			return Entry{}, io.EOF
		}
	}
}

func (r *Reader) openFeed() error {
	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			return &ParseError{Err: errors.New("empty document")}
		}
		if err != nil {
			return r.classify(err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Space != AtomNamespace || start.Name.Local != "feed" {
			return &ParseError{Err: fmt.Errorf("unexpected root element {%s}%s", start.Name.Space, start.Name.Local)}
		}
		return nil
	}
}

func (r *Reader) classify(err error) error {
	var syntaxErr *xml.SyntaxError
	var unavailable *SourceUnavailableError
	switch {
	case r.charsetErr != nil:
		return &ParseError{Err: err}
	case errors.As(err, &syntaxErr):
		return &ParseError{Err: err}
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return &ParseError{Err: io.ErrUnexpectedEOF}
	case errors.As(err, &unavailable):
		return err
	default:
		return &SourceUnavailableError{Err: err}
	}
}
