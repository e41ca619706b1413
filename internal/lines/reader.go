// Package lines turns an arbitrary byte source into a lazy sequence of
// logical lines, bounding memory with a configurable maximum line length
// and tolerating any common line terminator and a configurable text
// encoding.
package lines

import (
	"bufio"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names a source text encoding. UTF-8 is the default and requires
// no transform; the others are wired through golang.org/x/text so the
// reader can sit in front of non-UTF-8 CLI tool output without a bespoke
// decoder (see DESIGN.md).
type Encoding string

const (
	UTF8    Encoding = "utf-8"
	UTF16LE Encoding = "utf-16le"
	UTF16BE Encoding = "utf-16be"
	Latin1  Encoding = "latin1"
)

// DefaultMaxLineLength bounds worst-case per-line memory (spec §4.1).
const DefaultMaxLineLength = 1 << 20 // 1 MiB

// Options configures a Reader.
type Options struct {
	// MaxLineLength is the maximum number of decoded characters in a single
	// logical line before it is split and the remainder treated as a fresh
	// line. Must be positive; zero selects DefaultMaxLineLength.
	MaxLineLength int
	// Encoding is the source text encoding. Empty selects UTF8.
	Encoding Encoding
}

func (o Options) normalized() Options {
	if o.MaxLineLength <= 0 {
		o.MaxLineLength = DefaultMaxLineLength
	}
	if o.Encoding == "" {
		o.Encoding = UTF8
	}
	return o
}

// Line is one logical line read from the source.
type Line struct {
	Text string
	// LineNumber is 1-based and monotonically increasing. It does not
	// advance for lines skipped because they were empty/whitespace-only.
	// The remainder of an overflow split is treated as a fresh line and
	// gets its own LineNumber.
	LineNumber int
	// Overflowed is true when Text is the head of a line that exceeded
	// MaxLineLength and was split; the caller (Stream Engine) synthesizes
	// an Error event for this case.
	Overflowed bool
}

// Reader yields logical lines from an underlying byte stream.
type Reader struct {
	br         *bufio.Reader
	closer     io.Closer
	opts       Options
	lineNumber int
	buf        []rune
	eof        bool
}

// New constructs a Reader over src using opts. If src implements io.Closer,
// Close will close it.
func New(src io.Reader, opts Options) (*Reader, error) {
	opts = opts.normalized()
	decoded, err := decode(src, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("lines: unsupported encoding %q: %w", opts.Encoding, err)
	}
	r := &Reader{br: bufio.NewReaderSize(decoded, 64*1024), opts: opts}
	if c, ok := src.(io.Closer); ok {
		r.closer = c
	}
	return r, nil
}

func decode(src io.Reader, enc Encoding) (io.Reader, error) {
	var e encoding.Encoding
	switch enc {
	case UTF8, "":
		return src, nil
	case UTF16LE:
		e = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case UTF16BE:
		e = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case Latin1:
		e = charmap.ISO8859_1
	default:
		return nil, fmt.Errorf("unknown encoding %q", enc)
	}
	return transform.NewReader(src, e.NewDecoder()), nil
}

// Close releases the underlying source, if closeable.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// ReadLine reads the next logical line. It returns io.EOF (with a possible
// final non-empty Line first) when the source is exhausted. Empty or
// whitespace-only lines are skipped internally and never returned; the
// caller does not see them and LineNumber is not consumed for them.
func (r *Reader) ReadLine() (Line, error) {
	for {
		text, overflowed, err := r.readRawLine()
		if text == "" && err != nil {
			return Line{}, err
		}
		if isBlank(text) {
			if err != nil {
				return Line{}, err
			}
			continue
		}
		r.lineNumber++
		return Line{Text: text, LineNumber: r.lineNumber, Overflowed: overflowed}, err
	}
}

// readRawLine reads one terminator-delimited (or overflow-split, or
// EOF-flushed) chunk, without the blank-line skip or numbering logic.
func (r *Reader) readRawLine() (string, bool, error) {
	if r.eof && len(r.buf) == 0 {
		return "", false, io.EOF
	}

	for {
		if idx, term := indexTerminator(r.buf); idx >= 0 && idx <= r.opts.MaxLineLength {
			text := string(r.buf[:idx])
			r.buf = append([]rune(nil), r.buf[idx+term:]...)
			return text, false, nil
		}
		if len(r.buf) >= r.opts.MaxLineLength {
			text := string(r.buf[:r.opts.MaxLineLength])
			r.buf = append([]rune(nil), r.buf[r.opts.MaxLineLength:]...)
			return text, true, nil
		}
		if r.eof {
			if len(r.buf) == 0 {
				return "", false, io.EOF
			}
			text := string(r.buf)
			r.buf = nil
			return text, false, io.EOF
		}
		if err := r.fill(); err != nil {
			if err == io.EOF {
				r.eof = true
				continue
			}
			return "", false, fmt.Errorf("lines: read error: %w", err)
		}
	}
}

// fill reads up to 4096 runes into the buffer, stopping right after the
// first \n or \r, using the replacement character for invalid byte
// sequences (spec §6).
func (r *Reader) fill() error {
	const chunk = 4096
	for i := 0; i < chunk; i++ {
		ru, _, err := r.br.ReadRune()
		if err != nil {
			if i > 0 {
				return nil
			}
			return err
		}
		r.buf = append(r.buf, ru)
		if ru == '\n' || ru == '\r' {
			return nil
		}
	}
	return nil
}

// indexTerminator finds the first \n, \r\n, or \r in buf, returning its
// start index and the terminator's rune length (1 for \n or lone \r, 2 for
// \r\n).
func indexTerminator(buf []rune) (int, int) {
	for i, ru := range buf {
		switch ru {
		case '\n':
			return i, 1
		case '\r':
			if i+1 < len(buf) && buf[i+1] == '\n' {
				return i, 2
			}
			// fill() stops right after a \r, so a trailing \r here may be
			// the first half of a \r\n whose \n is not read yet. Treating
			// it as a lone terminator is harmless: the following \n then
			// ends an empty line, which ReadLine skips.
			return i, 1
		}
	}
	return -1, 0
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\v' && r != '\f' {
			return false
		}
	}
	return true
}
