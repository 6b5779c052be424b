package automation

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// ErrorString is what a failed transcoding degrades to.
const ErrorString = "'!ERROR'"

const defaultChar = '?'

var wideEncoding = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Transcoder moves strings between the host's UTF-8, the provider's UTF-16
// (BSTR / LPOLESTR) and the provider's multibyte code page.
//
// Strings sent to the provider take the same path as WideCharToMultiByte
// followed by MultiByteToWideChar, so characters the code page cannot
// represent arrive as '?'. With the utf-8 code page the path is lossless.
type Transcoder struct {
	name string
	cp   encoding.Encoding
}

// NewTranscoder returns a transcoder for the named code page ("utf-8",
// "windows-1252", "shift_jis", ...). An empty name selects the platform
// default code page.
func NewTranscoder(codePage string) (*Transcoder, error) {
	if codePage == "" {
		codePage = defaultCodePage()
	}
	enc, err := htmlindex.Get(codePage)
	if err != nil {
		return nil, fmt.Errorf("unknown code page %q: %w", codePage, err)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = strings.ToLower(codePage)
	}
	return &Transcoder{name: name, cp: enc}, nil
}

// CodePage returns the canonical name of the code page.
func (t *Transcoder) CodePage() string {
	return t.name
}

// ToWide converts UTF-8 to UTF-16 code units.
func (t *Transcoder) ToWide(s string) ([]uint16, error) {
	return utf8ToWide(s)
}

// FromWide converts UTF-16 code units to UTF-8.
func (t *Transcoder) FromWide(w []uint16) (string, error) {
	return wideToUTF8(w)
}

// ToMultiByte converts UTF-16 code units to the code page. Characters the
// code page cannot represent become the default character '?'.
func (t *Transcoder) ToMultiByte(w []uint16) ([]byte, error) {
	s, err := wideToUTF8(w)
	if err != nil {
		return nil, err
	}
	enc := t.cp.NewEncoder()
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, err := enc.Bytes([]byte(string(r)))
		if err != nil {
			out = append(out, defaultChar)
			continue
		}
		out = append(out, b...)
	}
	return out, nil
}

// FromMultiByte converts code page bytes to UTF-16 code units.
func (t *Transcoder) FromMultiByte(b []byte) ([]uint16, error) {
	s, err := t.cp.NewDecoder().Bytes(b)
	if err != nil {
		return nil, err
	}
	return utf8ToWide(string(s))
}

// ProviderString converts a host string to the BSTR contents the provider
// sees: UTF-8 → UTF-16 → code page → UTF-16. Any failure degrades to
// ErrorString; the error is returned alongside for logging.
func (t *Transcoder) ProviderString(s string) ([]uint16, error) {
	w, err := t.ToWide(s)
	if err != nil {
		return mustWide(ErrorString), fmt.Errorf("can't allocate string (wcs): %w", err)
	}
	mb, err := t.ToMultiByte(w)
	if err != nil {
		return mustWide(ErrorString), fmt.Errorf("can't allocate string (mbs): %w", err)
	}
	w, err = t.FromMultiByte(mb)
	if err != nil {
		return mustWide(ErrorString), fmt.Errorf("can't allocate string (wcs): %w", err)
	}
	return w, nil
}

func utf8ToWide(s string) ([]uint16, error) {
	b, err := wideEncoding.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, err
	}
	w := make([]uint16, len(b)/2)
	for i := range w {
		w[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return w, nil
}

func wideToUTF8(w []uint16) (string, error) {
	b := make([]byte, 2*len(w))
	for i, u := range w {
		binary.LittleEndian.PutUint16(b[2*i:], u)
	}
	s, err := wideEncoding.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(s), nil
}

func mustWide(s string) []uint16 {
	w, err := utf8ToWide(s)
	if err != nil {
		panic(err)
	}
	return w
}
