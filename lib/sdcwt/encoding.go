// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import "github.com/bureau-foundation/sdcwt/lib/cborwire"

// LenEncoding records how an array or map length was written. The zero
// value is canonical: the shortest definite form.
type LenEncoding struct {
	// Indefinite marks a container written without a count and closed
	// by a break marker.
	Indefinite bool

	// Sz is the argument width of a definite length. SzCanonical
	// selects the shortest width for whatever count is written.
	Sz cborwire.Sz
}

// lenEncodingOf captures the wire form of a decoded container head.
// A definite length already at its shortest width is recorded as
// canonical, so hints only carry information the canonical form would
// lose.
func lenEncodingOf(length cborwire.Len) LenEncoding {
	if length.Indefinite {
		return LenEncoding{Indefinite: true}
	}
	if length.Sz == cborwire.CanonicalSz(length.Count) {
		return LenEncoding{}
	}
	return LenEncoding{Sz: length.Sz}
}

// IsCanonical reports whether the encoding is the shortest definite
// form.
func (e LenEncoding) IsCanonical() bool {
	return e == LenEncoding{}
}

// wire returns the head to write for a container of count elements.
// A recorded width too narrow for count falls back to the shortest
// width inside the writer.
func (e LenEncoding) wire(count int) cborwire.Len {
	if e.Indefinite {
		return cborwire.IndefiniteLen()
	}
	return cborwire.Len{Count: uint64(count), Sz: e.Sz}
}

// end writes the closing break marker if the container is indefinite.
func (e LenEncoding) end(w *cborwire.Writer) {
	if e.Indefinite {
		w.WriteBreak()
	}
}

// StringEncoding records how a byte or text string length was written:
// a definite head of width Sz, or an indefinite string streamed as
// Chunks. The zero value is canonical.
type StringEncoding struct {
	Sz         cborwire.Sz
	Indefinite bool
	Chunks     []cborwire.Chunk
}

func stringEncodingOf(length cborwire.StringLen, size int) StringEncoding {
	if length.Indefinite {
		return StringEncoding{Indefinite: true, Chunks: length.Chunks}
	}
	if length.Sz == cborwire.CanonicalSz(uint64(size)) {
		return StringEncoding{}
	}
	return StringEncoding{Sz: length.Sz}
}

// IsCanonical reports whether the encoding is the shortest definite
// form.
func (e StringEncoding) IsCanonical() bool {
	return !e.Indefinite && e.Sz == cborwire.SzCanonical
}

func (e StringEncoding) wire() cborwire.StringLen {
	return cborwire.StringLen{Sz: e.Sz, Indefinite: e.Indefinite, Chunks: e.Chunks}
}

// Scalar string helpers shared by the record codecs.

func writeText(w *cborwire.Writer, text string, encoding StringEncoding) {
	w.WriteText(text, encoding.wire())
}

func readText(r *cborwire.Reader) (string, StringEncoding, error) {
	text, length, err := r.ReadText()
	if err != nil {
		return "", StringEncoding{}, err
	}
	return text, stringEncodingOf(length, len(text)), nil
}

func writeBytes(w *cborwire.Writer, data []byte, encoding StringEncoding) {
	w.WriteBytes(data, encoding.wire())
}

func readBytes(r *cborwire.Reader) ([]byte, StringEncoding, error) {
	data, length, err := r.ReadBytes()
	if err != nil {
		return nil, StringEncoding{}, err
	}
	return data, stringEncodingOf(length, len(data)), nil
}
