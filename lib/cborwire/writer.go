// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cborwire

import "encoding/binary"

// Writer appends CBOR item heads to an in-memory buffer at
// caller-chosen widths. Writes cannot fail: a width too narrow for its
// value, or a chunk layout that no longer matches its string, falls
// back to the canonical form.
type Writer struct {
	buffer []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the encoded bytes. The slice aliases the Writer's
// buffer until the next write.
func (w *Writer) Bytes() []byte {
	return w.buffer
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buffer)
}

func (w *Writer) writeHead(major MajorType, argument uint64, sz Sz) {
	initial := byte(major) << 5
	switch sz.Fit(argument) {
	case SzInline:
		w.buffer = append(w.buffer, initial|byte(argument))
	case SzOne:
		w.buffer = append(w.buffer, initial|infoUint8, byte(argument))
	case SzTwo:
		w.buffer = append(w.buffer, initial|infoUint16)
		w.buffer = binary.BigEndian.AppendUint16(w.buffer, uint16(argument))
	case SzFour:
		w.buffer = append(w.buffer, initial|infoUint32)
		w.buffer = binary.BigEndian.AppendUint32(w.buffer, uint32(argument))
	default:
		w.buffer = append(w.buffer, initial|infoUint64)
		w.buffer = binary.BigEndian.AppendUint64(w.buffer, argument)
	}
}

// WriteUint writes an unsigned integer.
func (w *Writer) WriteUint(value uint64, sz Sz) {
	w.writeHead(MajorUint, value, sz)
}

// WriteNint writes a negative integer whose encoded argument is n (the
// integer's value is -1-n).
func (w *Writer) WriteNint(n uint64, sz Sz) {
	w.writeHead(MajorNint, n, sz)
}

// WriteTag writes a tag head. The tagged item must follow.
func (w *Writer) WriteTag(tag uint64, sz Sz) {
	w.writeHead(MajorTag, tag, sz)
}

// WriteArrayHeader writes an array head. An indefinite array must be
// closed with WriteBreak.
func (w *Writer) WriteArrayHeader(length Len) {
	w.writeContainerHeader(MajorArray, length)
}

// WriteMapHeader writes a map head. An indefinite map must be closed
// with WriteBreak.
func (w *Writer) WriteMapHeader(length Len) {
	w.writeContainerHeader(MajorMap, length)
}

func (w *Writer) writeContainerHeader(major MajorType, length Len) {
	if length.Indefinite {
		w.buffer = append(w.buffer, byte(major)<<5|infoIndefinite)
		return
	}
	w.writeHead(major, length.Count, length.Sz)
}

// WriteBreak writes the break marker that closes an indefinite item.
func (w *Writer) WriteBreak() {
	w.buffer = append(w.buffer, breakByte)
}

// WriteBytes writes a byte string using the given length encoding.
func (w *Writer) WriteBytes(data []byte, encoding StringLen) {
	w.writeString(MajorBytes, data, encoding)
}

// WriteText writes a text string using the given length encoding.
func (w *Writer) WriteText(text string, encoding StringLen) {
	w.writeString(MajorText, []byte(text), encoding)
}

func (w *Writer) writeString(major MajorType, data []byte, encoding StringLen) {
	if encoding.Indefinite && encoding.chunkTotal() == uint64(len(data)) {
		w.buffer = append(w.buffer, byte(major)<<5|infoIndefinite)
		offset := uint64(0)
		for _, chunk := range encoding.Chunks {
			w.writeHead(major, chunk.Len, chunk.Sz)
			w.buffer = append(w.buffer, data[offset:offset+chunk.Len]...)
			offset += chunk.Len
		}
		w.WriteBreak()
		return
	}
	sz := encoding.Sz
	if encoding.Indefinite {
		sz = SzCanonical
	}
	w.writeHead(major, uint64(len(data)), sz)
	w.buffer = append(w.buffer, data...)
}

// WriteRaw appends pre-encoded CBOR verbatim.
func (w *Writer) WriteRaw(data []byte) {
	w.buffer = append(w.buffer, data...)
}
