// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cborwire

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

// Reader decodes CBOR item heads from an in-memory byte slice while
// recording the wire form of each head.
type Reader struct {
	data   []byte
	offset int
}

// NewReader returns a Reader positioned at the start of data. The
// Reader does not copy data; callers must not modify it while the
// Reader is in use.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the current position in bytes from the start of the
// input.
func (r *Reader) Offset() int {
	return r.offset
}

// Seek moves the cursor to an absolute position previously obtained
// from Offset.
func (r *Reader) Seek(offset int) error {
	if offset < 0 || offset > len(r.data) {
		return fmt.Errorf("cborwire: seek to %d outside input of %d bytes", offset, len(r.data))
	}
	r.offset = offset
	return nil
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.offset
}

// Done reports whether all input has been consumed.
func (r *Reader) Done() bool {
	return r.offset >= len(r.data)
}

// PeekType returns the major type of the next item without consuming
// it.
func (r *Reader) PeekType() (MajorType, error) {
	if r.Done() {
		return 0, fmt.Errorf("cborwire: peek at offset %d: %w", r.offset, io.ErrUnexpectedEOF)
	}
	return MajorType(r.data[r.offset] >> 5), nil
}

// PeekBreak reports whether the next byte is a break marker.
func (r *Reader) PeekBreak() (bool, error) {
	if r.Done() {
		return false, fmt.Errorf("cborwire: peek at offset %d: %w", r.offset, io.ErrUnexpectedEOF)
	}
	return r.data[r.offset] == breakByte, nil
}

// ReadBreak consumes a break marker. It fails with ErrNotBreak, without
// consuming anything, when the next byte is something else.
func (r *Reader) ReadBreak() error {
	isBreak, err := r.PeekBreak()
	if err != nil {
		return err
	}
	if !isBreak {
		return fmt.Errorf("%w at offset %d", ErrNotBreak, r.offset)
	}
	r.offset++
	return nil
}

// readHead decodes one item head. For indefinite heads (additional
// information 31) indefinite is true and argument is zero.
func (r *Reader) readHead() (major MajorType, argument uint64, sz Sz, indefinite bool, err error) {
	start := r.offset
	if r.Done() {
		return 0, 0, 0, false, fmt.Errorf("cborwire: head at offset %d: %w", start, io.ErrUnexpectedEOF)
	}
	initial := r.data[r.offset]
	major = MajorType(initial >> 5)
	info := initial & 0x1f

	var width int
	switch {
	case info < infoUint8:
		r.offset++
		return major, uint64(info), SzInline, false, nil
	case info == infoUint8:
		width, sz = 1, SzOne
	case info == infoUint16:
		width, sz = 2, SzTwo
	case info == infoUint32:
		width, sz = 4, SzFour
	case info == infoUint64:
		width, sz = 8, SzEight
	case info == infoIndefinite:
		r.offset++
		return major, 0, SzCanonical, true, nil
	default:
		return 0, 0, 0, false, fmt.Errorf("%w %d at offset %d", ErrReservedInfo, info, start)
	}

	if r.Remaining() < 1+width {
		return 0, 0, 0, false, fmt.Errorf("cborwire: %s argument at offset %d: %w", sz, start, io.ErrUnexpectedEOF)
	}
	body := r.data[r.offset+1 : r.offset+1+width]
	switch width {
	case 1:
		argument = uint64(body[0])
	case 2:
		argument = uint64(binary.BigEndian.Uint16(body))
	case 4:
		argument = uint64(binary.BigEndian.Uint32(body))
	case 8:
		argument = binary.BigEndian.Uint64(body)
	}
	r.offset += 1 + width
	return major, argument, sz, false, nil
}

// expectHead reads a head and checks its major type. On mismatch the
// cursor is left where it was.
func (r *Reader) expectHead(want MajorType) (uint64, Sz, bool, error) {
	start := r.offset
	major, argument, sz, indefinite, err := r.readHead()
	if err != nil {
		return 0, 0, false, err
	}
	if major != want {
		r.offset = start
		return 0, 0, false, fmt.Errorf("%w: want %s, found %s at offset %d", ErrMajorTypeMismatch, want, major, start)
	}
	return argument, sz, indefinite, nil
}

// ReadUint reads an unsigned integer (major type 0).
func (r *Reader) ReadUint() (uint64, Sz, error) {
	start := r.offset
	value, sz, indefinite, err := r.expectHead(MajorUint)
	if err != nil {
		return 0, 0, err
	}
	if indefinite {
		r.offset = start
		return 0, 0, fmt.Errorf("%w: unsigned integer at offset %d", ErrIndefinite, start)
	}
	return value, sz, nil
}

// ReadNint reads a negative integer (major type 1) and returns its
// encoded argument n; the integer's value is -1-n.
func (r *Reader) ReadNint() (uint64, Sz, error) {
	start := r.offset
	value, sz, indefinite, err := r.expectHead(MajorNint)
	if err != nil {
		return 0, 0, err
	}
	if indefinite {
		r.offset = start
		return 0, 0, fmt.Errorf("%w: negative integer at offset %d", ErrIndefinite, start)
	}
	return value, sz, nil
}

// ReadTag reads a tag head (major type 6). The tagged item follows.
func (r *Reader) ReadTag() (uint64, Sz, error) {
	start := r.offset
	value, sz, indefinite, err := r.expectHead(MajorTag)
	if err != nil {
		return 0, 0, err
	}
	if indefinite {
		r.offset = start
		return 0, 0, fmt.Errorf("%w: tag at offset %d", ErrIndefinite, start)
	}
	return value, sz, nil
}

// ReadArrayHeader reads an array head (major type 4).
func (r *Reader) ReadArrayHeader() (Len, error) {
	return r.readContainerHeader(MajorArray)
}

// ReadMapHeader reads a map head (major type 5). A definite map's
// Count is the number of key/value pairs.
func (r *Reader) ReadMapHeader() (Len, error) {
	return r.readContainerHeader(MajorMap)
}

func (r *Reader) readContainerHeader(major MajorType) (Len, error) {
	count, sz, indefinite, err := r.expectHead(major)
	if err != nil {
		return Len{}, err
	}
	if indefinite {
		return IndefiniteLen(), nil
	}
	return Len{Count: count, Sz: sz}, nil
}

// ReadBytes reads a byte string (major type 2), joining the chunks of
// an indefinite-length string. The returned slice is a copy.
func (r *Reader) ReadBytes() ([]byte, StringLen, error) {
	return r.readString(MajorBytes)
}

// ReadText reads a text string (major type 3), joining the chunks of
// an indefinite-length string. Each chunk must be valid UTF-8 on its
// own (RFC 8949 §3.2.3), so a chunk boundary never splits a character.
func (r *Reader) ReadText() (string, StringLen, error) {
	start := r.offset
	data, encoding, err := r.readString(MajorText)
	if err != nil {
		return "", StringLen{}, err
	}
	if !encoding.Indefinite {
		if !utf8.Valid(data) {
			r.offset = start
			return "", StringLen{}, fmt.Errorf("%w at offset %d", ErrInvalidUTF8, start)
		}
		return string(data), encoding, nil
	}
	rest := data
	for i, chunk := range encoding.Chunks {
		if !utf8.Valid(rest[:chunk.Len]) {
			r.offset = start
			return "", StringLen{}, fmt.Errorf("%w: chunk %d of string at offset %d", ErrInvalidUTF8, i, start)
		}
		rest = rest[chunk.Len:]
	}
	return string(data), encoding, nil
}

func (r *Reader) readString(major MajorType) ([]byte, StringLen, error) {
	start := r.offset
	length, sz, indefinite, err := r.expectHead(major)
	if err != nil {
		return nil, StringLen{}, err
	}
	if !indefinite {
		data, err := r.take(length)
		if err != nil {
			r.offset = start
			return nil, StringLen{}, err
		}
		return append(make([]byte, 0, len(data)), data...), StringLen{Sz: sz}, nil
	}

	result := []byte{}
	encoding := StringLen{Indefinite: true}
	for {
		isBreak, err := r.PeekBreak()
		if err != nil {
			r.offset = start
			return nil, StringLen{}, err
		}
		if isBreak {
			r.offset++
			return result, encoding, nil
		}
		chunkStart := r.offset
		chunkMajor, chunkLength, chunkSz, chunkIndefinite, err := r.readHead()
		if err != nil {
			r.offset = start
			return nil, StringLen{}, err
		}
		if chunkMajor != major || chunkIndefinite {
			r.offset = start
			return nil, StringLen{}, fmt.Errorf("%w: %s at offset %d", ErrInvalidChunk, chunkMajor, chunkStart)
		}
		data, err := r.take(chunkLength)
		if err != nil {
			r.offset = start
			return nil, StringLen{}, err
		}
		result = append(result, data...)
		encoding.Chunks = append(encoding.Chunks, Chunk{Len: chunkLength, Sz: chunkSz})
	}
}

// take consumes n bytes and returns them without copying.
func (r *Reader) take(n uint64) ([]byte, error) {
	if n > uint64(r.Remaining()) {
		return nil, fmt.Errorf("cborwire: %d-byte string at offset %d exceeds remaining %d bytes: %w",
			n, r.offset, r.Remaining(), io.ErrUnexpectedEOF)
	}
	data := r.data[r.offset : r.offset+int(n)]
	r.offset += int(n)
	return data, nil
}

// ReadRawItem consumes exactly one complete data item, including any
// tags, nested content, and indefinite-length framing, and returns its
// bytes verbatim together with its outermost major type. The returned
// slice is a copy.
func (r *Reader) ReadRawItem() ([]byte, MajorType, error) {
	start := r.offset
	major, err := r.PeekType()
	if err != nil {
		return nil, 0, err
	}
	if err := r.skip(0); err != nil {
		r.offset = start
		return nil, 0, err
	}
	return append([]byte(nil), r.data[start:r.offset]...), major, nil
}

// SkipItem consumes one complete data item.
func (r *Reader) SkipItem() error {
	start := r.offset
	if err := r.skip(0); err != nil {
		r.offset = start
		return err
	}
	return nil
}

// skip consumes one item enclosed by depth arrays, maps, and tags.
func (r *Reader) skip(depth int) error {
	headStart := r.offset
	major, argument, _, indefinite, err := r.readHead()
	if err != nil {
		return err
	}
	if (major == MajorArray || major == MajorMap || major == MajorTag) && depth >= MaxNesting {
		r.offset = headStart
		return fmt.Errorf("%w: more than %d levels at offset %d", ErrNestingTooDeep, MaxNesting, headStart)
	}

	switch major {
	case MajorUint, MajorNint:
		if indefinite {
			return fmt.Errorf("%w: %s at offset %d", ErrIndefinite, major, headStart)
		}
		return nil

	case MajorBytes, MajorText:
		r.offset = headStart
		_, _, err := r.readString(major)
		return err

	case MajorArray, MajorMap:
		perEntry := 1
		if major == MajorMap {
			perEntry = 2
		}
		if indefinite {
			for {
				isBreak, err := r.PeekBreak()
				if err != nil {
					return err
				}
				if isBreak {
					r.offset++
					return nil
				}
				for range perEntry {
					if err := r.skip(depth + 1); err != nil {
						return err
					}
				}
			}
		}
		for i := uint64(0); i < argument; i++ {
			for range perEntry {
				if err := r.skip(depth + 1); err != nil {
					return err
				}
			}
		}
		return nil

	case MajorTag:
		if indefinite {
			return fmt.Errorf("%w: tag at offset %d", ErrIndefinite, headStart)
		}
		return r.skip(depth + 1)

	default: // MajorSimple
		if indefinite {
			return fmt.Errorf("%w at offset %d", ErrUnexpectedBreak, headStart)
		}
		return nil
	}
}
