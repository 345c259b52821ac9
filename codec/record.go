// Package codec serializes (global index, attribute) pairs onto the wire
// exactly (spec §4.1) and frames the small header the ring exchanger
// prepends to a hop's payload (spec §4.4, §6).
//
// DUNE's original MPI implementation describes a committed struct datatype
// via MPI_LB/payload/MPI_UB pseudo-fields and lets the transport compute
// the record length from that description. Go has no equivalent
// typed-datatype facility, so per spec Design Notes #3 this codec is the
// prescribed fallback: a hand-written little-endian writer encoding
// exactly 8 bytes of global index followed by 1 byte of attribute. The
// ring protocol around it is unchanged.
package codec

import (
	"encoding/binary"

	"golang.org/x/xerrors"

	"github.com/dune-go/remoteindex/index"
)

// RecordSize is the wire size of one packed (global, attribute) pair.
const RecordSize = 9

// ErrBufferTooShort is returned when a buffer cannot hold the bytes being
// packed or unpacked. Per spec §4.1 this is always a fatal, non-recoverable
// condition: the sender sizes its buffer from the all-reduced maximum
// publication count, so an under-size buffer means the count or the
// allocation was wrong, not that the data legitimately overflowed.
var ErrBufferTooShort = xerrors.New("codec: buffer too short")

// Record is the wire form of an index.Pair: only the attribute is
// transmitted, never IsPublic or State, which are meaningful only on the
// owning process (spec §4.1 rationale).
type Record struct {
	Global    index.G
	Attribute index.Attribute
}

// Pack appends one encoded Record for pair, advancing *pos by RecordSize.
func Pack(pair index.Pair, buf []byte, pos *int) error {
	if len(buf)-*pos < RecordSize {
		return xerrors.Errorf("pack record at %d: %w", *pos, ErrBufferTooShort)
	}
	binary.LittleEndian.PutUint64(buf[*pos:], pair.Global)
	buf[*pos+8] = byte(pair.Tag.Attribute)
	*pos += RecordSize
	return nil
}

// Unpack reads one Record starting at *pos, advancing *pos by RecordSize.
func Unpack(buf []byte, pos *int) (Record, error) {
	if len(buf)-*pos < RecordSize {
		return Record{}, xerrors.Errorf("unpack record at %d: %w", *pos, ErrBufferTooShort)
	}
	rec := Record{
		Global:    binary.LittleEndian.Uint64(buf[*pos:]),
		Attribute: index.Attribute(buf[*pos+8]),
	}
	*pos += RecordSize
	return rec, nil
}

// HeaderSize is the wire size of a Header: one byte for SendTwo, two
// uint32 counts.
const HeaderSize = 1 + 4 + 4

// Header is the hop-0 framing spec §4.4/§6 describes: whether a second
// index set was published, and how many records of each follow.
type Header struct {
	SendTwo bool
	NSource uint32
	NDest   uint32
}

// PackHeader appends the header, advancing *pos by HeaderSize.
func PackHeader(h Header, buf []byte, pos *int) error {
	if len(buf)-*pos < HeaderSize {
		return xerrors.Errorf("pack header at %d: %w", *pos, ErrBufferTooShort)
	}
	if h.SendTwo {
		buf[*pos] = 1
	} else {
		buf[*pos] = 0
	}
	binary.BigEndian.PutUint32(buf[*pos+1:], h.NSource)
	binary.BigEndian.PutUint32(buf[*pos+5:], h.NDest)
	*pos += HeaderSize
	return nil
}

// UnpackHeader reads the header starting at *pos, advancing *pos by
// HeaderSize.
func UnpackHeader(buf []byte, pos *int) (Header, error) {
	if len(buf)-*pos < HeaderSize {
		return Header{}, xerrors.Errorf("unpack header at %d: %w", *pos, ErrBufferTooShort)
	}
	h := Header{
		SendTwo: buf[*pos] != 0,
		NSource: binary.BigEndian.Uint32(buf[*pos+1:]),
		NDest:   binary.BigEndian.Uint32(buf[*pos+5:]),
	}
	*pos += HeaderSize
	return h, nil
}
