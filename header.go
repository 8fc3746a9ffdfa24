// SPDX-License-Identifier: GPL-3.0-or-later

package dnswalk

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the size of the fixed DNS message header.
const HeaderSize = 12

const (
	// FlagNone asks for no recursion and is what we send to
	// authoritative nameservers while walking the hierarchy.
	FlagNone = 0

	// FlagRecursionDesired sets the RD bit.
	FlagRecursionDesired = 1 << 8
)

const (
	flagResponse      = 1 << 15
	flagAuthoritative = 1 << 10
	flagTruncated     = 1 << 9
	rcodeMask         = 0x000F
)

// Header is the DNS message header (RFC 1035 §4.1.1).
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// Pack serializes the header as six big-endian 16-bit fields.
func (h Header) Pack() []byte {
	out := make([]byte, HeaderSize)
	binary.BigEndian.PutUint16(out[0:], h.ID)
	binary.BigEndian.PutUint16(out[2:], h.Flags)
	binary.BigEndian.PutUint16(out[4:], h.QDCount)
	binary.BigEndian.PutUint16(out[6:], h.ANCount)
	binary.BigEndian.PutUint16(out[8:], h.NSCount)
	binary.BigEndian.PutUint16(out[10:], h.ARCount)
	return out
}

// UnpackHeader reads the header at the beginning of msg.
func UnpackHeader(msg []byte) (Header, error) {
	if len(msg) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, got %d", ErrTruncated, HeaderSize, len(msg))
	}
	h := Header{
		ID:      binary.BigEndian.Uint16(msg[0:]),
		Flags:   binary.BigEndian.Uint16(msg[2:]),
		QDCount: binary.BigEndian.Uint16(msg[4:]),
		ANCount: binary.BigEndian.Uint16(msg[6:]),
		NSCount: binary.BigEndian.Uint16(msg[8:]),
		ARCount: binary.BigEndian.Uint16(msg[10:]),
	}
	return h, nil
}

// Response returns whether the QR bit is set.
func (h Header) Response() bool {
	return h.Flags&flagResponse != 0
}

// Authoritative returns whether the AA bit is set.
func (h Header) Authoritative() bool {
	return h.Flags&flagAuthoritative != 0
}

// Truncated returns whether the TC bit is set.
func (h Header) Truncated() bool {
	return h.Flags&flagTruncated != 0
}

// Rcode returns the response code.
func (h Header) Rcode() int {
	return int(h.Flags & rcodeMask)
}
