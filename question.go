// SPDX-License-Identifier: GPL-3.0-or-later

package dnswalk

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/miekg/dns"
)

// RecordType is a DNS record type.
//
// Only the types the resolver interprets have constants. Any other wire
// value collapses to [TypeNotImplemented] when parsed.
type RecordType uint16

const (
	// TypeNotImplemented is the catch-all for types we do not interpret.
	TypeNotImplemented RecordType = 0

	// TypeA is an IPv4 host address.
	TypeA RecordType = 1

	// TypeNS is an authoritative nameserver.
	TypeNS RecordType = 2

	// TypeCNAME is the canonical name of an alias.
	TypeCNAME RecordType = 5
)

// ParseRecordType maps a wire value to a [RecordType].
func ParseRecordType(v uint16) RecordType {
	switch t := RecordType(v); t {
	case TypeA, TypeNS, TypeCNAME:
		return t
	default:
		return TypeNotImplemented
	}
}

// String returns the mnemonic of the type.
func (t RecordType) String() string {
	if t == TypeNotImplemented {
		return "NotImplemented"
	}
	if s, ok := dns.TypeToString[uint16(t)]; ok {
		return s
	}
	return "TYPE" + strconv.Itoa(int(t))
}

// Class is a DNS class. Only IN is supported.
type Class uint16

// ClassIN is the Internet class.
const ClassIN Class = 1

// ParseClass maps a wire value to a [Class].
func ParseClass(v uint16) (Class, error) {
	if Class(v) != ClassIN {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedClass, v)
	}
	return ClassIN, nil
}

// String returns the mnemonic of the class.
func (c Class) String() string {
	return dns.Class(c).String()
}

// Question is an entry of the question section.
type Question struct {
	// Name is the wire-encoded name, without compression.
	Name []byte

	// Type is the query type.
	Type RecordType

	// Class is the query class.
	Class Class
}

// Pack serializes the question.
func (q Question) Pack() []byte {
	out := make([]byte, 0, len(q.Name)+4)
	out = append(out, q.Name...)
	out = binary.BigEndian.AppendUint16(out, uint16(q.Type))
	out = binary.BigEndian.AppendUint16(out, uint16(q.Class))
	return out
}

// NameString returns the dotted form of the question name.
func (q Question) NameString() (string, error) {
	name, _, err := DecodeName(q.Name, 0)
	return name, err
}

// UnpackQuestion reads the question at off inside msg and returns it
// along with the number of bytes it occupies.
func UnpackQuestion(msg []byte, off int) (Question, int, error) {
	wire, n, err := decodeNameWire(msg, off)
	if err != nil {
		return Question{}, 0, err
	}
	pos := off + n
	if pos+4 > len(msg) {
		return Question{}, 0, fmt.Errorf("%w: question type and class at offset %d", ErrTruncated, pos)
	}
	class, err := ParseClass(binary.BigEndian.Uint16(msg[pos+2:]))
	if err != nil {
		return Question{}, 0, err
	}
	q := Question{
		Name:  wire,
		Type:  ParseRecordType(binary.BigEndian.Uint16(msg[pos:])),
		Class: class,
	}
	return q, n + 4, nil
}
