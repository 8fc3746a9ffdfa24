// SPDX-License-Identifier: GPL-3.0-or-later

package dnswalk

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net/netip"
)

// recordFixedSize is the size of TYPE, CLASS, TTL and RDLENGTH.
const recordFixedSize = 10

// RecordData is the typed payload of a [Record].
//
// It is one of [AData], [NameData] or [OpaqueData].
type RecordData interface {
	fmt.Stringer
	recordData()
}

// AData is the payload of an A record.
type AData struct {
	Addr netip.Addr
}

// NameData is the payload of NS and CNAME records.
type NameData struct {
	Name string
}

// OpaqueData is the payload of any record type we do not interpret.
type OpaqueData struct {
	Bytes []byte
}

func (AData) recordData()      {}
func (NameData) recordData()   {}
func (OpaqueData) recordData() {}

func (d AData) String() string      { return d.Addr.String() }
func (d NameData) String() string   { return d.Name }
func (d OpaqueData) String() string { return hex.EncodeToString(d.Bytes) }

// Record is a resource record of the answer, authority or additional section.
type Record struct {
	// Name is the dotted owner name.
	Name string

	// Type is the collapsed record type.
	Type RecordType

	// RawType is the type as it appeared on the wire.
	RawType uint16

	// Class is the raw record class, which we do not validate.
	Class uint16

	// TTL is the time to live in seconds.
	TTL uint32

	// Data is the typed record data.
	Data RecordData
}

// Addr returns the address of an A record.
func (r Record) Addr() (netip.Addr, bool) {
	d, ok := r.Data.(AData)
	return d.Addr, ok
}

// Target returns the name carried by an NS or CNAME record.
func (r Record) Target() (string, bool) {
	d, ok := r.Data.(NameData)
	return d.Name, ok
}

// String formats the record like a zone file line.
func (r Record) String() string {
	return fmt.Sprintf("%s.\t%d\t%s\t%s\t%s", r.Name, r.TTL, Class(r.Class), RecordType(r.RawType), r.Data)
}

// UnpackRecord reads the resource record at off inside msg and returns it
// along with the number of bytes it occupies, so that the caller can walk
// through consecutive records.
func UnpackRecord(msg []byte, off int) (Record, int, error) {
	name, n, err := DecodeName(msg, off)
	if err != nil {
		return Record{}, 0, err
	}
	pos := off + n
	if pos+recordFixedSize > len(msg) {
		return Record{}, 0, fmt.Errorf("%w: record fields at offset %d", ErrTruncated, pos)
	}
	rec := Record{
		Name:    name,
		RawType: binary.BigEndian.Uint16(msg[pos:]),
		Class:   binary.BigEndian.Uint16(msg[pos+2:]),
		TTL:     binary.BigEndian.Uint32(msg[pos+4:]),
	}
	rec.Type = ParseRecordType(rec.RawType)
	rdlength := int(binary.BigEndian.Uint16(msg[pos+8:]))
	pos += recordFixedSize
	end := pos + rdlength
	if end > len(msg) {
		return Record{}, 0, fmt.Errorf("%w: %d bytes of %s data at offset %d", ErrTruncated, rdlength, rec.Type, pos)
	}

	switch rec.Type {
	case TypeA:
		if rdlength != 4 {
			return Record{}, 0, fmt.Errorf("%w: A record with %d bytes of data", ErrMalformedRecord, rdlength)
		}
		rec.Data = AData{Addr: netip.AddrFrom4([4]byte(msg[pos:end]))}

	case TypeNS, TypeCNAME:
		target, tn, err := DecodeName(msg, pos)
		if err != nil {
			return Record{}, 0, err
		}
		if tn > rdlength {
			return Record{}, 0, fmt.Errorf("%w: %s name overflows %d bytes of data", ErrMalformedRecord, rec.Type, rdlength)
		}
		rec.Data = NameData{Name: target}

	default:
		rec.Data = OpaqueData{Bytes: append([]byte(nil), msg[pos:end]...)}
	}
	return rec, end - off, nil
}
