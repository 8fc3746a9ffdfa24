// SPDX-License-Identifier: GPL-3.0-or-later

package dnswalk

import "fmt"

// maxPreallocRecords caps the capacity we reserve from header counts,
// which come from the network and may be arbitrarily large.
const maxPreallocRecords = 64

// Packet is a parsed DNS message.
//
// Construct using [ParsePacket]. The length of each section equals the
// corresponding header count.
type Packet struct {
	Header      Header
	Questions   []Question
	Answers     []Record
	Authorities []Record
	Additionals []Record
}

// ParsePacket parses a raw DNS message.
//
// It reads exactly the number of entries declared by the header, section by
// section, and fails with [ErrTruncated] if msg ends before that.
func ParsePacket(msg []byte) (*Packet, error) {
	h, err := UnpackHeader(msg)
	if err != nil {
		return nil, err
	}
	p := &Packet{Header: h}
	off := HeaderSize

	p.Questions = make([]Question, 0, min(int(h.QDCount), maxPreallocRecords))
	for i := range int(h.QDCount) {
		q, n, err := UnpackQuestion(msg, off)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		p.Questions = append(p.Questions, q)
		off += n
	}

	sections := []struct {
		name  string
		count uint16
		out   *[]Record
	}{
		{"answer", h.ANCount, &p.Answers},
		{"authority", h.NSCount, &p.Authorities},
		{"additional", h.ARCount, &p.Additionals},
	}
	for _, s := range sections {
		*s.out = make([]Record, 0, min(int(s.count), maxPreallocRecords))
		for i := range int(s.count) {
			rec, n, err := UnpackRecord(msg, off)
			if err != nil {
				return nil, fmt.Errorf("%s %d: %w", s.name, i, err)
			}
			*s.out = append(*s.out, rec)
			off += n
		}
	}
	return p, nil
}
