// SPDX-License-Identifier: GPL-3.0-or-later

package dnswalk

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	// maxLabelLength is the maximum length of a single label (RFC 1035 §2.3.4).
	maxLabelLength = 63

	// maxNameLength is the maximum wire length of a name, including
	// the length octets and the terminating zero (RFC 1035 §2.3.4).
	maxNameLength = 255
)

// EncodeName encodes a dotted domain name as a sequence of length-prefixed
// labels terminated by a zero byte. A single trailing dot is accepted and
// both "" and "." encode the root name. The output is never compressed.
func EncodeName(name string) ([]byte, error) {
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return []byte{0}, nil
	}
	out := make([]byte, 0, len(name)+2)
	for _, label := range strings.Split(name, ".") {
		if label == "" {
			return nil, fmt.Errorf("%w: empty label in %q", ErrInvalidLabel, name)
		}
		if len(label) > maxLabelLength {
			return nil, fmt.Errorf("%w: %d bytes in %q", ErrLabelTooLong, len(label), name)
		}
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	out = append(out, 0)
	if len(out) > maxNameLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(out))
	}
	return out, nil
}

// DecodeName decodes the name starting at off inside msg, following
// compression pointers into msg itself.
//
// The returned count is the number of bytes the name occupies at off, which
// for a compressed name ends right after the first pointer and is unrelated
// to the length of the resolved name. Callers advance their own offset by it.
//
// Every pointer must target an offset strictly before the start of the
// label run containing it, so the walk always terminates.
func DecodeName(msg []byte, off int) (string, int, error) {
	labels, n, err := decodeLabels(msg, off)
	if err != nil {
		return "", 0, err
	}
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, string(label))
	}
	return strings.Join(parts, "."), n, nil
}

// decodeNameWire is like [DecodeName] but returns the name as uncompressed
// wire labels, which preserves labels containing dots.
func decodeNameWire(msg []byte, off int) ([]byte, int, error) {
	labels, n, err := decodeLabels(msg, off)
	if err != nil {
		return nil, 0, err
	}
	out := make([]byte, 0, maxNameLength)
	for _, label := range labels {
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	return append(out, 0), n, nil
}

// decodeLabels implements [DecodeName] and [decodeNameWire]. The returned
// labels alias msg.
func decodeLabels(msg []byte, off int) ([][]byte, int, error) {
	if off < 0 || off >= len(msg) {
		return nil, 0, fmt.Errorf("%w: name at offset %d", ErrTruncated, off)
	}
	var (
		labels   [][]byte
		wireLen  = 1
		consumed = -1
		runStart = off
		cur      = off
	)
	for {
		if cur >= len(msg) {
			return nil, 0, fmt.Errorf("%w: name at offset %d", ErrTruncated, off)
		}
		length := int(msg[cur])
		switch length & 0xC0 {
		case 0x00:
			if length == 0 {
				if consumed < 0 {
					consumed = cur + 1 - off
				}
				return labels, consumed, nil
			}
			end := cur + 1 + length
			if end > len(msg) {
				return nil, 0, fmt.Errorf("%w: label at offset %d", ErrTruncated, cur)
			}
			wireLen += length + 1
			if wireLen > maxNameLength {
				return nil, 0, fmt.Errorf("%w: name at offset %d", ErrNameTooLong, off)
			}
			labels = append(labels, msg[cur+1:end])
			cur = end

		case 0xC0:
			if cur+2 > len(msg) {
				return nil, 0, fmt.Errorf("%w: pointer at offset %d", ErrTruncated, cur)
			}
			target := int(binary.BigEndian.Uint16(msg[cur:]) & 0x3FFF)
			if target >= runStart {
				return nil, 0, fmt.Errorf("%w: pointer at offset %d targets offset %d",
					ErrMalformedCompression, cur, target)
			}
			if consumed < 0 {
				consumed = cur + 2 - off
			}
			runStart, cur = target, target

		default:
			return nil, 0, fmt.Errorf("%w: length octet %#x at offset %d", ErrInvalidLabel, length, cur)
		}
	}
}
