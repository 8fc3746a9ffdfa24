// SPDX-License-Identifier: GPL-3.0-or-later

package dnswalk

import "errors"

// Errors emitted when decoding wire data.
var (
	// ErrTruncated means the buffer is shorter than a field declares.
	ErrTruncated = errors.New("truncated DNS message")

	// ErrMalformedCompression means a compression pointer does not point
	// strictly backwards and would otherwise loop or read unrelated data.
	ErrMalformedCompression = errors.New("malformed DNS name compression")

	// ErrInvalidLabel means a label uses a reserved length encoding or
	// the name to encode contains an empty label.
	ErrInvalidLabel = errors.New("invalid DNS label")

	// ErrLabelTooLong means a label exceeds 63 bytes.
	ErrLabelTooLong = errors.New("DNS label too long")

	// ErrNameTooLong means a name exceeds 255 bytes in wire format.
	ErrNameTooLong = errors.New("DNS name too long")

	// ErrMalformedRecord means the record data does not match its type.
	ErrMalformedRecord = errors.New("malformed DNS resource record")

	// ErrUnsupportedClass means a question uses a class other than IN.
	ErrUnsupportedClass = errors.New("unsupported DNS class")
)

// Errors emitted by the [*Resolver].
var (
	// ErrUnsupportedType means the resolver cannot produce an address
	// for the requested record type.
	ErrUnsupportedType = errors.New("unsupported DNS record type")

	// ErrTransport wraps any error returned by a [Transport].
	ErrTransport = errors.New("DNS transport failure")

	// ErrNoProgress means a response contains neither an answer, nor glue,
	// nor a nameserver to follow.
	ErrNoProgress = errors.New("no progress possible")

	// ErrMaxHops means the resolution exceeded the configured number
	// of queries, including the ones for nameserver names.
	ErrMaxHops = errors.New("maximum number of DNS hops exceeded")

	// ErrReferralLoop means the resolver was about to ask the same
	// nameserver the same question twice.
	ErrReferralLoop = errors.New("DNS referral loop detected")

	// ErrNameserverDenied means a referral pointed to a nameserver
	// address excluded by the [*AddrFilter].
	ErrNameserverDenied = errors.New("nameserver address denied")
)
