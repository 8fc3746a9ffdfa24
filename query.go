//
// SPDX-License-Identifier: BSD-3-Clause
//
// Adapted from: https://github.com/ooni/probe-engine/blob/v0.23.0/netx/resolver/encoder.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/dns/dnscore/query.go
//

package dnswalk

import (
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

const (
	// QueryMaxResponseSizeUDP is the maximum response size we read when
	// using UDP. Larger responses are cut and there is no TCP fallback.
	QueryMaxResponseSizeUDP = 1024
)

// Query is a DNS query.
//
// Construct using [NewQuery] or set the MANDATORY fields.
type Query struct {
	// Flags OPTIONALLY modify the header flags.
	//
	// Use [FlagNone] or [FlagRecursionDesired].
	Flags uint16

	// ID is the OPTIONAL query ID.
	ID uint16

	// Name is the MANDATORY domain name to query.
	Name string

	// Type is the query type.
	Type RecordType
}

// NewQuery constructs a new [*Query] with safe defaults.
//
// By default, the query uses a randomized ID and does not request
// recursion, which is what authoritative nameservers expect.
func NewQuery(name string, qtype RecordType) *Query {
	return &Query{
		Name:  name,
		Type:  qtype,
		Flags: FlagNone,
		ID:    dns.Id(),
	}
}

// Clone returns a deep copy of the query.
func (q *Query) Clone() *Query {
	return &Query{
		Name:  q.Name,
		Type:  q.Type,
		Flags: q.Flags,
		ID:    q.ID,
	}
}

// Question returns the question carried by the query.
func (q *Query) Question() (Question, error) {
	// IDNA encode the domain name.
	punyName, err := idna.Lookup.ToASCII(strings.TrimSuffix(q.Name, "."))
	if err != nil {
		return Question{}, err
	}
	wire, err := EncodeName(punyName)
	if err != nil {
		return Question{}, err
	}
	return Question{Name: wire, Type: q.Type, Class: ClassIN}, nil
}

// Pack serializes the query as a message with a single question.
func (q *Query) Pack() ([]byte, error) {
	question, err := q.Question()
	if err != nil {
		return nil, err
	}
	header := Header{
		ID:      q.ID,
		Flags:   q.Flags,
		QDCount: 1,
	}
	out := header.Pack()
	out = append(out, question.Pack()...)
	return out, nil
}

// BuildQuery packs a query for name and qtype using the given header
// flags and a fresh random ID.
func BuildQuery(name string, qtype RecordType, flags uint16) ([]byte, error) {
	query := NewQuery(name, qtype)
	query.Flags = flags
	return query.Pack()
}
