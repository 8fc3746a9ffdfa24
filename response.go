//
// SPDX-License-Identifier: BSD-3-Clause
//
// Adapted from: https://github.com/ooni/probe-engine/blob/v0.23.0/netx/resolver/decoder.go
// Adapted from: https://github.com/golang/go/blob/go1.21.10/src/net/dnsclient_unix.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/dns/dnscore/response.go
//

package dnswalk

import (
	"errors"
	"net/netip"

	"github.com/miekg/dns"
)

// Additional errors emitted by [ValidateResponseForQuery].
var (
	// ErrInvalidQuery means that the query cannot be serialized.
	ErrInvalidQuery = errors.New("invalid query")
)

// ValidateResponseForQuery validates a DNS response for a given query.
// On success it returns the single validated question from the query.
func ValidateResponseForQuery(query *Query, resp *Packet) (Question, error) {
	query0, err := query.Question()
	if err != nil {
		return Question{}, errors.Join(ErrInvalidQuery, err)
	}

	// 1. make sure the message is actually a response
	if !resp.Header.Response() {
		return Question{}, ErrInvalidResponse
	}

	// 2. make sure the response ID matches the query ID
	if resp.Header.ID != query.ID {
		return Question{}, ErrInvalidResponse
	}

	// 3. make sure the response contains a question
	if len(resp.Questions) != 1 {
		return Question{}, ErrInvalidResponse
	}
	resp0 := resp.Questions[0]

	// 4. make sure the question name is correct
	if !responseEqualASCIIName(string(resp0.Name), string(query0.Name)) {
		return Question{}, ErrInvalidResponse
	}
	if resp0.Class != query0.Class {
		return Question{}, ErrInvalidResponse
	}
	if resp0.Type != query0.Type {
		return Question{}, ErrInvalidResponse
	}
	return query0, nil
}

// SPDX-License-Identifier: BSD-3-Clause
//
// Borrowed from Go src/net package.
func responseEqualASCIIName(x, y string) bool {
	if len(x) != len(y) {
		return false
	}
	for i := 0; i < len(x); i++ {
		a := x[i]
		b := y[i]
		if 'A' <= a && a <= 'Z' {
			a += 0x20
		}
		if 'A' <= b && b <= 'Z' {
			b += 0x20
		}
		if a != b {
			return false
		}
	}
	return true
}

// These error messages use the same suffixes used by the Go standard library.
var (
	// ErrInvalidResponse means that the response is not a response message
	// or does not contain a single question matching the query.
	ErrInvalidResponse = errors.New("invalid DNS response")

	// ErrNoName indicates that the server response code is NXDOMAIN.
	ErrNoName = errors.New("no such host")

	// ErrServerMisbehaving indicates that the server response code is
	// neither 0, nor NXDOMAIN, nor SERVFAIL.
	ErrServerMisbehaving = errors.New("server misbehaving")

	// ErrServerTemporarilyMisbehaving indicates that the server answer is SERVFAIL.
	//
	// The error message is same as [ErrServerMisbehaving] for compatibility with the
	// Go standard library, which assigns the same error string to both errors.
	ErrServerTemporarilyMisbehaving = errors.New("server misbehaving")

	// ErrNoData indicates that there is no pertinent answer in the response.
	ErrNoData = errors.New("no answer from DNS server")
)

// ResponseErrorFromRCODE maps an RCODE inside a valid DNS response
// to an error string using a suffix compatible with the error strings
// returned by [*net.Resolver].
//
// Unlike a stub resolver, we do not treat an empty non-authoritative
// response as an error, since that is how referrals look like.
//
// If the RCODE is zero, this function returns nil.
func ResponseErrorFromRCODE(resp *Packet) error {
	switch resp.Header.Rcode() {
	case dns.RcodeSuccess:
		return nil
	case dns.RcodeNameError:
		return ErrNoName
	case dns.RcodeServerFailure:
		return ErrServerTemporarilyMisbehaving
	default:
		return ErrServerMisbehaving
	}
}

// ResponseExtractValidAnswers extracts valid RRs from the response considering
// the DNS question that was asked. Before invoking this function, make sure
// the response is valid using [ValidateResponseForQuery] and it does not contain
// errors using [ResponseErrorFromRCODE].
//
// The list of valid RRs is returned in the same order as they appear
// in the response message. If the response does not contain any valid
// RRs, this function returns [ErrNoData].
func ResponseExtractValidAnswers(q0 Question, resp *Packet) ([]Record, error) {
	qname, err := q0.NameString()
	if err != nil {
		return nil, err
	}

	// 1. Build CNAME chain starting from the query name.
	// RFC 1034 section 4.3.1 says that "the recursive response to a query
	// will be... The answer to the query, possibly preface by one or more
	// CNAME RRs that specify aliases encountered on the way to an answer."
	validNames := make(map[string]bool)
	validNames[responseCanonicalName(qname)] = true

	currentName := qname
	for _, answer := range resp.Answers {
		target, ok := answer.Target()
		if !ok || answer.Type != TypeCNAME {
			continue
		}
		// CNAME must match the current name in the chain
		if responseEqualASCIIName(currentName, answer.Name) && Class(answer.Class) == q0.Class {
			currentName = target
			validNames[responseCanonicalName(currentName)] = true
		}
	}

	// 2. Build list of valid answers: CNAMEs that are part of the chain,
	// plus any other RRs that match a name in the chain.
	valid := []Record{}
	for _, answer := range resp.Answers {
		if !validNames[responseCanonicalName(answer.Name)] {
			continue
		}
		if Class(answer.Class) != q0.Class {
			continue
		}
		valid = append(valid, answer)
	}

	// 3. Handle the case of no valid answers
	if len(valid) < 1 {
		return nil, ErrNoData
	}
	return valid, nil
}

func responseCanonicalName(name string) string {
	return dns.CanonicalName(name)
}

// Response is a DNS response.
//
// Construct a new instance using [ParseResponse].
type Response struct {
	// Query is the original query.
	Query *Query

	// Packet is the parsed response message.
	Packet *Packet

	// ValidRecords contains the valid records for the query.
	ValidRecords []Record
}

// ParseResponse returns a [*Response] given a query and a parsed response or an
// error if the response is not valid for the query.
func ParseResponse(query *Query, resp *Packet) (*Response, error) {
	q0, err := ValidateResponseForQuery(query, resp)
	if err != nil {
		return nil, err
	}

	if err := ResponseErrorFromRCODE(resp); err != nil {
		return nil, err
	}

	rrs, err := ResponseExtractValidAnswers(q0, resp)
	if err != nil {
		return nil, err
	}

	rp := &Response{
		Query:        query,
		Packet:       resp,
		ValidRecords: rrs,
	}
	return rp, nil
}

// RecordsA returns all the A addresses in the response.
func (r *Response) RecordsA() ([]netip.Addr, error) {
	out := make([]netip.Addr, 0, len(r.ValidRecords))
	for _, rr := range r.ValidRecords {
		if addr, ok := rr.Addr(); ok {
			out = append(out, addr)
		}
	}
	if len(out) < 1 {
		return nil, ErrNoData
	}
	return out, nil
}

// RecordLastCNAME returns the target at the end of the CNAME chain.
func (r *Response) RecordLastCNAME() (string, error) {
	var last string
	for _, rr := range r.ValidRecords {
		if target, ok := rr.Target(); ok && rr.Type == TypeCNAME {
			last = target
		}
	}
	if last == "" {
		return "", ErrNoData
	}
	return last, nil
}
