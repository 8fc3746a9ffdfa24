//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/dns/dnscore/response_test.go
//

package dnswalk

import (
	"net/netip"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

// newTestReply returns a response message answering query.
func newTestReply(query *Query) *dns.Msg {
	resp := new(dns.Msg)
	resp.Id = query.ID
	resp.Response = true
	resp.Question = []dns.Question{{
		Name:   dns.Fqdn(query.Name),
		Qtype:  uint16(query.Type),
		Qclass: dns.ClassINET,
	}}
	return resp
}

func TestValidateResponseForQuery(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*Query, *dns.Msg)
		expected error
	}{
		{
			name: "ValidResponse",
			modify: func(query *Query, resp *dns.Msg) {
				// No modification needed, valid response.
			},
			expected: nil,
		},

		{
			name: "ValidResponseMixedCase",
			modify: func(query *Query, resp *dns.Msg) {
				resp.Question[0].Name = "ExAmPlE.CoM."
			},
			expected: nil,
		},

		{
			name: "InvalidResponseID",
			modify: func(query *Query, resp *dns.Msg) {
				resp.Id = query.ID + 1
			},
			expected: ErrInvalidResponse,
		},

		{
			name: "InvalidResponseNotAResponse",
			modify: func(query *Query, resp *dns.Msg) {
				resp.Response = false
			},
			expected: ErrInvalidResponse,
		},

		{
			name: "InvalidQueryName",
			modify: func(query *Query, resp *dns.Msg) {
				query.Name = "bad name.example"
			},
			expected: ErrInvalidQuery,
		},

		{
			name: "InvalidResponseNoQuestion",
			modify: func(query *Query, resp *dns.Msg) {
				resp.Question = nil
			},
			expected: ErrInvalidResponse,
		},

		{
			name: "InvalidResponseTwoQuestions",
			modify: func(query *Query, resp *dns.Msg) {
				resp.Question = append(resp.Question, resp.Question[0])
			},
			expected: ErrInvalidResponse,
		},

		{
			name: "InvalidResponseQuestionName",
			modify: func(query *Query, resp *dns.Msg) {
				resp.Question[0].Name = "invalid.com."
			},
			expected: ErrInvalidResponse,
		},

		{
			name: "InvalidResponseQuestionType",
			modify: func(query *Query, resp *dns.Msg) {
				resp.Question[0].Qtype = dns.TypeNS
			},
			expected: ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := NewQuery("example.com", TypeA)
			resp := newTestReply(query)

			tt.modify(query, resp)

			q0, err := ValidateResponseForQuery(query, packTestMsg(t, resp))
			if tt.expected != nil {
				require.ErrorIs(t, err, tt.expected)
				return
			}
			require.NoError(t, err)
			expected, err := query.Question()
			require.NoError(t, err)
			require.Equal(t, expected, q0)
		})
	}
}

func TestResponseEqualASCIIName(t *testing.T) {
	tests := []struct {
		name     string
		x        string
		y        string
		expected bool
	}{
		{"EqualNames", "example.com", "example.com", true},
		{"EqualNamesDifferentCase", "Example.COM", "exaMple.com", true},
		{"DifferentNames", "example.com", "example.org", false},
		{"DifferentLengths", "example.com", "example.co.uk", false},
		{"OnlyPrefixMatch", "example.co", "example.co.uk", false},
		{"EmptyStrings", "", "", true},
		{"OneEmptyString", "example.com", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := responseEqualASCIIName(tt.x, tt.y)
			require.Equal(t, tt.expected, result)
		})
	}
}

func TestResponseErrorFromRCODE(t *testing.T) {
	tests := []struct {
		name     string
		rcode    int
		expected error
	}{
		{"NameError", dns.RcodeNameError, ErrNoName},
		{"ServerFailure", dns.RcodeServerFailure, ErrServerTemporarilyMisbehaving},
		{"Referral", dns.RcodeSuccess, nil},
		{"Refused", dns.RcodeRefused, ErrServerMisbehaving},
		{"FormatError", dns.RcodeFormatError, ErrServerMisbehaving},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := NewQuery("example.com", TypeA)
			resp := newTestReply(query)
			resp.Rcode = tt.rcode

			err := ResponseErrorFromRCODE(packTestMsg(t, resp))
			if tt.expected != nil {
				require.ErrorIs(t, err, tt.expected)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestResponseExtractValidAnswers(t *testing.T) {
	tests := []struct {
		name     string
		qname    string
		answers  []string
		expected int
		err      error
	}{
		{
			name:     "ValidAnswerWithoutCNAME",
			qname:    "example.com",
			answers:  []string{"example.com. 300 IN A 127.0.0.1"},
			expected: 1,
		},

		{
			name:  "ValidAnswerWithCNAME",
			qname: "example.co.uk",
			answers: []string{
				"example.co.uk. 300 IN CNAME example.com.",
				"example.com. 300 IN CNAME example.org.",
				"example.org. 300 IN A 127.0.0.1",
			},
			expected: 3,
		},

		{
			name:  "ValidAnswerWithCNAMEMixedCase",
			qname: "Example.CO.UK",
			answers: []string{
				"eXample.co.uk. 300 IN CNAME ExamPle.com.",
				"example.COM. 300 IN CNAME Example.ORG.",
				"eXaMpLe.org. 300 IN A 127.0.0.1",
			},
			expected: 3,
		},

		{
			name:  "UnrelatedRecordsSkipped",
			qname: "example.com",
			answers: []string{
				"example.org. 300 IN A 127.0.0.2",
				"example.com. 300 IN A 127.0.0.1",
			},
			expected: 1,
		},

		{
			name:  "NoAnswers",
			qname: "example.com",
			err:   ErrNoData,
		},

		{
			name:    "MismatchedName",
			qname:   "example.com",
			answers: []string{"example.org. 300 IN A 127.0.0.1"},
			err:     ErrNoData,
		},

		{
			name:    "MismatchedClass",
			qname:   "example.com",
			answers: []string{"example.com. 300 CH A 127.0.0.1"},
			err:     ErrNoData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := NewQuery(tt.qname, TypeA)
			resp := newTestReply(query)
			for _, s := range tt.answers {
				resp.Answer = append(resp.Answer, mustRR(s))
			}
			q0, err := query.Question()
			require.NoError(t, err)

			answers, err := ResponseExtractValidAnswers(q0, packTestMsg(t, resp))
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				require.Len(t, answers, 0)
				return
			}
			require.NoError(t, err)
			require.Len(t, answers, tt.expected)
		})
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*Query, *dns.Msg)
		expected error
	}{
		{
			name: "ValidResponse",
			modify: func(query *Query, resp *dns.Msg) {
				resp.Answer = []dns.RR{mustRR("example.com. 300 IN A 127.0.0.1")}
			},
			expected: nil,
		},

		{
			name: "InvalidResponseID",
			modify: func(query *Query, resp *dns.Msg) {
				resp.Id++
			},
			expected: ErrInvalidResponse,
		},

		{
			name: "ServerMisbehaving",
			modify: func(query *Query, resp *dns.Msg) {
				resp.Rcode = dns.RcodeRefused
			},
			expected: ErrServerMisbehaving,
		},

		{
			name: "NoData",
			modify: func(query *Query, resp *dns.Msg) {
				resp.Authoritative = true
			},
			expected: ErrNoData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := NewQuery("example.com", TypeA)
			resp := newTestReply(query)
			tt.modify(query, resp)

			rp, err := ParseResponse(query, packTestMsg(t, resp))
			if tt.expected != nil {
				require.ErrorIs(t, err, tt.expected)
				require.Nil(t, rp)
				return
			}
			require.NoError(t, err)
			require.Same(t, query, rp.Query)
			require.Len(t, rp.ValidRecords, 1)
		})
	}
}

func TestResponseRecordsA(t *testing.T) {
	resp := &Response{
		ValidRecords: []Record{
			{Name: "example.com", Type: TypeA, Data: AData{Addr: netip.MustParseAddr("127.0.0.1")}},
			{Name: "example.com", Type: TypeA, Data: AData{Addr: netip.MustParseAddr("8.8.8.8")}},
			{Name: "example.com", RawType: dns.TypeAAAA, Data: OpaqueData{Bytes: make([]byte, 16)}},
		},
	}

	addrs, err := resp.RecordsA()
	require.NoError(t, err)
	require.Equal(t, []netip.Addr{
		netip.MustParseAddr("127.0.0.1"),
		netip.MustParseAddr("8.8.8.8"),
	}, addrs)
}

func TestResponseRecordsANoData(t *testing.T) {
	resp := &Response{ValidRecords: []Record{}}
	addrs, err := resp.RecordsA()
	require.ErrorIs(t, err, ErrNoData)
	require.Nil(t, addrs)
}

func TestResponseRecordLastCNAME(t *testing.T) {
	resp := &Response{
		ValidRecords: []Record{
			{Name: "www.example.com", Type: TypeCNAME, Data: NameData{Name: "example.com"}},
			{Name: "example.com", Type: TypeCNAME, Data: NameData{Name: "example.net"}},
		},
	}

	target, err := resp.RecordLastCNAME()
	require.NoError(t, err)
	require.Equal(t, "example.net", target)
}

func TestResponseRecordLastCNAMENoData(t *testing.T) {
	resp := &Response{
		ValidRecords: []Record{
			{Name: "example.com", Type: TypeA, Data: AData{Addr: netip.MustParseAddr("127.0.0.1")}},
		},
	}
	target, err := resp.RecordLastCNAME()
	require.ErrorIs(t, err, ErrNoData)
	require.Empty(t, target)
}
