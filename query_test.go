// SPDX-License-Identifier: BSD-3-Clause

package dnswalk

import (
	"strings"
	"testing"

	"github.com/bassosimone/runtimex"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestQueryClone(t *testing.T) {
	query := &Query{
		Name:  "www.example.com",
		Type:  TypeA,
		Flags: FlagRecursionDesired,
		ID:    1234,
	}

	clone := query.Clone()

	require.NotSame(t, query, clone)
	require.Equal(t, query, clone)

	clone.Name = "www.example.net"
	clone.Type = TypeNS
	clone.Flags = FlagNone
	clone.ID = 5678

	require.Equal(t, "www.example.com", query.Name)
	require.Equal(t, TypeA, query.Type)
	require.Equal(t, uint16(FlagRecursionDesired), query.Flags)
	require.Equal(t, uint16(1234), query.ID)
}

func TestQueryQuestionIDNA(t *testing.T) {
	query := &Query{
		Name: "bücher.example",
		Type: TypeA,
		ID:   42,
	}

	q0, err := query.Question()
	require.NoError(t, err)
	name, err := q0.NameString()
	require.NoError(t, err)
	require.Equal(t, "xn--bcher-kva.example", name)
}

func TestQueryQuestionIDNAError(t *testing.T) {
	query := &Query{
		Name: "bad name.example",
		Type: TypeA,
	}

	_, err := query.Question()
	require.Error(t, err)

	_, err = query.Pack()
	require.Error(t, err)
}

func TestQueryPack(t *testing.T) {
	query := NewQuery("google.com", TypeA)
	query.ID = 0xabcd

	raw, err := query.Pack()
	require.NoError(t, err)

	expected := []byte{
		0xab, 0xcd, // ID
		0x00, 0x00, // flags
		0x00, 0x01, // QDCOUNT
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		6, 'g', 'o', 'o', 'g', 'l', 'e', 3, 'c', 'o', 'm', 0,
		0x00, 0x01, // QTYPE
		0x00, 0x01, // QCLASS
	}
	require.Equal(t, expected, raw)

	// cross check with an independent decoder
	msg := new(dns.Msg)
	require.NoError(t, msg.Unpack(raw))
	require.Equal(t, uint16(0xabcd), msg.Id)
	require.False(t, msg.Response)
	require.False(t, msg.RecursionDesired)
	require.Equal(t, []dns.Question{{Name: "google.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET}}, msg.Question)
}

func TestBuildQuery(t *testing.T) {
	t.Run("Flags", func(t *testing.T) {
		raw, err := BuildQuery("example.com.", TypeNS, FlagRecursionDesired)
		require.NoError(t, err)

		pkt, err := ParsePacket(raw)
		require.NoError(t, err)
		require.Equal(t, uint16(FlagRecursionDesired), pkt.Header.Flags)
		require.Equal(t, uint16(1), pkt.Header.QDCount)
		require.Len(t, pkt.Questions, 1)
		require.Equal(t, TypeNS, pkt.Questions[0].Type)
		require.Equal(t, runtimex.PanicOnError1(EncodeName("example.com")), pkt.Questions[0].Name)
	})

	t.Run("RandomID", func(t *testing.T) {
		ids := make(map[uint16]struct{})
		for range 16 {
			raw, err := BuildQuery("example.com", TypeA, FlagNone)
			require.NoError(t, err)
			ids[uint16(raw[0])<<8|uint16(raw[1])] = struct{}{}
		}
		require.Greater(t, len(ids), 1)
	})

	t.Run("InvalidName", func(t *testing.T) {
		raw, err := BuildQuery(strings.Repeat("a", 64)+".example.com", TypeA, FlagNone)
		require.ErrorIs(t, err, ErrLabelTooLong)
		require.Nil(t, raw)
	})
}
