// SPDX-License-Identifier: GPL-3.0-or-later

// Package dnswalk is an iterative DNS resolver with its own message codec.
//
// [EncodeName] and [DecodeName] implement the RFC 1035 name encoding,
// including decoding of compression pointers. [BuildQuery] and [*Query]
// allow constructing and packing a query message. [ParsePacket] unpacks a
// raw response into a [*Packet] and [ParseResponse] validates it against
// the [*Query] that produced it.
//
// The [*Resolver] walks the DNS hierarchy starting from a root server,
// following glue records and NS referrals until an authoritative server
// returns an A record. It talks to nameservers through a [Transport],
// which by default is a [*UDPTransport].
//
// For example:
//
//	resolver := dnswalk.NewResolver(dnswalk.NewUDPTransport())
//	addr, err := resolver.Resolve(context.Background(), "www.example.com", dnswalk.TypeA)
//
// Only A, NS and CNAME record data is interpreted. Any other record type
// is kept as opaque bytes so that parsing can skip over it.
package dnswalk
