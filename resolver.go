// SPDX-License-Identifier: GPL-3.0-or-later

package dnswalk

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/semihalev/zlog/v2"
	"golang.org/x/time/rate"
)

// DefaultRootServer is the address of a.root-servers.net.
var DefaultRootServer = netip.AddrFrom4([4]byte{198, 41, 0, 4})

// DefaultMaxHops is the default number of queries a single
// [*Resolver.Resolve] call may send.
const DefaultMaxHops = 32

// Resolver resolves names iteratively, starting from a root server.
//
// Construct using [NewResolver] or set the MANDATORY fields.
type Resolver struct {
	// Filter OPTIONALLY denies nameserver addresses.
	Filter *AddrFilter

	// Limiter OPTIONALLY paces the queries we send.
	Limiter *rate.Limiter

	// MaxHops bounds the number of queries sent by a single call to
	// Resolve, counting the nested resolutions of nameserver names.
	// Zero means [DefaultMaxHops].
	MaxHops int

	// Metrics OPTIONALLY collects statistics.
	Metrics *Metrics

	// RootServer is the MANDATORY address where every walk starts.
	RootServer netip.Addr

	// StrictGlue only accepts glue whose owner is one of the NS
	// targets listed in the authority section. When false, the first
	// A record in the additional section is used.
	StrictGlue bool

	// Transport is the MANDATORY transport.
	Transport Transport
}

// NewResolver returns a [*Resolver] starting at [DefaultRootServer]
// and accepting only glue for the referred nameservers.
func NewResolver(txp Transport) *Resolver {
	return &Resolver{
		MaxHops:    DefaultMaxHops,
		RootServer: DefaultRootServer,
		StrictGlue: true,
		Transport:  txp,
	}
}

// walk is the state of a single call to Resolve. The nested resolutions
// of nameserver names and CNAME targets share it, so the hop budget
// covers the whole tree of queries.
type walk struct {
	hops int
}

// Resolve returns the IPv4 address of domain.
//
// Only [TypeA] is supported. The walk starts at the root server and
// follows answers, CNAME chains, glue records and NS referrals. Any failure
// along the way, including one while resolving the name of an intermediate
// nameserver, fails the whole resolution.
func (r *Resolver) Resolve(ctx context.Context, domain string, qtype RecordType) (netip.Addr, error) {
	if qtype != TypeA {
		err := fmt.Errorf("%w: %s", ErrUnsupportedType, qtype)
		r.Metrics.resolution(err)
		return netip.Addr{}, err
	}
	w := &walk{}
	addr, err := r.resolve(ctx, w, strings.TrimSuffix(domain, "."), qtype)
	r.Metrics.resolution(err)
	if err != nil {
		zlog.Debug("Resolution failed", "name", domain, "hops", w.hops, "error", err.Error())
		return netip.Addr{}, err
	}
	zlog.Debug("Resolution completed", "name", domain, "addr", addr.String(), "hops", w.hops)
	return addr, nil
}

// resolve walks from the root for name. Each invocation, nested ones
// included, has its own visited set and shares only the hop budget.
func (r *Resolver) resolve(ctx context.Context, w *walk, name string, qtype RecordType) (netip.Addr, error) {
	server := r.RootServer
	visited := make(map[uint64]struct{})
	for {
		if err := r.visit(ctx, w, visited, server, name, qtype); err != nil {
			return netip.Addr{}, err
		}
		zlog.Debug("Resolving", "name", name, "qtype", qtype.String(), "server", server.String())

		query, resp, err := r.exchange(ctx, server, name, qtype)
		if err != nil {
			return netip.Addr{}, err
		}
		q0, err := ValidateResponseForQuery(query, resp)
		if err != nil {
			return netip.Addr{}, fmt.Errorf("%s from %s: %w", name, server, err)
		}
		if err := ResponseErrorFromRCODE(resp); err != nil {
			return netip.Addr{}, fmt.Errorf("%s from %s: %w", name, server, err)
		}

		// 1. the server answered, possibly through an alias
		if rrs, err := ResponseExtractValidAnswers(q0, resp); err == nil {
			rp := &Response{Query: query, Packet: resp, ValidRecords: rrs}
			if addrs, err := rp.RecordsA(); err == nil {
				return addrs[0], nil
			}
			if target, err := rp.RecordLastCNAME(); err == nil {
				r.Metrics.referral("cname")
				zlog.Debug("Following alias", "name", name, "target", target)
				return r.resolve(ctx, w, target, qtype)
			}
		}

		// 2. the server referred us to a nameserver it gave us the address of
		if glue, ok := r.findGlue(resp); ok {
			r.Metrics.referral("glue")
			server = glue
			continue
		}

		// 3. the server referred us to a nameserver we need to resolve first
		if ns, ok := findNameserver(resp); ok {
			r.Metrics.referral("nameserver")
			zlog.Debug("Resolving nameserver", "name", name, "nameserver", ns)
			addr, err := r.resolve(ctx, w, ns, TypeA)
			if err != nil {
				return netip.Addr{}, fmt.Errorf("nameserver %s: %w", ns, err)
			}
			server = addr
			continue
		}

		return netip.Addr{}, fmt.Errorf("%w: %s from %s", ErrNoProgress, name, server)
	}
}

// visit accounts for the query we are about to send.
func (r *Resolver) visit(ctx context.Context, w *walk, visited map[uint64]struct{}, server netip.Addr, name string, qtype RecordType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	maxHops := r.MaxHops
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	if w.hops >= maxHops {
		return fmt.Errorf("%w: %d queries", ErrMaxHops, maxHops)
	}
	w.hops++
	key := walkKey(server, name, qtype)
	if _, found := visited[key]; found {
		return fmt.Errorf("%w: %s %s at %s", ErrReferralLoop, name, qtype, server)
	}
	visited[key] = struct{}{}
	return nil
}

// walkKey hashes a (server, name, type) tuple, ignoring the case of the name.
func walkKey(server netip.Addr, name string, qtype RecordType) uint64 {
	d := xxhash.New()
	_, _ = d.Write(server.AsSlice())
	_, _ = d.Write(binary.BigEndian.AppendUint16(nil, uint16(qtype)))
	_, _ = d.WriteString(strings.ToLower(name))
	return d.Sum64()
}

// exchange sends a fresh query for name and qtype to server.
func (r *Resolver) exchange(ctx context.Context, server netip.Addr, name string, qtype RecordType) (*Query, *Packet, error) {
	if r.Filter.Denied(server) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNameserverDenied, server)
	}
	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}

	query := NewQuery(name, qtype)
	rawQuery, err := query.Pack()
	if err != nil {
		return nil, nil, errors.Join(ErrInvalidQuery, err)
	}

	rawResp, err := r.Transport.Exchange(ctx, server, rawQuery)
	if err != nil {
		r.Metrics.query(qtype, "transport_error")
		if !errors.Is(err, ErrTransport) {
			err = fmt.Errorf("%w: %w", ErrTransport, err)
		}
		return nil, nil, err
	}

	resp, err := ParsePacket(rawResp)
	if err != nil {
		r.Metrics.query(qtype, "malformed")
		return nil, nil, fmt.Errorf("response from %s: %w", server, err)
	}
	r.Metrics.query(qtype, "ok")
	return query, resp, nil
}

// findGlue returns the address of a referred nameserver from the
// additional section.
func (r *Resolver) findGlue(resp *Packet) (netip.Addr, bool) {
	for _, rr := range resp.Additionals {
		addr, ok := rr.Addr()
		if !ok {
			continue
		}
		if !r.StrictGlue || referredNameserver(resp, rr.Name) {
			return addr, true
		}
	}
	return netip.Addr{}, false
}

// referredNameserver returns whether name is the target of an NS record
// in the authority section.
func referredNameserver(resp *Packet, name string) bool {
	for _, rr := range resp.Authorities {
		if target, ok := rr.Target(); ok && rr.Type == TypeNS && responseEqualASCIIName(target, name) {
			return true
		}
	}
	return false
}

// findNameserver returns the first NS target in the authority section.
func findNameserver(resp *Packet) (string, bool) {
	for _, rr := range resp.Authorities {
		if target, ok := rr.Target(); ok && rr.Type == TypeNS {
			return target, true
		}
	}
	return "", false
}
