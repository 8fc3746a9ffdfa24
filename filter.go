// SPDX-License-Identifier: GPL-3.0-or-later

package dnswalk

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/yl2chen/cidranger"
)

// AddrFilter rejects nameserver addresses inside a set of networks.
//
// Glue records come from the network, so a hostile referral could
// otherwise steer our queries towards, e.g., hosts on the local network.
type AddrFilter struct {
	ranger cidranger.Ranger
}

// NewAddrFilter returns an [*AddrFilter] denying the given CIDRs.
func NewAddrFilter(cidrs []string) (*AddrFilter, error) {
	f := &AddrFilter{ranger: cidranger.NewPCTrieRanger()}
	for _, cidr := range cidrs {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("deny list: %w", err)
		}
		if err := f.ranger.Insert(cidranger.NewBasicRangerEntry(*ipnet)); err != nil {
			return nil, fmt.Errorf("deny list: %w", err)
		}
	}
	return f, nil
}

// Denied returns whether addr belongs to a denied network.
func (f *AddrFilter) Denied(addr netip.Addr) bool {
	if f == nil {
		return false
	}
	denied, err := f.ranger.Contains(net.IP(addr.AsSlice()))
	return err == nil && denied
}
