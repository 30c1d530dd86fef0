// Package snmp holds the connection counters exposed by this module's
// sessions, in the same atomic-counters-on-a-package-global shape kcp-go
// uses for its DefaultSnmp. Sessions update BytesSent, BytesReceived,
// InPkts, OutPkts and InErrs; the other counters are not incremented by any
// code in this module.
package snmp

import (
	"strconv"
	"sync/atomic"
)

// Snmp is a set of cumulative connection counters, safe to update
// concurrently via its atomic-suffixed methods.
type Snmp struct {
	BytesSent     uint64
	BytesReceived uint64
	ActiveOpens   uint64
	PassiveOpens  uint64
	CurrEstab     uint64
	RetransSegs   uint64
	SynRetrans    uint64
	RSTSent       uint64
	RSTRecv       uint64
	InPkts        uint64
	OutPkts       uint64
	InErrs        uint64
}

// DefaultSnmp is the process-wide counter set, mirroring kcp-go's
// package-level DefaultSnmp.
var DefaultSnmp = &Snmp{}

func (s *Snmp) header() []string {
	return []string{
		"BytesSent", "BytesReceived", "ActiveOpens", "PassiveOpens", "CurrEstab",
		"RetransSegs", "SynRetrans", "RSTSent", "RSTRecv", "InPkts", "OutPkts", "InErrs",
	}
}

// Header returns the CSV column names, in the same order as ToSlice.
func (s *Snmp) Header() []string {
	return s.header()
}

// ToSlice snapshots all counters as strings, for CSV logging.
func (s *Snmp) ToSlice() []string {
	vals := []uint64{
		atomic.LoadUint64(&s.BytesSent),
		atomic.LoadUint64(&s.BytesReceived),
		atomic.LoadUint64(&s.ActiveOpens),
		atomic.LoadUint64(&s.PassiveOpens),
		atomic.LoadUint64(&s.CurrEstab),
		atomic.LoadUint64(&s.RetransSegs),
		atomic.LoadUint64(&s.SynRetrans),
		atomic.LoadUint64(&s.RSTSent),
		atomic.LoadUint64(&s.RSTRecv),
		atomic.LoadUint64(&s.InPkts),
		atomic.LoadUint64(&s.OutPkts),
		atomic.LoadUint64(&s.InErrs),
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.FormatUint(v, 10)
	}
	return out
}

// AddBytesSent increments BytesSent by n.
func (s *Snmp) AddBytesSent(n uint64) { atomic.AddUint64(&s.BytesSent, n) }

// AddBytesReceived increments BytesReceived by n.
func (s *Snmp) AddBytesReceived(n uint64) { atomic.AddUint64(&s.BytesReceived, n) }

// IncActiveOpens increments ActiveOpens (client-initiated connections).
func (s *Snmp) IncActiveOpens() { atomic.AddUint64(&s.ActiveOpens, 1) }

// IncPassiveOpens increments PassiveOpens (server-accepted connections).
func (s *Snmp) IncPassiveOpens() { atomic.AddUint64(&s.PassiveOpens, 1) }

// IncCurrEstab increments the live-connection gauge.
func (s *Snmp) IncCurrEstab() { atomic.AddUint64(&s.CurrEstab, 1) }

// DecCurrEstab decrements the live-connection gauge.
func (s *Snmp) DecCurrEstab() { atomic.AddUint64(&s.CurrEstab, ^uint64(0)) }

// IncRetransSegs increments the retransmitted-segment counter.
func (s *Snmp) IncRetransSegs() { atomic.AddUint64(&s.RetransSegs, 1) }

// IncSynRetrans increments the retransmitted-SYN counter.
func (s *Snmp) IncSynRetrans() { atomic.AddUint64(&s.SynRetrans, 1) }

// IncRSTSent increments the sent-RST counter.
func (s *Snmp) IncRSTSent() { atomic.AddUint64(&s.RSTSent, 1) }

// IncRSTRecv increments the received-RST counter.
func (s *Snmp) IncRSTRecv() { atomic.AddUint64(&s.RSTRecv, 1) }

// IncInPkts increments the received-datagram counter.
func (s *Snmp) IncInPkts() { atomic.AddUint64(&s.InPkts, 1) }

// IncOutPkts increments the sent-datagram counter.
func (s *Snmp) IncOutPkts() { atomic.AddUint64(&s.OutPkts, 1) }

// IncInErrs increments the malformed-datagram counter.
func (s *Snmp) IncInErrs() { atomic.AddUint64(&s.InErrs, 1) }
