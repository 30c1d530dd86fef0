// Package reassembler turns arbitrarily-overlapping, out-of-order, bounded
// fragments of a byte stream, each tagged with an absolute stream index,
// into a single in-order stream delivered to a bytestream.Writer.
package reassembler

import (
	"sort"

	"github.com/xtaci/rtcp/bytestream"
)

const noLastIndex = ^uint64(0)

type fragment struct {
	start uint64
	end   uint64 // exclusive
	data  []byte
}

// Reassembler holds pending out-of-order fragments and drains them into an
// inbound ByteStream's Writer face as they become contiguous with the
// already-assembled prefix.
type Reassembler struct {
	output *bytestream.ByteStream

	// pending is kept sorted by start and pairwise non-overlapping.
	pending []fragment

	lastIndex uint64 // noLastIndex until the first FIN-bearing fragment arrives
}

// New constructs a Reassembler that writes assembled bytes into output.
func New(output *bytestream.ByteStream) *Reassembler {
	return &Reassembler{output: output, lastIndex: noLastIndex}
}

// Output returns the ByteStream the reassembler assembles into.
func (re *Reassembler) Output() *bytestream.ByteStream {
	return re.output
}

// Insert stores or applies one fragment of the stream. firstIndex is the
// absolute stream index (0-based, post-SYN) at which data begins.
func (re *Reassembler) Insert(firstIndex uint64, data []byte, isLast bool) {
	writer := re.output.Writer()

	firstUnassembled := writer.BytesPushed()
	firstUnacceptable := firstUnassembled + uint64(writer.AvailableCapacity())

	if isLast {
		end := firstIndex + uint64(len(data))
		if end < re.lastIndex {
			re.lastIndex = end
		}
	}

	if len(data) == 0 || firstIndex >= firstUnacceptable {
		re.closeIfDone(writer)
		return
	}

	end := firstIndex + uint64(len(data))
	if end > firstUnacceptable {
		data = data[:firstUnacceptable-firstIndex]
		end = firstUnacceptable
	}

	if end <= firstUnassembled {
		re.closeIfDone(writer)
		return
	}
	if firstIndex < firstUnassembled {
		data = data[firstUnassembled-firstIndex:]
		firstIndex = firstUnassembled
	}

	re.store(fragment{start: firstIndex, end: end, data: data})
	re.drain(writer)
	re.closeIfDone(writer)
}

// store inserts a fragment into the pending set and merges it with any
// adjacent or overlapping neighbors.
func (re *Reassembler) store(f fragment) {
	idx := sort.Search(len(re.pending), func(i int) bool { return re.pending[i].start >= f.start })
	re.pending = append(re.pending, fragment{})
	copy(re.pending[idx+1:], re.pending[idx:])
	re.pending[idx] = f

	re.pending = mergeAt(re.pending, idx)
}

// mergeAt coalesces the fragment at idx with its neighbors while they
// overlap or abut, returning the (possibly shorter) slice.
func mergeAt(frags []fragment, idx int) []fragment {
	// Merge left.
	for idx > 0 && frags[idx-1].end >= frags[idx].start {
		frags[idx-1] = union(frags[idx-1], frags[idx])
		frags = append(frags[:idx], frags[idx+1:]...)
		idx--
	}
	// Merge right.
	for idx+1 < len(frags) && frags[idx].end >= frags[idx+1].start {
		frags[idx] = union(frags[idx], frags[idx+1])
		frags = append(frags[:idx+1], frags[idx+2:]...)
	}
	return frags
}

// union merges two overlapping-or-adjacent fragments, keeping a's bytes for
// any overlapping region (bytes at the same absolute index are identical in
// a well-formed stream).
func union(a, b fragment) fragment {
	if b.end <= a.end {
		return a
	}
	merged := make([]byte, 0, b.end-a.start)
	merged = append(merged, a.data...)
	merged = append(merged, b.data[a.end-b.start:]...)
	return fragment{start: a.start, end: b.end, data: merged}
}

// drain pushes at most the lowest-start pending fragment, if it starts
// exactly at the writer's next expected byte.
func (re *Reassembler) drain(writer *bytestream.Writer) {
	if len(re.pending) == 0 {
		return
	}
	first := re.pending[0]
	if first.start != writer.BytesPushed() {
		return
	}
	writer.Push(first.data)
	re.pending = re.pending[1:]
}

// closeIfDone closes the output stream once every byte up to lastIndex has
// been pushed.
func (re *Reassembler) closeIfDone(writer *bytestream.Writer) {
	if re.lastIndex != noLastIndex && writer.BytesPushed() == re.lastIndex {
		writer.Close()
	}
}

// CountBytesPending returns the total length of fragments currently held
// pending (not the size of the still-missing gap). Diagnostic only.
func (re *Reassembler) CountBytesPending() uint64 {
	var total uint64
	for _, f := range re.pending {
		total += f.end - f.start
	}
	return total
}
