// Package types contains all the respective p2p wire types for the rpc
// methods exchanged between peers.
package types

import (
	"fmt"

	ssz "github.com/ferranbt/fastssz"
)

const statusMessageSize = 4 + 32 + 8 + 32 + 8

// StatusMessage is the immutable snapshot exchanged on peer connection,
// describing the sender's fork, finality and chain head.
type StatusMessage struct {
	ForkVersion    [4]byte
	FinalizedRoot  [32]byte
	FinalizedEpoch uint64
	HeadRoot       [32]byte
	HeadSlot       uint64
}

// SizeSSZ returns the ssz-encoded size of the status message.
func (s *StatusMessage) SizeSSZ() int { return statusMessageSize }

// MarshalSSZTo appends the ssz-encoded status message to dst.
func (s *StatusMessage) MarshalSSZTo(dst []byte) ([]byte, error) {
	dst = append(dst, s.ForkVersion[:]...)
	dst = append(dst, s.FinalizedRoot[:]...)
	dst = ssz.MarshalUint64(dst, s.FinalizedEpoch)
	dst = append(dst, s.HeadRoot[:]...)
	dst = ssz.MarshalUint64(dst, s.HeadSlot)
	return dst, nil
}

// MarshalSSZ ssz-encodes the status message.
func (s *StatusMessage) MarshalSSZ() ([]byte, error) {
	return s.MarshalSSZTo(make([]byte, 0, s.SizeSSZ()))
}

// UnmarshalSSZ decodes the status message from ssz form.
func (s *StatusMessage) UnmarshalSSZ(buf []byte) error {
	if len(buf) != statusMessageSize {
		return ssz.ErrSize
	}
	copy(s.ForkVersion[:], buf[0:4])
	copy(s.FinalizedRoot[:], buf[4:36])
	s.FinalizedEpoch = ssz.UnmarshallUint64(buf[36:44])
	copy(s.HeadRoot[:], buf[44:76])
	s.HeadSlot = ssz.UnmarshallUint64(buf[76:84])
	return nil
}

// BlocksByRangeRequest asks a peer for count slots of blocks starting at
// StartSlot.
type BlocksByRangeRequest struct {
	StartSlot uint64
	Count     uint64
}

// SizeSSZ returns the ssz-encoded size of the request.
func (r *BlocksByRangeRequest) SizeSSZ() int { return 16 }

// MarshalSSZTo appends the ssz-encoded request to dst.
func (r *BlocksByRangeRequest) MarshalSSZTo(dst []byte) ([]byte, error) {
	dst = ssz.MarshalUint64(dst, r.StartSlot)
	dst = ssz.MarshalUint64(dst, r.Count)
	return dst, nil
}

// MarshalSSZ ssz-encodes the request.
func (r *BlocksByRangeRequest) MarshalSSZ() ([]byte, error) {
	return r.MarshalSSZTo(make([]byte, 0, r.SizeSSZ()))
}

// UnmarshalSSZ decodes the request from ssz form.
func (r *BlocksByRangeRequest) UnmarshalSSZ(buf []byte) error {
	if len(buf) != 16 {
		return ssz.ErrSize
	}
	r.StartSlot = ssz.UnmarshallUint64(buf[0:8])
	r.Count = ssz.UnmarshallUint64(buf[8:16])
	return nil
}

// BlocksByRootRequest asks a peer for the blocks with the given roots.
type BlocksByRootRequest struct {
	BlockRoots [][32]byte
}

// SizeSSZ returns the ssz-encoded size of the request.
func (r *BlocksByRootRequest) SizeSSZ() int { return len(r.BlockRoots) * 32 }

// MarshalSSZTo appends the ssz-encoded request to dst.
func (r *BlocksByRootRequest) MarshalSSZTo(dst []byte) ([]byte, error) {
	for _, root := range r.BlockRoots {
		dst = append(dst, root[:]...)
	}
	return dst, nil
}

// MarshalSSZ ssz-encodes the request.
func (r *BlocksByRootRequest) MarshalSSZ() ([]byte, error) {
	return r.MarshalSSZTo(make([]byte, 0, r.SizeSSZ()))
}

// UnmarshalSSZ decodes the request from ssz form.
func (r *BlocksByRootRequest) UnmarshalSSZ(buf []byte) error {
	if len(buf)%32 != 0 {
		return ssz.ErrSize
	}
	r.BlockRoots = make([][32]byte, len(buf)/32)
	for i := range r.BlockRoots {
		copy(r.BlockRoots[i][:], buf[i*32:(i+1)*32])
	}
	return nil
}

// GoodbyeReason is sent alongside a disconnect so the remote peer knows why
// it is being dropped.
type GoodbyeReason uint64

const (
	// GoodbyeReasonClientShutdown is sent on an orderly shutdown.
	GoodbyeReasonClientShutdown GoodbyeReason = iota + 1
	// GoodbyeReasonIrrelevantNetwork is sent to peers on a different
	// fork, with skewed clocks, or with a divergent finalized chain.
	GoodbyeReasonIrrelevantNetwork
	// GoodbyeReasonFault is sent to peers which violated the protocol.
	GoodbyeReasonFault
)

var goodbyeReasonMessages = map[GoodbyeReason]string{
	GoodbyeReasonClientShutdown:    "client shutdown",
	GoodbyeReasonIrrelevantNetwork: "irrelevant network",
	GoodbyeReasonFault:             "fault/error",
}

func (r GoodbyeReason) String() string {
	if msg, ok := goodbyeReasonMessages[r]; ok {
		return msg
	}
	return fmt.Sprintf("unknown goodbye value of %d", uint64(r))
}

// ResponseTermination names the request kind a stream-termination sentinel
// closes.
type ResponseTermination int

const (
	// TerminationBlocksByRange closes a BlocksByRange response stream.
	TerminationBlocksByRange ResponseTermination = iota
	// TerminationBlocksByRoot closes a BlocksByRoot response stream.
	TerminationBlocksByRoot
)

func (t ResponseTermination) String() string {
	switch t {
	case TerminationBlocksByRange:
		return "blocks_by_range"
	case TerminationBlocksByRoot:
		return "blocks_by_root"
	default:
		return fmt.Sprintf("unknown termination kind %d", int(t))
	}
}
