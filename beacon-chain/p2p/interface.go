// Package p2p defines the contract between the peer-sync core and the
// network transport. The transport owns streams, deadlines, and encoding;
// the core only sees typed requests, responses, and peer identities.
package p2p

import (
	"github.com/libp2p/go-libp2p-core/peer"

	p2ptypes "github.com/adaszko/lighthouse/beacon-chain/p2p/types"
)

// Request is a typed RPC request sent to a peer.
type Request interface {
	isRequest()
}

// StatusRequest opens or answers a handshake.
type StatusRequest struct {
	Message *p2ptypes.StatusMessage
}

// GoodbyeRequest announces an imminent disconnect.
type GoodbyeRequest struct {
	Reason p2ptypes.GoodbyeReason
}

// BlocksByRangeRequest asks for a span of slots.
type BlocksByRangeRequest struct {
	Request *p2ptypes.BlocksByRangeRequest
}

// BlocksByRootRequest asks for specific block roots.
type BlocksByRootRequest struct {
	Request *p2ptypes.BlocksByRootRequest
}

func (*StatusRequest) isRequest()        {}
func (*GoodbyeRequest) isRequest()       {}
func (*BlocksByRangeRequest) isRequest() {}
func (*BlocksByRootRequest) isRequest()  {}

// Response is a typed, successful RPC response chunk.
type Response interface {
	isResponse()
}

// StatusResponse answers a handshake.
type StatusResponse struct {
	Message *p2ptypes.StatusMessage
}

// BlocksByRangeResponse carries one serialized block of a range reply.
type BlocksByRangeResponse struct {
	BlockBytes []byte
}

// BlocksByRootResponse carries one serialized block of a root reply.
type BlocksByRootResponse struct {
	BlockBytes []byte
}

func (*StatusResponse) isResponse()        {}
func (*BlocksByRangeResponse) isResponse() {}
func (*BlocksByRootResponse) isResponse()  {}

// ErrorResponse is an RPC response outside the success path, including the
// stream termination sentinel that ends a multi-chunk reply.
type ErrorResponse interface {
	isErrorResponse()
}

// StreamTermination is the sentinel response indicating the end of a
// multi-chunk reply of the given kind.
type StreamTermination struct {
	Kind p2ptypes.ResponseTermination
}

// ServerError reports a failure handling the peer's request.
type ServerError struct {
	Message string
}

func (*StreamTermination) isErrorResponse() {}
func (*ServerError) isErrorResponse()       {}

// Sender is the transport surface the sync core writes to. Implementations
// must not block: messages are handed to the transport's outbound queue.
type Sender interface {
	// SendRPCRequest sends a request to the given peer. A requestID of 0 is
	// used when no correlation is required.
	SendRPCRequest(requestID uint64, peerID peer.ID, req Request)
	// SendRPCResponse sends a successful response chunk on the stream
	// identified by requestID.
	SendRPCResponse(peerID peer.ID, requestID uint64, resp Response)
	// SendRPCErrorResponse sends an error response or stream termination on
	// the stream identified by requestID.
	SendRPCErrorResponse(peerID peer.ID, requestID uint64, resp ErrorResponse)
	// Disconnect drops the connection to the peer for the given reason. The
	// sync core sends its own GoodbyeRequest carrying the reason first.
	Disconnect(peerID peer.ID, reason p2ptypes.GoodbyeReason)
}
