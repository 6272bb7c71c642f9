// Package testing includes mocks for the p2p transport surface used in
// sync package unit tests.
package testing

import (
	"sync"

	"github.com/libp2p/go-libp2p-core/peer"

	"github.com/adaszko/lighthouse/beacon-chain/p2p"
	p2ptypes "github.com/adaszko/lighthouse/beacon-chain/p2p/types"
)

// SentRequest records one SendRPCRequest call.
type SentRequest struct {
	RequestID uint64
	PeerID    peer.ID
	Request   p2p.Request
}

// SentResponse records one SendRPCResponse call.
type SentResponse struct {
	PeerID    peer.ID
	RequestID uint64
	Response  p2p.Response
}

// SentErrorResponse records one SendRPCErrorResponse call.
type SentErrorResponse struct {
	PeerID    peer.ID
	RequestID uint64
	Response  p2p.ErrorResponse
}

// Disconnection records one Disconnect call.
type Disconnection struct {
	PeerID peer.ID
	Reason p2ptypes.GoodbyeReason
}

// MockSender records everything the sync core writes to the transport.
type MockSender struct {
	mu             sync.Mutex
	Requests       []SentRequest
	Responses      []SentResponse
	ErrorResponses []SentErrorResponse
	Disconnects    []Disconnection
}

var _ p2p.Sender = (*MockSender)(nil)

// SendRPCRequest implements p2p.Sender.
func (m *MockSender) SendRPCRequest(requestID uint64, peerID peer.ID, req p2p.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, SentRequest{RequestID: requestID, PeerID: peerID, Request: req})
}

// SendRPCResponse implements p2p.Sender.
func (m *MockSender) SendRPCResponse(peerID peer.ID, requestID uint64, resp p2p.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses = append(m.Responses, SentResponse{PeerID: peerID, RequestID: requestID, Response: resp})
}

// SendRPCErrorResponse implements p2p.Sender.
func (m *MockSender) SendRPCErrorResponse(peerID peer.ID, requestID uint64, resp p2p.ErrorResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorResponses = append(m.ErrorResponses, SentErrorResponse{PeerID: peerID, RequestID: requestID, Response: resp})
}

// Disconnect implements p2p.Sender.
func (m *MockSender) Disconnect(peerID peer.ID, reason p2ptypes.GoodbyeReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Disconnects = append(m.Disconnects, Disconnection{PeerID: peerID, Reason: reason})
}
