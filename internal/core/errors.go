package core

import "errors"

var (
	// ErrPeerClosed is returned by Peer.Send after the peer has been closed.
	ErrPeerClosed = errors.New("peer closed")
	// ErrSendQueueFull is returned by Peer.Send when the outbound queue is full.
	ErrSendQueueFull = errors.New("send queue full")
)

// ErrHubClosed is returned by Hub.Connect once the hub has shut down.
var ErrHubClosed = errors.New("hub closed")
