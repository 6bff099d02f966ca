package utils

import "errors"

var (
	ErrWrongOpCode       = errors.New("error: invalid operation code")
	ErrShortPacket       = errors.New("error: datagram shorter than 4 bytes")
	ErrDataPayloadTooBig = errors.New("error: payload exceeds maximum block size")
	ErrPacketMarshall    = errors.New("error: can not marshall packet")
	ErrInvalidArgument   = errors.New("error: invalid argument")
	ErrEndpointClosed    = errors.New("error: endpoint closed")
	ErrTimeout           = errors.New("error: receive timed out")
)

// Transfer failure classes. A failed transfer status matches exactly one of them with errors.Is.
var (
	ErrDecode            = errors.New("error: malformed datagram")
	ErrProtocolViolation = errors.New("error: protocol violation")
	ErrRemote            = errors.New("error: remote peer reported an error")
	ErrIOFailure         = errors.New("error: i/o failure")
	ErrRetryExhausted    = errors.New("error: retries exhausted")
)
