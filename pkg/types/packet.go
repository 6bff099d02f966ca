package types

import (
	"encoding"
	"encoding/binary"
	"fmt"

	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
)

// Packet is one of *Request, *Data, *Ack or *Error.
type Packet interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	fmt.Stringer
	Op() OpCode
}

// DecodeError reports a datagram that is not a well-formed TFTP packet.
type DecodeError struct {
	Err    error
	Length int
	Opcode OpCode
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error: decoding %d byte datagram (opcode %d): %s", e.Length, uint16(e.Opcode), e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{utils.ErrDecode, e.Err}
}

func Encode(p Packet) ([]byte, error) {
	b, err := p.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", utils.ErrPacketMarshall, p.Op(), err)
	}

	return b, nil
}

func Decode(datagram []byte) (Packet, error) {
	if len(datagram) < HeaderSize {
		return nil, &DecodeError{Err: utils.ErrShortPacket, Length: len(datagram)}
	}

	var p Packet

	opcode := OpCode(binary.BigEndian.Uint16(datagram))

	switch opcode {
	case OpCodeRRQ, OpCodeWRQ:
		p = &Request{}
	case OpCodeDATA:
		p = &Data{}
	case OpCodeACK:
		p = &Ack{}
	case OpCodeError:
		p = &Error{}
	default:
		return nil, &DecodeError{Err: utils.ErrWrongOpCode, Length: len(datagram), Opcode: opcode}
	}

	if err := p.UnmarshalBinary(datagram); err != nil {
		return nil, &DecodeError{Err: err, Length: len(datagram), Opcode: opcode}
	}

	return p, nil
}
