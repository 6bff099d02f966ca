package types

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
)

type Ack struct {
	BlockNum uint16
}

func (a *Ack) Op() OpCode {
	return OpCodeACK
}

func (a *Ack) String() string {
	return fmt.Sprintf("ACK block#=%d", a.BlockNum)
}

func (a *Ack) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)
	b.Grow(HeaderSize)

	if err := binary.Write(b, binary.BigEndian, OpCodeACK); err != nil {
		return nil, fmt.Errorf("error while writing opcode: %w", err)
	}

	if err := binary.Write(b, binary.BigEndian, a.BlockNum); err != nil {
		return nil, fmt.Errorf("error while writing block#: %w", err)
	}

	return b.Bytes(), nil
}

// UnmarshalBinary ignores anything after the block number.
func (a *Ack) UnmarshalBinary(data []byte) error {
	var opcode OpCode

	b := bytes.NewBuffer(data)

	if err := binary.Read(b, binary.BigEndian, &opcode); err != nil {
		return fmt.Errorf("error while reading opcode: %w", err)
	}

	if opcode != OpCodeACK {
		return utils.ErrWrongOpCode
	}

	if err := binary.Read(b, binary.BigEndian, &a.BlockNum); err != nil {
		return fmt.Errorf("error while reading block#: %w", err)
	}

	return nil
}
