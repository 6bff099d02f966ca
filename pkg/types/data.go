package types

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
)

type Data struct {
	Payload  []byte
	BlockNum uint16
}

func (d *Data) Op() OpCode {
	return OpCodeDATA
}

func (d *Data) String() string {
	return fmt.Sprintf("DATA block#=%d #bytes=%d", d.BlockNum, len(d.Payload))
}

func (d *Data) MarshalBinary() ([]byte, error) {
	if len(d.Payload) > MaxBlockSize {
		return nil, utils.ErrDataPayloadTooBig
	}

	b := new(bytes.Buffer)
	dataLen := HeaderSize + len(d.Payload)
	b.Grow(dataLen)

	if err := binary.Write(b, binary.BigEndian, OpCodeDATA); err != nil {
		return nil, fmt.Errorf("error while writing opcode: %w", err)
	}

	if err := binary.Write(b, binary.BigEndian, d.BlockNum); err != nil {
		return nil, fmt.Errorf("error while writing block#: %w", err)
	}

	if _, err := b.Write(d.Payload); err != nil {
		return nil, fmt.Errorf("error while writing payload: %w", err)
	}

	return b.Bytes(), nil
}

// UnmarshalBinary treats everything after the 4 byte header as payload; the
// datagram boundary is the only length information DATA carries.
func (d *Data) UnmarshalBinary(data []byte) error {
	var opcode OpCode

	b := bytes.NewBuffer(data)

	if err := binary.Read(b, binary.BigEndian, &opcode); err != nil {
		return fmt.Errorf("error while reading opcode: %w", err)
	}

	if opcode != OpCodeDATA {
		return utils.ErrWrongOpCode
	}

	if err := binary.Read(b, binary.BigEndian, &d.BlockNum); err != nil {
		return fmt.Errorf("error while reading block#: %w", err)
	}

	d.Payload = bytes.Clone(b.Bytes())

	return nil
}
