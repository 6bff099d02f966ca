package types

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
)

type Error struct {
	ErrMsg    string
	ErrorCode ErrCode
}

func (e *Error) Op() OpCode {
	return OpCodeError
}

func (e *Error) String() string {
	return fmt.Sprintf("ERROR code=%d (%s) msg=%q", e.ErrorCode, e.ErrorCode, e.ErrMsg)
}

func (e *Error) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)
	errLength := HeaderSize + len(e.ErrMsg) + 1
	b.Grow(errLength)

	if err := binary.Write(b, binary.BigEndian, OpCodeError); err != nil {
		return nil, fmt.Errorf("error while writing opcode: %w", err)
	}

	if err := binary.Write(b, binary.BigEndian, e.ErrorCode); err != nil {
		return nil, fmt.Errorf("error while writing error code: %w", err)
	}

	if _, err := b.WriteString(e.ErrMsg); err != nil {
		return nil, fmt.Errorf("error while writing error message: %w", err)
	}

	if err := b.WriteByte(0); err != nil {
		return nil, fmt.Errorf("error while writing null byte: %w", err)
	}

	return b.Bytes(), nil
}

// UnmarshalBinary reads the message up to the first NUL. Servers that forget
// the terminator are tolerated: the message is then left empty.
func (e *Error) UnmarshalBinary(data []byte) error {
	var opcode OpCode

	b := bytes.NewBuffer(data)

	if err := binary.Read(b, binary.BigEndian, &opcode); err != nil {
		return fmt.Errorf("error while reading opcode: %w", err)
	}

	if opcode != OpCodeError {
		return utils.ErrWrongOpCode
	}

	if err := binary.Read(b, binary.BigEndian, &e.ErrorCode); err != nil {
		return fmt.Errorf("error while reading error code: %w", err)
	}

	e.ErrMsg = ""

	rest := b.Bytes()
	if i := bytes.IndexByte(rest, 0); i >= 0 {
		e.ErrMsg = string(rest[:i])
	}

	return nil
}
