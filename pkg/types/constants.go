package types

import "fmt"

type OpCode uint16

const (
	OpCodeRRQ OpCode = iota + 1
	OpCodeWRQ
	OpCodeDATA
	OpCodeACK
	OpCodeError
)

func (o OpCode) String() string {
	switch o {
	case OpCodeRRQ:
		return "RRQ"
	case OpCodeWRQ:
		return "WRQ"
	case OpCodeDATA:
		return "DATA"
	case OpCodeACK:
		return "ACK"
	case OpCodeError:
		return "ERROR"
	default:
		return fmt.Sprintf("OPCODE(%d)", uint16(o))
	}
}

type ErrCode uint16

const (
	ErrNotDefined ErrCode = iota
	ErrFileNotFound
	ErrAccessViolation
	ErrDiskFull
	ErrIllegalTftpOp
	ErrUnknownTransferId
	ErrFileAlreadyExists
	ErrNoSuchUser
)

var errCodeMessages = map[ErrCode]string{
	ErrNotDefined:        "not defined",
	ErrFileNotFound:      "file not found",
	ErrAccessViolation:   "access violation",
	ErrDiskFull:          "disk full or allocation exceeded",
	ErrIllegalTftpOp:     "illegal TFTP operation",
	ErrUnknownTransferId: "unknown transfer ID",
	ErrFileAlreadyExists: "file already exists",
	ErrNoSuchUser:        "no such user",
}

func (e ErrCode) String() string {
	if msg, ok := errCodeMessages[e]; ok {
		return msg
	}

	return fmt.Sprintf("error code %d", uint16(e))
}

const (
	MaxBlocks        = 65535
	DefaultBlockSize = 512
	MinBlockSize     = 8
	MaxBlockSize     = 65464
	HeaderSize       = 4
	MaxDatagramSize  = MaxBlockSize + HeaderSize
)

const (
	DefaultPort          = 69
	DefaultClientTimeout = 5
	DefaultNumTries      = 5
)

// ModeOctet is the only transfer mode the client speaks; bytes are moved verbatim.
const ModeOctet = "octet"

var SupportedModes = []string{ModeOctet}
