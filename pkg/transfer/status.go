package transfer

import (
	"fmt"

	"github.com/Wa4h1h/go-tftp-client/pkg/types"
	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
)

type Kind int

const (
	KindDecode Kind = iota + 1
	KindProtocolViolation
	KindRemote
	KindIO
	KindRetryExhausted
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode error"
	case KindProtocolViolation:
		return "protocol violation"
	case KindRemote:
		return "remote error"
	case KindIO:
		return "i/o failure"
	case KindRetryExhausted:
		return "retries exhausted"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindDecode:
		return utils.ErrDecode
	case KindProtocolViolation:
		return utils.ErrProtocolViolation
	case KindRemote:
		return utils.ErrRemote
	case KindIO:
		return utils.ErrIOFailure
	case KindRetryExhausted:
		return utils.ErrRetryExhausted
	default:
		return nil
	}
}

// TransferError is the terminal error record of a failed transfer: the opcode
// of the packet that ended it (zero for local failures), the TFTP error code
// and a message.
type TransferError struct {
	Err     error
	Message string
	Kind    Kind
	Opcode  types.OpCode
	Code    types.ErrCode
}

func (e *TransferError) Error() string {
	if e.Kind == KindRemote {
		return fmt.Sprintf("%s: code=%d (%s): %s", e.Kind, e.Code, e.Code, e.Message)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *TransferError) Unwrap() []error {
	errs := make([]error, 0, 2)

	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}

	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	return errs
}

func remoteError(p *types.Error) *TransferError {
	return &TransferError{
		Kind:    KindRemote,
		Opcode:  types.OpCodeError,
		Code:    p.ErrorCode,
		Message: p.ErrMsg,
	}
}

func violation(op types.OpCode, format string, args ...any) *TransferError {
	return &TransferError{
		Kind:    KindProtocolViolation,
		Opcode:  op,
		Code:    types.ErrIllegalTftpOp,
		Message: fmt.Sprintf(format, args...),
	}
}

func decodeFailure(err error) *TransferError {
	return &TransferError{
		Kind:    KindDecode,
		Code:    types.ErrIllegalTftpOp,
		Message: err.Error(),
		Err:     err,
	}
}

func retryExhausted(format string, args ...any) *TransferError {
	return &TransferError{
		Kind:    KindRetryExhausted,
		Message: fmt.Sprintf(format, args...),
	}
}

// IOFailure classifies a socket or local file error.
func IOFailure(err error) *TransferError {
	return &TransferError{
		Kind:    KindIO,
		Message: err.Error(),
		Err:     err,
	}
}

// Status is the outcome of a transfer. Err is nil on success.
type Status struct {
	Err        *TransferError
	LocalFile  string
	RemoteFile string
	// Data holds the downloaded bytes when no local file or sink was given.
	Data       []byte
	TotalBytes int64
	BlockCount int
}

func (s *Status) Success() bool {
	return s.Err == nil
}

func (s *Status) String() string {
	if s.Err != nil {
		return fmt.Sprintf("%s <-> %s failed: %s", s.LocalFile, s.RemoteFile, s.Err)
	}

	return fmt.Sprintf("%s <-> %s: %d bytes in %d blocks", s.LocalFile, s.RemoteFile, s.TotalBytes, s.BlockCount)
}

// Failed builds the status of a transfer that ended with err.
func Failed(cfg Config, err *TransferError) *Status {
	return &Status{
		LocalFile:  cfg.LocalFile,
		RemoteFile: cfg.RemoteFile,
		Err:        err,
	}
}
