package tftptest

import (
	"fmt"
	"net"

	"github.com/Wa4h1h/go-tftp-client/pkg/endpoint"
	"github.com/Wa4h1h/go-tftp-client/pkg/types"
)

func sendPacket(ep endpoint.Endpoint, to net.Addr, p types.Packet) error {
	b, err := types.Encode(p)
	if err != nil {
		return fmt.Errorf("error while marshal %s packet: %w", p.Op(), err)
	}

	if _, err := ep.SendTo(b, to); err != nil {
		return fmt.Errorf("error while writing %s packet: %w", p.Op(), err)
	}

	return nil
}

func sendError(ep endpoint.Endpoint, to net.Addr, code types.ErrCode, msg string) error {
	return sendPacket(ep, to, &types.Error{ErrorCode: code, ErrMsg: msg})
}
