package client

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// maxMessageSize bounds a single KDC response so a malformed or hostile
// length prefix cannot force an unbounded allocation.
const maxMessageSize = 1 << 20

// transport sends one DER-encoded message to a KDC and returns its reply.
// A fresh connection is used per call, matching spec §5 (no shared mutable
// state, no connection caching across exchanges).
type transport interface {
	send(ctx context.Context, addr string, msg []byte) ([]byte, error)
}

// tcpTransport frames messages with a 4-byte big-endian length prefix
// (spec §6).
type tcpTransport struct{}

func (tcpTransport) send(ctx context.Context, addr string, msg []byte) ([]byte, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &TransportError{Kind: TransportConnectFailed, Err: err}
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, &TransportError{Kind: TransportConnectFailed, Err: err}
		}
	}

	framed := make([]byte, 4+len(msg))
	binary.BigEndian.PutUint32(framed[:4], uint32(len(msg)))
	copy(framed[4:], msg)
	if _, err := conn.Write(framed); err != nil {
		return nil, &TransportError{Kind: TransportWriteFailed, Err: err}
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return nil, &TransportError{Kind: TransportReadFailed, Err: err}
	}
	replyLen := binary.BigEndian.Uint32(lenBuf[:])
	if replyLen > maxMessageSize {
		return nil, &TransportError{Kind: TransportReadFailed, Err: fmt.Errorf("reply too large: %d bytes", replyLen)}
	}
	reply := make([]byte, replyLen)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return nil, &TransportError{Kind: TransportReadFailed, Err: err}
	}
	return reply, nil
}

// udpTransport sends a single unframed datagram per message, the permitted
// fallback when TCP is refused (spec §4.4 step 1, §6).
type udpTransport struct{}

func (udpTransport) send(ctx context.Context, addr string, msg []byte) ([]byte, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, &TransportError{Kind: TransportConnectFailed, Err: err}
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, &TransportError{Kind: TransportConnectFailed, Err: err}
		}
	}

	if _, err := conn.Write(msg); err != nil {
		return nil, &TransportError{Kind: TransportWriteFailed, Err: err}
	}

	buf := make([]byte, maxMessageSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, &TransportError{Kind: TransportReadFailed, Err: err}
	}
	return buf[:n], nil
}

// sendWithFallback tries TCP first (or UDP first when cfg.PreferUDP), and
// falls back to the other transport when the first attempt fails to
// connect at all (spec §4.4 step 1, §7: transport errors may be retried
// via UDP once).
func sendWithFallback(ctx context.Context, cfg Config, msg []byte) ([]byte, error) {
	addr := net.JoinHostPort(cfg.KDCHost, fmt.Sprintf("%d", cfg.KDCPort))

	primary, fallback := transport(tcpTransport{}), transport(udpTransport{})
	if cfg.PreferUDP {
		primary, fallback = fallback, primary
	}

	reply, err := primary.send(ctx, addr, msg)
	if err == nil {
		return reply, nil
	}
	var terr *TransportError
	if tErr, ok := err.(*TransportError); ok {
		terr = tErr
	}
	if terr == nil || terr.Kind != TransportConnectFailed {
		return nil, err
	}
	return fallback.send(ctx, addr, msg)
}
