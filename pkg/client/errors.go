// Package client implements the AS-exchange requester and orchestrator
// (spec §4.4): it builds an AS-REQ, sends it to a KDC over TCP (with UDP
// fallback), classifies the response, retries once on PREAUTH_REQUIRED, and
// assembles a pkg/credential.Credential from the decrypted AS-REP.
package client

import (
	"fmt"

	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/messages"
)

// KrbError wraps a KRB-ERROR the KDC returned that this library does not
// recover from internally (spec §7).
type KrbError struct {
	Code int32
	Text string
}

func (e *KrbError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("KDC error %d: %s", e.Code, e.Text)
	}
	return fmt.Sprintf("KDC error %d", e.Code)
}

func krbErrorFrom(ke messages.KrbError) *KrbError {
	text := ""
	if ke.EText != nil {
		text = *ke.EText
	}
	return &KrbError{Code: ke.ErrorCode, Text: text}
}

// ProtocolKind enumerates AS-exchange protocol-level failures (spec §7).
type ProtocolKind int

const (
	ProtocolNonceMismatch ProtocolKind = iota
	ProtocolRealmMismatch
	ProtocolUnexpectedMessageType
	ProtocolNoSupportedEtype
)

func (k ProtocolKind) String() string {
	switch k {
	case ProtocolNonceMismatch:
		return "nonce mismatch"
	case ProtocolRealmMismatch:
		return "realm mismatch"
	case ProtocolUnexpectedMessageType:
		return "unexpected message type"
	case ProtocolNoSupportedEtype:
		return "no supported etype offered"
	default:
		return "unknown protocol error"
	}
}

// ProtocolError reports a violation of an AS-exchange invariant that is not
// itself a KRB-ERROR from the KDC.
type ProtocolError struct {
	Kind ProtocolKind
}

func (e *ProtocolError) Error() string { return "as-exchange: " + e.Kind.String() }

// TransportKind enumerates ways sending or receiving bytes from the KDC can
// fail (spec §7).
type TransportKind int

const (
	TransportConnectFailed TransportKind = iota
	TransportReadFailed
	TransportWriteFailed
	TransportTimeout
	TransportNameResolutionError
)

func (k TransportKind) String() string {
	switch k {
	case TransportConnectFailed:
		return "connect failed"
	case TransportReadFailed:
		return "read failed"
	case TransportWriteFailed:
		return "write failed"
	case TransportTimeout:
		return "timeout"
	case TransportNameResolutionError:
		return "name resolution error"
	default:
		return "unknown transport error"
	}
}

// TransportError wraps a network failure encountered while talking to the KDC.
type TransportError struct {
	Kind TransportKind
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("transport: %s", e.Kind)
}

func (e *TransportError) Unwrap() error { return e.Err }
