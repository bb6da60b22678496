// Package credential models the in-memory representation of a Kerberos
// credential (spec §3: "Credential"), the type both the AS-exchange
// requester and the ccache/KRB-CRED codecs produce and consume. It has no
// wire format of its own; pkg/ccache and pkg/client translate to and from
// it.
package credential

import (
	"time"

	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/messages"
)

// Principal is a (realm, principal-name) pair, the shape every client and
// server identity in this package takes.
type Principal struct {
	Realm messages.Realm
	Name  messages.PrincipalName
}

// String renders "name@realm", matching the conventional Kerberos display
// form used in logs and CLI output.
func (p Principal) String() string {
	return p.Name.String() + "@" + string(p.Realm)
}

// KeyBlock is a session or long-term key: the encryption type plus key
// bytes. Invariant (spec §3 EncryptionKey): len(Value) matches the key size
// for Etype (enforced by krbcrypto.Profile.KeySize, not here — this type is
// a plain data carrier).
type KeyBlock struct {
	Etype int32
	Value []byte
}

// Times holds the four timestamps a KDC issues with every ticket (spec §3,
// §4.5). StartTime and RenewTill are optional on the wire: a zero Go
// time.Time in either field means "absent", reconciled against AuthTime and
// "no renewal" respectively by pkg/ccache's mapper.
type Times struct {
	AuthTime  time.Time
	StartTime time.Time
	EndTime   time.Time
	RenewTill time.Time
}

// Credential is the unified representation bridging a freshly-received
// AS-REP, a KRB-CRED, and an MIT ccache entry (spec §3).
type Credential struct {
	Client Principal
	Server Principal

	Key KeyBlock

	Times Times

	// Flags is the ticket-flags word (KerberosFlags) returned in the
	// encrypted KDC-REP part.
	Flags uint32

	// IsSKey mirrors the ccache "is-skey" byte; always false for tickets
	// this client produces, carried through for round-trip fidelity when
	// reading a foreign ccache.
	IsSKey bool

	Addresses []messages.HostAddress
	AuthData  []AuthDataEntry

	// Ticket is the opaque wire encoding of the Ticket this credential was
	// issued with (spec §3 Ownership: a private copy, independent of
	// whatever buffer it was decoded from).
	Ticket []byte

	// SecondTicket is populated only for S4U2Proxy-style entries; the AS
	// exchange never sets it, but the ccache codec must round-trip it.
	SecondTicket []byte
}

// AuthDataEntry mirrors AuthorizationData's AD-TYPE/AD-DATA pair (RFC 4120
// §5.2.6); it is opaque to this client, which neither interprets nor
// requests any authorization data.
type AuthDataEntry struct {
	Type int32
	Data []byte
}

// IsForwardable reports whether the FORWARDABLE ticket flag is set.
func (c Credential) IsForwardable() bool { return c.Flags&messages.KdcOptForwardable != 0 }

// IsRenewable reports whether the RENEWABLE ticket flag is set.
func (c Credential) IsRenewable() bool { return c.Flags&messages.KdcOptRenewable != 0 }

// FromAsRep assembles a Credential from a decrypted AS-exchange reply: the
// outer ticket plus the session key, flags, times, and server identity
// carried in the encrypted KDC-REP part (spec §4.4 step 5).
func FromAsRep(client Principal, ticket []byte, encPart messages.EncKdcRepPart) Credential {
	times := Times{
		AuthTime: encPart.AuthTime.Time(),
		EndTime:  encPart.EndTime.Time(),
	}
	if encPart.StartTime != nil {
		times.StartTime = encPart.StartTime.Time()
	}
	if encPart.RenewTill != nil {
		times.RenewTill = encPart.RenewTill.Time()
	}

	return Credential{
		Client: client,
		Server: Principal{Realm: encPart.SRealm, Name: encPart.SName},
		Key:    KeyBlock{Etype: encPart.Key.KeyType, Value: append([]byte(nil), encPart.Key.KeyValue...)},
		Times:  times,
		Flags:  uint32(encPart.Flags),
		Addresses: append([]messages.HostAddress(nil), encPart.CAddr...),
		Ticket:    append([]byte(nil), ticket...),
	}
}
