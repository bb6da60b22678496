package client

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"time"

	"github.com/himmelblau-idm/kerbeiros-sub001/internal/der"
	"github.com/himmelblau-idm/kerbeiros-sub001/internal/telemetry"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/krbcrypto"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/messages"
)

// asExchange holds the state threaded through the (at most two) request/
// response round trips of one AS-exchange (spec §4.4's state machine).
type asExchange struct {
	cfg        Config
	realm      messages.Realm
	cname      messages.PrincipalName
	credential Credential
	send       func(ctx context.Context, cfg Config, msg []byte) ([]byte, error)

	nonce     uint32
	retried   bool
	etype     int32
	key       []byte
	salt      string
	paData    []messages.PaData
}

func newAsExchange(cfg Config, realm messages.Realm, cname messages.PrincipalName, cred Credential) (*asExchange, error) {
	nonce, err := randomNonce()
	if err != nil {
		return nil, err
	}
	return &asExchange{
		cfg:        cfg,
		realm:      realm,
		cname:      cname,
		credential: cred,
		send:       sendWithFallback,
		nonce:      nonce,
		paData:     []messages.PaData{paPacRequest()},
	}, nil
}

// randomNonce draws a random 31-bit unsigned integer (spec §4.4 step 1:
// "random 31-bit unsigned").
func randomNonce() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, &TransportError{Kind: TransportConnectFailed, Err: err}
	}
	return binary.BigEndian.Uint32(b[:]) & 0x7FFFFFFF, nil
}

func paPacRequest() messages.PaData {
	v := messages.PaPacRequest{IncludePac: true}.Encode()
	return messages.PaData{PadataType: messages.PaPacRequestID, PadataValue: v}
}

// supportedEtypes returns the etypes to offer, filtered to the single etype
// a raw-key credential is pinned to, in the client's preference order
// (spec §4.4 step 1).
func (e *asExchange) supportedEtypes() []int32 {
	if pinned := e.credential.etype(); pinned != 0 {
		return []int32{pinned}
	}
	out := make([]int32, len(krbcrypto.SupportedEtypes))
	copy(out, krbcrypto.SupportedEtypes)
	return out
}

func (e *asExchange) buildRequest() messages.AsReq {
	sname, _ := messages.NewPrincipalName(messages.NameTypeSrvInst, "krbtgt", string(e.realm))
	till := messages.KerberosTime(time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second))
	cname := e.cname

	body := messages.KdcReqBody{
		KdcOptions: messages.KerberosFlags(
			messages.KdcOptForwardable | messages.KdcOptRenewable |
				messages.KdcOptCanonicalize | messages.KdcOptRenewableOk,
		),
		CName: &cname,
		Realm: e.realm,
		SName: &sname,
		Till:  till,
		Nonce: e.nonce,
		EType: e.supportedEtypes(),
	}
	return messages.NewAsReq(e.paData, body)
}

// run drives the state machine to completion: Start -> Wait -> (optional
// preauth retry) -> AS-REP, returning the decoded AS-REP and the cipher
// profile/key used to unseal it.
func (e *asExchange) run(ctx context.Context) (messages.AsRep, krbcrypto.Profile, []byte, error) {
	req := e.buildRequest()
	reply, err := e.sendTraced(ctx, req)
	if err != nil {
		return messages.AsRep{}, nil, nil, err
	}

	rep, profile, key, retry, err := e.classify(reply)
	if err != nil {
		return messages.AsRep{}, nil, nil, err
	}
	if !retry {
		return rep, profile, key, nil
	}

	// Single preauth retry (spec §4.4 step 3: "limit to one retry").
	e.retried = true
	req = e.buildRequest()
	reply, err = e.sendTraced(ctx, req)
	if err != nil {
		return messages.AsRep{}, nil, nil, err
	}
	rep, profile, key, retry, err = e.classify(reply)
	if err != nil {
		return messages.AsRep{}, nil, nil, err
	}
	if retry {
		// A second PREAUTH_REQUIRED after already retrying once is fatal.
		return messages.AsRep{}, nil, nil, &ProtocolError{Kind: ProtocolUnexpectedMessageType}
	}
	return rep, profile, key, nil
}

// sendTraced wraps one request/reply round trip in a round-trip span,
// labeled by which transport is tried first for this exchange.
func (e *asExchange) sendTraced(ctx context.Context, req messages.AsReq) ([]byte, error) {
	transportLabel := "tcp"
	if e.cfg.PreferUDP {
		transportLabel = "udp"
	}
	ctx, span := telemetry.StartRoundTripSpan(ctx, transportLabel)
	defer span.End()

	reply, err := e.send(ctx, e.cfg, req.Encode())
	if err != nil {
		telemetry.RecordError(ctx, err)
	}
	return reply, err
}

// classify discriminates AS-REP from KRB-ERROR by outer application tag
// and, for PREAUTH_REQUIRED, prepares the PA-ENC-TIMESTAMP retry (spec §4.4
// steps 2-5).
func (e *asExchange) classify(reply []byte) (messages.AsRep, krbcrypto.Profile, []byte, bool, error) {
	tag, _, _, err := der.ReadTLV(reply)
	if err != nil {
		return messages.AsRep{}, nil, nil, false, &ProtocolError{Kind: ProtocolUnexpectedMessageType}
	}

	switch tag.Number {
	case messages.ApplicationTagAsRep:
		rep, _, err := messages.DecodeAsRep(reply)
		if err != nil {
			return messages.AsRep{}, nil, nil, false, err
		}
		if rep.CRealm != e.realm {
			return messages.AsRep{}, nil, nil, false, &ProtocolError{Kind: ProtocolRealmMismatch}
		}
		profile, key, err := e.selectCipher(rep.EncPart.Etype)
		if err != nil {
			return messages.AsRep{}, nil, nil, false, err
		}
		return rep, profile, key, false, nil

	case messages.ApplicationTagKrbError:
		kerr, _, err := messages.DecodeKrbError(reply)
		if err != nil {
			return messages.AsRep{}, nil, nil, false, err
		}
		if kerr.ErrorCode == messages.KdcErrPreauthRequired && !e.retried {
			if err := e.preparePreauth(kerr); err != nil {
				return messages.AsRep{}, nil, nil, false, err
			}
			return messages.AsRep{}, nil, nil, true, nil
		}
		return messages.AsRep{}, nil, nil, false, krbErrorFrom(kerr)

	default:
		return messages.AsRep{}, nil, nil, false, &ProtocolError{Kind: ProtocolUnexpectedMessageType}
	}
}

// selectCipher resolves the cipher profile and key for the AS-REP's
// enc-part etype, deriving the key from the stored credential if it is a
// passphrase (spec §4.4 step 5).
func (e *asExchange) selectCipher(etype int32) (krbcrypto.Profile, []byte, error) {
	profile, err := krbcrypto.ByEtype(etype)
	if err != nil {
		return nil, nil, err
	}
	// A preauth round already derived the key for this exact etype; reuse
	// it rather than re-deriving (the salt used there may have come from
	// the KDC's PA-ETYPE-INFO2 hint, not the default formula).
	if e.key != nil && e.etype == etype {
		return profile, e.key, nil
	}
	key, err := e.deriveKeyFor(profile, etype, e.salt)
	if err != nil {
		return nil, nil, err
	}
	return profile, key, nil
}

func (e *asExchange) deriveKeyFor(profile krbcrypto.Profile, etype int32, salt string) ([]byte, error) {
	switch e.credential.Kind {
	case CredentialPassword:
		if salt == "" {
			salt = defaultSalt(e.realm, e.cname)
		}
		return profile.StringToKey(e.credential.Password, salt)
	default:
		if e.credential.etype() != etype {
			return nil, &ProtocolError{Kind: ProtocolNoSupportedEtype}
		}
		return e.credential.Key, nil
	}
}

// preparePreauth finds PA-ETYPE-INFO2 in the KRB-ERROR's e-data, derives the
// pre-auth key, builds the encrypted-timestamp PA-DATA, and prepends it to
// the retry's padata (spec §4.4 step 3).
func (e *asExchange) preparePreauth(kerr messages.KrbError) error {
	if kerr.EData == nil {
		return &ProtocolError{Kind: ProtocolNoSupportedEtype}
	}
	entries, ok, err := kerr.EData.FindEtypeInfo2()
	if err != nil {
		return err
	}

	var chosen *messages.EtypeInfo2Entry
	if ok {
		for i := range entries {
			if krbcrypto.IsSupported(entries[i].Etype) && (e.credential.etype() == 0 || e.credential.etype() == entries[i].Etype) {
				chosen = &entries[i]
				break
			}
		}
	}
	if chosen == nil {
		for _, candidate := range e.supportedEtypes() {
			chosen = &messages.EtypeInfo2Entry{Etype: candidate}
			break
		}
	}
	if chosen == nil {
		return &ProtocolError{Kind: ProtocolNoSupportedEtype}
	}

	profile, err := krbcrypto.ByEtype(chosen.Etype)
	if err != nil {
		return err
	}
	salt := ""
	if chosen.Salt != nil {
		salt = *chosen.Salt
	}
	key, err := e.deriveKeyFor(profile, chosen.Etype, salt)
	if err != nil {
		return err
	}

	now := messages.Now()
	tsEnc := messages.PaEncTsEnc{PaTimestamp: now}.Encode()
	cipher, err := profile.Encrypt(key, krbcrypto.UsageAsReqTimestamp, tsEnc)
	if err != nil {
		return err
	}
	encData := messages.EncryptedData{Etype: chosen.Etype, Cipher: cipher}
	pa := messages.PaData{PadataType: messages.PaEncTimestamp, PadataValue: encData.Encode()}

	e.etype = chosen.Etype
	e.key = key
	e.salt = salt
	e.paData = append([]messages.PaData{pa}, e.paData...)
	return nil
}
