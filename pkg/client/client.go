package client

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/himmelblau-idm/kerbeiros-sub001/internal/logger"
	"github.com/himmelblau-idm/kerbeiros-sub001/internal/metrics"
	"github.com/himmelblau-idm/kerbeiros-sub001/internal/telemetry"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/credential"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/krbcrypto"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/messages"
)

// TgtRequester is the component-G orchestrator: it ties the AS-exchange
// state machine (D), the Kerberos message types (B), the crypto profiles
// (C), and the credential model (E) together behind one operation.
type TgtRequester struct {
	Config Config
}

// NewTgtRequester builds an orchestrator bound to a KDC configuration.
func NewTgtRequester(cfg Config) *TgtRequester {
	return &TgtRequester{Config: cfg}
}

// RequestTGT performs the full AS-exchange for principal name@realm,
// proving knowledge of cred, and returns the resulting TGT as a
// credential.Credential (spec §4.4's public `request` operation).
func (r *TgtRequester) RequestTGT(ctx context.Context, realmStr, name string, cred Credential) (credential.Credential, error) {
	correlationID := uuid.New().String()
	logger.Debug("starting AS-exchange", "correlation_id", correlationID, "realm", realmStr, "principal", name)

	ctx, span := telemetry.StartAsExchangeSpan(ctx, correlationID, realmStr, name)
	defer span.End()

	start := time.Now()
	cred2, result, retried, err := r.requestTGT(ctx, realmStr, name, cred)
	metrics.RecordAsExchange(result, retried, time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.Warn("AS-exchange failed", "correlation_id", correlationID, "result", result, "error", err)
		return credential.Credential{}, err
	}

	logger.Debug("AS-exchange succeeded", "correlation_id", correlationID, "retried", retried)
	return cred2, nil
}

// requestTGT is RequestTGT's body, separated so the outer method can record
// metrics/tracing uniformly over every return path via a result-kind label.
func (r *TgtRequester) requestTGT(ctx context.Context, realmStr, name string, cred Credential) (credential.Credential, string, bool, error) {
	realm, err := messages.NewRealm(realmStr)
	if err != nil {
		return credential.Credential{}, "protocol_error", false, err
	}
	cname, err := messages.NewPrincipalName(messages.NameTypePrincipal, name)
	if err != nil {
		return credential.Credential{}, "protocol_error", false, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.Config.timeout())
	defer cancel()

	exchange, err := newAsExchange(r.Config, realm, cname, cred)
	if err != nil {
		return credential.Credential{}, "transport_error", false, err
	}

	rep, profile, key, err := exchange.run(ctx)
	if err != nil {
		return credential.Credential{}, resultKind(err), exchange.retried, err
	}

	plaintext, err := profile.Decrypt(key, krbcrypto.UsageAsRepEncPart, rep.EncPart.Cipher)
	if err != nil {
		return credential.Credential{}, "protocol_error", exchange.retried, err
	}
	encPart, _, err := messages.DecodeEncKdcRepPart(plaintext)
	if err != nil {
		return credential.Credential{}, "protocol_error", exchange.retried, err
	}
	if encPart.Nonce != exchange.nonce {
		return credential.Credential{}, "protocol_error", exchange.retried, &ProtocolError{Kind: ProtocolNonceMismatch}
	}

	client := credential.Principal{Realm: rep.CRealm, Name: rep.CName}
	return credential.FromAsRep(client, rep.Ticket.Encode(), encPart), "success", exchange.retried, nil
}

// resultKind classifies an AS-exchange failure for the result label on the
// kerbeiros_as_exchange_total metric.
func resultKind(err error) string {
	switch err.(type) {
	case *KrbError:
		return "krb_error"
	case *TransportError:
		return "transport_error"
	default:
		return "protocol_error"
	}
}
