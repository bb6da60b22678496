package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for AS-exchange spans.
const (
	AttrRealm         = "kerberos.realm"
	AttrPrincipal     = "kerberos.principal"
	AttrEtype         = "kerberos.etype"
	AttrTransport     = "kerberos.transport"
	AttrRetried       = "kerberos.preauth_retried"
	AttrCorrelationID = "kerberos.correlation_id"
)

// Span names for the AS-exchange pipeline.
const (
	SpanAsExchange = "kerberos.as_exchange"
	SpanRoundTrip  = "kerberos.round_trip"
)

// StartAsExchangeSpan starts the root span for one RequestTGT call.
func StartAsExchangeSpan(ctx context.Context, correlationID, realm, principal string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanAsExchange, trace.WithAttributes(
		attribute.String(AttrCorrelationID, correlationID),
		attribute.String(AttrRealm, realm),
		attribute.String(AttrPrincipal, principal),
	))
}

// StartRoundTripSpan starts a child span for one AS-REQ/AS-REP or
// AS-REQ/KRB-ERROR round trip over the wire.
func StartRoundTripSpan(ctx context.Context, transport string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanRoundTrip, trace.WithAttributes(
		attribute.String(AttrTransport, transport),
	))
}
