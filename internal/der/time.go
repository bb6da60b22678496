package der

import (
	"fmt"
	"time"
)

// generalizedTimeLayout is the Kerberos wire form of GeneralizedTime:
// YYYYMMDDHHMMSSZ, UTC, second resolution, no fractional seconds (spec §3).
const generalizedTimeLayout = "20060102150405Z"

// EncodeGeneralizedTime encodes a KerberosTime's DER content. The value is
// truncated to second resolution and forced to UTC, per spec.
func EncodeGeneralizedTime(t time.Time) []byte {
	s := t.UTC().Truncate(time.Second).Format(generalizedTimeLayout)
	return TLV(Universal(TagGeneralizedTime), []byte(s))
}

// DecodeGeneralizedTime reads a GeneralizedTime TLV at data[0].
func DecodeGeneralizedTime(data []byte) (t time.Time, consumed int, err error) {
	content, n, err := ExpectTLV(data, Universal(TagGeneralizedTime), "KerberosTime")
	if err != nil {
		return time.Time{}, 0, err
	}
	parsed, err := time.Parse(generalizedTimeLayout, string(content))
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("KerberosTime: %w", err)
	}
	return parsed.UTC(), n, nil
}
