package krbcrypto

// Key-usage numbers used by the AS client (RFC 4120 §7.5.1, spec §4.3). The
// full RFC table has many more entries (TGS, AP exchange, ...); only the
// ones an AS-only client ever needs are enumerated, as public API surface
// for callers composing their own PA-DATA.
const (
	UsageAsReqTimestamp  uint32 = 1
	UsageAsRepTicket     uint32 = 2 // service key; this client never holds it
	UsageAsRepEncPart    uint32 = 3
	UsageKrbCredEncPart  uint32 = 14
)

// Etype numbers (spec §6). Only AES256/AES128/RC4-HMAC are supported by
// Encrypt/Decrypt; the rest exist so callers can recognize and reject them
// with UnsupportedAlgorithm before ever reaching this package.
const (
	EtypeDesCbcCrc        int32 = 1
	EtypeDesCbcMd5        int32 = 3
	EtypeAes128CtsHmacSha1 int32 = 17
	EtypeAes256CtsHmacSha1 int32 = 18
	EtypeRc4Hmac          int32 = 23
	EtypeRc4HmacExp       int32 = 24
	EtypeRc4HmacOldExp    int32 = -135
	EtypeNoEncryption     int32 = 0
)

// SupportedEtypes lists the etypes this package can seal/unseal, in the
// client's preference order (spec §4.4 step 1).
var SupportedEtypes = []int32{EtypeAes256CtsHmacSha1, EtypeAes128CtsHmacSha1, EtypeRc4Hmac}

// IsSupported reports whether etype is one this package implements.
func IsSupported(etype int32) bool {
	for _, e := range SupportedEtypes {
		if e == etype {
			return true
		}
	}
	return false
}
