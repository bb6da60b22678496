package client

import (
	"time"

	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/krbcrypto"
)

// CredentialKind selects which variant of Credential is populated.
type CredentialKind int

const (
	CredentialPassword CredentialKind = iota
	CredentialRc4Key
	CredentialAes128Key
	CredentialAes256Key
)

// Credential is the long-term secret the AS client proves knowledge of: a
// passphrase, or a raw key of the size a specific etype requires (spec
// §4.4's `{Password(str), Rc4Key(16B), Aes128Key(16B), Aes256Key(32B)}`).
type Credential struct {
	Kind     CredentialKind
	Password string
	Key      []byte
}

// NewPasswordCredential builds a passphrase-based credential; the AS client
// derives a key per candidate etype as the KDC's salt hint arrives.
func NewPasswordCredential(password string) Credential {
	return Credential{Kind: CredentialPassword, Password: password}
}

// NewRc4KeyCredential builds a credential around a pre-computed RC4-HMAC key.
func NewRc4KeyCredential(key []byte) Credential {
	return Credential{Kind: CredentialRc4Key, Key: key}
}

// NewAes128KeyCredential builds a credential around a pre-computed AES128 key.
func NewAes128KeyCredential(key []byte) Credential {
	return Credential{Kind: CredentialAes128Key, Key: key}
}

// NewAes256KeyCredential builds a credential around a pre-computed AES256 key.
func NewAes256KeyCredential(key []byte) Credential {
	return Credential{Kind: CredentialAes256Key, Key: key}
}

// etype reports the one etype a raw-key credential is pinned to, or 0 for a
// password credential (which is valid for any supported etype).
func (c Credential) etype() int32 {
	switch c.Kind {
	case CredentialRc4Key:
		return krbcrypto.EtypeRc4Hmac
	case CredentialAes128Key:
		return krbcrypto.EtypeAes128CtsHmacSha1
	case CredentialAes256Key:
		return krbcrypto.EtypeAes256CtsHmacSha1
	default:
		return 0
	}
}

// Config is the connection-level configuration for one orchestrator
// instance (spec §5: one short-lived transport connection per exchange).
type Config struct {
	KDCHost string        `mapstructure:"kdc_host" validate:"required"`
	KDCPort int           `mapstructure:"kdc_port" validate:"required,min=1,max=65535"`
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`
	// PreferUDP tries UDP first instead of TCP-with-UDP-fallback; the
	// default (false) matches spec §4.4 step 1's TCP-first ordering.
	PreferUDP bool `mapstructure:"prefer_udp"`
}

// DefaultTimeout is the deadline applied to every network suspension point
// when Config.Timeout is unset (spec §4.4: "default 5s").
const DefaultTimeout = 5 * time.Second

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
