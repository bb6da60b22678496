package krbcrypto

// Profile is the closed set of operations every supported encryption type
// provides: derive a long-term key from a passphrase/salt, and seal/unseal
// octet strings under a key-usage number.
type Profile interface {
	Etype() int32
	KeySize() int
	StringToKey(passphrase, salt string) ([]byte, error)
	Encrypt(key []byte, usage uint32, plaintext []byte) ([]byte, error)
	Decrypt(key []byte, usage uint32, ciphertext []byte) ([]byte, error)
}

// ByEtype returns the Profile implementing etype, or an UnsupportedAlgorithm
// error if etype isn't one of SupportedEtypes.
func ByEtype(etype int32) (Profile, error) {
	switch etype {
	case EtypeAes256CtsHmacSha1:
		return AES256, nil
	case EtypeAes128CtsHmacSha1:
		return AES128, nil
	case EtypeRc4Hmac:
		return RC4, nil
	default:
		return nil, newError(OpEncrypt, etype, ReasonUnsupportedAlgorithm, nil)
	}
}
