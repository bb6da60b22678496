package krbcrypto

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"crypto/rc4"
	"crypto/subtle"
	"io"
	"unicode/utf16"

	"golang.org/x/crypto/md4"
)

// rc4Profile implements the RC4-HMAC encryption type (RFC 4757, etype 23),
// the encryption type Windows domain controllers use by default ahead of
// AES for machine and legacy accounts.
type rc4Profile struct{}

// RC4 is the RC4-HMAC profile.
var RC4 = rc4Profile{}

const rc4KeySize = 16

func (rc4Profile) Etype() int32 { return EtypeRc4Hmac }
func (rc4Profile) KeySize() int { return rc4KeySize }

// StringToKey computes the NT hash: MD4(UTF16LE(password)). RC4-HMAC has no
// salt; the salt parameter is ignored to satisfy the shared cipher profile
// shape (spec §4.3, §9).
func (rc4Profile) StringToKey(passphrase, _ string) ([]byte, error) {
	units := utf16.Encode([]rune(passphrase))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		buf[i*2] = byte(u)
		buf[i*2+1] = byte(u >> 8)
	}
	h := md4.New()
	h.Write(buf)
	return h.Sum(nil), nil
}

// rc4Usage remaps a few key-usage numbers before HMAC-MD5 key derivation,
// per RFC 4757 §7: usages 9 and 14 fold onto 8's constant, matching MIT
// krb5's and Samba's "old usage" compatibility table for RC4-HMAC.
func rc4Usage(usage uint32) uint32 {
	switch usage {
	case 9, 14:
		return 8
	default:
		return usage
	}
}

// k1 derives the first-stage key: HMAC-MD5(key, usage as little-endian u32).
func k1(key []byte, usage uint32) []byte {
	u := rc4Usage(usage)
	le := []byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24)}
	h := hmac.New(md5.New, key)
	h.Write(le)
	return h.Sum(nil)
}

// Encrypt seals plaintext under usage, per RFC 4757 §3: an 8-byte random
// confounder, an HMAC-MD5 checksum over confounder||plaintext keyed by K2,
// then RC4 under K3 (itself HMAC-MD5(K2, checksum)) over confounder||
// plaintext. Output is checksum||RC4-ciphertext.
func (p rc4Profile) Encrypt(key []byte, usage uint32, plaintext []byte) ([]byte, error) {
	if len(key) != rc4KeySize {
		return nil, newError(OpEncrypt, p.Etype(), ReasonInvalidKeyLength, nil)
	}
	k2 := k1(key, usage)

	confounder := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, confounder); err != nil {
		return nil, newError(OpEncrypt, p.Etype(), ReasonInvalidKeyLength, err)
	}
	msg := append(append([]byte{}, confounder...), plaintext...)

	checksum := hmac.New(md5.New, k2)
	checksum.Write(msg)
	sum := checksum.Sum(nil)

	k3 := hmac.New(md5.New, k2)
	k3.Write(sum)
	streamKey := k3.Sum(nil)

	stream, err := rc4.NewCipher(streamKey)
	if err != nil {
		return nil, newError(OpEncrypt, p.Etype(), ReasonInvalidKeyLength, err)
	}
	ciphertext := make([]byte, len(msg))
	stream.XORKeyStream(ciphertext, msg)

	return append(sum, ciphertext...), nil
}

// Decrypt reverses Encrypt, recomputing the checksum in constant time before
// returning any cleartext.
func (p rc4Profile) Decrypt(key []byte, usage uint32, ciphertext []byte) ([]byte, error) {
	if len(key) != rc4KeySize {
		return nil, newError(OpDecrypt, p.Etype(), ReasonInvalidKeyLength, nil)
	}
	if len(ciphertext) < md5.Size+8 {
		return nil, newError(OpDecrypt, p.Etype(), ReasonDecryptionFailed, nil)
	}
	gotSum := ciphertext[:md5.Size]
	cipherPart := ciphertext[md5.Size:]

	k2 := k1(key, usage)
	k3 := hmac.New(md5.New, k2)
	k3.Write(gotSum)
	streamKey := k3.Sum(nil)

	stream, err := rc4.NewCipher(streamKey)
	if err != nil {
		return nil, newError(OpDecrypt, p.Etype(), ReasonInvalidKeyLength, err)
	}
	msg := make([]byte, len(cipherPart))
	stream.XORKeyStream(msg, cipherPart)

	wantChecksum := hmac.New(md5.New, k2)
	wantChecksum.Write(msg)
	wantSum := wantChecksum.Sum(nil)
	if subtle.ConstantTimeCompare(gotSum, wantSum) != 1 {
		return nil, newError(OpDecrypt, p.Etype(), ReasonDecryptionFailed, nil)
	}

	if len(msg) < 8 {
		return nil, newError(OpDecrypt, p.Etype(), ReasonDecryptionFailed, nil)
	}
	return msg[8:], nil
}
