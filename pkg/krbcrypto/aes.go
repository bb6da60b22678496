package krbcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	confounderSize = 16
	macSize        = 12
	pbkdf2Iters    = 4096
)

// aesProfile implements the AES128/256-CTS-HMAC-SHA1-96 encryption type
// (RFC 3962). Both key sizes share every algorithm; only KeySize differs.
type aesProfile struct {
	etype   int32
	keySize int
}

// AES128 is the AES128-CTS-HMAC-SHA1-96 profile (etype 17).
var AES128 = aesProfile{etype: EtypeAes128CtsHmacSha1, keySize: 16}

// AES256 is the AES256-CTS-HMAC-SHA1-96 profile (etype 18).
var AES256 = aesProfile{etype: EtypeAes256CtsHmacSha1, keySize: 32}

func (p aesProfile) Etype() int32  { return p.etype }
func (p aesProfile) KeySize() int  { return p.keySize }

// StringToKey derives a long-term key from a passphrase and salt: PBKDF2-
// HMAC-SHA1 with 4096 iterations produces a seed of KeySize bytes, then the
// final key is DK(seed, "kerberos") (spec §4.3).
func (p aesProfile) StringToKey(passphrase, salt string) ([]byte, error) {
	seed := pbkdf2.Key([]byte(passphrase), []byte(salt), pbkdf2Iters, p.keySize, sha1.New)
	key, err := dk(seed, []byte("kerberos"), p.keySize)
	if err != nil {
		return nil, newError(OpStringToKey, p.etype, ReasonInvalidKeyLength, err)
	}
	return key, nil
}

// deriveKey derives a usage-specific subkey via DK, RFC 3961 §5.3's table:
// suffix 0xAA ("Ke") for encryption, 0x55 ("Ki") for integrity.
func (p aesProfile) deriveKey(baseKey []byte, usage uint32, suffix byte) ([]byte, error) {
	key, err := dk(baseKey, usageConstant(usage, suffix), p.keySize)
	if err != nil {
		return nil, newError(OpDeriveKey, p.etype, ReasonInvalidKeyLength, err)
	}
	return key, nil
}

// Encrypt seals plaintext under usage, per spec §4.3: prepend a random
// confounder, AES-CBC-CTS (CS3) under Ke, HMAC-SHA1 (truncated to 12 bytes)
// over confounder||plaintext under Ki, append.
func (p aesProfile) Encrypt(key []byte, usage uint32, plaintext []byte) ([]byte, error) {
	if len(key) != p.keySize {
		return nil, newError(OpEncrypt, p.etype, ReasonInvalidKeyLength, nil)
	}
	ke, err := p.deriveKey(key, usage, suffixKe)
	if err != nil {
		return nil, err
	}
	ki, err := p.deriveKey(key, usage, suffixKi)
	if err != nil {
		return nil, err
	}

	confounder := make([]byte, confounderSize)
	if _, err := io.ReadFull(rand.Reader, confounder); err != nil {
		return nil, newError(OpEncrypt, p.etype, ReasonInvalidKeyLength, err)
	}

	msg := append(append([]byte{}, confounder...), plaintext...)

	block, err := aes.NewCipher(ke)
	if err != nil {
		return nil, newError(OpEncrypt, p.etype, ReasonInvalidKeyLength, err)
	}
	ciphertext := ctsEncrypt(block, make([]byte, aes.BlockSize), msg)

	h := hmac.New(sha1.New, ki)
	h.Write(msg)
	mac := h.Sum(nil)[:macSize]

	return append(ciphertext, mac...), nil
}

// Decrypt reverses Encrypt, recomputing the MAC in constant time before
// returning any cleartext (spec §4.3, §7: a MAC failure is fatal).
func (p aesProfile) Decrypt(key []byte, usage uint32, ciphertext []byte) ([]byte, error) {
	if len(key) != p.keySize {
		return nil, newError(OpDecrypt, p.etype, ReasonInvalidKeyLength, nil)
	}
	if len(ciphertext) < macSize+confounderSize {
		return nil, newError(OpDecrypt, p.etype, ReasonDecryptionFailed, nil)
	}
	ke, err := p.deriveKey(key, usage, suffixKe)
	if err != nil {
		return nil, err
	}
	ki, err := p.deriveKey(key, usage, suffixKi)
	if err != nil {
		return nil, err
	}

	cipherPart := ciphertext[:len(ciphertext)-macSize]
	gotMac := ciphertext[len(ciphertext)-macSize:]

	block, err := aes.NewCipher(ke)
	if err != nil {
		return nil, newError(OpDecrypt, p.etype, ReasonInvalidKeyLength, err)
	}
	msg, err := ctsDecrypt(block, make([]byte, aes.BlockSize), cipherPart)
	if err != nil {
		return nil, newError(OpDecrypt, p.etype, ReasonDecryptionFailed, err)
	}

	h := hmac.New(sha1.New, ki)
	h.Write(msg)
	wantMac := h.Sum(nil)[:macSize]
	if subtle.ConstantTimeCompare(gotMac, wantMac) != 1 {
		return nil, newError(OpDecrypt, p.etype, ReasonDecryptionFailed, nil)
	}

	if len(msg) < confounderSize {
		return nil, newError(OpDecrypt, p.etype, ReasonDecryptionFailed, nil)
	}
	return msg[confounderSize:], nil
}

// ctsEncrypt implements CBC with ciphertext stealing, CS3 variant (RFC 3962
// §5, RFC 2040): CBC-encrypt every block through the second-to-last one
// normally, then steal the leading bytes of that last CBC output block to
// serve as the final (possibly partial) block's ciphertext, emitted after
// the recomputed full block: C_1..C_{k-2}, full block, stolen bytes. Output
// length always equals len(plaintext).
func ctsEncrypt(block cipher.Block, iv, plaintext []byte) []byte {
	bs := block.BlockSize()
	if len(plaintext) <= bs {
		// A single block (confounder with no payload) has nothing to
		// steal from; CTS degenerates to plain CBC of that one block.
		out := make([]byte, bs)
		padded := make([]byte, bs)
		copy(padded, plaintext)
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
		return out[:len(plaintext)]
	}

	n := len(plaintext)
	full := (n / bs) * bs
	if n%bs == 0 {
		full -= bs
	}
	// head = P_1..P_{k-2},P_{k-1}: every block up to and including the
	// last full block before the final (possibly partial) one.
	head := plaintext[:full]
	tail := plaintext[full:]

	headCipher := make([]byte, len(head))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(headCipher, head)

	// x = E(P_{k-1} XOR chain-input); it is headCipher's last block,
	// produced by the CBC pass above, and is never transmitted itself.
	x := headCipher[len(headCipher)-bs:]

	padded := make([]byte, bs)
	copy(padded, tail)
	xorBlock(padded, padded, x)
	last := make([]byte, bs)
	block.Encrypt(last, padded)

	stolen := x[:len(tail)]

	out := make([]byte, 0, n)
	out = append(out, headCipher[:len(headCipher)-bs]...)
	out = append(out, last...)
	out = append(out, stolen...)
	return out
}

// ctsDecrypt reverses ctsEncrypt.
func ctsDecrypt(block cipher.Block, iv, ciphertext []byte) ([]byte, error) {
	bs := block.BlockSize()
	if len(ciphertext) <= bs {
		out := make([]byte, bs)
		padded := make([]byte, bs)
		copy(padded, ciphertext)
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, padded)
		return out[:len(ciphertext)], nil
	}

	n := len(ciphertext)
	full := (n / bs) * bs
	if n%bs == 0 {
		full -= bs
	}
	tailLen := n - full

	// head = C_1..C_{k-2}: ordinary CBC-encrypted blocks, chain-input x is
	// never transmitted so it isn't included here.
	head := ciphertext[:full-bs]
	last := ciphertext[full-bs : full]
	stolen := ciphertext[full:]

	// D(last) = tail-padded XOR x; the padding bytes are zero, so the
	// trailing bs-tailLen bytes of this decryption equal x's own tail.
	dLast := make([]byte, bs)
	block.Decrypt(dLast, last)

	x := make([]byte, bs)
	copy(x, stolen)
	copy(x[tailLen:], dLast[tailLen:])

	tailPlain := make([]byte, bs)
	xorBlock(tailPlain, dLast, x)

	var chainInput []byte
	if len(head) > 0 {
		chainInput = head[len(head)-bs:]
	} else {
		chainInput = iv
	}
	dx := make([]byte, bs)
	block.Decrypt(dx, x)
	secondLastPlain := make([]byte, bs)
	xorBlock(secondLastPlain, dx, chainInput)

	headPlain := make([]byte, len(head))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(headPlain, head)

	out := make([]byte, 0, n)
	out = append(out, headPlain...)
	out = append(out, secondLastPlain...)
	out = append(out, tailPlain[:tailLen]...)
	return out, nil
}

func xorBlock(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}
