package krbcrypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipher_StringToKeyAndRoundTrip(t *testing.T) {
	usages := []uint32{UsageAsReqTimestamp, UsageAsRepEncPart, UsageKrbCredEncPart}
	plaintexts := [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte("the quick brown fox jumps over the lazy dog"),
		make([]byte, 37),
	}

	for _, etype := range SupportedEtypes {
		cipher, err := ByEtype(etype)
		require.NoError(t, err)

		key, err := cipher.StringToKey("mickey", "KINGDOM.HEARTSmickey")
		require.NoError(t, err)
		require.Len(t, key, cipher.KeySize())

		for _, usage := range usages {
			for _, pt := range plaintexts {
				ct, err := cipher.Encrypt(key, usage, pt)
				require.NoError(t, err)

				got, err := cipher.Decrypt(key, usage, ct)
				require.NoError(t, err)
				assert.Equal(t, pt, got)
			}
		}
	}
}

func TestCipher_MacSensitivity(t *testing.T) {
	for _, etype := range SupportedEtypes {
		cipher, err := ByEtype(etype)
		require.NoError(t, err)

		key, err := cipher.StringToKey("mickey", "KINGDOM.HEARTSmickey")
		require.NoError(t, err)

		plaintext := []byte("a message long enough to span more than one cipher block")
		ct, err := cipher.Encrypt(key, UsageAsRepEncPart, plaintext)
		require.NoError(t, err)

		for trial := 0; trial < 128; trial++ {
			mutated := append([]byte(nil), ct...)
			byteIdx := trial % len(mutated)
			bitIdx := uint((trial * 5) % 8)
			mutated[byteIdx] ^= 1 << bitIdx

			_, err := cipher.Decrypt(key, UsageAsRepEncPart, mutated)
			assert.Error(t, err, "etype %d trial %d: expected decryption failure", etype, trial)
		}
	}
}

func TestByEtype_UnsupportedRejected(t *testing.T) {
	_, err := ByEtype(EtypeDesCbcMd5)
	require.Error(t, err)

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ReasonUnsupportedAlgorithm, cerr.Reason)
}

func TestAES_StringToKey_DeterministicAcrossCalls(t *testing.T) {
	k1, err := AES256.StringToKey("mickey", "KINGDOM.HEARTSmickey")
	require.NoError(t, err)
	k2, err := AES256.StringToKey("mickey", "KINGDOM.HEARTSmickey")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := AES256.StringToKey("minnie", "KINGDOM.HEARTSmickey")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestRC4_StringToKey_IgnoresSalt(t *testing.T) {
	k1, err := RC4.StringToKey("mickey", "one salt")
	require.NoError(t, err)
	k2, err := RC4.StringToKey("mickey", "a different salt")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestCTS_SingleBlockMessage(t *testing.T) {
	// A message whose confounder+plaintext is exactly one AES block
	// exercises ctsEncrypt/ctsDecrypt's degenerate single-block path.
	cipher := AES128
	key, err := cipher.StringToKey("mickey", "KINGDOM.HEARTSmickey")
	require.NoError(t, err)

	ct, err := cipher.Encrypt(key, UsageAsReqTimestamp, nil)
	require.NoError(t, err)
	got, err := cipher.Decrypt(key, UsageAsReqTimestamp, ct)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCTS_EveryLengthAroundBlockBoundary(t *testing.T) {
	// Exercises ctsEncrypt/ctsDecrypt across partial final blocks, exact
	// multiples, and multi-block bodies.
	cipher := AES256
	key, err := cipher.StringToKey("mickey", "KINGDOM.HEARTSmickey")
	require.NoError(t, err)

	for n := 0; n < 48; n++ {
		pt := make([]byte, n)
		for i := range pt {
			pt[i] = byte(i*7 + 3)
		}
		ct, err := cipher.Encrypt(key, UsageAsRepEncPart, pt)
		require.NoError(t, err)
		got, err := cipher.Decrypt(key, UsageAsRepEncPart, ct)
		require.NoError(t, err, "length %d", n)
		assert.Equal(t, pt, got, "length %d", n)
	}
}
