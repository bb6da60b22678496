package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himmelblau-idm/kerbeiros-sub001/internal/der"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/krbcrypto"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/messages"
)

const testSalt = "KINGDOM.HEARTSmickey"

func preauthRequiredError(t *testing.T, realm messages.Realm, sname messages.PrincipalName) []byte {
	t.Helper()
	entry := messages.EtypeInfo2Entry{Etype: krbcrypto.EtypeAes256CtsHmacSha1, Salt: strPtr(testSalt)}
	etypeInfo2 := der.SequenceTLV(entry.Encode())
	pa := messages.PaData{PadataType: messages.PaEtypeInfo2, PadataValue: etypeInfo2}
	eData := messages.MethodDataEData([]messages.PaData{pa})

	kerr := messages.KrbError{
		Pvno:      5,
		MsgType:   messages.MsgTypeError,
		STime:     messages.Now(),
		Susec:     0,
		ErrorCode: messages.KdcErrPreauthRequired,
		Realm:     realm,
		SName:     sname,
		EData:     &eData,
	}
	return kerr.Encode()
}

func strPtr(s string) *string { return &s }

// validAsRepFor decodes the AS-REQ bytes to recover its nonce, asserts a
// PA-ENC-TIMESTAMP is present and decrypts under the expected key, and
// builds a matching AS-REP (spec §8 scenario G).
func validAsRepFor(t *testing.T, reqBytes []byte, cname messages.PrincipalName, realm messages.Realm, expectKey []byte) []byte {
	t.Helper()
	req, _, err := messages.DecodeAsReq(reqBytes)
	require.NoError(t, err)

	var tsPA *messages.PaData
	for i := range req.PaData {
		if req.PaData[i].PadataType == messages.PaEncTimestamp {
			tsPA = &req.PaData[i]
			break
		}
	}
	require.NotNil(t, tsPA, "expected PA-ENC-TIMESTAMP on the retried AS-REQ")

	encData, _, err := messages.DecodeEncryptedData(tsPA.PadataValue)
	require.NoError(t, err)
	assert.Equal(t, krbcrypto.EtypeAes256CtsHmacSha1, encData.Etype)

	plain, err := krbcrypto.AES256.Decrypt(expectKey, krbcrypto.UsageAsReqTimestamp, encData.Cipher)
	require.NoError(t, err)
	_, _, err = messages.DecodePaEncTsEnc(plain)
	require.NoError(t, err)

	sessionKey := make([]byte, 32)
	authTime := messages.Now()
	encPart := messages.EncKdcRepPart{
		Key:      messages.EncryptionKey{KeyType: krbcrypto.EtypeAes256CtsHmacSha1, KeyValue: sessionKey},
		Nonce:    req.ReqBody.Nonce,
		Flags:    messages.KerberosFlags(messages.KdcOptForwardable | messages.KdcOptRenewable),
		AuthTime: authTime,
		EndTime:  messages.KerberosTime(authTime.Time().Add(10 * time.Hour)),
		SRealm:   realm,
		SName:    *req.ReqBody.SName,
	}
	cipher, err := krbcrypto.AES256.Encrypt(expectKey, krbcrypto.UsageAsRepEncPart, encPart.EncodeAsRepPart())
	require.NoError(t, err)

	rep := messages.AsRep{KdcRep: messages.KdcRep{
		Pvno:    5,
		MsgType: messages.MsgTypeAsRep,
		CRealm:  realm,
		CName:   cname,
		Ticket:  messages.NewTicket(realm, *req.ReqBody.SName, messages.EncryptedData{Etype: krbcrypto.EtypeAes256CtsHmacSha1, Cipher: []byte("opaque")}),
		EncPart: messages.EncryptedData{Etype: krbcrypto.EtypeAes256CtsHmacSha1, Cipher: cipher},
	}}
	return rep.Encode()
}

func TestAsExchange_PreauthRetry_Scenario(t *testing.T) {
	realm, err := messages.NewRealm("KINGDOM.HEARTS")
	require.NoError(t, err)
	cname, err := messages.NewPrincipalName(messages.NameTypePrincipal, "mickey")
	require.NoError(t, err)

	expectedKey, err := krbcrypto.AES256.StringToKey("sora-keyblade", testSalt)
	require.NoError(t, err)

	cfg := Config{KDCHost: "kdc.invalid", KDCPort: 88, Timeout: time.Second}
	exchange, err := newAsExchange(cfg, realm, cname, NewPasswordCredential("sora-keyblade"))
	require.NoError(t, err)

	var requestCount int
	exchange.send = func(ctx context.Context, cfg Config, msg []byte) ([]byte, error) {
		requestCount++
		switch requestCount {
		case 1:
			sname, _ := messages.NewPrincipalName(messages.NameTypeSrvInst, "krbtgt", "KINGDOM.HEARTS")
			return preauthRequiredError(t, realm, sname), nil
		case 2:
			return validAsRepFor(t, msg, cname, realm, expectedKey), nil
		default:
			t.Fatalf("unexpected third request")
			return nil, nil
		}
	}

	rep, profile, key, err := exchange.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, requestCount, "scenario G requires exactly two AS-REQs")
	assert.True(t, exchange.retried)
	assert.Equal(t, krbcrypto.AES256, profile)
	assert.Equal(t, expectedKey, key)

	plaintext, err := profile.Decrypt(key, krbcrypto.UsageAsRepEncPart, rep.EncPart.Cipher)
	require.NoError(t, err)
	encPart, _, err := messages.DecodeEncKdcRepPart(plaintext)
	require.NoError(t, err)
	assert.Equal(t, exchange.nonce, encPart.Nonce)
}

func TestAsExchange_NonPreauthErrorIsFatal(t *testing.T) {
	realm, _ := messages.NewRealm("KINGDOM.HEARTS")
	cname, _ := messages.NewPrincipalName(messages.NameTypePrincipal, "mickey")
	cfg := Config{KDCHost: "kdc.invalid", KDCPort: 88}
	exchange, err := newAsExchange(cfg, realm, cname, NewPasswordCredential("x"))
	require.NoError(t, err)

	exchange.send = func(ctx context.Context, cfg Config, msg []byte) ([]byte, error) {
		kerr := messages.KrbError{
			Pvno: 5, MsgType: messages.MsgTypeError,
			STime: messages.Now(), ErrorCode: 68, // KDC_ERR_WRONG_REALM (illustrative)
			Realm: realm,
			SName: cname,
		}
		return kerr.Encode(), nil
	}

	_, _, _, err = exchange.run(context.Background())
	require.Error(t, err)
	var kerr *KrbError
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, int32(68), kerr.Code)
}
