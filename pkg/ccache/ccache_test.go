package ccache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/credential"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/messages"
)

func TestDefaultHeader_Scenario(t *testing.T) {
	w := &writer{}
	writeHeader(w, DefaultHeader())
	assert.Equal(t, []byte{
		0x00, 0x0C, // header_len prefix: 12 bytes of header tags follow
		0x00, 0x01, 0x00, 0x08,
		0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00,
	}, w.bytesValue())
}

func testTicket(t *testing.T) messages.Ticket {
	t.Helper()
	sname, err := messages.NewPrincipalName(messages.NameTypeSrvInst, "krbtgt", "KINGDOM.HEARTS")
	require.NoError(t, err)
	realm, err := messages.NewRealm("KINGDOM.HEARTS")
	require.NoError(t, err)
	return messages.NewTicket(realm, sname, messages.EncryptedData{
		Etype:  18,
		Cipher: []byte("opaque-ticket-enc-part"),
	})
}

func testCredential(t *testing.T) credential.Credential {
	t.Helper()
	clientName, err := messages.NewPrincipalName(messages.NameTypePrincipal, "mickey")
	require.NoError(t, err)
	realm, err := messages.NewRealm("KINGDOM.HEARTS")
	require.NoError(t, err)
	serverName, err := messages.NewPrincipalName(messages.NameTypeSrvInst, "krbtgt", "KINGDOM.HEARTS")
	require.NoError(t, err)

	tkt := testTicket(t)
	authTime := time.Date(2019, 6, 4, 5, 22, 12, 0, time.UTC)

	return credential.Credential{
		Client: credential.Principal{Realm: realm, Name: clientName},
		Server: credential.Principal{Realm: realm, Name: serverName},
		Key:    credential.KeyBlock{Etype: 18, Value: make([]byte, 32)},
		Times: credential.Times{
			AuthTime: authTime,
			EndTime:  authTime.Add(10 * time.Hour),
		},
		Flags:  messages.KdcOptForwardable | messages.KdcOptRenewable,
		Ticket: tkt.Encode(),
	}
}

func TestCCache_RoundTrip(t *testing.T) {
	c := testCredential(t)
	cache := New(c.Client, []credential.Credential{c})

	data := cache.Save()
	got, err := Load(data)
	require.NoError(t, err)

	require.Len(t, got.Credentials, 1)
	assert.Equal(t, c.Client, got.Credentials[0].Client)
	assert.Equal(t, c.Server, got.Credentials[0].Server)
	assert.Equal(t, c.Key, got.Credentials[0].Key)
	assert.True(t, c.Times.AuthTime.Equal(got.Credentials[0].Times.AuthTime))
	assert.True(t, c.Times.EndTime.Equal(got.Credentials[0].Times.EndTime))
	assert.True(t, got.Credentials[0].Times.StartTime.IsZero())
	assert.True(t, got.Credentials[0].Times.RenewTill.IsZero())
	assert.Equal(t, c.Flags, got.Credentials[0].Flags)
	assert.Equal(t, c.Ticket, got.Credentials[0].Ticket)
	assert.Equal(t, c.Client, got.DefaultPrincipal)
}

func TestCCache_RejectsWrongVersion(t *testing.T) {
	_, err := Load([]byte{0x05, 0x03, 0x00, 0x00})
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindUnsupportedVersion, cerr.Kind)
}

func TestMapper_KrbCredRoundTrip(t *testing.T) {
	c := testCredential(t)
	kc, err := CredentialsToKrbCred([]credential.Credential{c})
	require.NoError(t, err)
	assert.Equal(t, messages.NoEncryption, kc.EncPart.Etype)

	got, err := KrbCredToCredentials(kc)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, c.Client, got[0].Client)
	assert.Equal(t, c.Server, got[0].Server)
	assert.Equal(t, c.Key, got[0].Key)
	assert.Equal(t, c.Flags, got[0].Flags)
	assert.True(t, c.Times.AuthTime.Equal(got[0].Times.AuthTime))
	assert.True(t, c.Times.EndTime.Equal(got[0].Times.EndTime))
	// starttime absent <-> reconciled to authtime (spec §8 property 7).
	assert.True(t, got[0].Times.AuthTime.Equal(got[0].Times.StartTime))
	assert.True(t, got[0].Times.RenewTill.IsZero())
	assert.Equal(t, c.Ticket, got[0].Ticket)
}

func TestMapper_StartTimeDistinctFromAuthTimeSurvives(t *testing.T) {
	c := testCredential(t)
	c.Times.StartTime = c.Times.AuthTime.Add(5 * time.Minute)
	c.Times.RenewTill = c.Times.EndTime.Add(24 * time.Hour)

	kc, err := CredentialsToKrbCred([]credential.Credential{c})
	require.NoError(t, err)
	got, err := KrbCredToCredentials(kc)
	require.NoError(t, err)

	assert.True(t, c.Times.StartTime.Equal(got[0].Times.StartTime))
	assert.True(t, c.Times.RenewTill.Equal(got[0].Times.RenewTill))
}

func TestMapper_RejectsEncryptedKrbCred(t *testing.T) {
	c := testCredential(t)
	kc, err := CredentialsToKrbCred([]credential.Credential{c})
	require.NoError(t, err)
	kc.EncPart.Etype = 18

	_, err = KrbCredToCredentials(kc)
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindKrbCredEncrypted, cerr.Kind)
}
