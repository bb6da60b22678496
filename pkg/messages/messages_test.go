package messages

import (
	"testing"
	"time"

	"github.com/himmelblau-idm/kerbeiros-sub001/internal/der"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrincipalName_RoundTrip(t *testing.T) {
	p, err := NewPrincipalName(NameTypePrincipal, "mickey")
	require.NoError(t, err)
	data := p.Encode()
	got, consumed, err := DecodePrincipalName(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, p, got)
}

func TestPrincipalName_RequiresAtLeastOneComponent(t *testing.T) {
	_, err := NewPrincipalName(NameTypePrincipal)
	require.Error(t, err)
}

func TestPrincipalName_MachineAccount(t *testing.T) {
	p, err := NewPrincipalName(NameTypePrincipal, "WORKSTATION$")
	require.NoError(t, err)
	assert.True(t, p.IsMachineAccount())
}

func TestEncryptedData_RoundTrip(t *testing.T) {
	kvno := uint32(3)
	e := EncryptedData{Etype: 18, Kvno: &kvno, Cipher: []byte{1, 2, 3, 4}}
	data := e.Encode()
	got, consumed, err := DecodeEncryptedData(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, e, got)
}

func TestEncryptedData_NoKvno(t *testing.T) {
	e := EncryptedData{Etype: 0, Cipher: []byte{0xAA}}
	data := e.Encode()
	got, _, err := DecodeEncryptedData(data)
	require.NoError(t, err)
	assert.Nil(t, got.Kvno)
	assert.Equal(t, e.Cipher, got.Cipher)
}

func TestEncryptionKey_RoundTrip(t *testing.T) {
	k := EncryptionKey{KeyType: 18, KeyValue: make([]byte, 32)}
	data := k.Encode()
	got, consumed, err := DecodeEncryptionKey(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, k, got)
}

// Scenario D: PA-ENC-TS-ENC encode.
func TestPaEncTsEnc_Scenario(t *testing.T) {
	usec, err := NewMicroseconds(143725)
	require.NoError(t, err)
	p := PaEncTsEnc{
		PaTimestamp: KerberosTime(time.Date(2019, 6, 4, 5, 22, 12, 0, time.UTC)),
		Pausec:      &usec,
	}
	want := []byte{
		0x30, 0x1A,
		0xA0, 0x11, 0x18, 0x0F,
		'2', '0', '1', '9', '0', '6', '0', '4', '0', '5', '2', '2', '1', '2', 'Z',
		0xA1, 0x05, 0x02, 0x03, 0x02, 0x31, 0x6D,
	}
	assert.Equal(t, want, p.Encode())
}

func TestPaEncTsEnc_RoundTrip(t *testing.T) {
	usec, err := NewMicroseconds(500)
	require.NoError(t, err)
	p := PaEncTsEnc{PaTimestamp: Now(), Pausec: &usec}
	data := p.Encode()
	got, consumed, err := DecodePaEncTsEnc(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, p.PaTimestamp.Time(), got.PaTimestamp.Time())
	require.NotNil(t, got.Pausec)
	assert.Equal(t, *p.Pausec, *got.Pausec)
}

// Scenario E: PA-PAC-REQUEST inside a PA-DATA envelope.
func TestPaPacRequest_PaDataEnvelope_Scenario(t *testing.T) {
	inner := PaPacRequest{IncludePac: true}.Encode()
	assert.Equal(t, []byte{0x30, 0x05, 0xA0, 0x03, 0x01, 0x01, 0xFF}, inner)

	pa := PaData{PadataType: PaPacRequestID, PadataValue: inner}
	want := []byte{
		0x30, 0x11,
		0xA1, 0x04, 0x02, 0x02, 0x00, 0x80,
		0xA2, 0x09, 0x04, 0x07, 0x30, 0x05, 0xA0, 0x03, 0x01, 0x01, 0xFF,
	}
	assert.Equal(t, want, pa.Encode())
}

func TestPaPacRequest_RoundTrip(t *testing.T) {
	for _, v := range []bool{true, false} {
		data := PaPacRequest{IncludePac: v}.Encode()
		got, _, err := DecodePaPacRequest(data)
		require.NoError(t, err)
		assert.Equal(t, v, got.IncludePac)
	}
}

func TestSequenceOfPaData_RoundTrip(t *testing.T) {
	items := []PaData{
		{PadataType: PaPacRequestID, PadataValue: PaPacRequest{IncludePac: true}.Encode()},
		{PadataType: PaEncTimestamp, PadataValue: []byte{1, 2, 3}},
	}
	data := EncodeSequenceOfPaData(items)
	got, consumed, err := DecodeSequenceOfPaData(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, items, got)
}

func TestTicket_RoundTrip(t *testing.T) {
	realm, err := NewRealm("EXAMPLE.COM")
	require.NoError(t, err)
	sname, err := NewPrincipalName(NameTypeSrvInst, "krbtgt", "EXAMPLE.COM")
	require.NoError(t, err)
	tkt := NewTicket(realm, sname, EncryptedData{Etype: 18, Cipher: []byte{9, 9, 9}})
	data := tkt.Encode()
	got, consumed, err := DecodeTicket(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, tkt, got)
}

func TestAsReq_RoundTrip(t *testing.T) {
	cname, err := NewPrincipalName(NameTypePrincipal, "mickey")
	require.NoError(t, err)
	realm, err := NewRealm("KINGDOM.HEARTS")
	require.NoError(t, err)
	sname, err := NewPrincipalName(NameTypeSrvInst, "krbtgt", "KINGDOM.HEARTS")
	require.NoError(t, err)

	body := KdcReqBody{
		KdcOptions: KerberosFlags(KdcOptForwardable | KdcOptRenewable | KdcOptCanonicalize | KdcOptRenewableOk),
		CName:      &cname,
		Realm:      realm,
		SName:      &sname,
		Till:       Now(),
		Nonce:      123456,
		EType:      []int32{18, 17, 23},
	}
	paPac := PaPacRequest{IncludePac: true}.Encode()
	req := NewAsReq([]PaData{{PadataType: PaPacRequestID, PadataValue: paPac}}, body)

	data := req.Encode()
	got, consumed, err := DecodeAsReq(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, req.Pvno, got.Pvno)
	assert.Equal(t, req.MsgType, got.MsgType)
	assert.Equal(t, req.ReqBody.Nonce, got.ReqBody.Nonce)
	assert.Equal(t, req.ReqBody.EType, got.ReqBody.EType)
	assert.Equal(t, req.ReqBody.KdcOptions, got.ReqBody.KdcOptions)
	assert.Equal(t, req.ReqBody.Realm, got.ReqBody.Realm)
	require.NotNil(t, got.ReqBody.CName)
	assert.Equal(t, *req.ReqBody.CName, *got.ReqBody.CName)
}

func TestAsRep_RoundTrip(t *testing.T) {
	crealm, _ := NewRealm("KINGDOM.HEARTS")
	cname, _ := NewPrincipalName(NameTypePrincipal, "mickey")
	sname, _ := NewPrincipalName(NameTypeSrvInst, "krbtgt", "KINGDOM.HEARTS")
	tkt := NewTicket(crealm, sname, EncryptedData{Etype: 18, Cipher: []byte{1, 2, 3}})

	rep := AsRep{KdcRep: KdcRep{
		Pvno:    5,
		MsgType: MsgTypeAsRep,
		CRealm:  crealm,
		CName:   cname,
		Ticket:  tkt,
		EncPart: EncryptedData{Etype: 18, Cipher: []byte{4, 5, 6}},
	}}
	data := rep.Encode()
	got, consumed, err := DecodeAsRep(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, rep.CRealm, got.CRealm)
	assert.Equal(t, rep.CName, got.CName)
	assert.Equal(t, rep.EncPart, got.EncPart)
}

func TestEncKdcRepPart_RoundTrip_AndApplicationTagTolerance(t *testing.T) {
	srealm, _ := NewRealm("KINGDOM.HEARTS")
	sname, _ := NewPrincipalName(NameTypeSrvInst, "krbtgt", "KINGDOM.HEARTS")
	part := EncKdcRepPart{
		Key:      EncryptionKey{KeyType: 18, KeyValue: make([]byte, 32)},
		Nonce:    987654,
		Flags:    KerberosFlags(KdcOptForwardable),
		AuthTime: Now(),
		EndTime:  KerberosTime(time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)),
		SRealm:   srealm,
		SName:    sname,
	}
	data := part.EncodeAsRepPart()
	got, consumed, err := DecodeEncKdcRepPart(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, part.Nonce, got.Nonce)
	assert.Equal(t, part.Flags, got.Flags)
	assert.Equal(t, part.SRealm, got.SRealm)

	// Spec §4.2: a tolerant decoder accepts [APPLICATION 26] too.
	body := part.encodeFields()
	tgsTagged := der.WrapApplication(ApplicationTagEncTgsRepPart, der.SequenceTLV(body))
	_, _, err = DecodeEncKdcRepPart(tgsTagged)
	require.NoError(t, err)
}

func TestKrbError_PreauthRequired_RoundTrip(t *testing.T) {
	realm, _ := NewRealm("KINGDOM.HEARTS")
	sname, _ := NewPrincipalName(NameTypeSrvInst, "krbtgt", "KINGDOM.HEARTS")
	entry := EtypeInfo2Entry{Etype: 18, Salt: strPtr("KINGDOM.HEARTSmickey")}
	methodData := []PaData{{PadataType: PaEtypeInfo2, PadataValue: encodeEtypeInfo2ForTest(entry)}}

	kerr := KrbError{
		Pvno:      5,
		MsgType:   MsgTypeError,
		STime:     Now(),
		ErrorCode: KdcErrPreauthRequired,
		Realm:     realm,
		SName:     sname,
		EData:     &EData{MethodData: methodData, isMethod: true},
	}
	data := kerr.Encode()
	got, consumed, err := DecodeKrbError(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, KdcErrPreauthRequired, got.ErrorCode)
	require.NotNil(t, got.EData)
	assert.True(t, got.EData.IsMethodData())

	info, found, err := got.EData.FindEtypeInfo2()
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, info, 1)
	assert.Equal(t, int32(18), info[0].Etype)
	require.NotNil(t, info[0].Salt)
	assert.Equal(t, "KINGDOM.HEARTSmickey", *info[0].Salt)
}

func TestKrbCred_RoundTrip(t *testing.T) {
	realm, _ := NewRealm("KINGDOM.HEARTS")
	sname, _ := NewPrincipalName(NameTypeSrvInst, "krbtgt", "KINGDOM.HEARTS")
	tkt := NewTicket(realm, sname, EncryptedData{Etype: 18, Cipher: []byte{1}})

	key := EncryptionKey{KeyType: 18, KeyValue: make([]byte, 32)}
	info := KrbCredInfo{Key: key, SRealm: &realm, SName: &sname}
	encPart := EncKrbCredPart{TicketInfo: []KrbCredInfo{info}}
	plaintext := encPart.Encode()

	cred := NewKrbCred([]Ticket{tkt}, EncryptedData{Etype: NoEncryption, Cipher: plaintext})
	data := cred.Encode()
	got, consumed, err := DecodeKrbCred(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, cred.Tickets, got.Tickets)
	assert.Equal(t, NoEncryption, got.EncPart.Etype)

	decodedPart, _, err := DecodeEncKrbCredPart(got.EncPart.Cipher)
	require.NoError(t, err)
	require.Len(t, decodedPart.TicketInfo, 1)
	assert.Equal(t, key, decodedPart.TicketInfo[0].Key)
}

func strPtr(s string) *string { return &s }

func encodeEtypeInfo2ForTest(entries ...EtypeInfo2Entry) []byte {
	elems := make([][]byte, 0, len(entries))
	for _, e := range entries {
		elems = append(elems, e.Encode())
	}
	return der.SequenceTLV(elems...)
}
