package messages

import "github.com/himmelblau-idm/kerbeiros-sub001/internal/der"

// Application tag numbers for KRB-CRED and its encrypted part.
const (
	ApplicationTagKrbCred        = 22
	ApplicationTagEncKrbCredPart = 29
	MsgTypeKrbCred         int32 = 22
)

// KrbCred is the KRB_CRED message used to transfer credentials between
// principals, and (per this library's usage) as the Windows persisted
// credential file format.
type KrbCred struct {
	Pvno    int32
	MsgType int32
	Tickets []Ticket
	EncPart EncryptedData
}

// NewKrbCred builds a KRB-CRED with pvno=5, msg-type=22.
func NewKrbCred(tickets []Ticket, encPart EncryptedData) KrbCred {
	return KrbCred{Pvno: 5, MsgType: MsgTypeKrbCred, Tickets: tickets, EncPart: encPart}
}

// Encode produces the full [APPLICATION 22] wire form.
func (k KrbCred) Encode() []byte {
	fields := der.WrapContext(0, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(k.Pvno)))
	fields = append(fields, der.WrapContext(1, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(k.MsgType)))...)
	fields = append(fields, der.WrapContext(2, EncodeSequenceOfTickets(k.Tickets))...)
	fields = append(fields, der.WrapContext(3, k.EncPart.Encode())...)
	body := der.SequenceTLV(fields)
	return der.WrapApplication(ApplicationTagKrbCred, body)
}

// DecodeKrbCred decodes a [APPLICATION 22]-wrapped KRB-CRED TLV at data[0].
func DecodeKrbCred(data []byte) (KrbCred, int, error) {
	inner, consumed, err := der.UnwrapApplication(data, ApplicationTagKrbCred, "KRB-CRED")
	if err != nil {
		return KrbCred{}, 0, err
	}
	body, _, err := der.DecodeSequenceTLV(inner)
	if err != nil {
		return KrbCred{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return KrbCred{}, 0, err
	}
	var k KrbCred
	c, ok := der.Lookup(fields, 0)
	if !ok {
		return KrbCred{}, 0, der.MissingField("KRB-CRED.pvno")
	}
	if err := der.DecodeInt32(innerValue(c), &k.Pvno); err != nil {
		return KrbCred{}, 0, err
	}
	c, ok = der.Lookup(fields, 1)
	if !ok {
		return KrbCred{}, 0, der.MissingField("KRB-CRED.msg-type")
	}
	if err := der.DecodeInt32(innerValue(c), &k.MsgType); err != nil {
		return KrbCred{}, 0, err
	}
	c, ok = der.Lookup(fields, 2)
	if !ok {
		return KrbCred{}, 0, der.MissingField("KRB-CRED.tickets")
	}
	tkts, _, err := DecodeSequenceOfTickets(c)
	if err != nil {
		return KrbCred{}, 0, err
	}
	k.Tickets = tkts
	c, ok = der.Lookup(fields, 3)
	if !ok {
		return KrbCred{}, 0, der.MissingField("KRB-CRED.enc-part")
	}
	encPart, _, err := DecodeEncryptedData(c)
	if err != nil {
		return KrbCred{}, 0, err
	}
	k.EncPart = encPart
	return k, consumed, nil
}

// KrbCredInfo is one entry of EncKrbCredPart.ticket-info, carrying the
// session key and metadata for the correspondingly-indexed ticket.
type KrbCredInfo struct {
	Key       EncryptionKey
	PRealm    *Realm
	PName     *PrincipalName
	Flags     *KerberosFlags
	AuthTime  *KerberosTime
	StartTime *KerberosTime
	EndTime   *KerberosTime
	RenewTill *KerberosTime
	SRealm    *Realm
	SName     *PrincipalName
	CAddr     []HostAddress
}

func (k KrbCredInfo) Encode() []byte {
	fields := der.WrapContext(0, k.Key.Encode())
	if k.PRealm != nil {
		fields = append(fields, der.WrapContext(1, k.PRealm.encode())...)
	}
	if k.PName != nil {
		fields = append(fields, der.WrapContext(2, k.PName.Encode())...)
	}
	if k.Flags != nil {
		fields = append(fields, der.WrapContext(3, k.Flags.encode())...)
	}
	if k.AuthTime != nil {
		fields = append(fields, der.WrapContext(4, k.AuthTime.encode())...)
	}
	if k.StartTime != nil {
		fields = append(fields, der.WrapContext(5, k.StartTime.encode())...)
	}
	if k.EndTime != nil {
		fields = append(fields, der.WrapContext(6, k.EndTime.encode())...)
	}
	if k.RenewTill != nil {
		fields = append(fields, der.WrapContext(7, k.RenewTill.encode())...)
	}
	if k.SRealm != nil {
		fields = append(fields, der.WrapContext(8, k.SRealm.encode())...)
	}
	if k.SName != nil {
		fields = append(fields, der.WrapContext(9, k.SName.Encode())...)
	}
	if len(k.CAddr) > 0 {
		addrElems := make([][]byte, 0, len(k.CAddr))
		for _, a := range k.CAddr {
			addrElems = append(addrElems, a.Encode())
		}
		fields = append(fields, der.WrapContext(10, der.SequenceTLV(addrElems...))...)
	}
	return der.SequenceTLV(fields)
}

func decodeKrbCredInfo(data []byte) (KrbCredInfo, int, error) {
	body, consumed, err := der.DecodeSequenceTLV(data)
	if err != nil {
		return KrbCredInfo{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return KrbCredInfo{}, 0, err
	}
	var k KrbCredInfo
	c, ok := der.Lookup(fields, 0)
	if !ok {
		return KrbCredInfo{}, 0, der.MissingField("KrbCredInfo.key")
	}
	key, _, err := DecodeEncryptionKey(c)
	if err != nil {
		return KrbCredInfo{}, 0, err
	}
	k.Key = key
	if c, ok := der.Lookup(fields, 1); ok {
		r, _, err := decodeRealm(c)
		if err != nil {
			return KrbCredInfo{}, 0, err
		}
		k.PRealm = &r
	}
	if c, ok := der.Lookup(fields, 2); ok {
		pn, _, err := DecodePrincipalName(c)
		if err != nil {
			return KrbCredInfo{}, 0, err
		}
		k.PName = &pn
	}
	if c, ok := der.Lookup(fields, 3); ok {
		f, _, err := decodeKerberosFlags(c)
		if err != nil {
			return KrbCredInfo{}, 0, err
		}
		k.Flags = &f
	}
	if c, ok := der.Lookup(fields, 4); ok {
		ts, _, err := decodeKerberosTime(c)
		if err != nil {
			return KrbCredInfo{}, 0, err
		}
		k.AuthTime = &ts
	}
	if c, ok := der.Lookup(fields, 5); ok {
		ts, _, err := decodeKerberosTime(c)
		if err != nil {
			return KrbCredInfo{}, 0, err
		}
		k.StartTime = &ts
	}
	if c, ok := der.Lookup(fields, 6); ok {
		ts, _, err := decodeKerberosTime(c)
		if err != nil {
			return KrbCredInfo{}, 0, err
		}
		k.EndTime = &ts
	}
	if c, ok := der.Lookup(fields, 7); ok {
		ts, _, err := decodeKerberosTime(c)
		if err != nil {
			return KrbCredInfo{}, 0, err
		}
		k.RenewTill = &ts
	}
	if c, ok := der.Lookup(fields, 8); ok {
		r, _, err := decodeRealm(c)
		if err != nil {
			return KrbCredInfo{}, 0, err
		}
		k.SRealm = &r
	}
	if c, ok := der.Lookup(fields, 9); ok {
		sn, _, err := DecodePrincipalName(c)
		if err != nil {
			return KrbCredInfo{}, 0, err
		}
		k.SName = &sn
	}
	if c, ok := der.Lookup(fields, 10); ok {
		addrBody, _, err := der.DecodeSequenceTLV(c)
		if err != nil {
			return KrbCredInfo{}, 0, err
		}
		for len(addrBody) > 0 {
			a, n, err := decodeHostAddress(addrBody)
			if err != nil {
				return KrbCredInfo{}, 0, err
			}
			k.CAddr = append(k.CAddr, a)
			addrBody = addrBody[n:]
		}
	}
	return k, consumed, nil
}

// EncKrbCredPart is the cleartext sealed inside KRB-CRED.enc-part (or, per
// this library's client-side persistence convention, carried in the clear
// with EncryptedData.Etype == NoEncryption).
type EncKrbCredPart struct {
	TicketInfo []KrbCredInfo
	Nonce      *uint32
	Timestamp  *KerberosTime
	Usec       *Microseconds
	SAddress   *HostAddress
	RAddress   *HostAddress
}

// Encode produces the full [APPLICATION 29] wire form.
func (e EncKrbCredPart) Encode() []byte {
	infoElems := make([][]byte, 0, len(e.TicketInfo))
	for _, ti := range e.TicketInfo {
		infoElems = append(infoElems, ti.Encode())
	}
	fields := der.WrapContext(0, der.SequenceTLV(infoElems...))
	if e.Nonce != nil {
		fields = append(fields, der.WrapContext(1, der.TLV(der.Universal(der.TagInteger), der.EncodeUInt32(*e.Nonce)))...)
	}
	if e.Timestamp != nil {
		fields = append(fields, der.WrapContext(2, e.Timestamp.encode())...)
	}
	if e.Usec != nil {
		fields = append(fields, der.WrapContext(3, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(int32(*e.Usec))))...)
	}
	if e.SAddress != nil {
		fields = append(fields, der.WrapContext(4, e.SAddress.Encode())...)
	}
	if e.RAddress != nil {
		fields = append(fields, der.WrapContext(5, e.RAddress.Encode())...)
	}
	body := der.SequenceTLV(fields)
	return der.WrapApplication(ApplicationTagEncKrbCredPart, body)
}

// DecodeEncKrbCredPart decodes a [APPLICATION 29]-wrapped EncKrbCredPart TLV
// at data[0].
func DecodeEncKrbCredPart(data []byte) (EncKrbCredPart, int, error) {
	inner, consumed, err := der.UnwrapApplication(data, ApplicationTagEncKrbCredPart, "EncKrbCredPart")
	if err != nil {
		return EncKrbCredPart{}, 0, err
	}
	body, _, err := der.DecodeSequenceTLV(inner)
	if err != nil {
		return EncKrbCredPart{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return EncKrbCredPart{}, 0, err
	}
	var e EncKrbCredPart
	c, ok := der.Lookup(fields, 0)
	if !ok {
		return EncKrbCredPart{}, 0, der.MissingField("EncKrbCredPart.ticket-info")
	}
	infoBody, _, err := der.DecodeSequenceTLV(c)
	if err != nil {
		return EncKrbCredPart{}, 0, err
	}
	for len(infoBody) > 0 {
		ti, n, err := decodeKrbCredInfo(infoBody)
		if err != nil {
			return EncKrbCredPart{}, 0, err
		}
		e.TicketInfo = append(e.TicketInfo, ti)
		infoBody = infoBody[n:]
	}
	if c, ok := der.Lookup(fields, 1); ok {
		var nonce uint32
		if err := der.DecodeUInt32(innerValue(c), &nonce); err != nil {
			return EncKrbCredPart{}, 0, err
		}
		e.Nonce = &nonce
	}
	if c, ok := der.Lookup(fields, 2); ok {
		ts, _, err := decodeKerberosTime(c)
		if err != nil {
			return EncKrbCredPart{}, 0, err
		}
		e.Timestamp = &ts
	}
	if c, ok := der.Lookup(fields, 3); ok {
		var usec int32
		if err := der.DecodeInt32(innerValue(c), &usec); err != nil {
			return EncKrbCredPart{}, 0, err
		}
		m, err := NewMicroseconds(usec)
		if err != nil {
			return EncKrbCredPart{}, 0, err
		}
		e.Usec = &m
	}
	if c, ok := der.Lookup(fields, 4); ok {
		a, _, err := decodeHostAddress(c)
		if err != nil {
			return EncKrbCredPart{}, 0, err
		}
		e.SAddress = &a
	}
	if c, ok := der.Lookup(fields, 5); ok {
		a, _, err := decodeHostAddress(c)
		if err != nil {
			return EncKrbCredPart{}, 0, err
		}
		e.RAddress = &a
	}
	return e, consumed, nil
}
