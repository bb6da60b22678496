package messages

import "github.com/himmelblau-idm/kerbeiros-sub001/internal/der"

// Application tag numbers for the AS-REP enc-part's inner structure; a
// tolerant decoder accepts either (spec §4.2).
const (
	ApplicationTagAsRep         = 11
	ApplicationTagEncAsRepPart  = 25
	ApplicationTagEncTgsRepPart = 26
)

// LastReq is one entry of KDC-REP's last-req sequence.
type LastReq struct {
	LrType  int32
	LrValue KerberosTime
}

func (l LastReq) Encode() []byte {
	return der.SequenceTLV(
		der.WrapContext(0, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(l.LrType))),
		der.WrapContext(1, l.LrValue.encode()),
	)
}

func decodeLastReq(data []byte) (LastReq, int, error) {
	body, consumed, err := der.DecodeSequenceTLV(data)
	if err != nil {
		return LastReq{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return LastReq{}, 0, err
	}
	var l LastReq
	c, ok := der.Lookup(fields, 0)
	if !ok {
		return LastReq{}, 0, der.MissingField("LastReq.lr-type")
	}
	if err := der.DecodeInt32(innerValue(c), &l.LrType); err != nil {
		return LastReq{}, 0, err
	}
	c, ok = der.Lookup(fields, 1)
	if !ok {
		return LastReq{}, 0, der.MissingField("LastReq.lr-value")
	}
	ts, _, err := decodeKerberosTime(c)
	if err != nil {
		return LastReq{}, 0, err
	}
	l.LrValue = ts
	return l, consumed, nil
}

// KdcRep is the KDC-REP shape shared by AS-REP and (unused by this library)
// TGS-REP.
type KdcRep struct {
	Pvno    int32
	MsgType int32
	PaData  []PaData
	CRealm  Realm
	CName   PrincipalName
	Ticket  Ticket
	EncPart EncryptedData
}

func (k KdcRep) encodeFields() []byte {
	var fields []byte
	fields = append(fields, der.WrapContext(0, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(k.Pvno)))...)
	fields = append(fields, der.WrapContext(1, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(k.MsgType)))...)
	if len(k.PaData) > 0 {
		fields = append(fields, der.WrapContext(2, EncodeSequenceOfPaData(k.PaData))...)
	}
	fields = append(fields, der.WrapContext(3, k.CRealm.encode())...)
	fields = append(fields, der.WrapContext(4, k.CName.Encode())...)
	fields = append(fields, der.WrapContext(5, k.Ticket.Encode())...)
	fields = append(fields, der.WrapContext(6, k.EncPart.Encode())...)
	return fields
}

func decodeKdcRep(data []byte) (KdcRep, int, error) {
	body, consumed, err := der.DecodeSequenceTLV(data)
	if err != nil {
		return KdcRep{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return KdcRep{}, 0, err
	}
	var k KdcRep
	c, ok := der.Lookup(fields, 0)
	if !ok {
		return KdcRep{}, 0, der.MissingField("KDC-REP.pvno")
	}
	if err := der.DecodeInt32(innerValue(c), &k.Pvno); err != nil {
		return KdcRep{}, 0, err
	}
	c, ok = der.Lookup(fields, 1)
	if !ok {
		return KdcRep{}, 0, der.MissingField("KDC-REP.msg-type")
	}
	if err := der.DecodeInt32(innerValue(c), &k.MsgType); err != nil {
		return KdcRep{}, 0, err
	}
	if c, ok := der.Lookup(fields, 2); ok {
		pd, _, err := DecodeSequenceOfPaData(c)
		if err != nil {
			return KdcRep{}, 0, err
		}
		k.PaData = pd
	}
	c, ok = der.Lookup(fields, 3)
	if !ok {
		return KdcRep{}, 0, der.MissingField("KDC-REP.crealm")
	}
	realm, _, err := decodeRealm(c)
	if err != nil {
		return KdcRep{}, 0, err
	}
	k.CRealm = realm
	c, ok = der.Lookup(fields, 4)
	if !ok {
		return KdcRep{}, 0, der.MissingField("KDC-REP.cname")
	}
	cname, _, err := DecodePrincipalName(c)
	if err != nil {
		return KdcRep{}, 0, err
	}
	k.CName = cname
	c, ok = der.Lookup(fields, 5)
	if !ok {
		return KdcRep{}, 0, der.MissingField("KDC-REP.ticket")
	}
	tkt, _, err := DecodeTicket(c)
	if err != nil {
		return KdcRep{}, 0, err
	}
	k.Ticket = tkt
	c, ok = der.Lookup(fields, 6)
	if !ok {
		return KdcRep{}, 0, der.MissingField("KDC-REP.enc-part")
	}
	encPart, _, err := DecodeEncryptedData(c)
	if err != nil {
		return KdcRep{}, 0, err
	}
	k.EncPart = encPart
	return k, consumed, nil
}

// AsRep is the KRB_AS_REP message.
type AsRep struct {
	KdcRep
}

// Encode produces the full [APPLICATION 11] wire form.
func (a AsRep) Encode() []byte {
	return der.WrapApplication(ApplicationTagAsRep, der.SequenceTLV(a.KdcRep.encodeFields()))
}

// DecodeAsRep decodes a [APPLICATION 11]-wrapped AS-REP TLV at data[0].
func DecodeAsRep(data []byte) (AsRep, int, error) {
	inner, consumed, err := der.UnwrapApplication(data, ApplicationTagAsRep, "AS-REP")
	if err != nil {
		return AsRep{}, 0, err
	}
	k, _, err := decodeKdcRep(inner)
	if err != nil {
		return AsRep{}, 0, err
	}
	if k.MsgType != MsgTypeAsRep {
		return AsRep{}, 0, der.ConstraintViolation("AS-REP.msg-type")
	}
	return AsRep{KdcRep: k}, consumed, nil
}

// EncKdcRepPart is the cleartext sealed inside KDC-REP.enc-part.
type EncKdcRepPart struct {
	Key           EncryptionKey
	LastReqs      []LastReq
	Nonce         uint32
	KeyExpiration *KerberosTime
	Flags         KerberosFlags
	AuthTime      KerberosTime
	StartTime     *KerberosTime
	EndTime       KerberosTime
	RenewTill     *KerberosTime
	SRealm        Realm
	SName         PrincipalName
	CAddr         []HostAddress
	EncPAData     []PaData
}

func (e EncKdcRepPart) encodeFields() []byte {
	var fields []byte
	fields = append(fields, der.WrapContext(0, e.Key.Encode())...)
	lrElems := make([][]byte, 0, len(e.LastReqs))
	for _, lr := range e.LastReqs {
		lrElems = append(lrElems, lr.Encode())
	}
	fields = append(fields, der.WrapContext(1, der.SequenceTLV(lrElems...))...)
	fields = append(fields, der.WrapContext(2, der.TLV(der.Universal(der.TagInteger), der.EncodeUInt32(e.Nonce)))...)
	if e.KeyExpiration != nil {
		fields = append(fields, der.WrapContext(3, e.KeyExpiration.encode())...)
	}
	fields = append(fields, der.WrapContext(4, e.Flags.encode())...)
	fields = append(fields, der.WrapContext(5, e.AuthTime.encode())...)
	if e.StartTime != nil {
		fields = append(fields, der.WrapContext(6, e.StartTime.encode())...)
	}
	fields = append(fields, der.WrapContext(7, e.EndTime.encode())...)
	if e.RenewTill != nil {
		fields = append(fields, der.WrapContext(8, e.RenewTill.encode())...)
	}
	fields = append(fields, der.WrapContext(9, e.SRealm.encode())...)
	fields = append(fields, der.WrapContext(10, e.SName.Encode())...)
	if len(e.CAddr) > 0 {
		addrElems := make([][]byte, 0, len(e.CAddr))
		for _, a := range e.CAddr {
			addrElems = append(addrElems, a.Encode())
		}
		fields = append(fields, der.WrapContext(11, der.SequenceTLV(addrElems...))...)
	}
	if len(e.EncPAData) > 0 {
		fields = append(fields, der.WrapContext(12, EncodeSequenceOfPaData(e.EncPAData))...)
	}
	return fields
}

// EncodeAsRepPart wraps the body as [APPLICATION 25] EncASRepPart, the form
// this library always emits.
func (e EncKdcRepPart) EncodeAsRepPart() []byte {
	return der.WrapApplication(ApplicationTagEncAsRepPart, der.SequenceTLV(e.encodeFields()))
}

// DecodeEncKdcRepPart decodes an EncKdcRepPart at data[0], tolerantly
// accepting either [APPLICATION 25] or [APPLICATION 26] (spec §4.2: some
// KDCs emit the TGS tag number for an AS-REP enc-part).
func DecodeEncKdcRepPart(data []byte) (EncKdcRepPart, int, error) {
	number, inner, consumed, err := der.UnwrapApplicationAny(data)
	if err != nil {
		return EncKdcRepPart{}, 0, err
	}
	if number != ApplicationTagEncAsRepPart && number != ApplicationTagEncTgsRepPart {
		return EncKdcRepPart{}, 0, der.UnexpectedTag("EncKdcRepPart")
	}
	body, _, err := der.DecodeSequenceTLV(inner)
	if err != nil {
		return EncKdcRepPart{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return EncKdcRepPart{}, 0, err
	}
	var e EncKdcRepPart
	c, ok := der.Lookup(fields, 0)
	if !ok {
		return EncKdcRepPart{}, 0, der.MissingField("EncKdcRepPart.key")
	}
	key, _, err := DecodeEncryptionKey(c)
	if err != nil {
		return EncKdcRepPart{}, 0, err
	}
	e.Key = key
	if c, ok := der.Lookup(fields, 1); ok {
		lrBody, _, err := der.DecodeSequenceTLV(c)
		if err != nil {
			return EncKdcRepPart{}, 0, err
		}
		for len(lrBody) > 0 {
			lr, n, err := decodeLastReq(lrBody)
			if err != nil {
				return EncKdcRepPart{}, 0, err
			}
			e.LastReqs = append(e.LastReqs, lr)
			lrBody = lrBody[n:]
		}
	}
	c, ok = der.Lookup(fields, 2)
	if !ok {
		return EncKdcRepPart{}, 0, der.MissingField("EncKdcRepPart.nonce")
	}
	if err := der.DecodeUInt32(innerValue(c), &e.Nonce); err != nil {
		return EncKdcRepPart{}, 0, err
	}
	if c, ok := der.Lookup(fields, 3); ok {
		ts, _, err := decodeKerberosTime(c)
		if err != nil {
			return EncKdcRepPart{}, 0, err
		}
		e.KeyExpiration = &ts
	}
	c, ok = der.Lookup(fields, 4)
	if !ok {
		return EncKdcRepPart{}, 0, der.MissingField("EncKdcRepPart.flags")
	}
	flags, _, err := decodeKerberosFlags(c)
	if err != nil {
		return EncKdcRepPart{}, 0, err
	}
	e.Flags = flags
	c, ok = der.Lookup(fields, 5)
	if !ok {
		return EncKdcRepPart{}, 0, der.MissingField("EncKdcRepPart.authtime")
	}
	authTime, _, err := decodeKerberosTime(c)
	if err != nil {
		return EncKdcRepPart{}, 0, err
	}
	e.AuthTime = authTime
	if c, ok := der.Lookup(fields, 6); ok {
		ts, _, err := decodeKerberosTime(c)
		if err != nil {
			return EncKdcRepPart{}, 0, err
		}
		e.StartTime = &ts
	}
	c, ok = der.Lookup(fields, 7)
	if !ok {
		return EncKdcRepPart{}, 0, der.MissingField("EncKdcRepPart.endtime")
	}
	endTime, _, err := decodeKerberosTime(c)
	if err != nil {
		return EncKdcRepPart{}, 0, err
	}
	e.EndTime = endTime
	if c, ok := der.Lookup(fields, 8); ok {
		ts, _, err := decodeKerberosTime(c)
		if err != nil {
			return EncKdcRepPart{}, 0, err
		}
		e.RenewTill = &ts
	}
	c, ok = der.Lookup(fields, 9)
	if !ok {
		return EncKdcRepPart{}, 0, der.MissingField("EncKdcRepPart.srealm")
	}
	srealm, _, err := decodeRealm(c)
	if err != nil {
		return EncKdcRepPart{}, 0, err
	}
	e.SRealm = srealm
	c, ok = der.Lookup(fields, 10)
	if !ok {
		return EncKdcRepPart{}, 0, der.MissingField("EncKdcRepPart.sname")
	}
	sname, _, err := DecodePrincipalName(c)
	if err != nil {
		return EncKdcRepPart{}, 0, err
	}
	e.SName = sname
	if c, ok := der.Lookup(fields, 11); ok {
		addrBody, _, err := der.DecodeSequenceTLV(c)
		if err != nil {
			return EncKdcRepPart{}, 0, err
		}
		for len(addrBody) > 0 {
			a, n, err := decodeHostAddress(addrBody)
			if err != nil {
				return EncKdcRepPart{}, 0, err
			}
			e.CAddr = append(e.CAddr, a)
			addrBody = addrBody[n:]
		}
	}
	if c, ok := der.Lookup(fields, 12); ok {
		pd, _, err := DecodeSequenceOfPaData(c)
		if err != nil {
			return EncKdcRepPart{}, 0, err
		}
		e.EncPAData = pd
	}
	return e, consumed, nil
}
