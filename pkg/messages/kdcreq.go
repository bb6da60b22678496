package messages

import "github.com/himmelblau-idm/kerbeiros-sub001/internal/der"

// Message types (RFC 4120 §5.10).
const (
	MsgTypeAsReq  int32 = 10
	MsgTypeAsRep  int32 = 11
	MsgTypeTgsReq int32 = 12
	MsgTypeTgsRep int32 = 13
	MsgTypeError  int32 = 30
)

// KDC-options bit positions, MSB-first (spec §6).
const (
	KdcOptForwardable  uint32 = 0x40000000
	KdcOptRenewable    uint32 = 0x00800000
	KdcOptCanonicalize uint32 = 0x00010000
	KdcOptRenewableOk  uint32 = 0x00000010
)

// ApplicationTagAsReq is AS-REQ's [APPLICATION 10] wrapper number.
const ApplicationTagAsReq = 10

// KdcReqBody is KDC-REQ-BODY, shared by AS-REQ and (unused by this library)
// TGS-REQ.
type KdcReqBody struct {
	KdcOptions        KerberosFlags
	CName             *PrincipalName
	Realm             Realm
	SName             *PrincipalName
	From              *KerberosTime
	Till              KerberosTime
	RTime             *KerberosTime
	Nonce             uint32
	EType             []int32
	Addresses         []HostAddress
	EncAuthData       *EncryptedData
	AdditionalTickets []Ticket
}

// Encode produces the KDC-REQ-BODY SEQUENCE body.
func (b KdcReqBody) Encode() []byte {
	var fields []byte
	fields = append(fields, der.WrapContext(0, b.KdcOptions.encode())...)
	if b.CName != nil {
		fields = append(fields, der.WrapContext(1, b.CName.Encode())...)
	}
	fields = append(fields, der.WrapContext(2, b.Realm.encode())...)
	if b.SName != nil {
		fields = append(fields, der.WrapContext(3, b.SName.Encode())...)
	}
	if b.From != nil {
		fields = append(fields, der.WrapContext(4, b.From.encode())...)
	}
	fields = append(fields, der.WrapContext(5, b.Till.encode())...)
	if b.RTime != nil {
		fields = append(fields, der.WrapContext(6, b.RTime.encode())...)
	}
	fields = append(fields, der.WrapContext(7, der.TLV(der.Universal(der.TagInteger), der.EncodeUInt32(b.Nonce)))...)
	etypeElems := make([][]byte, 0, len(b.EType))
	for _, e := range b.EType {
		etypeElems = append(etypeElems, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(e)))
	}
	fields = append(fields, der.WrapContext(8, der.SequenceTLV(etypeElems...))...)
	if len(b.Addresses) > 0 {
		addrElems := make([][]byte, 0, len(b.Addresses))
		for _, a := range b.Addresses {
			addrElems = append(addrElems, a.Encode())
		}
		fields = append(fields, der.WrapContext(9, der.SequenceTLV(addrElems...))...)
	}
	if b.EncAuthData != nil {
		fields = append(fields, der.WrapContext(10, b.EncAuthData.Encode())...)
	}
	if len(b.AdditionalTickets) > 0 {
		fields = append(fields, der.WrapContext(11, EncodeSequenceOfTickets(b.AdditionalTickets))...)
	}
	return der.SequenceTLV(fields)
}

// DecodeKdcReqBody decodes a KDC-REQ-BODY SEQUENCE TLV at data[0].
func DecodeKdcReqBody(data []byte) (KdcReqBody, int, error) {
	body, consumed, err := der.DecodeSequenceTLV(data)
	if err != nil {
		return KdcReqBody{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return KdcReqBody{}, 0, err
	}
	var b KdcReqBody
	c, ok := der.Lookup(fields, 0)
	if !ok {
		return KdcReqBody{}, 0, der.MissingField("KDC-REQ-BODY.kdc-options")
	}
	opts, _, err := decodeKerberosFlags(c)
	if err != nil {
		return KdcReqBody{}, 0, err
	}
	b.KdcOptions = opts
	if c, ok := der.Lookup(fields, 1); ok {
		cn, _, err := DecodePrincipalName(c)
		if err != nil {
			return KdcReqBody{}, 0, err
		}
		b.CName = &cn
	}
	c, ok = der.Lookup(fields, 2)
	if !ok {
		return KdcReqBody{}, 0, der.MissingField("KDC-REQ-BODY.realm")
	}
	realm, _, err := decodeRealm(c)
	if err != nil {
		return KdcReqBody{}, 0, err
	}
	b.Realm = realm
	if c, ok := der.Lookup(fields, 3); ok {
		sn, _, err := DecodePrincipalName(c)
		if err != nil {
			return KdcReqBody{}, 0, err
		}
		b.SName = &sn
	}
	if c, ok := der.Lookup(fields, 4); ok {
		ts, _, err := decodeKerberosTime(c)
		if err != nil {
			return KdcReqBody{}, 0, err
		}
		b.From = &ts
	}
	c, ok = der.Lookup(fields, 5)
	if !ok {
		return KdcReqBody{}, 0, der.MissingField("KDC-REQ-BODY.till")
	}
	till, _, err := decodeKerberosTime(c)
	if err != nil {
		return KdcReqBody{}, 0, err
	}
	b.Till = till
	if c, ok := der.Lookup(fields, 6); ok {
		ts, _, err := decodeKerberosTime(c)
		if err != nil {
			return KdcReqBody{}, 0, err
		}
		b.RTime = &ts
	}
	c, ok = der.Lookup(fields, 7)
	if !ok {
		return KdcReqBody{}, 0, der.MissingField("KDC-REQ-BODY.nonce")
	}
	if err := der.DecodeUInt32(innerValue(c), &b.Nonce); err != nil {
		return KdcReqBody{}, 0, err
	}
	c, ok = der.Lookup(fields, 8)
	if !ok {
		return KdcReqBody{}, 0, der.MissingField("KDC-REQ-BODY.etype")
	}
	etypeBody, _, err := der.DecodeSequenceTLV(c)
	if err != nil {
		return KdcReqBody{}, 0, err
	}
	for len(etypeBody) > 0 {
		tag, content, n, err := der.ReadTLV(etypeBody)
		if err != nil {
			return KdcReqBody{}, 0, err
		}
		if tag != der.Universal(der.TagInteger) {
			return KdcReqBody{}, 0, der.UnexpectedTag("KDC-REQ-BODY.etype[]")
		}
		var e int32
		if err := der.DecodeInt32(content, &e); err != nil {
			return KdcReqBody{}, 0, err
		}
		b.EType = append(b.EType, e)
		etypeBody = etypeBody[n:]
	}
	if c, ok := der.Lookup(fields, 9); ok {
		addrBody, _, err := der.DecodeSequenceTLV(c)
		if err != nil {
			return KdcReqBody{}, 0, err
		}
		for len(addrBody) > 0 {
			a, n, err := decodeHostAddress(addrBody)
			if err != nil {
				return KdcReqBody{}, 0, err
			}
			b.Addresses = append(b.Addresses, a)
			addrBody = addrBody[n:]
		}
	}
	if c, ok := der.Lookup(fields, 10); ok {
		ead, _, err := DecodeEncryptedData(c)
		if err != nil {
			return KdcReqBody{}, 0, err
		}
		b.EncAuthData = &ead
	}
	if c, ok := der.Lookup(fields, 11); ok {
		tkts, _, err := DecodeSequenceOfTickets(c)
		if err != nil {
			return KdcReqBody{}, 0, err
		}
		b.AdditionalTickets = tkts
	}
	return b, consumed, nil
}

// AsReq is the KRB_AS_REQ message.
type AsReq struct {
	Pvno    int32
	MsgType int32
	PaData  []PaData
	ReqBody KdcReqBody
}

// NewAsReq builds an AS-REQ with pvno=5, msg-type=10.
func NewAsReq(paData []PaData, body KdcReqBody) AsReq {
	return AsReq{Pvno: 5, MsgType: MsgTypeAsReq, PaData: paData, ReqBody: body}
}

// Encode produces the full [APPLICATION 10] wire form.
func (a AsReq) Encode() []byte {
	var fields []byte
	fields = append(fields, der.WrapContext(1, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(a.Pvno)))...)
	fields = append(fields, der.WrapContext(2, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(a.MsgType)))...)
	if len(a.PaData) > 0 {
		fields = append(fields, der.WrapContext(3, EncodeSequenceOfPaData(a.PaData))...)
	}
	fields = append(fields, der.WrapContext(4, a.ReqBody.Encode())...)
	body := der.SequenceTLV(fields)
	return der.WrapApplication(ApplicationTagAsReq, body)
}

// DecodeAsReq decodes a [APPLICATION 10]-wrapped AS-REQ TLV at data[0].
func DecodeAsReq(data []byte) (AsReq, int, error) {
	inner, consumed, err := der.UnwrapApplication(data, ApplicationTagAsReq, "AS-REQ")
	if err != nil {
		return AsReq{}, 0, err
	}
	body, _, err := der.DecodeSequenceTLV(inner)
	if err != nil {
		return AsReq{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return AsReq{}, 0, err
	}
	var a AsReq
	c, ok := der.Lookup(fields, 1)
	if !ok {
		return AsReq{}, 0, der.MissingField("AS-REQ.pvno")
	}
	if err := der.DecodeInt32(innerValue(c), &a.Pvno); err != nil {
		return AsReq{}, 0, err
	}
	c, ok = der.Lookup(fields, 2)
	if !ok {
		return AsReq{}, 0, der.MissingField("AS-REQ.msg-type")
	}
	if err := der.DecodeInt32(innerValue(c), &a.MsgType); err != nil {
		return AsReq{}, 0, err
	}
	if a.MsgType != MsgTypeAsReq {
		return AsReq{}, 0, der.ConstraintViolation("AS-REQ.msg-type")
	}
	if c, ok := der.Lookup(fields, 3); ok {
		pd, _, err := DecodeSequenceOfPaData(c)
		if err != nil {
			return AsReq{}, 0, err
		}
		a.PaData = pd
	}
	c, ok = der.Lookup(fields, 4)
	if !ok {
		return AsReq{}, 0, der.MissingField("AS-REQ.req-body")
	}
	reqBody, _, err := DecodeKdcReqBody(c)
	if err != nil {
		return AsReq{}, 0, err
	}
	a.ReqBody = reqBody
	return a, consumed, nil
}
