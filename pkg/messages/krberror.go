package messages

import "github.com/himmelblau-idm/kerbeiros-sub001/internal/der"

// ApplicationTagKrbError is KRB-ERROR's [APPLICATION 30] wrapper number.
const ApplicationTagKrbError = 30

// KDC error codes this library's state machine recognizes (RFC 4120 §7.5.9);
// others are surfaced verbatim via KrbError.
const (
	KdcErrPreauthRequired int32 = 25
)

// EData is KRB-ERROR's optional e-data, a closed sum type (spec §9): either
// raw opaque bytes, or, when the KDC is signaling pre-auth requirements,
// parsed METHOD-DATA (SEQUENCE OF PA-DATA).
type EData struct {
	Raw        []byte
	MethodData []PaData
	isMethod   bool
}

// RawEData wraps opaque e-data bytes.
func RawEData(b []byte) EData { return EData{Raw: b} }

// MethodDataEData wraps parsed METHOD-DATA.
func MethodDataEData(pd []PaData) EData { return EData{MethodData: pd, isMethod: true} }

// IsMethodData reports whether this e-data successfully parsed as METHOD-DATA.
func (e EData) IsMethodData() bool { return e.isMethod }

// ParseEData attempts to interpret raw e-data bytes as METHOD-DATA,
// returning a raw-only EData if that fails (the bytes are opaque to the
// library in that case, not an error: KRB-ERROR.e-data's shape outside the
// PREAUTH_REQUIRED path is KDC-implementation-defined).
func ParseEData(raw []byte) EData {
	pd, _, err := DecodeSequenceOfPaData(raw)
	if err != nil {
		return RawEData(raw)
	}
	return MethodDataEData(pd)
}

// FindEtypeInfo2 scans METHOD-DATA for a PA-ETYPE-INFO2 entry and decodes
// its payload.
func (e EData) FindEtypeInfo2() ([]EtypeInfo2Entry, bool, error) {
	if !e.isMethod {
		return nil, false, nil
	}
	for _, pa := range e.MethodData {
		if pa.PadataType == PaEtypeInfo2 {
			info, _, err := DecodeEtypeInfo2(pa.PadataValue)
			if err != nil {
				return nil, false, err
			}
			return info, true, nil
		}
	}
	return nil, false, nil
}

// KrbError is the KRB_ERROR message.
type KrbError struct {
	Pvno      int32
	MsgType   int32
	CTime     *KerberosTime
	Cusec     *Microseconds
	STime     KerberosTime
	Susec     Microseconds
	ErrorCode int32
	CRealm    *Realm
	CName     *PrincipalName
	Realm     Realm
	SName     PrincipalName
	EText     *string
	EData     *EData
}

// Encode produces the full [APPLICATION 30] wire form.
func (k KrbError) Encode() []byte {
	var fields []byte
	fields = append(fields, der.WrapContext(0, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(k.Pvno)))...)
	fields = append(fields, der.WrapContext(1, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(k.MsgType)))...)
	if k.CTime != nil {
		fields = append(fields, der.WrapContext(2, k.CTime.encode())...)
	}
	if k.Cusec != nil {
		fields = append(fields, der.WrapContext(3, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(int32(*k.Cusec))))...)
	}
	fields = append(fields, der.WrapContext(4, k.STime.encode())...)
	fields = append(fields, der.WrapContext(5, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(int32(k.Susec))))...)
	fields = append(fields, der.WrapContext(6, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(k.ErrorCode)))...)
	if k.CRealm != nil {
		fields = append(fields, der.WrapContext(7, k.CRealm.encode())...)
	}
	if k.CName != nil {
		fields = append(fields, der.WrapContext(8, k.CName.Encode())...)
	}
	fields = append(fields, der.WrapContext(9, k.Realm.encode())...)
	fields = append(fields, der.WrapContext(10, k.SName.Encode())...)
	if k.EText != nil {
		ks, _ := NewKerberosString(*k.EText)
		fields = append(fields, der.WrapContext(11, ks.encode())...)
	}
	if k.EData != nil {
		var raw []byte
		if k.EData.isMethod {
			raw = EncodeSequenceOfPaData(k.EData.MethodData)
		} else {
			raw = k.EData.Raw
		}
		fields = append(fields, der.WrapContext(12, der.EncodeOctetString(raw))...)
	}
	body := der.SequenceTLV(fields)
	return der.WrapApplication(ApplicationTagKrbError, body)
}

// DecodeKrbError decodes a [APPLICATION 30]-wrapped KRB-ERROR TLV at data[0].
func DecodeKrbError(data []byte) (KrbError, int, error) {
	inner, consumed, err := der.UnwrapApplication(data, ApplicationTagKrbError, "KRB-ERROR")
	if err != nil {
		return KrbError{}, 0, err
	}
	body, _, err := der.DecodeSequenceTLV(inner)
	if err != nil {
		return KrbError{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return KrbError{}, 0, err
	}
	var k KrbError
	c, ok := der.Lookup(fields, 0)
	if !ok {
		return KrbError{}, 0, der.MissingField("KRB-ERROR.pvno")
	}
	if err := der.DecodeInt32(innerValue(c), &k.Pvno); err != nil {
		return KrbError{}, 0, err
	}
	c, ok = der.Lookup(fields, 1)
	if !ok {
		return KrbError{}, 0, der.MissingField("KRB-ERROR.msg-type")
	}
	if err := der.DecodeInt32(innerValue(c), &k.MsgType); err != nil {
		return KrbError{}, 0, err
	}
	if c, ok := der.Lookup(fields, 2); ok {
		ts, _, err := decodeKerberosTime(c)
		if err != nil {
			return KrbError{}, 0, err
		}
		k.CTime = &ts
	}
	if c, ok := der.Lookup(fields, 3); ok {
		var usec int32
		if err := der.DecodeInt32(innerValue(c), &usec); err != nil {
			return KrbError{}, 0, err
		}
		m, err := NewMicroseconds(usec)
		if err != nil {
			return KrbError{}, 0, err
		}
		k.Cusec = &m
	}
	c, ok = der.Lookup(fields, 4)
	if !ok {
		return KrbError{}, 0, der.MissingField("KRB-ERROR.stime")
	}
	stime, _, err := decodeKerberosTime(c)
	if err != nil {
		return KrbError{}, 0, err
	}
	k.STime = stime
	c, ok = der.Lookup(fields, 5)
	if !ok {
		return KrbError{}, 0, der.MissingField("KRB-ERROR.susec")
	}
	var susec int32
	if err := der.DecodeInt32(innerValue(c), &susec); err != nil {
		return KrbError{}, 0, err
	}
	m, err := NewMicroseconds(susec)
	if err != nil {
		return KrbError{}, 0, err
	}
	k.Susec = m
	c, ok = der.Lookup(fields, 6)
	if !ok {
		return KrbError{}, 0, der.MissingField("KRB-ERROR.error-code")
	}
	if err := der.DecodeInt32(innerValue(c), &k.ErrorCode); err != nil {
		return KrbError{}, 0, err
	}
	if c, ok := der.Lookup(fields, 7); ok {
		r, _, err := decodeRealm(c)
		if err != nil {
			return KrbError{}, 0, err
		}
		k.CRealm = &r
	}
	if c, ok := der.Lookup(fields, 8); ok {
		cn, _, err := DecodePrincipalName(c)
		if err != nil {
			return KrbError{}, 0, err
		}
		k.CName = &cn
	}
	c, ok = der.Lookup(fields, 9)
	if !ok {
		return KrbError{}, 0, der.MissingField("KRB-ERROR.realm")
	}
	realm, _, err := decodeRealm(c)
	if err != nil {
		return KrbError{}, 0, err
	}
	k.Realm = realm
	c, ok = der.Lookup(fields, 10)
	if !ok {
		return KrbError{}, 0, der.MissingField("KRB-ERROR.sname")
	}
	sname, _, err := DecodePrincipalName(c)
	if err != nil {
		return KrbError{}, 0, err
	}
	k.SName = sname
	if c, ok := der.Lookup(fields, 11); ok {
		s, _, err := decodeKerberosString(c)
		if err != nil {
			return KrbError{}, 0, err
		}
		etext := string(s)
		k.EText = &etext
	}
	if c, ok := der.Lookup(fields, 12); ok {
		raw, _, err := der.DecodeOctetString(c)
		if err != nil {
			return KrbError{}, 0, err
		}
		ed := ParseEData(raw)
		k.EData = &ed
	}
	return k, consumed, nil
}
