package messages

import (
	"github.com/himmelblau-idm/kerbeiros-sub001/internal/der"
)

// PA-DATA type numbers (subset this library handles; spec §6).
const (
	PaTgsReq       int32 = 1
	PaEncTimestamp int32 = 2
	PaEtypeInfo    int32 = 11
	PaEtypeInfo2   int32 = 19
	PaPacRequestID int32 = 128
	PaPacOptions   int32 = 167
)

// PaData is {padata-type, padata-value}; padata-value is itself DER of a
// type selected by padata-type.
type PaData struct {
	PadataType  int32
	PadataValue []byte
}

func (p PaData) Encode() []byte {
	return der.SequenceTLV(
		der.WrapContext(1, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(p.PadataType))),
		der.WrapContext(2, der.EncodeOctetString(p.PadataValue)),
	)
}

func decodePaData(data []byte) (PaData, int, error) {
	body, consumed, err := der.DecodeSequenceTLV(data)
	if err != nil {
		return PaData{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return PaData{}, 0, err
	}
	var p PaData
	c, ok := der.Lookup(fields, 1)
	if !ok {
		return PaData{}, 0, der.MissingField("PA-DATA.padata-type")
	}
	if err := der.DecodeInt32(innerValue(c), &p.PadataType); err != nil {
		return PaData{}, 0, err
	}
	c, ok = der.Lookup(fields, 2)
	if !ok {
		return PaData{}, 0, der.MissingField("PA-DATA.padata-value")
	}
	v, _, err := der.DecodeOctetString(c)
	if err != nil {
		return PaData{}, 0, err
	}
	p.PadataValue = v
	return p, consumed, nil
}

// EncodeSequenceOfPaData encodes a (possibly empty) SEQUENCE OF PA-DATA.
func EncodeSequenceOfPaData(items []PaData) []byte {
	elems := make([][]byte, 0, len(items))
	for _, p := range items {
		elems = append(elems, p.Encode())
	}
	return der.SequenceTLV(elems...)
}

// DecodeSequenceOfPaData decodes a SEQUENCE OF PA-DATA TLV at data[0].
func DecodeSequenceOfPaData(data []byte) ([]PaData, int, error) {
	body, consumed, err := der.DecodeSequenceTLV(data)
	if err != nil {
		return nil, 0, err
	}
	var out []PaData
	for len(body) > 0 {
		p, n, err := decodePaData(body)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
		body = body[n:]
	}
	return out, consumed, nil
}

// PaDataContains reports whether items includes an entry of padataType.
func PaDataContains(items []PaData, padataType int32) bool {
	for _, p := range items {
		if p.PadataType == padataType {
			return true
		}
	}
	return false
}

// PaEncTsEnc is the cleartext sealed for PA-ENC-TIMESTAMP pre-authentication.
type PaEncTsEnc struct {
	PaTimestamp KerberosTime
	Pausec      *Microseconds
}

// Encode produces PA-ENC-TS-ENC's DER (spec §8 scenario D).
func (p PaEncTsEnc) Encode() []byte {
	fields := der.WrapContext(0, p.PaTimestamp.encode())
	if p.Pausec != nil {
		fields = append(fields, der.WrapContext(1, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(int32(*p.Pausec))))...)
	}
	return der.SequenceTLV(fields)
}

// DecodePaEncTsEnc decodes a PA-ENC-TS-ENC SEQUENCE TLV at data[0].
func DecodePaEncTsEnc(data []byte) (PaEncTsEnc, int, error) {
	body, consumed, err := der.DecodeSequenceTLV(data)
	if err != nil {
		return PaEncTsEnc{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return PaEncTsEnc{}, 0, err
	}
	var p PaEncTsEnc
	c, ok := der.Lookup(fields, 0)
	if !ok {
		return PaEncTsEnc{}, 0, der.MissingField("PA-ENC-TS-ENC.patimestamp")
	}
	ts, _, err := decodeKerberosTime(c)
	if err != nil {
		return PaEncTsEnc{}, 0, err
	}
	p.PaTimestamp = ts
	if c, ok := der.Lookup(fields, 1); ok {
		var usec int32
		if err := der.DecodeInt32(innerValue(c), &usec); err != nil {
			return PaEncTsEnc{}, 0, err
		}
		m, err := NewMicroseconds(usec)
		if err != nil {
			return PaEncTsEnc{}, 0, err
		}
		p.Pausec = &m
	}
	return p, consumed, nil
}

// PaPacRequest signals whether the client wants a PAC in the ticket
// (MS-KILE extension, carried as ordinary PA-DATA type 128).
type PaPacRequest struct {
	IncludePac bool
}

func (p PaPacRequest) Encode() []byte {
	return der.SequenceTLV(
		der.WrapContext(0, der.EncodeBoolean(p.IncludePac)),
	)
}

// DecodePaPacRequest decodes a PA-PAC-REQUEST SEQUENCE TLV at data[0].
func DecodePaPacRequest(data []byte) (PaPacRequest, int, error) {
	body, consumed, err := der.DecodeSequenceTLV(data)
	if err != nil {
		return PaPacRequest{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return PaPacRequest{}, 0, err
	}
	c, ok := der.Lookup(fields, 0)
	if !ok {
		return PaPacRequest{}, 0, der.MissingField("PA-PAC-REQUEST.include-pac")
	}
	v, _, err := der.DecodeBoolean(c)
	if err != nil {
		return PaPacRequest{}, 0, err
	}
	return PaPacRequest{IncludePac: v}, consumed, nil
}

// EtypeInfo2Entry carries a salt/s2kparams hint for one etype.
type EtypeInfo2Entry struct {
	Etype     int32
	Salt      *string
	S2kParams []byte
}

func (e EtypeInfo2Entry) Encode() []byte {
	fields := der.WrapContext(0, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(e.Etype)))
	if e.Salt != nil {
		ks, _ := NewKerberosString(*e.Salt)
		fields = append(fields, der.WrapContext(1, ks.encode())...)
	}
	if e.S2kParams != nil {
		fields = append(fields, der.WrapContext(2, der.EncodeOctetString(e.S2kParams))...)
	}
	return der.SequenceTLV(fields)
}

func decodeEtypeInfo2Entry(data []byte) (EtypeInfo2Entry, int, error) {
	body, consumed, err := der.DecodeSequenceTLV(data)
	if err != nil {
		return EtypeInfo2Entry{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return EtypeInfo2Entry{}, 0, err
	}
	var e EtypeInfo2Entry
	c, ok := der.Lookup(fields, 0)
	if !ok {
		return EtypeInfo2Entry{}, 0, der.MissingField("ETYPE-INFO2-ENTRY.etype")
	}
	if err := der.DecodeInt32(innerValue(c), &e.Etype); err != nil {
		return EtypeInfo2Entry{}, 0, err
	}
	if c, ok := der.Lookup(fields, 1); ok {
		s, _, err := decodeKerberosString(c)
		if err != nil {
			return EtypeInfo2Entry{}, 0, err
		}
		salt := string(s)
		e.Salt = &salt
	}
	if c, ok := der.Lookup(fields, 2); ok {
		v, _, err := der.DecodeOctetString(c)
		if err != nil {
			return EtypeInfo2Entry{}, 0, err
		}
		e.S2kParams = v
	}
	return e, consumed, nil
}

// DecodeEtypeInfo2 decodes an ETYPE-INFO2 (SEQUENCE OF ETYPE-INFO2-ENTRY)
// TLV at data[0].
func DecodeEtypeInfo2(data []byte) ([]EtypeInfo2Entry, int, error) {
	body, consumed, err := der.DecodeSequenceTLV(data)
	if err != nil {
		return nil, 0, err
	}
	var out []EtypeInfo2Entry
	for len(body) > 0 {
		e, n, err := decodeEtypeInfo2Entry(body)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
		body = body[n:]
	}
	return out, consumed, nil
}
