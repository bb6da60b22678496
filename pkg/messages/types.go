// Package messages implements the RFC 4120 §5 wire structures needed for an
// AS-exchange: principal and realm names, host addresses, encrypted data and
// encryption keys, the PA-DATA family, KDC-REQ/KDC-REP and their AS
// specializations, KRB-ERROR, Ticket, and KRB-CRED. Each type hand-rolls its
// own Encode/Decode pair over internal/der, the same way dittofs hand-rolls
// its wire-protocol headers rather than reaching for a reflection-based
// codec.
package messages

import (
	"time"
	"unicode/utf8"

	"github.com/himmelblau-idm/kerbeiros-sub001/internal/der"
)

// Well-known principal name-types (RFC 4120 §6.2).
const (
	NameTypeUnknown    int32 = 0
	NameTypePrincipal  int32 = 1
	NameTypeSrvInst    int32 = 2
	NameTypeSrvHst     int32 = 3
	NameTypeSrvXHst    int32 = 4
	NameTypeUID        int32 = 5
	NameTypeXN         int32 = 6
	NameTypeEnterprise int32 = 10
)

// KerberosString is a GeneralString restricted, in practice, to ASCII.
type KerberosString string

// NewKerberosString validates s is non-empty, valid UTF-8, and ASCII-only
// before wrapping it. Validation lives here rather than in internal/der so
// that der.EncodeGeneralString/DecodeGeneralString stay generic (spec §9:
// typed newtypes with validation on construction).
func NewKerberosString(s string) (KerberosString, error) {
	if !utf8.ValidString(s) {
		return "", der.ConstraintViolation("KerberosString")
	}
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return "", der.ConstraintViolation("KerberosString")
		}
	}
	return KerberosString(s), nil
}

func (k KerberosString) encode() []byte {
	return der.EncodeGeneralString(string(k))
}

func decodeKerberosString(data []byte) (KerberosString, int, error) {
	s, n, err := der.DecodeGeneralString(data)
	if err != nil {
		return "", 0, err
	}
	ks, err := NewKerberosString(s)
	if err != nil {
		return "", 0, err
	}
	return ks, n, nil
}

// Realm is the authority name for a principal or ticket.
type Realm string

// NewRealm validates and wraps a realm name. A realm must be non-empty.
func NewRealm(s string) (Realm, error) {
	if s == "" {
		return "", der.ConstraintViolation("Realm")
	}
	if _, err := NewKerberosString(s); err != nil {
		return "", err
	}
	return Realm(s), nil
}

func (r Realm) encode() []byte {
	return der.EncodeGeneralString(string(r))
}

func decodeRealm(data []byte) (Realm, int, error) {
	s, n, err := decodeKerberosString(data)
	return Realm(s), n, err
}

// Microseconds is an integer in [0, 999999].
type Microseconds int32

// NewMicroseconds validates v is within range.
func NewMicroseconds(v int32) (Microseconds, error) {
	if v < 0 || v > 999999 {
		return 0, der.ConstraintViolation("Microseconds")
	}
	return Microseconds(v), nil
}

// KerberosTime is a UTC instant with second resolution.
type KerberosTime time.Time

func (k KerberosTime) encode() []byte {
	return der.EncodeGeneralizedTime(time.Time(k))
}

func decodeKerberosTime(data []byte) (KerberosTime, int, error) {
	t, n, err := der.DecodeGeneralizedTime(data)
	return KerberosTime(t), n, err
}

// Time converts back to a standard time.Time.
func (k KerberosTime) Time() time.Time { return time.Time(k) }

// Now returns the current instant truncated to the wire's second resolution.
func Now() KerberosTime {
	return KerberosTime(time.Now().UTC().Truncate(time.Second))
}

// KerberosFlags is a 32-bit flag word with BIT STRING wire semantics
// implemented in internal/der.
type KerberosFlags uint32

func (f KerberosFlags) encode() []byte {
	return der.EncodeKerberosFlags(uint32(f))
}

func decodeKerberosFlags(data []byte) (KerberosFlags, int, error) {
	v, n, err := der.DecodeKerberosFlags(data)
	return KerberosFlags(v), n, err
}

// IsSet reports whether bit (MSB=bit 0) is set in f.
func (f KerberosFlags) IsSet(mask uint32) bool {
	return uint32(f)&mask == mask
}

// PrincipalName is a (name-type, name-components) pair; its realm is carried
// alongside it in every structure that embeds it (RFC 4120 never nests the
// realm inside PrincipalName itself).
type PrincipalName struct {
	NameType   int32
	NameString []KerberosString
}

// NewPrincipalName validates at least one component is present.
func NewPrincipalName(nameType int32, components ...string) (PrincipalName, error) {
	if len(components) == 0 {
		return PrincipalName{}, der.ConstraintViolation("PrincipalName.NameString")
	}
	strs := make([]KerberosString, 0, len(components))
	for _, c := range components {
		ks, err := NewKerberosString(c)
		if err != nil {
			return PrincipalName{}, err
		}
		strs = append(strs, ks)
	}
	return PrincipalName{NameType: nameType, NameString: strs}, nil
}

// Join concatenates the name components without a separator, the form used
// as part of the AES default salt (RFC 3962 §5).
func (p PrincipalName) Join() string {
	var s string
	for _, c := range p.NameString {
		s += string(c)
	}
	return s
}

// String renders a principal the conventional "a/b/c" way.
func (p PrincipalName) String() string {
	s := ""
	for i, c := range p.NameString {
		if i > 0 {
			s += "/"
		}
		s += string(c)
	}
	return s
}

// IsMachineAccount reports whether the principal's last component ends in
// "$", the MS-KILE convention for a computer account.
func (p PrincipalName) IsMachineAccount() bool {
	if len(p.NameString) == 0 {
		return false
	}
	last := p.NameString[len(p.NameString)-1]
	return len(last) > 0 && last[len(last)-1] == '$'
}

// Encode produces the SEQUENCE body (not yet context-wrapped) for PrincipalName.
func (p PrincipalName) Encode() []byte {
	nameString := make([][]byte, 0, len(p.NameString))
	for _, c := range p.NameString {
		nameString = append(nameString, c.encode())
	}
	return der.SequenceTLV(
		der.WrapContext(0, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(p.NameType))),
		der.WrapContext(1, der.SequenceTLV(nameString...)),
	)
}

// DecodePrincipalName decodes a PrincipalName SEQUENCE TLV at data[0].
func DecodePrincipalName(data []byte) (PrincipalName, int, error) {
	body, consumed, err := der.DecodeSequenceTLV(data)
	if err != nil {
		return PrincipalName{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return PrincipalName{}, 0, err
	}
	var p PrincipalName
	nameTypeContent, ok := der.Lookup(fields, 0)
	if !ok {
		return PrincipalName{}, 0, der.MissingField("PrincipalName.name-type")
	}
	if err := der.DecodeInt32(innerValue(nameTypeContent), &p.NameType); err != nil {
		return PrincipalName{}, 0, err
	}
	nameStringContent, ok := der.Lookup(fields, 1)
	if !ok {
		return PrincipalName{}, 0, der.MissingField("PrincipalName.name-string")
	}
	seqBody, _, err := der.DecodeSequenceTLV(nameStringContent)
	if err != nil {
		return PrincipalName{}, 0, err
	}
	for len(seqBody) > 0 {
		ks, n, err := decodeKerberosString(seqBody)
		if err != nil {
			return PrincipalName{}, 0, err
		}
		p.NameString = append(p.NameString, ks)
		seqBody = seqBody[n:]
	}
	if len(p.NameString) == 0 {
		return PrincipalName{}, 0, der.MissingField("PrincipalName.name-string")
	}
	return p, consumed, nil
}

// innerValue strips a universal-tagged TLV's header, returning just its
// content bytes, for the common case of a context field wrapping a single
// universal primitive whose content must feed a Decode* helper that takes
// raw content rather than a full TLV.
func innerValue(tlv []byte) []byte {
	_, content, _, err := der.ReadTLV(tlv)
	if err != nil {
		return nil
	}
	return content
}

// HostAddress is a single typed network address.
type HostAddress struct {
	AddrType int32
	Address  []byte
}

func (h HostAddress) Encode() []byte {
	return der.SequenceTLV(
		der.WrapContext(0, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(h.AddrType))),
		der.WrapContext(1, der.EncodeOctetString(h.Address)),
	)
}

func decodeHostAddress(data []byte) (HostAddress, int, error) {
	body, consumed, err := der.DecodeSequenceTLV(data)
	if err != nil {
		return HostAddress{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return HostAddress{}, 0, err
	}
	var h HostAddress
	c, ok := der.Lookup(fields, 0)
	if !ok {
		return HostAddress{}, 0, der.MissingField("HostAddress.addr-type")
	}
	if err := der.DecodeInt32(innerValue(c), &h.AddrType); err != nil {
		return HostAddress{}, 0, err
	}
	c, ok = der.Lookup(fields, 1)
	if !ok {
		return HostAddress{}, 0, der.MissingField("HostAddress.address")
	}
	addr, _, err := der.DecodeOctetString(c)
	if err != nil {
		return HostAddress{}, 0, err
	}
	h.Address = addr
	return h, consumed, nil
}

// HostAddressesEqual compares two address lists for the AS-REP integrity
// check (spec §4.4).
func HostAddressesEqual(a, b []HostAddress) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].AddrType != b[i].AddrType || string(a[i].Address) != string(b[i].Address) {
			return false
		}
	}
	return true
}

// EncryptionKey carries a key-type and opaque key bytes.
type EncryptionKey struct {
	KeyType  int32
	KeyValue []byte
}

func (k EncryptionKey) Encode() []byte {
	return der.SequenceTLV(
		der.WrapContext(0, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(k.KeyType))),
		der.WrapContext(1, der.EncodeOctetString(k.KeyValue)),
	)
}

// DecodeEncryptionKey decodes an EncryptionKey SEQUENCE TLV at data[0].
func DecodeEncryptionKey(data []byte) (EncryptionKey, int, error) {
	body, consumed, err := der.DecodeSequenceTLV(data)
	if err != nil {
		return EncryptionKey{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return EncryptionKey{}, 0, err
	}
	var k EncryptionKey
	c, ok := der.Lookup(fields, 0)
	if !ok {
		return EncryptionKey{}, 0, der.MissingField("EncryptionKey.keytype")
	}
	if err := der.DecodeInt32(innerValue(c), &k.KeyType); err != nil {
		return EncryptionKey{}, 0, err
	}
	c, ok = der.Lookup(fields, 1)
	if !ok {
		return EncryptionKey{}, 0, der.MissingField("EncryptionKey.keyvalue")
	}
	v, _, err := der.DecodeOctetString(c)
	if err != nil {
		return EncryptionKey{}, 0, err
	}
	k.KeyValue = v
	return k, consumed, nil
}

// EncryptedData is ciphertext plus the etype/kvno needed to decrypt it.
// When Etype == NoEncryption, Cipher is the plaintext DER of the inner
// structure (spec §3).
type EncryptedData struct {
	Etype int32
	Kvno  *uint32
	Cipher []byte
}

// NoEncryption is the sentinel etype used by the ccache/KRB-CRED mapper to
// carry plaintext DER (spec §4.5).
const NoEncryption int32 = 0

func (e EncryptedData) Encode() []byte {
	fields := []byte{}
	fields = append(fields, der.WrapContext(0, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(e.Etype)))...)
	if e.Kvno != nil {
		fields = append(fields, der.WrapContext(1, der.TLV(der.Universal(der.TagInteger), der.EncodeUInt32(*e.Kvno)))...)
	}
	fields = append(fields, der.WrapContext(2, der.EncodeOctetString(e.Cipher))...)
	return der.SequenceTLV(fields)
}

// DecodeEncryptedData decodes an EncryptedData SEQUENCE TLV at data[0].
func DecodeEncryptedData(data []byte) (EncryptedData, int, error) {
	body, consumed, err := der.DecodeSequenceTLV(data)
	if err != nil {
		return EncryptedData{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return EncryptedData{}, 0, err
	}
	var e EncryptedData
	c, ok := der.Lookup(fields, 0)
	if !ok {
		return EncryptedData{}, 0, der.MissingField("EncryptedData.etype")
	}
	if err := der.DecodeInt32(innerValue(c), &e.Etype); err != nil {
		return EncryptedData{}, 0, err
	}
	if c, ok := der.Lookup(fields, 1); ok {
		var kvno uint32
		if err := der.DecodeUInt32(innerValue(c), &kvno); err != nil {
			return EncryptedData{}, 0, err
		}
		e.Kvno = &kvno
	}
	c, ok = der.Lookup(fields, 2)
	if !ok {
		return EncryptedData{}, 0, der.MissingField("EncryptedData.cipher")
	}
	cipher, _, err := der.DecodeOctetString(c)
	if err != nil {
		return EncryptedData{}, 0, err
	}
	e.Cipher = cipher
	return e, consumed, nil
}

// encodeSequenceOf wraps already-encoded element TLVs (each its own
// universal-constructed SEQUENCE, e.g. PrincipalName components) as a
// SEQUENCE OF.
func encodeSequenceOf(elements ...[]byte) []byte {
	return der.SequenceTLV(elements...)
}

