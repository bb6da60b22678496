package ccache

import (
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/credential"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/messages"
)

// headerFieldKDCOffset is the only header field tag the format defines: two
// big-endian uint32s giving the client/KDC clock-skew estimate in seconds
// and microseconds.
const headerFieldKDCOffset = 1

// HeaderField is one tag/length/value triple of the version-4 header.
type HeaderField struct {
	Tag   uint16
	Value []byte
}

// CCache is a parsed MIT credential cache file (version 0x0504 only).
type CCache struct {
	Header           []HeaderField
	DefaultPrincipal credential.Principal
	Credentials      []credential.Credential
}

// DefaultHeader returns the conventional single-field header every cache
// this package writes carries: KDC offset unset (seconds = 0xFFFFFFFF,
// microseconds = 0), spec §8 scenario F.
func DefaultHeader() []HeaderField {
	return []HeaderField{{
		Tag:   headerFieldKDCOffset,
		Value: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00},
	}}
}

// New builds a CCache around a default principal and its credentials, using
// DefaultHeader.
func New(defaultPrincipal credential.Principal, creds []credential.Credential) CCache {
	return CCache{Header: DefaultHeader(), DefaultPrincipal: defaultPrincipal, Credentials: creds}
}

// Load parses a ccache file's bytes.
func Load(data []byte) (CCache, error) {
	r := newReader(data)
	version, err := r.uint16()
	if err != nil {
		return CCache{}, binaryParse(err)
	}
	if version != fileVersion {
		return CCache{}, &Error{Kind: KindUnsupportedVersion}
	}

	var c CCache
	c.Header, err = readHeader(r)
	if err != nil {
		return CCache{}, err
	}

	c.DefaultPrincipal, err = readPrincipal(r)
	if err != nil {
		return CCache{}, err
	}

	for r.remaining() > 0 {
		cred, err := readCredential(r)
		if err != nil {
			return CCache{}, err
		}
		c.Credentials = append(c.Credentials, cred)
	}
	return c, nil
}

// Save serializes the cache to its binary wire form.
func (c CCache) Save() []byte {
	w := &writer{}
	w.uint16(fileVersion)
	writeHeader(w, c.Header)
	writePrincipal(w, c.DefaultPrincipal)
	for _, cred := range c.Credentials {
		writeCredential(w, cred)
	}
	return w.bytesValue()
}

func readHeader(r *reader) ([]HeaderField, error) {
	length, err := r.uint16()
	if err != nil {
		return nil, binaryParse(err)
	}
	end := r.p + int(length)
	var fields []HeaderField
	for r.p < end {
		tag, err := r.uint16()
		if err != nil {
			return nil, binaryParse(err)
		}
		flen, err := r.uint16()
		if err != nil {
			return nil, binaryParse(err)
		}
		value, err := r.bytes(int(flen))
		if err != nil {
			return nil, binaryParse(err)
		}
		fields = append(fields, HeaderField{Tag: tag, Value: value})
	}
	return fields, nil
}

func writeHeader(w *writer, fields []HeaderField) {
	body := &writer{}
	for _, f := range fields {
		body.uint16(f.Tag)
		body.uint16(uint16(len(f.Value)))
		body.bytes(f.Value)
	}
	w.uint16(uint16(len(body.bytesValue())))
	w.bytes(body.bytesValue())
}

func readPrincipal(r *reader) (credential.Principal, error) {
	nameType, err := r.uint32()
	if err != nil {
		return credential.Principal{}, binaryParse(err)
	}
	count, err := r.uint32()
	if err != nil {
		return credential.Principal{}, binaryParse(err)
	}
	realmBytes, err := r.counted()
	if err != nil {
		return credential.Principal{}, binaryParse(err)
	}
	components := make([]string, count)
	for i := range components {
		b, err := r.counted()
		if err != nil {
			return credential.Principal{}, binaryParse(err)
		}
		components[i] = string(b)
	}
	realm, err := messages.NewRealm(string(realmBytes))
	if err != nil {
		return credential.Principal{}, binaryParse(err)
	}
	name, err := messages.NewPrincipalName(int32(nameType), components...)
	if err != nil {
		return credential.Principal{}, binaryParse(err)
	}
	return credential.Principal{Realm: realm, Name: name}, nil
}

func writePrincipal(w *writer, p credential.Principal) {
	w.uint32(uint32(p.Name.NameType))
	w.uint32(uint32(len(p.Name.NameString)))
	w.counted([]byte(p.Realm))
	for _, component := range p.Name.NameString {
		w.counted([]byte(component))
	}
}

func readCredential(r *reader) (credential.Credential, error) {
	var c credential.Credential

	client, err := readPrincipal(r)
	if err != nil {
		return credential.Credential{}, err
	}
	c.Client = client

	server, err := readPrincipal(r)
	if err != nil {
		return credential.Credential{}, err
	}
	c.Server = server

	keyType, err := r.uint16()
	if err != nil {
		return credential.Credential{}, binaryParse(err)
	}
	keyValue, err := r.counted()
	if err != nil {
		return credential.Credential{}, binaryParse(err)
	}
	c.Key = credential.KeyBlock{Etype: int32(keyType), Value: keyValue}

	if c.Times.AuthTime, err = r.timestamp(); err != nil {
		return credential.Credential{}, binaryParse(err)
	}
	if c.Times.StartTime, err = r.timestamp(); err != nil {
		return credential.Credential{}, binaryParse(err)
	}
	if c.Times.EndTime, err = r.timestamp(); err != nil {
		return credential.Credential{}, binaryParse(err)
	}
	if c.Times.RenewTill, err = r.timestamp(); err != nil {
		return credential.Credential{}, binaryParse(err)
	}

	isSkey, err := r.uint8()
	if err != nil {
		return credential.Credential{}, binaryParse(err)
	}
	c.IsSKey = isSkey != 0

	c.Flags, err = r.uint32()
	if err != nil {
		return credential.Credential{}, binaryParse(err)
	}

	addrCount, err := r.uint32()
	if err != nil {
		return credential.Credential{}, binaryParse(err)
	}
	for i := uint32(0); i < addrCount; i++ {
		addrType, err := r.uint16()
		if err != nil {
			return credential.Credential{}, binaryParse(err)
		}
		addr, err := r.counted()
		if err != nil {
			return credential.Credential{}, binaryParse(err)
		}
		c.Addresses = append(c.Addresses, messages.HostAddress{AddrType: int32(addrType), Address: addr})
	}

	authDataCount, err := r.uint32()
	if err != nil {
		return credential.Credential{}, binaryParse(err)
	}
	for i := uint32(0); i < authDataCount; i++ {
		adType, err := r.uint16()
		if err != nil {
			return credential.Credential{}, binaryParse(err)
		}
		adData, err := r.counted()
		if err != nil {
			return credential.Credential{}, binaryParse(err)
		}
		c.AuthData = append(c.AuthData, credential.AuthDataEntry{Type: int32(adType), Data: adData})
	}

	if c.Ticket, err = r.counted(); err != nil {
		return credential.Credential{}, binaryParse(err)
	}
	if c.SecondTicket, err = r.counted(); err != nil {
		return credential.Credential{}, binaryParse(err)
	}

	return c, nil
}

func writeCredential(w *writer, c credential.Credential) {
	writePrincipal(w, c.Client)
	writePrincipal(w, c.Server)

	w.uint16(uint16(c.Key.Etype))
	w.counted(c.Key.Value)

	w.timestamp(c.Times.AuthTime)
	w.timestamp(c.Times.StartTime)
	w.timestamp(c.Times.EndTime)
	w.timestamp(c.Times.RenewTill)

	if c.IsSKey {
		w.uint8(1)
	} else {
		w.uint8(0)
	}

	w.uint32(c.Flags)

	w.uint32(uint32(len(c.Addresses)))
	for _, a := range c.Addresses {
		w.uint16(uint16(a.AddrType))
		w.counted(a.Address)
	}

	w.uint32(uint32(len(c.AuthData)))
	for _, ad := range c.AuthData {
		w.uint16(uint16(ad.Type))
		w.counted(ad.Data)
	}

	w.counted(c.Ticket)
	w.counted(c.SecondTicket)
}
