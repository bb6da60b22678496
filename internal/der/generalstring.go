package der

// EncodeGeneralString encodes a GeneralString's DER content. Kerberos uses
// GeneralString for KerberosString (realm and principal name components),
// which in practice is restricted to ASCII; this package stores the bytes
// verbatim and leaves ASCII-safety validation to the newtype constructor in
// pkg/messages (spec §9, "typed newtypes with validation on construction").
func EncodeGeneralString(s string) []byte {
	return TLV(Universal(TagGeneralString), []byte(s))
}

// DecodeGeneralString reads a GeneralString TLV at data[0].
func DecodeGeneralString(data []byte) (s string, consumed int, err error) {
	content, n, err := ExpectTLV(data, Universal(TagGeneralString), "GeneralString")
	if err != nil {
		return "", 0, err
	}
	return string(content), n, nil
}

// EncodeIA5String encodes an IA5String's DER content.
func EncodeIA5String(s string) []byte {
	return TLV(Universal(TagIA5String), []byte(s))
}

// DecodeIA5String reads an IA5String TLV at data[0].
func DecodeIA5String(data []byte) (s string, consumed int, err error) {
	content, n, err := ExpectTLV(data, Universal(TagIA5String), "IA5String")
	if err != nil {
		return "", 0, err
	}
	return string(content), n, nil
}
