package der

// EncodeOctetString encodes an OCTET STRING TLV.
func EncodeOctetString(b []byte) []byte {
	return TLV(Universal(TagOctetString), b)
}

// DecodeOctetString reads an OCTET STRING TLV at data[0]. The returned
// slice is a copy: every decoded structure exclusively owns its contents
// (spec §3 Ownership), so the input buffer need not outlive it.
func DecodeOctetString(data []byte) (b []byte, consumed int, err error) {
	content, n, err := ExpectTLV(data, Universal(TagOctetString), "OCTET STRING")
	if err != nil {
		return nil, 0, err
	}
	out := make([]byte, len(content))
	copy(out, content)
	return out, n, nil
}
