package der

// EncodeBitString encodes a BIT STRING's DER content: a leading
// "unused bits in last octet" count octet followed by the bit octets.
func EncodeBitString(bits []byte, unusedBits int) []byte {
	content := make([]byte, 0, len(bits)+1)
	content = append(content, byte(unusedBits))
	content = append(content, bits...)
	return content
}

// DecodeBitString decodes a BIT STRING's DER content into its bit octets
// and the number of unused bits in the last octet.
func DecodeBitString(content []byte) (bits []byte, unusedBits int, err error) {
	if len(content) < 1 {
		return nil, 0, &Error{Kind: ErrTruncated, Field: "BIT STRING"}
	}
	return content[1:], int(content[0]), nil
}

// EncodeKerberosFlags encodes a KerberosFlags value as a full BIT STRING
// TLV. Per spec §4.1, encoders always emit 4 content octets (32 bits),
// MSB-first, big-endian, with zero unused bits.
func EncodeKerberosFlags(flags uint32) []byte {
	bits := []byte{
		byte(flags >> 24),
		byte(flags >> 16),
		byte(flags >> 8),
		byte(flags),
	}
	return TLV(Universal(TagBitString), EncodeBitString(bits, 0))
}

// DecodeKerberosFlags reads a BIT STRING TLV at data[0] and returns the
// 32-bit flag word (MSB-first, right-padded with zero bytes if the wire
// form carried fewer than 4 octets) plus the number of bytes consumed.
func DecodeKerberosFlags(data []byte) (flags uint32, consumed int, err error) {
	content, n, err := ExpectTLV(data, Universal(TagBitString), "KerberosFlags")
	if err != nil {
		return 0, 0, err
	}
	bits, _, err := DecodeBitString(content)
	if err != nil {
		return 0, 0, err
	}
	if len(bits) > 4 {
		return 0, 0, MalformedSequence("KerberosFlags")
	}
	padded := make([]byte, 4)
	copy(padded, bits)
	flags = uint32(padded[0])<<24 | uint32(padded[1])<<16 | uint32(padded[2])<<8 | uint32(padded[3])
	return flags, n, nil
}
