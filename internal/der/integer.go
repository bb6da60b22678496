package der

import "math"

// EncodeInteger encodes a signed integer as a minimal-length two's-complement
// DER INTEGER content (the universal tag 0x02 is not included; callers wrap
// with TLV(Universal(TagInteger), EncodeInteger(v))).
func EncodeInteger(v int64) []byte {
	if v == 0 {
		return []byte{0x00}
	}

	var bytes []byte
	n := v
	for {
		bytes = append([]byte{byte(n)}, bytes...)
		n >>= 8
		if (n == 0 && bytes[0]&0x80 == 0) || (n == -1 && bytes[0]&0x80 != 0) {
			break
		}
	}
	return bytes
}

// DecodeInteger decodes a DER INTEGER content octet string into a signed
// 64-bit value.
func DecodeInteger(content []byte) (int64, error) {
	if len(content) == 0 {
		return 0, &Error{Kind: ErrTruncated, Field: "INTEGER"}
	}
	v := int64(int8(content[0]))
	for _, b := range content[1:] {
		v = v<<8 | int64(b)
	}
	return v, nil
}

// EncodeInt32 encodes a constrained 32-bit signed integer's DER content.
func EncodeInt32(v int32) []byte {
	return EncodeInteger(int64(v))
}

// DecodeInt32 decodes content into *dst, validating that the value fits in
// an int32. On any failure *dst is left unchanged (spec §8 property 2).
func DecodeInt32(content []byte, dst *int32) error {
	v, err := DecodeInteger(content)
	if err != nil {
		return err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return ConstraintViolation("Int32")
	}
	*dst = int32(v)
	return nil
}

// EncodeUInt32 encodes an unsigned 32-bit integer's DER content. Because DER
// INTEGER is always signed two's-complement, values with the high bit set
// get a leading 0x00 pad octet so they don't decode as negative.
func EncodeUInt32(v uint32) []byte {
	return EncodeInteger(int64(v))
}

// DecodeUInt32 decodes content into *dst, validating range [0, 2^32-1].
// On any failure *dst is left unchanged.
func DecodeUInt32(content []byte, dst *uint32) error {
	v, err := DecodeInteger(content)
	if err != nil {
		return err
	}
	if v < 0 || v > math.MaxUint32 {
		return ConstraintViolation("UInt32")
	}
	*dst = uint32(v)
	return nil
}

// EncodeMicroseconds encodes a Microseconds value's DER content.
func EncodeMicroseconds(v int32) []byte {
	return EncodeInteger(int64(v))
}

// DecodeMicroseconds decodes content into *dst, validating range
// [0, 999999]. On any failure *dst is left unchanged.
func DecodeMicroseconds(content []byte, dst *int32) error {
	v, err := DecodeInteger(content)
	if err != nil {
		return err
	}
	if v < 0 || v > 999999 {
		return ConstraintViolation("Microseconds")
	}
	*dst = int32(v)
	return nil
}
