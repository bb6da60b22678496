package der

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario A: Int32 encoding, including negative values.
func TestEncodeInt32_Scenarios(t *testing.T) {
	assert.Equal(t, []byte{0x02, 0x02, 0xFF, 0x79}, TLV(Universal(TagInteger), EncodeInt32(-135)))
	assert.Equal(t, []byte{0x02, 0x01, 0x03}, TLV(Universal(TagInteger), EncodeInt32(3)))
}

func TestDecodeInt32_RoundTrip(t *testing.T) {
	for _, v := range []int32{-135, 3, 0, 1, -1, 2147483647, -2147483648} {
		content := EncodeInt32(v)
		var dst int32
		require.NoError(t, DecodeInt32(content, &dst))
		assert.Equal(t, v, dst)
	}
}

// Spec §8 property 2: a failed constrained decode must not mutate the
// destination.
func TestDecodeInt32_NoMutationOnFailure(t *testing.T) {
	dst := int32(42)
	// content too large to fit in int32: 0x01 00 00 00 00 (5 bytes, positive).
	bad := []byte{0x01, 0x00, 0x00, 0x00, 0x00}
	err := DecodeInt32(bad, &dst)
	require.Error(t, err)
	assert.Equal(t, int32(42), dst)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrConstraintViolation, derr.Kind)
}

func TestDecodeUInt32_NoMutationOnFailure(t *testing.T) {
	dst := uint32(7)
	// -1 encoded as DER INTEGER: 0xFF.
	bad := EncodeInteger(-1)
	err := DecodeUInt32(bad, &dst)
	require.Error(t, err)
	assert.Equal(t, uint32(7), dst)
}

func TestDecodeMicroseconds_RangeAndNoMutation(t *testing.T) {
	dst := int32(99)
	err := DecodeMicroseconds(EncodeInteger(1000000), &dst)
	require.Error(t, err)
	assert.Equal(t, int32(99), dst)

	require.NoError(t, DecodeMicroseconds(EncodeInteger(999999), &dst))
	assert.Equal(t, int32(999999), dst)
}

// Scenario B: SEQUENCE OF Int32 (an etype list).
func TestSequenceOfInt32_Scenario(t *testing.T) {
	etypes := []int32{18, 17, 23, 24, 3, 1, -135}
	var elements [][]byte
	for _, e := range etypes {
		elements = append(elements, TLV(Universal(TagInteger), EncodeInt32(e)))
	}
	got := SequenceTLV(elements...)
	want := []byte{
		0x30, 0x16,
		0x02, 0x01, 0x12,
		0x02, 0x01, 0x11,
		0x02, 0x01, 0x17,
		0x02, 0x01, 0x18,
		0x02, 0x01, 0x03,
		0x02, 0x01, 0x01,
		0x02, 0x02, 0xFF, 0x79,
	}
	assert.Equal(t, want, got)

	body, consumed, err := DecodeSequenceTLV(got)
	require.NoError(t, err)
	assert.Equal(t, len(got), consumed)

	var decoded []int32
	for len(body) > 0 {
		tag, content, n, err := ReadTLV(body)
		require.NoError(t, err)
		assert.Equal(t, Universal(TagInteger), tag)
		var v int32
		require.NoError(t, DecodeInt32(content, &v))
		decoded = append(decoded, v)
		body = body[n:]
	}
	assert.Equal(t, etypes, decoded)
}

// Scenario 3/4: KerberosFlags encode and decode, including short-form
// right-padding on decode.
func TestKerberosFlags_Scenarios(t *testing.T) {
	assert.Equal(t, []byte{0x03, 0x05, 0x00, 0x40, 0x00, 0x00, 0x00}, EncodeKerberosFlags(0x40000000))
	assert.Equal(t, []byte{0x03, 0x05, 0x00, 0x00, 0x00, 0x00, 0x01}, EncodeKerberosFlags(0x01))

	flags, consumed, err := DecodeKerberosFlags([]byte{0x03, 0x02, 0x00, 0x40})
	require.NoError(t, err)
	assert.Equal(t, uint32(0x40000000), flags)
	assert.Equal(t, 4, consumed)
}

func TestKerberosFlags_RoundTrip(t *testing.T) {
	for _, f := range []uint32{0, 1, 0x40000000, 0xFFFFFFFF, 0x00800000} {
		data := EncodeKerberosFlags(f)
		got, _, err := DecodeKerberosFlags(data)
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}

func TestKerberosFlags_TooManyOctetsRejected(t *testing.T) {
	bad := TLV(Universal(TagBitString), EncodeBitString([]byte{0, 0, 0, 0, 1}, 0))
	_, _, err := DecodeKerberosFlags(bad)
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrMalformedSequence, derr.Kind)
}

// Scenario C: GeneralizedTime encoding.
func TestEncodeGeneralizedTime_Scenario(t *testing.T) {
	ts := time.Date(2037, 9, 13, 2, 48, 5, 0, time.UTC)
	want := []byte{
		0x18, 0x0F,
		'2', '0', '3', '7', '0', '9', '1', '3', '0', '2', '4', '8', '0', '5', 'Z',
	}
	assert.Equal(t, want, EncodeGeneralizedTime(ts))
}

func TestGeneralizedTime_RoundTrip(t *testing.T) {
	ts := time.Date(2037, 9, 13, 2, 48, 5, 0, time.UTC)
	data := EncodeGeneralizedTime(ts)
	got, consumed, err := DecodeGeneralizedTime(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.True(t, ts.Equal(got))
}

func TestGeneralizedTime_TruncatesSubsecond(t *testing.T) {
	ts := time.Date(2037, 9, 13, 2, 48, 5, 500000000, time.UTC)
	data := EncodeGeneralizedTime(ts)
	got, _, err := DecodeGeneralizedTime(data)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2037, 9, 13, 2, 48, 5, 0, time.UTC), got)
}

func TestOctetString_RoundTripAndOwnership(t *testing.T) {
	src := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	data := EncodeOctetString(src)
	got, consumed, err := DecodeOctetString(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, src, got)

	// Mutating the source after encode must not affect the decoded copy
	// (spec §3 Ownership).
	src[0] = 0x00
	assert.Equal(t, byte(0xDE), got[0])
}

func TestGeneralString_RoundTrip(t *testing.T) {
	data := EncodeGeneralString("EXAMPLE.COM")
	got, consumed, err := DecodeGeneralString(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, "EXAMPLE.COM", got)
}

func TestContextAndApplicationWrapping(t *testing.T) {
	inner := TLV(Universal(TagInteger), EncodeInt32(5))
	wrapped := WrapContext(0, inner)

	fields, err := ParseFields(wrapped)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, 0, fields[0].Number)
	assert.Equal(t, inner, fields[0].Content)

	content, found := Lookup(fields, 0)
	require.True(t, found)
	var v int32
	require.NoError(t, DecodeInt32(content[2:], &v))
	assert.Equal(t, int32(5), v)

	seqTLV := SequenceTLV(wrapped)
	appTLV := WrapApplication(10, seqTLV)

	number, innerSeq, consumed, err := UnwrapApplicationAny(appTLV)
	require.NoError(t, err)
	assert.Equal(t, 10, number)
	assert.Equal(t, len(appTLV), consumed)
	assert.True(t, bytes.Equal(seqTLV, innerSeq))

	body, _, err := DecodeSequenceTLV(innerSeq)
	require.NoError(t, err)
	fields2, err := ParseFields(body)
	require.NoError(t, err)
	require.Len(t, fields2, 1)
}

func TestParseFields_DuplicateTagRejected(t *testing.T) {
	inner := TLV(Universal(TagInteger), EncodeInt32(1))
	body := append(WrapContext(0, inner), WrapContext(0, inner)...)
	_, err := ParseFields(body)
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrDuplicateTag, derr.Kind)
}

func TestParseFields_NonContextTagRejected(t *testing.T) {
	body := TLV(Universal(TagInteger), EncodeInt32(1))
	_, err := ParseFields(body)
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrMalformedSequence, derr.Kind)
}

func TestDecodeLength_RejectsIndefiniteForm(t *testing.T) {
	_, _, _, err := ReadTLV([]byte{0x30, 0x80, 0x00, 0x00})
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrIndefiniteLength, derr.Kind)
}

func TestReadTLV_TruncatedInput(t *testing.T) {
	_, _, _, err := ReadTLV([]byte{0x02, 0x05, 0x01, 0x02})
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrTruncated, derr.Kind)
}

func TestExpectTLV_UnexpectedTag(t *testing.T) {
	data := TLV(Universal(TagOctetString), []byte{0x01})
	_, _, err := ExpectTLV(data, Universal(TagInteger), "myfield")
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrUnexpectedTag, derr.Kind)
	assert.Equal(t, "myfield", derr.Field)
}
