package der

// Field is one decoded EXPLICIT context-tagged SEQUENCE field: Number is the
// context tag number, Content is the inner type's raw TLV bytes (i.e. the
// context wrapper has already been stripped, ready for the specific field
// type's own decoder).
type Field struct {
	Number  int
	Content []byte
}

// SequenceTLV concatenates already tag/length/value-encoded fields and wraps
// them in a universal constructed SEQUENCE TLV.
func SequenceTLV(fields ...[]byte) []byte {
	var body []byte
	for _, f := range fields {
		body = append(body, f...)
	}
	return TLV(UniversalConstructed(TagSequence), body)
}

// DecodeSequenceTLV reads a SEQUENCE TLV at data[0] and returns its raw body
// for further field-by-field parsing.
func DecodeSequenceTLV(data []byte) (body []byte, consumed int, err error) {
	return ExpectTLVReturningConsumed(data, UniversalConstructed(TagSequence), "SEQUENCE")
}

// ExpectTLVReturningConsumed is ExpectTLV but named for call sites that care
// about the consumed byte count as much as the content.
func ExpectTLVReturningConsumed(data []byte, want Tag, field string) ([]byte, int, error) {
	return ExpectTLV(data, want, field)
}

// WrapContext wraps an inner type's TLV bytes in an EXPLICIT context tag,
// i.e. (CONTEXT, CONSTRUCTED, number) containing the inner TLV verbatim.
// Spec §9: every context tag on a SEQUENCE field in this library is
// EXPLICIT; implicit tagging is never used.
func WrapContext(number int, innerTLV []byte) []byte {
	return TLV(ContextConstructed(number), innerTLV)
}

// ParseFields scans a SEQUENCE body into its EXPLICIT context-tagged
// fields. A duplicate context-tag number is rejected immediately
// (spec §4.1: "duplicate context-tag → fail"); ordering and the
// "unknown tag inside declared range" / "unknown trailing field" policy are
// the caller's responsibility, since the declared range is specific to each
// message type.
func ParseFields(body []byte) ([]Field, error) {
	var fields []Field
	seen := map[int]bool{}
	for len(body) > 0 {
		tag, content, consumed, err := ReadTLV(body)
		if err != nil {
			return nil, err
		}
		if tag.Class != ClassContextSpecific || !tag.Constructed {
			return nil, MalformedSequence("field tag")
		}
		if seen[tag.Number] {
			return nil, DuplicateTag(fieldName(tag.Number))
		}
		seen[tag.Number] = true
		fields = append(fields, Field{Number: tag.Number, Content: content})
		body = body[consumed:]
	}
	return fields, nil
}

func fieldName(n int) string {
	return "[" + itoa(n) + "]"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

// Lookup returns the content of the field tagged number, if present.
func Lookup(fields []Field, number int) ([]byte, bool) {
	for _, f := range fields {
		if f.Number == number {
			return f.Content, true
		}
	}
	return nil, false
}

// WrapApplication wraps a SEQUENCE TLV (or any inner TLV) in an
// [APPLICATION number] constructed tag, the form used for the outermost
// layer of every Kerberos message (AS-REQ, AS-REP, KRB-ERROR, Ticket, ...).
func WrapApplication(number int, innerTLV []byte) []byte {
	return TLV(ApplicationConstructed(number), innerTLV)
}

// UnwrapApplication reads an [APPLICATION want] TLV at data[0] and returns
// its inner content plus bytes consumed.
func UnwrapApplication(data []byte, want int, field string) (inner []byte, consumed int, err error) {
	return ExpectTLV(data, ApplicationConstructed(want), field)
}

// UnwrapApplicationAny reads an application-tagged TLV at data[0] without
// constraining the tag number, returning the number actually seen. This is
// used where the decoder must tolerate more than one application tag (spec
// §4.2: AS-REP enc-part may carry EncKdcRepPart under either [APPLICATION
// 25] or [APPLICATION 26]).
func UnwrapApplicationAny(data []byte) (number int, inner []byte, consumed int, err error) {
	tag, content, n, err := ReadTLV(data)
	if err != nil {
		return 0, nil, 0, err
	}
	if tag.Class != ClassApplication || !tag.Constructed {
		return 0, nil, 0, UnexpectedTag("APPLICATION")
	}
	return tag.Number, content, n, nil
}
