package messages

import "github.com/himmelblau-idm/kerbeiros-sub001/internal/der"

// TicketVno is the only ticket version ever produced by this protocol.
const TicketVno int32 = 5

// ApplicationTagTicket is Ticket's [APPLICATION n] wrapper number.
const ApplicationTagTicket = 1

// Ticket is opaque to the client beyond its cleartext envelope: the
// encrypted part's cleartext is never available (spec §3).
type Ticket struct {
	TktVno  int32
	Realm   Realm
	SName   PrincipalName
	EncPart EncryptedData
}

// NewTicket builds a Ticket with TktVno fixed at 5.
func NewTicket(realm Realm, sname PrincipalName, encPart EncryptedData) Ticket {
	return Ticket{TktVno: TicketVno, Realm: realm, SName: sname, EncPart: encPart}
}

// Encode produces the full [APPLICATION 1] SEQUENCE wire form.
func (t Ticket) Encode() []byte {
	body := der.SequenceTLV(
		der.WrapContext(0, der.TLV(der.Universal(der.TagInteger), der.EncodeInt32(t.TktVno))),
		der.WrapContext(1, t.Realm.encode()),
		der.WrapContext(2, t.SName.Encode()),
		der.WrapContext(3, t.EncPart.Encode()),
	)
	return der.WrapApplication(ApplicationTagTicket, body)
}

// DecodeTicket decodes a [APPLICATION 1]-wrapped Ticket TLV at data[0].
func DecodeTicket(data []byte) (Ticket, int, error) {
	inner, consumed, err := der.UnwrapApplication(data, ApplicationTagTicket, "Ticket")
	if err != nil {
		return Ticket{}, 0, err
	}
	body, _, err := der.DecodeSequenceTLV(inner)
	if err != nil {
		return Ticket{}, 0, err
	}
	fields, err := der.ParseFields(body)
	if err != nil {
		return Ticket{}, 0, err
	}
	var t Ticket
	c, ok := der.Lookup(fields, 0)
	if !ok {
		return Ticket{}, 0, der.MissingField("Ticket.tkt-vno")
	}
	if err := der.DecodeInt32(innerValue(c), &t.TktVno); err != nil {
		return Ticket{}, 0, err
	}
	c, ok = der.Lookup(fields, 1)
	if !ok {
		return Ticket{}, 0, der.MissingField("Ticket.realm")
	}
	realm, _, err := decodeRealm(c)
	if err != nil {
		return Ticket{}, 0, err
	}
	t.Realm = realm
	c, ok = der.Lookup(fields, 2)
	if !ok {
		return Ticket{}, 0, der.MissingField("Ticket.sname")
	}
	sname, _, err := DecodePrincipalName(c)
	if err != nil {
		return Ticket{}, 0, err
	}
	t.SName = sname
	c, ok = der.Lookup(fields, 3)
	if !ok {
		return Ticket{}, 0, der.MissingField("Ticket.enc-part")
	}
	encPart, _, err := DecodeEncryptedData(c)
	if err != nil {
		return Ticket{}, 0, err
	}
	t.EncPart = encPart
	return t, consumed, nil
}

// EncodeSequenceOfTickets encodes a SEQUENCE OF Ticket.
func EncodeSequenceOfTickets(tickets []Ticket) []byte {
	elems := make([][]byte, 0, len(tickets))
	for _, tk := range tickets {
		elems = append(elems, tk.Encode())
	}
	return der.SequenceTLV(elems...)
}

// DecodeSequenceOfTickets decodes a SEQUENCE OF Ticket TLV at data[0].
func DecodeSequenceOfTickets(data []byte) ([]Ticket, int, error) {
	body, consumed, err := der.DecodeSequenceTLV(data)
	if err != nil {
		return nil, 0, err
	}
	var out []Ticket
	for len(body) > 0 {
		tk, n, err := DecodeTicket(body)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, tk)
		body = body[n:]
	}
	return out, consumed, nil
}
