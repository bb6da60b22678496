package ccache

import (
	"time"

	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/credential"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/messages"
)

// CredentialsToKrbCred builds an unencrypted KRB-CRED file from a set of
// credentials: one Ticket/KrbCredInfo pair per credential, with enc-part
// written in the clear (etype = NO_ENCRYPTION, cipher = DER(EncKrbCredPart))
// per spec §4.5's client-side persistence convention.
func CredentialsToKrbCred(creds []credential.Credential) (messages.KrbCred, error) {
	tickets := make([]messages.Ticket, 0, len(creds))
	infos := make([]messages.KrbCredInfo, 0, len(creds))
	for _, c := range creds {
		tkt, _, err := messages.DecodeTicket(c.Ticket)
		if err != nil {
			return messages.KrbCred{}, err
		}
		tickets = append(tickets, tkt)
		infos = append(infos, credentialToKrbCredInfo(c))
	}

	encPart := messages.EncKrbCredPart{TicketInfo: infos}
	plaintext := encPart.Encode()
	return messages.NewKrbCred(tickets, messages.EncryptedData{
		Etype:  messages.NoEncryption,
		Cipher: plaintext,
	}), nil
}

// KrbCredToCredentials reverses CredentialsToKrbCred. It rejects a KRB-CRED
// whose enc-part carries any etype other than NO_ENCRYPTION: this library
// never receives a KRB-CRED over the wire from a KDC, only from its own or
// a peer's unencrypted persistence file (spec §4.5).
func KrbCredToCredentials(kc messages.KrbCred) ([]credential.Credential, error) {
	if kc.EncPart.Etype != messages.NoEncryption {
		return nil, &Error{Kind: KindKrbCredEncrypted}
	}
	encPart, _, err := messages.DecodeEncKrbCredPart(kc.EncPart.Cipher)
	if err != nil {
		return nil, binaryParse(err)
	}
	if len(encPart.TicketInfo) != len(kc.Tickets) {
		return nil, missingField("KRB-CRED.ticket-info")
	}

	creds := make([]credential.Credential, 0, len(kc.Tickets))
	for i, tkt := range kc.Tickets {
		creds = append(creds, krbCredInfoToCredential(tkt, encPart.TicketInfo[i]))
	}
	return creds, nil
}

func credentialToKrbCredInfo(c credential.Credential) messages.KrbCredInfo {
	pRealm := c.Client.Realm
	pName := c.Client.Name
	sRealm := c.Server.Realm
	sName := c.Server.Name
	flags := messages.KerberosFlags(c.Flags)
	authTime := messages.KerberosTime(c.Times.AuthTime)

	info := messages.KrbCredInfo{
		Key:      messages.EncryptionKey{KeyType: c.Key.Etype, KeyValue: c.Key.Value},
		PRealm:   &pRealm,
		PName:    &pName,
		Flags:    &flags,
		AuthTime: &authTime,
		SRealm:   &sRealm,
		SName:    &sName,
		CAddr:    mapAddressesOut(c.Addresses),
	}

	if start, ok := mapStartTimeOut(c.Times); ok {
		t := messages.KerberosTime(start)
		info.StartTime = &t
	}
	end := messages.KerberosTime(c.Times.EndTime)
	info.EndTime = &end
	if renew, ok := mapRenewTillOut(c.Times); ok {
		t := messages.KerberosTime(renew)
		info.RenewTill = &t
	}

	return info
}

func krbCredInfoToCredential(tkt messages.Ticket, info messages.KrbCredInfo) credential.Credential {
	var c credential.Credential
	if info.PRealm != nil {
		c.Client.Realm = *info.PRealm
	}
	if info.PName != nil {
		c.Client.Name = *info.PName
	}
	if info.SRealm != nil {
		c.Server.Realm = *info.SRealm
	} else {
		c.Server.Realm = tkt.Realm
	}
	if info.SName != nil {
		c.Server.Name = *info.SName
	} else {
		c.Server.Name = tkt.SName
	}

	c.Key = credential.KeyBlock{Etype: info.Key.KeyType, Value: info.Key.KeyValue}

	if info.Flags != nil {
		c.Flags = uint32(*info.Flags)
	}

	c.Times = mapTimesIn(info)
	c.Addresses = mapAddressesIn(info.CAddr)
	c.Ticket = tkt.Encode()
	return c
}

// mapStartTimeOut implements the starttime reconciliation rule: a starttime
// equal to (or zero alongside) authtime is reconciled to "absent" on the
// wire, since that is the default a KDC assumes when starttime is omitted.
func mapStartTimeOut(t credential.Times) (time.Time, bool) {
	if t.StartTime.IsZero() || t.StartTime.Equal(t.AuthTime) {
		return time.Time{}, false
	}
	return t.StartTime, true
}

// mapRenewTillOut implements the renew-till reconciliation rule: a zero
// renew-till is reconciled to "absent" (not renewable).
func mapRenewTillOut(t credential.Times) (time.Time, bool) {
	if t.RenewTill.IsZero() {
		return time.Time{}, false
	}
	return t.RenewTill, true
}

// mapTimesIn reverses mapStartTimeOut/mapRenewTillOut: an absent starttime
// becomes authtime, an absent renew-till becomes the zero value.
func mapTimesIn(info messages.KrbCredInfo) credential.Times {
	var t credential.Times
	if info.AuthTime != nil {
		t.AuthTime = info.AuthTime.Time()
	}
	if info.StartTime != nil {
		t.StartTime = info.StartTime.Time()
	} else {
		t.StartTime = t.AuthTime
	}
	if info.EndTime != nil {
		t.EndTime = info.EndTime.Time()
	}
	if info.RenewTill != nil {
		t.RenewTill = info.RenewTill.Time()
	}
	return t
}

// mapAddressesOut reconciles an empty address list to "absent": CAddr is
// nil rather than an empty SEQUENCE when there is nothing to carry.
func mapAddressesOut(addrs []messages.HostAddress) []messages.HostAddress {
	if len(addrs) == 0 {
		return nil
	}
	return addrs
}

// mapAddressesIn is mapAddressesOut's inverse; both absent and empty decode
// to a nil slice, matching credential.Credential's own zero value.
func mapAddressesIn(addrs []messages.HostAddress) []messages.HostAddress {
	if len(addrs) == 0 {
		return nil
	}
	return addrs
}
