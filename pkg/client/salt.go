package client

import (
	"strings"

	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/messages"
)

// defaultSalt computes the AES string-to-key salt used when a KDC's
// PA-ETYPE-INFO2 entry carries no explicit salt (spec §4.3): realm followed
// by the principal's name components joined without a separator.
//
// For a machine account (name ending in "$") MS-KILE specifies a different
// salt, REALM + "host" + lowercased-fqdn, rather than the general-principal
// formula; the Rust source this library is derived from left that case as
// an untranslated placeholder (spec §9, Open Question). We follow MS-KILE:
// the fqdn is the account name with its trailing "$" stripped and
// lowercased, which is the hostname Windows derives the account name from.
func defaultSalt(realm messages.Realm, name messages.PrincipalName) string {
	if name.IsMachineAccount() {
		fqdn := strings.ToLower(strings.TrimSuffix(name.Join(), "$"))
		return string(realm) + "host" + fqdn
	}
	return string(realm) + name.Join()
}
