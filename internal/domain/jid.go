package domain

import "strings"

// DirectChatServer is the JID server of one-to-one WhatsApp conversations.
// Groups (g.us), broadcasts and newsletters use other servers.
const DirectChatServer = "s.whatsapp.net"

// JID is a parsed WhatsApp address, e.g. 5511999@s.whatsapp.net
type JID struct {
	User   string
	Server string
}

// ParseJID splits a remote JID into its user and server parts
func ParseJID(s string) JID {
	user, server, _ := strings.Cut(s, "@")
	return JID{User: user, Server: server}
}

// IsDirect reports whether the JID addresses a person-to-person chat
func (j JID) IsDirect() bool {
	return j.Server == DirectChatServer
}

// PhoneFromWUID extracts the paired number from a gateway wuid.
// It returns false when wuid is empty.
func PhoneFromWUID(wuid string) (string, bool) {
	if wuid == "" {
		return "", false
	}
	return strings.Replace(wuid, "@"+DirectChatServer, "", 1), true
}
