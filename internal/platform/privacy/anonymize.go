// Package privacy reduces personal data before it reaches logs.
package privacy

import (
	"fmt"
	"net"
	"strings"
)

// AnonymizeIP truncates an IP address to its network portion.
//
// IPv4 keeps the /24 prefix ("192.168.1.47" -> "192.168.1.0").
// IPv6 keeps the /48 prefix ("2001:db8:85a3::8a2e:370:7334" -> "2001:0db8:85a3::").
//
// Returns "invalid" for unparseable input and "unknown" for empty input.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}

	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}

// MaskEmail keeps the first character of the local part and the domain,
// e.g. "john.smith@example.com" -> "j***@example.com".
// Input without an "@" is fully masked.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}
