package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"

	"caremonitor/pkg/requestcontext"
)

// MaxXFFHeaderLength bounds the X-Forwarded-For header we are willing to parse.
const MaxXFFHeaderLength = 500

// ClientMetadata extracts the client IP, User-Agent and a readable device
// label into the request context. Forwarding headers are honoured only when
// the direct peer is in TrustedProxies.
type ClientMetadata struct {
	TrustedProxies []netip.Prefix
}

// NewClientMetadata parses trusted proxy CIDRs. Invalid entries are returned
// as an error.
func NewClientMetadata(trusted ...string) (*ClientMetadata, error) {
	m := &ClientMetadata{}
	for _, cidr := range trusted {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			return nil, err
		}
		m.TrustedProxies = append(m.TrustedProxies, prefix)
	}
	return m, nil
}

func (m *ClientMetadata) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent := r.Header.Get("User-Agent")

		ctx := requestcontext.WithClientMetadata(r.Context(), m.clientIP(r), userAgent)
		ctx = requestcontext.WithDeviceLabel(ctx, DeviceLabel(userAgent))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *ClientMetadata) clientIP(r *http.Request) string {
	remoteIP := parseRemoteAddr(r.RemoteAddr)
	if remoteIP == "" {
		return "unknown"
	}

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		if xri := r.Header.Get("X-Real-IP"); xri != "" && m.isTrustedProxy(remoteIP) && len(xri) <= MaxXFFHeaderLength {
			return strings.TrimSpace(xri)
		}
		return remoteIP
	}
	if !m.isTrustedProxy(remoteIP) || len(xff) > MaxXFFHeaderLength {
		return remoteIP
	}

	first, _, _ := strings.Cut(xff, ",")
	clientIP := strings.TrimSpace(first)
	if _, err := netip.ParseAddr(clientIP); err != nil {
		return remoteIP
	}
	return clientIP
}

func (m *ClientMetadata) isTrustedProxy(ip string) bool {
	if len(m.TrustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range m.TrustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func parseRemoteAddr(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	if addrPort, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return addrPort.Addr().String()
	}
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 && !strings.Contains(remoteAddr[:idx], ":") {
		return remoteAddr[:idx]
	}
	return strings.Trim(remoteAddr, "[]")
}

// DeviceLabel renders a User-Agent as "Browser on OS", e.g. "Chrome on Linux".
func DeviceLabel(userAgent string) string {
	if userAgent == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}
	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
