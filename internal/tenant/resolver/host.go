package resolver

import (
	"net"
	"slices"
	"strings"
)

// normalizeHost lower-cases the request host and strips any port.
func normalizeHost(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimPrefix(strings.TrimSuffix(host, "]"), "[")
	return strings.TrimSuffix(host, ".")
}

// isLocalHost reports hosts used in local development, which never carry tenant identity.
func isLocalHost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1", "0.0.0.0":
		return true
	}
	return strings.HasSuffix(host, ".localhost")
}

func isIP(host string) bool {
	return net.ParseIP(host) != nil
}

// subdomainOf extracts the tenant label from host. With a platform domain only
// hosts under it qualify; otherwise the host needs at least three labels.
func subdomainOf(host, platformDomain string, reserved []string) string {
	if isLocalHost(host) || isIP(host) {
		return ""
	}

	var label string
	if platformDomain != "" {
		rest, ok := strings.CutSuffix(host, "."+platformDomain)
		if !ok || rest == "" {
			return ""
		}
		label, _, _ = strings.Cut(rest, ".")
	} else {
		labels := strings.Split(host, ".")
		if len(labels) < 3 {
			return ""
		}
		label = labels[0]
	}

	if label == "" || slices.Contains(reserved, label) {
		return ""
	}
	return label
}
