package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := map[string]struct {
		input string
		want  string
	}{
		"ipv4 host":           {"192.168.1.47", "192.168.1.0"},
		"ipv4 network":        {"10.0.0.0", "10.0.0.0"},
		"ipv4 broadcast":      {"172.16.50.255", "172.16.50.0"},
		"ipv4 mapped ipv6":    {"::ffff:203.0.113.9", "203.0.113.0"},
		"ipv6 full":           {"2001:db8:85a3::8a2e:370:7334", "2001:db8:85a3::"},
		"ipv6 loopback":       {"::1", "::"},
		"ipv6 with zone":      {"fe80::1%eth0", "fe80::"},
		"empty":               {"", "unknown"},
		"unknown placeholder": {"unknown", "unknown"},
		"garbage":             {"not-an-ip", "invalid"},
		"host and port":       {"192.168.1.1:8080", "invalid"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, AnonymizeIP(tc.input))
		})
	}
}
