package wgconf

import (
	"fmt"
	"strings"

	"github.com/jaxxstorm/relaygen/internal/model"
)

const (
	InterfaceAddress = "10.5.0.2/32"
	AllowedIPs       = "0.0.0.0/0, ::/0"
	EndpointPort     = 51820
)

// Synthesize renders the WireGuard profile for server. Preference values are
// embedded as given; callers validate them.
func Synthesize(prefs model.UserPreferences, server model.ServerRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Configuration for %s (%s) - %s, %s\n", server.Hostname, server.Station, server.City, server.Country)
	b.WriteString("[Interface]\n")
	b.WriteString("Address = " + InterfaceAddress + "\n")
	b.WriteString("PrivateKey = " + prefs.PrivateKey + "\n")
	b.WriteString("DNS = " + prefs.DNS + "\n")
	b.WriteString("MTU = " + prefs.MTU + "\n")

	b.WriteString("\n[Peer]\n")
	b.WriteString("PublicKey = " + server.PublicKey + "\n")
	b.WriteString("AllowedIPs = " + AllowedIPs + "\n")
	fmt.Fprintf(&b, "Endpoint = %s:%d", server.Hostname, EndpointPort)

	return b.String()
}

func FileName(server model.ServerRecord) string {
	return "nord-" + server.Identifier + ".conf"
}

func QRFileName(server model.ServerRecord) string {
	return "nord-" + server.Identifier + ".png"
}
