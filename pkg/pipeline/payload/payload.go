// Package payload renders the XML fragments staged into the firewalls'
// candidate configuration. The fragments are text/template files embedded
// in the binary; parameters come from the pipeline settings.
package payload

import (
	"bytes"
	"embed"
	"text/template"

	"github.com/pkg/errors"
)

//go:embed templates/*.xml.tmpl
var files embed.FS

var templates = template.Must(template.ParseFS(files, "templates/*.xml.tmpl"))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errors.Wrapf(err, "render payload %s", name)
	}
	return buf.String(), nil
}

// HAGroupParams fills the HA group element. PeerIP is the HA1 address of
// the other node; Priority decides the election (lower wins).
type HAGroupParams struct {
	GroupID  int
	PeerIP   string
	Priority int
}

// HAGroup renders the high-availability group element.
func HAGroup(p HAGroupParams) (string, error) {
	return render("ha_group.xml.tmpl", p)
}

// HAInterfaceParams fills the dedicated HA1/HA2 link element for one node.
type HAInterfaceParams struct {
	HA1Port string
	HA1IP   string
	HA2Port string
	HA2IP   string
	Netmask string
}

// HAInterfaces renders the high-availability interface element.
func HAInterfaces(p HAInterfaceParams) (string, error) {
	return render("ha_interface.xml.tmpl", p)
}

// NetworkParams fills the baseline network policy payloads: data
// interfaces, zones, routing, security and NAT.
type NetworkParams struct {
	UntrustInterface string
	UntrustIP        string
	UntrustZone      string
	TrustInterface   string
	TrustIP          string
	TrustZone        string
	TrustSubnet      string
	DefaultGateway   string
}

// DataInterfaces renders the layer3 ethernet entries.
func DataInterfaces(p NetworkParams) (string, error) {
	return render("data_interfaces.xml.tmpl", p)
}

// Zones renders the trust and untrust zone entries.
func Zones(p NetworkParams) (string, error) {
	return render("zones.xml.tmpl", p)
}

// VirtualRouter renders the virtual router interface membership.
func VirtualRouter(p NetworkParams) (string, error) {
	return render("virtual_router.xml.tmpl", p)
}

// DefaultRoute renders the 0.0.0.0/0 static route entry.
func DefaultRoute(p NetworkParams) (string, error) {
	return render("static_route.xml.tmpl", p)
}

// SecurityPolicy renders the baseline outbound allow rule.
func SecurityPolicy(p NetworkParams) (string, error) {
	return render("security_policy.xml.tmpl", p)
}

// SourceNAT renders the outbound interface-address SNAT rule.
func SourceNAT(p NetworkParams) (string, error) {
	return render("source_nat.xml.tmpl", p)
}
