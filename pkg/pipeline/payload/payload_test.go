package payload

import (
	"strings"
	"testing"
)

func TestHAGroupRendersPeerAndPriority(t *testing.T) {
	out, err := HAGroup(HAGroupParams{GroupID: 1, PeerIP: "10.255.0.2", Priority: 100})
	if err != nil {
		t.Fatalf("render ha group: %v", err)
	}
	for _, want := range []string{
		"<group-id>1</group-id>",
		"<peer-ip>10.255.0.2</peer-ip>",
		"<device-priority>100</device-priority>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in:\n%s", want, out)
		}
	}
}

func TestHAInterfacesRendersBothLinks(t *testing.T) {
	out, err := HAInterfaces(HAInterfaceParams{
		HA1Port: "ethernet1/4",
		HA1IP:   "10.255.0.1",
		HA2Port: "ethernet1/5",
		HA2IP:   "10.255.1.1",
		Netmask: "255.255.255.0",
	})
	if err != nil {
		t.Fatalf("render ha interfaces: %v", err)
	}
	if !strings.Contains(out, "<port>ethernet1/4</port>") || !strings.Contains(out, "<port>ethernet1/5</port>") {
		t.Fatalf("ports missing in:\n%s", out)
	}
}

func TestNetworkPayloadsRenderAllConcerns(t *testing.T) {
	params := NetworkParams{
		UntrustInterface: "ethernet1/1",
		UntrustIP:        "203.0.113.10/24",
		UntrustZone:      "untrust",
		TrustInterface:   "ethernet1/2",
		TrustIP:          "192.168.10.1/24",
		TrustZone:        "trust",
		TrustSubnet:      "192.168.10.0/24",
		DefaultGateway:   "203.0.113.1",
	}
	cases := []struct {
		name   string
		render func(NetworkParams) (string, error)
		want   string
	}{
		{"interfaces", DataInterfaces, `entry name="ethernet1/1"`},
		{"zones", Zones, `entry name="trust"`},
		{"router", VirtualRouter, "<member>ethernet1/2</member>"},
		{"route", DefaultRoute, "<ip-address>203.0.113.1</ip-address>"},
		{"security", SecurityPolicy, "<action>allow</action>"},
		{"nat", SourceNAT, "<interface>ethernet1/1</interface>"},
	}
	for _, tc := range cases {
		out, err := tc.render(params)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !strings.Contains(out, tc.want) {
			t.Fatalf("%s: missing %s in:\n%s", tc.name, tc.want, out)
		}
	}
}
