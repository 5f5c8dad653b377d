package pipeline

import "fmt"

// Configuration tree paths on the device. The devices are managed
// standalone (no Panorama), so everything lives under the
// localhost.localdomain entry and vsys1.
const (
	xpathDeviceEntry = "/config/devices/entry[@name='localhost.localdomain']"

	xpathEthernet      = xpathDeviceEntry + "/network/interface/ethernet"
	xpathHA            = xpathDeviceEntry + "/deviceconfig/high-availability"
	xpathHAGroup       = xpathHA + "/group"
	xpathHAInterface   = xpathHA + "/interface"
	xpathZones         = xpathDeviceEntry + "/vsys/entry[@name='vsys1']/zone"
	xpathSecurityRules = xpathDeviceEntry + "/vsys/entry[@name='vsys1']/rulebase/security/rules"
	xpathNATRules      = xpathDeviceEntry + "/vsys/entry[@name='vsys1']/rulebase/nat/rules"
)

func xpathEthernetPort(port string) string {
	return fmt.Sprintf("%s/entry[@name='%s']", xpathEthernet, port)
}

func xpathVirtualRouter(name string) string {
	return fmt.Sprintf("%s/network/virtual-router/entry[@name='%s']", xpathDeviceEntry, name)
}

func xpathDefaultRoute(routerName string) string {
	return fmt.Sprintf("%s/routing-table/ip/static-route/entry[@name='default_route']", xpathVirtualRouter(routerName))
}
