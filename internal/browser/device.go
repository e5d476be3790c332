package browser

import (
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/device"
)

// DefaultDevice is used for unknown or empty iOS profile names.
const DefaultDevice = "iPhone 13"

var devices = map[string]chromedp.Device{
	"iphone 13":         device.IPhone13,
	"iphone 13 pro":     device.IPhone13Pro,
	"iphone 13 pro max": device.IPhone13ProMax,
	"iphone 13 mini":    device.IPhone13Mini,
	"iphone 12":         device.IPhone12,
	"iphone 12 pro":     device.IPhone12Pro,
	"iphone 12 pro max": device.IPhone12ProMax,
	"iphone 12 mini":    device.IPhone12Mini,
	"iphone 11":         device.IPhone11,
	"iphone 11 pro":     device.IPhone11Pro,
	"iphone 11 pro max": device.IPhone11ProMax,
	"iphone x":          device.IPhoneX,
	"iphone xr":         device.IPhoneXR,
	"iphone se":         device.IPhoneSE,
}

// DeviceFor returns the emulated device for an iOS profile name such as "iPhone 12".
// Matching ignores case and surrounding spaces; unknown names fall back to DefaultDevice.
func DeviceFor(profile string) chromedp.Device {
	if d, ok := lookupDevice(profile); ok {
		return d
	}
	d, _ := lookupDevice(DefaultDevice)
	return d
}

// KnownDevice reports whether profile names a supported device.
func KnownDevice(profile string) bool {
	_, ok := lookupDevice(profile)
	return ok
}

func lookupDevice(profile string) (chromedp.Device, bool) {
	key := strings.Join(strings.Fields(strings.ToLower(profile)), " ")
	d, ok := devices[key]
	return d, ok
}
