package serial

import "runtime"

// defaultPort picks the usual name of a USB-UART adapter on the host platform
func defaultPort() string {
	switch runtime.GOOS {
	case "windows":
		return "COM1"
	case "darwin":
		return "/dev/cu.usbserial"
	default:
		return "/dev/ttyUSB0"
	}
}
