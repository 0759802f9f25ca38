package models

// Preferences holds the scalar settings persisted next to the calibration records.
type Preferences struct {
	NetworkName   string `json:"network_name"`
	NetworkSecret string `json:"-"` // never rendered
	DeviceName    string `json:"device_name"`
	Port          int    `json:"port"`
}

const (
	// SchemaVersion is the layout version of the persisted blobs.
	SchemaVersion = 1

	DefaultNetworkName   = "defnet"
	DefaultNetworkSecret = "iknowits42"
	DefaultDeviceName    = "Skull"
	DefaultPort          = 23
)

// DefaultPreferences returns the built-in preference values.
func DefaultPreferences() Preferences {
	return Preferences{
		NetworkName:   DefaultNetworkName,
		NetworkSecret: DefaultNetworkSecret,
		DeviceName:    DefaultDeviceName,
		Port:          DefaultPort,
	}
}
