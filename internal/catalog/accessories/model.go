package accessories

// AccessoryType enumerates what a customer can hand in with a device.
type AccessoryType string

const (
	AccessoryCover   AccessoryType = "cover"
	AccessorySIM     AccessoryType = "sim"
	AccessorySDCard  AccessoryType = "sd_card"
	AccessorySIMTray AccessoryType = "sim_tray"
	AccessoryCharger AccessoryType = "charger"
)

// Accessory represents an item that may accompany a device into repair.
type Accessory struct {
	ID     int64         `json:"id"`
	Name   string        `json:"name"`
	Type   AccessoryType `json:"type"`
	Active bool          `json:"active"`
}
