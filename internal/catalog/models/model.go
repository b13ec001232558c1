package models

// OperatingSystem enumerates device platforms.
type OperatingSystem string

const (
	OSAndroid OperatingSystem = "android"
	OSiOS     OperatingSystem = "ios"
	OSOther   OperatingSystem = "other"
)

// DeviceModel represents a specific model of a brand, e.g. "iPhone 15".
type DeviceModel struct {
	ID              int64           `json:"id"`
	BrandID         int64           `json:"brand_id"`
	BrandName       string          `json:"brand_name,omitempty"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	ReleaseYear     *int            `json:"release_year,omitempty"`
	OperatingSystem OperatingSystem `json:"operating_system"`
	Active          bool            `json:"active"`
}

// DisplayName joins brand and model the way order forms show devices.
func (m DeviceModel) DisplayName() string {
	if m.BrandName == "" {
		return m.Name
	}
	return m.BrandName + " " + m.Name
}
