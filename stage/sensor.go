package stage

// SensorPreset describes the physical dimensions of a camera sensor in
// millimetres.
type SensorPreset struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Manufacturer string  `json:"manufacturer,omitempty"`
}

// DefaultSensorPresetID is the preset applied to newly created cameras.
const DefaultSensorPresetID = "super35-4perf"

// SensorPresets lists the sensors selectable in the editor.
var SensorPresets = []SensorPreset{
	{ID: "full-frame", Name: "Full Frame", Width: 36, Height: 24, Manufacturer: "Standard"},
	{ID: "super35-4perf", Name: "Super 35mm (4 perf)", Width: 24.89, Height: 18.66, Manufacturer: "Standard"},
	{ID: "super35-3perf", Name: "Super 35mm (3 perf)", Width: 24.89, Height: 14.0, Manufacturer: "Standard"},
	{ID: "red-monstro-8k-vv", Name: "RED Monstro 8K VV", Width: 40.96, Height: 21.6, Manufacturer: "RED"},
	{ID: "red-komodo", Name: "RED KOMODO 6K", Width: 27.03, Height: 14.26, Manufacturer: "RED"},
	{ID: "arri-alexa-35", Name: "ARRI Alexa 35", Width: 27.99, Height: 19.22, Manufacturer: "ARRI"},
	{ID: "arri-alexa-lf", Name: "ARRI Alexa LF", Width: 36.7, Height: 25.54, Manufacturer: "ARRI"},
	{ID: "arri-alexa-mini", Name: "ARRI Alexa Mini", Width: 28.25, Height: 18.17, Manufacturer: "ARRI"},
	{ID: "sony-venice", Name: "Sony VENICE", Width: 36.2, Height: 24.1, Manufacturer: "Sony"},
	{ID: "sony-venice-2", Name: "Sony VENICE 2", Width: 36.2, Height: 24.1, Manufacturer: "Sony"},
	{ID: "sony-fx6", Name: "Sony FX6", Width: 35.6, Height: 23.8, Manufacturer: "Sony"},
	{ID: "bmpcc-6k", Name: "Blackmagic 6K", Width: 23.1, Height: 12.99, Manufacturer: "Blackmagic"},
	{ID: "bmpcc-6k-pro", Name: "Blackmagic 6K Pro", Width: 23.1, Height: 12.99, Manufacturer: "Blackmagic"},
	{ID: "bmpcc-4k", Name: "Blackmagic 4K", Width: 18.96, Height: 10.0, Manufacturer: "Blackmagic"},
	{ID: "canon-c70", Name: "Canon C70", Width: 26.2, Height: 13.8, Manufacturer: "Canon"},
	{ID: "canon-apsc", Name: "APS-C (Canon)", Width: 22.3, Height: 14.9, Manufacturer: "Canon"},
	{ID: "sony-apsc", Name: "APS-C (Sony)", Width: 23.5, Height: 15.6, Manufacturer: "Sony"},
	{ID: "mft", Name: "Micro Four Thirds", Width: 17.3, Height: 13.0, Manufacturer: "Standard"},
	{ID: "iphone-15-pro-main", Name: "iPhone 15 Pro Main", Width: 9.8, Height: 7.3, Manufacturer: "Apple"},
	{ID: "iphone-15-pro-ultrawide", Name: "iPhone 15 Pro Ultra Wide", Width: 7.6, Height: 5.7, Manufacturer: "Apple"},
}

// SensorPresetByID returns the preset with the given id.
func SensorPresetByID(id string) (SensorPreset, bool) {
	for _, preset := range SensorPresets {
		if preset.ID == id {
			return preset, true
		}
	}
	return SensorPreset{}, false
}

// SensorsByManufacturer filters the preset list by manufacturer.
func SensorsByManufacturer(manufacturer string) []SensorPreset {
	var out []SensorPreset
	for _, preset := range SensorPresets {
		if preset.Manufacturer == manufacturer {
			out = append(out, preset)
		}
	}
	return out
}

// CameraColors is the gizmo color palette assigned to new cameras.
var CameraColors = []string{
	"#00ff88",
	"#ff6b6b",
	"#4ecdc4",
	"#ffe66d",
	"#ff8c42",
	"#a855f7",
	"#3b82f6",
	"#f472b6",
	"#10b981",
	"#f59e0b",
}

// NextCameraColor picks the first palette color not in use, wrapping around
// when every color is taken.
func NextCameraColor(used map[string]bool) string {
	for _, color := range CameraColors {
		if !used[color] {
			return color
		}
	}
	return CameraColors[len(used)%len(CameraColors)]
}
