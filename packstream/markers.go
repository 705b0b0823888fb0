package packstream

// Marker bytes from the PackStream wire format. Tiny forms pack their
// length/value into the marker byte itself; the rest carry an explicit
// length prefix of the narrowest width that fits.
const (
	markerTinyIntMax = 0x7F // TinyInt positive range: 0x00..0x7F
	markerTinyIntMin = 0xF0 // TinyInt negative range: 0xF0..0xFF (-16..-1)

	MarkerNull    byte = 0xC0
	MarkerFloat64 byte = 0xC1
	MarkerFalse   byte = 0xC2
	MarkerTrue    byte = 0xC3

	MarkerInt8  byte = 0xC8
	MarkerInt16 byte = 0xC9
	MarkerInt32 byte = 0xCA
	MarkerInt64 byte = 0xCB

	MarkerBytes8  byte = 0xCC
	MarkerBytes16 byte = 0xCD
	MarkerBytes32 byte = 0xCE

	markerTinyStringMin = 0x80
	markerTinyStringMax = 0x8F
	MarkerString8       byte = 0xD0
	MarkerString16      byte = 0xD1
	MarkerString32      byte = 0xD2

	markerTinyListMin = 0x90
	markerTinyListMax = 0x9F
	MarkerList8       byte = 0xD4
	MarkerList16      byte = 0xD5
	MarkerList32      byte = 0xD6

	markerTinyMapMin = 0xA0
	markerTinyMapMax = 0xAF
	MarkerMap8       byte = 0xD8
	MarkerMap16      byte = 0xD9
	MarkerMap32      byte = 0xDA

	markerTinyStructMin = 0xB0
	markerTinyStructMax = 0xBF
)
