package quadrant

import "strings"

// RegionType is the administrative level of a region
type RegionType string

const (
	Kabupaten RegionType = "Kabupaten"
	Kota      RegionType = "Kota"
	Unknown   RegionType = "Unknown"
)

// ClassifyRegion infers the region type from its name prefix
func ClassifyRegion(name string) RegionType {
	upper := strings.ToUpper(strings.TrimSpace(name))
	switch {
	case strings.HasPrefix(upper, "KOTA "):
		return Kota
	case strings.HasPrefix(upper, "KABUPATEN "), strings.HasPrefix(upper, "KAB. "):
		return Kabupaten
	}
	return Unknown
}
