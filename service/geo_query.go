package service

import "strings"

// BuildGeoQuery picks a place term (address, then venue) and an area term
// (city, then neighborhood). Either term alone is enough for a query; with
// neither, ok is false and the caller keeps only the raw text fields.
func BuildGeoQuery(venue, address, city, neighborhood *string) (query string, ok bool) {
	place := firstPresent(address, venue)
	area := firstPresent(city, neighborhood)

	switch {
	case place != "" && area != "":
		return place + ", " + area, true
	case place != "":
		return place, true
	case area != "":
		return area, true
	}
	return "", false
}

func firstPresent(values ...*string) string {
	for _, v := range values {
		if v == nil {
			continue
		}
		if s := strings.TrimSpace(*v); s != "" {
			return s
		}
	}
	return ""
}
