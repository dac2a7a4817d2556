package geo

import "math"

// EncodePolyline encodes points using Google's polyline algorithm with
// precision 5. See https://developers.google.com/maps/documentation/utilities/polylinealgorithm
func EncodePolyline(points []Coordinate) string {
	if len(points) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(points)*4)
	var prevLat, prevLon int

	for _, p := range points {
		lat := int(math.Round(p.Lat * 1e5))
		lon := int(math.Round(p.Lon * 1e5))

		buf = appendVarint(buf, lat-prevLat)
		buf = appendVarint(buf, lon-prevLon)

		prevLat, prevLon = lat, lon
	}

	return string(buf)
}

// DecodePolyline reverses EncodePolyline for consumers of encoded leg
// geometry; the server itself only encodes. Points are rounded to 1e-5
// degrees, and a trailing incomplete point is dropped.
func DecodePolyline(encoded string) []Coordinate {
	if encoded == "" {
		return nil
	}

	var (
		points   []Coordinate
		lat, lon int
		idx      int
	)

	for idx < len(encoded) {
		dLat, next, ok := readVarint(encoded, idx)
		if !ok {
			break
		}
		dLon, after, ok := readVarint(encoded, next)
		if !ok {
			break
		}
		idx = after

		lat += dLat
		lon += dLon
		points = append(points, Coordinate{Lat: float64(lat) / 1e5, Lon: float64(lon) / 1e5})
	}

	return points
}

func appendVarint(buf []byte, v int) []byte {
	if v < 0 {
		v = ^(v << 1)
	} else {
		v <<= 1
	}

	for v >= 0x20 {
		buf = append(buf, byte((v&0x1f)|0x20)+63)
		v >>= 5
	}
	return append(buf, byte(v)+63)
}

// readVarint decodes one value starting at idx. ok is false when the input
// ends before the value's final chunk.
func readVarint(encoded string, idx int) (v, next int, ok bool) {
	var shift, result int

	for idx < len(encoded) {
		b := int(encoded[idx]) - 63
		idx++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			ok = true
			break
		}
	}
	if !ok {
		return 0, idx, false
	}

	if result&1 != 0 {
		return ^(result >> 1), idx, true
	}
	return result >> 1, idx, true
}
