package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// DistanceTo returns the great-circle distance to q in kilometers.
func (p Point) DistanceTo(q Point) float64 {
	return DistanceKm(p.Lat, p.Lng, q.Lat, q.Lng)
}

// DistanceKm calculates the great-circle distance between two points using the
// haversine formula. Out-of-range angles are accepted as raw angles and
// NaN/Inf inputs propagate to the result.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push a slightly past 1 for near-antipodal points.
	a = math.Min(a, 1)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}

// WithinRadius returns the indexes of points no further than radiusKm from
// origin, preserving input order. A non-positive radius keeps everything.
func WithinRadius(points []Point, origin Point, radiusKm float64) []int {
	idx := make([]int, 0, len(points))
	for i, p := range points {
		if radiusKm > 0 && origin.DistanceTo(p) > radiusKm {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}
