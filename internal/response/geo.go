package response

import (
	"encoding/json"
	"math"
	"strconv"
)

const earthRadiusMeters = 6371000

// Point is a latitude/longitude pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// BoundingBox is the extent of a set of points.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Distance returns the great-circle distance in meters (haversine).
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Coordinates extracts a point from a GeoJSON geometry, a geocoded_column
// value, or latitude/longitude columns.
func Coordinates(rec Record) (Point, bool) {
	if g, ok := asMap(rec["geometry"]); ok {
		if p, ok := pointFromGeometry(g); ok {
			return p, true
		}
	}
	if loc, ok := rec.Get("geocoded_column"); ok {
		if m, ok := asMap(loc); ok {
			if p, ok := pointFromGeometry(m); ok {
				return p, true
			}
			if p, ok := pointFromLatLon(m["latitude"], m["longitude"]); ok {
				return p, true
			}
		}
	}
	lat, _ := rec.Get("latitude")
	lon, _ := rec.Get("longitude")
	return pointFromLatLon(lat, lon)
}

func pointFromGeometry(g map[string]any) (Point, bool) {
	if t, _ := g["type"].(string); t != "Point" {
		return Point{}, false
	}
	coords, ok := g["coordinates"].([]any)
	if !ok || len(coords) < 2 {
		return Point{}, false
	}
	// GeoJSON order is [lon, lat].
	return pointFromLatLon(coords[1], coords[0])
}

func pointFromLatLon(lat, lon any) (Point, bool) {
	la, ok1 := toFloat(lat)
	lo, ok2 := toFloat(lon)
	if !ok1 || !ok2 || (la == 0 && lo == 0) {
		return Point{}, false
	}
	return Point{Latitude: la, Longitude: lo}, true
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

// Bounds returns the bounding box of every record with coordinates.
func (r *Response) Bounds() (BoundingBox, bool) {
	var box BoundingBox
	found := false
	for _, rec := range r.Data {
		p, ok := Coordinates(rec)
		if !ok {
			continue
		}
		if !found {
			box = BoundingBox{MinLat: p.Latitude, MinLon: p.Longitude, MaxLat: p.Latitude, MaxLon: p.Longitude}
			found = true
			continue
		}
		box.MinLat = math.Min(box.MinLat, p.Latitude)
		box.MinLon = math.Min(box.MinLon, p.Longitude)
		box.MaxLat = math.Max(box.MaxLat, p.Latitude)
		box.MaxLon = math.Max(box.MaxLon, p.Longitude)
	}
	return box, found
}

// Feature is a GeoJSON point feature.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry is a GeoJSON point geometry.
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Features converts records with coordinates into GeoJSON. Records without
// coordinates are skipped. Properties are shallow copies of each record.
func (r *Response) Features() FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
	for _, rec := range r.Data {
		p, ok := Coordinates(rec)
		if !ok {
			continue
		}
		props := make(map[string]any, len(rec))
		src := map[string]any(rec)
		if inner, ok := asMap(rec["properties"]); ok {
			src = inner
		}
		for k, v := range src {
			if k == "geometry" || k == "geocoded_column" {
				continue
			}
			props[k] = v
		}
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Geometry:   Geometry{Type: "Point", Coordinates: [2]float64{p.Longitude, p.Latitude}},
			Properties: props,
		})
	}
	return fc
}
