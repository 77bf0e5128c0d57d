// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifedit

import (
	"fmt"
	"math"
	"strings"
)

// Axis is a GPS coordinate axis.
type Axis int

const (
	Latitude Axis = iota
	Longitude
)

func (a Axis) refs() (pos, neg string) {
	if a == Latitude {
		return "N", "S"
	}
	return "E", "W"
}

// ToDecimal converts a degrees/minutes/seconds triple and its hemisphere
// reference to decimal degrees. South and West are negative.
// It returns false if the coordinate has fewer than three elements.
func ToDecimal(coord []float64, ref string) (float64, bool) {
	if len(coord) < 3 {
		return 0, false
	}
	d := coord[0] + coord[1]/60 + coord[2]/3600
	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "S", "W":
		d = -d
	}
	return d, true
}

// ToEXIF converts decimal degrees to a degrees/minutes/seconds triple and
// its hemisphere reference on the given axis.
func ToEXIF(decimal float64, axis Axis) ([]float64, string) {
	pos, neg := axis.refs()
	ref := pos
	if decimal < 0 {
		ref = neg
	}
	abs := math.Abs(decimal)
	deg := math.Floor(abs)
	minutesFull := (abs - deg) * 60
	min := math.Floor(minutesFull)
	sec := (minutesFull - min) * 60
	return []float64{deg, min, sec}, ref
}

// FormatCoordinate renders a coordinate as 37°48'12.50"N.
func FormatCoordinate(coord []float64, ref string) string {
	if len(coord) < 3 {
		return ""
	}
	return fmt.Sprintf("%d°%d'%.2f\"%s", int64(math.Floor(coord[0])), int64(math.Floor(coord[1])), coord[2], ref)
}

// FormatGPSTime renders a GPSTimeStamp triple as HH:MM:SS.
func FormatGPSTime(t []float64) string {
	if len(t) < 3 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:%02d", int64(math.Floor(t[0])), int64(math.Floor(t[1])), int64(math.Floor(t[2])))
}

// FormatAltitude renders GPSAltitude in meters, negative below sea level (ref 1).
func FormatAltitude(alt float64, ref int64) string {
	sign := ""
	if ref == 1 {
		sign = "-"
	}
	return sign + formatFloat(alt) + "m"
}

// LatLong returns the decimal position stored in the GPSInfo section.
func (t Tree) LatLong() (lat, lng float64, ok bool) {
	gps := t[SectionGPS]
	if gps == nil {
		return 0, 0, false
	}
	latv, ok1 := toFloat64Slice(gps["GPSLatitude"])
	lngv, ok2 := toFloat64Slice(gps["GPSLongitude"])
	latRef, ok3 := gps["GPSLatitudeRef"].(string)
	lngRef, ok4 := gps["GPSLongitudeRef"].(string)
	if !(ok1 && ok2 && ok3 && ok4) {
		return 0, 0, false
	}
	lat, ok1 = ToDecimal(latv, latRef)
	lng, ok2 = ToDecimal(lngv, lngRef)
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	return lat, lng, true
}

// WithLatLong returns a copy of t with the position set to lat, lng.
func (t Tree) WithLatLong(lat, lng float64) Tree {
	c := t.Clone()
	if c == nil {
		c = Tree{}
	}
	gps := c[SectionGPS]
	if gps == nil {
		gps = Fields{}
		c[SectionGPS] = gps
	}
	gps["GPSLatitude"], gps["GPSLatitudeRef"] = ToEXIF(lat, Latitude)
	gps["GPSLongitude"], gps["GPSLongitudeRef"] = ToEXIF(lng, Longitude)
	return c
}
