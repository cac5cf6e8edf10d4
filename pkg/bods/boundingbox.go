package bods

import (
	"fmt"
	"strconv"
	"strings"
)

type BoundingBox struct {
	MinLongitude float64 `validate:"gte=-180,lte=180,ltefield=MaxLongitude"`
	MinLatitude  float64 `validate:"gte=-90,lte=90,ltefield=MaxLatitude"`
	MaxLongitude float64 `validate:"gte=-180,lte=180"`
	MaxLatitude  float64 `validate:"gte=-90,lte=90"`
}

func (b BoundingBox) List() []float64 {
	return []float64{b.MinLongitude, b.MinLatitude, b.MaxLongitude, b.MaxLatitude}
}

func (b BoundingBox) CSV() string {
	values := make([]string, 0, 4)
	for _, f := range b.List() {
		values = append(values, strconv.FormatFloat(f, 'f', -1, 64))
	}

	return strings.Join(values, ",")
}

// ParseBoundingBox reads the CSV form produced by CSV.
func ParseBoundingBox(csv string) (*BoundingBox, error) {
	parts := strings.Split(csv, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bounding box needs 4 comma separated values, got %d", len(parts))
	}

	var values [4]float64
	for i, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("bounding box value %q: %w", part, err)
		}
		values[i] = value
	}

	return &BoundingBox{
		MinLongitude: values[0],
		MinLatitude:  values[1],
		MaxLongitude: values[2],
		MaxLatitude:  values[3],
	}, nil
}
