package wms

import (
	"strings"
	"time"

	"github.com/terrabrasilis/wmscap/pkg/errors"
)

var (
	// ErrDimensionNotFound is returned by [Dimensions] when the document is
	// nil or has no nested layers to read a dimension from.
	ErrDimensionNotFound = errors.New(errors.ErrCodeDimensionNotFound,
		"failed to get or parse time dimension from layer capabilities")

	// ErrNoDimension is returned when the layer carries no Dimension element.
	ErrNoDimension = errors.New(errors.ErrCodeNoDimension, "layer does not contain any dimension")
)

// dimensionLayouts are tried in order. Fractional seconds are accepted by the
// first layout without being spelled out. Values without an offset are local
// times; a value carrying an explicit numeric offset ("+03:00") keeps it, so
// it denotes that instant rather than a local wall-clock time.
var dimensionLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01-02T15:04:05-07:00",
}

// Dimensions returns the values of the first dimension of the first nested
// layer (capability.layer.layer[0]) in document order.
func Dimensions(c *Capabilities) ([]time.Time, error) {
	if c == nil || c.Capability.Layer == nil || len(c.Capability.Layer.Layer) == 0 {
		return nil, ErrDimensionNotFound
	}
	return LayerDimensions(&c.Capability.Layer.Layer[0])
}

// LayerDimensions returns the values of l's first dimension.
func LayerDimensions(l *Layer) ([]time.Time, error) {
	if l == nil || len(l.Dimension) == 0 {
		return nil, ErrNoDimension
	}
	return ParseDimensionValues(l.Dimension[0].Value)
}

// ParseDimensionValues splits a comma-separated dimension value and parses
// each item as a local date-time. Every "Z" is removed before parsing, so
// "2020-01-01T00:00:00Z" reads as midnight local time. An explicit numeric
// offset such as "2020-01-01T00:00:00-03:00" is honoured.
func ParseDimensionValues(value string) ([]time.Time, error) {
	items := strings.Split(value, ",")
	out := make([]time.Time, 0, len(items))
	for _, item := range items {
		t, err := parseLocal(strings.ReplaceAll(strings.TrimSpace(item), "Z", ""))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDimension, err, "parse dimension value %q", item)
		}
		out = append(out, t)
	}
	return out, nil
}

func parseLocal(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range dimensionLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
