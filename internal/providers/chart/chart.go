// Package chart extracts chart data from element props and scales it for
// text and HTML hosts.
package chart

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Kinds understood by the hosts
const (
	KindBar  = "bar"
	KindLine = "line"
)

// Point is one labelled value
type Point struct {
	Label string
	Value float64
}

// Series is the decoded data of a Chart element
type Series struct {
	Kind   string
	Title  string
	Points []Point
}

// FromProps decodes a Chart element's props. Malformed points are skipped;
// the renderer never fails on chart data.
func FromProps(props map[string]any) Series {
	s := Series{Kind: KindBar}
	if kind, ok := props["kind"].(string); ok && kind != "" {
		s.Kind = kind
	}
	if title, ok := props["title"].(string); ok {
		s.Title = title
	}

	data, _ := props["data"].([]any)
	for _, raw := range data {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		value, ok := toFloat(obj["value"])
		if !ok {
			continue
		}
		label, _ := obj["label"].(string)
		s.Points = append(s.Points, Point{Label: label, Value: value})
	}
	return s
}

// Values returns the point values in order
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Labels returns the point labels in order
func (s Series) Labels() []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Label
	}
	return out
}

// Summary describes a series numerically
type Summary struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
}

// Summarize computes min, max and mean. An empty series yields a zero Summary.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	return Summary{
		Count: len(values),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		Mean:  stat.Mean(values, nil),
	}
}

// Scale maps each value's magnitude onto [0, width], proportional to the
// largest magnitude in the series
func Scale(values []float64, width int) []int {
	out := make([]int, len(values))
	if len(values) == 0 || width <= 0 {
		return out
	}

	abs := make([]float64, len(values))
	for i, v := range values {
		abs[i] = math.Abs(v)
	}
	peak := floats.Max(abs)
	if peak == 0 || math.IsInf(peak, 0) || math.IsNaN(peak) {
		return out
	}

	floats.Scale(float64(width)/peak, abs)
	for i, v := range abs {
		out[i] = int(math.Round(v))
	}
	return out
}

// Fractions maps each value's magnitude onto [0, 1] relative to the peak
func Fractions(values []float64) []float64 {
	const resolution = 1000
	scaled := Scale(values, resolution)
	out := make([]float64, len(scaled))
	for i, v := range scaled {
		out[i] = float64(v) / resolution
	}
	return out
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders values as a one-line block graph between the series
// minimum and maximum
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := floats.Min(values), floats.Max(values)
	span := hi - lo

	var b strings.Builder
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = int(math.Round((v - lo) / span * float64(len(sparkRunes)-1)))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// FormatValue prints integers without a fractional part
func FormatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
