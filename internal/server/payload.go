package server

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/thedunerats/ocr-js-poc-demo/internal/net"
)

// decodeBody decodes a JSON object keeping numbers as json.Number so labels
// can be told apart from non-integers.
func decodeBody(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// truthy follows JSON truthiness: false, 0, "", [], {} and null are false.
func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	return true
}

// decodeSamples checks every item against the sample schema. Sample positions
// in errors start at offset.
func decodeSamples(items []any, offset int) ([]net.Sample, error) {
	samples := make([]net.Sample, 0, len(items))
	for i, item := range items {
		s, err := decodeSample(offset+i, item)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func decodeSample(idx int, item any) (net.Sample, error) {
	obj, _ := item.(map[string]any)
	rawPixels, ok := obj["y0"]
	if !ok || rawPixels == nil {
		return net.Sample{}, net.MissingField(idx, "y0")
	}
	rawLabel, ok := obj["label"]
	if !ok || rawLabel == nil {
		return net.Sample{}, net.MissingField(idx, "label")
	}

	list, ok := rawPixels.([]any)
	if !ok {
		return net.Sample{}, notArray(idx, "y0", rawPixels)
	}
	if len(list) != net.InputSize {
		return net.Sample{}, net.ShapeError(idx, "y0", len(list))
	}
	label, ok := parseLabel(rawLabel)
	if !ok {
		return net.Sample{}, net.RangeError(idx, rawLabel)
	}
	pixels, err := parsePixels(idx, "y0", list)
	if err != nil {
		return net.Sample{}, err
	}
	return net.Sample{Pixels: pixels, Label: &label}, nil
}

func notArray(idx int, field string, v any) *net.ValidationError {
	return &net.ValidationError{
		Sample: idx,
		Field:  field,
		Kind:   net.ErrType,
		Value:  v,
		Detail: fmt.Sprintf("must be an array of %d numbers", net.InputSize),
	}
}

func parseLabel(v any) (int, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	label, err := strconv.Atoi(n.String())
	if err != nil || label < 0 || label >= net.Classes {
		return 0, false
	}
	return label, true
}

// parsePixels converts numbers and numeric strings.
func parsePixels(idx int, field string, list []any) ([]float64, error) {
	pixels := make([]float64, len(list))
	for j, v := range list {
		var (
			f   float64
			err error
		)
		switch v := v.(type) {
		case json.Number:
			f, err = v.Float64()
		case string:
			f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
		default:
			err = fmt.Errorf("unsupported type %T", v)
		}
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, net.TypeError(idx, field, j, v)
		}
		pixels[j] = f
	}
	return pixels, nil
}

// intOption reads an optional integer field, returning def when absent.
func intOption(payload map[string]any, key string, def int) (int, bool) {
	v, ok := payload[key]
	if !ok || v == nil {
		return def, true
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, false
	}
	return i, true
}
