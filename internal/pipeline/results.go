package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ToJSON serializes results to pretty JSON.
func ToJSON(results ...*FileResult) (string, error) {
	var v any = results
	if len(results) == 1 {
		v = results[0]
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ValidateImageResult performs simple consistency checks.
func ValidateImageResult(res *ImageResult) error {
	if res == nil {
		return errors.New("nil result")
	}
	if res.Width <= 0 || res.Height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", res.Width, res.Height)
	}
	switch res.Orientation.Angle {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("invalid orientation angle %d", res.Orientation.Angle)
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		return fmt.Errorf("confidence %.3f out of range", res.Confidence)
	}
	for i, l := range res.Lines {
		if l.Confidence < 0 || l.Confidence > 1 {
			return fmt.Errorf("line %d confidence out of range", i)
		}
	}
	return nil
}
