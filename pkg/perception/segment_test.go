package perception

import (
	"errors"
	"image/color"
	"testing"

	"github.com/teslashibe/go-nedvision/pkg/detection"
	"gocv.io/x/gocv"
)

func TestSegmenter_SolidColors(t *testing.T) {
	seg, err := NewSegmenter(DefaultRanges())
	if err != nil {
		t.Fatalf("NewSegmenter failed: %v", err)
	}

	tests := []struct {
		name string
		rgb  color.RGBA
		want map[detection.Color]bool
	}{
		{"pure_red", rgbRed, map[detection.Color]bool{detection.Red: true}},
		// hue ~178, inside the upper red band only
		{"wrapped_red", color.RGBA{255, 0, 20, 255}, map[detection.Color]bool{detection.Red: true}},
		{"pure_green", rgbGreen, map[detection.Color]bool{detection.Green: true}},
		{"pure_blue", rgbBlue, map[detection.Color]bool{detection.Blue: true}},
		{"black", color.RGBA{0, 0, 0, 255}, nil},
		{"gray", color.RGBA{128, 128, 128, 255}, nil},
		{"yellow", color.RGBA{255, 255, 0, 255}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := solidFrame(8, 8, tt.rgb)
			defer frame.Close()

			masks, err := seg.Segment(frame)
			if err != nil {
				t.Fatalf("Segment failed: %v", err)
			}
			if len(masks) != 3 {
				t.Fatalf("expected 3 masks, got %d", len(masks))
			}

			for _, m := range masks {
				set := gocv.CountNonZero(m.Mat)
				if tt.want[m.Color] && set != 64 {
					t.Errorf("%s mask: %d pixels set, want all 64", m.Color, set)
				}
				if !tt.want[m.Color] && set != 0 {
					t.Errorf("%s mask: %d pixels set, want 0", m.Color, set)
				}
				m.Close()
			}
		})
	}
}

func TestSegmenter_ScanOrder(t *testing.T) {
	seg, err := NewSegmenter(DefaultRanges())
	if err != nil {
		t.Fatalf("NewSegmenter failed: %v", err)
	}

	frame := blankFrame(4, 4)
	defer frame.Close()

	masks, err := seg.Segment(frame)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	want := []detection.Color{detection.Red, detection.Green, detection.Blue}
	for i, m := range masks {
		if m.Color != want[i] {
			t.Errorf("mask %d: got %s, want %s", i, m.Color, want[i])
		}
		if gocv.CountNonZero(m.Mat) != 0 {
			t.Errorf("black frame should give an empty %s mask", m.Color)
		}
		m.Close()
	}
}

func TestSegmenter_EmptyFrame(t *testing.T) {
	seg, _ := NewSegmenter(DefaultRanges())
	frame := gocv.NewMat()
	defer frame.Close()

	if _, err := seg.Segment(frame); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("expected ErrEmptyFrame, got %v", err)
	}
}

func TestColorRange_Validate(t *testing.T) {
	tests := []struct {
		name    string
		r       ColorRange
		wantErr bool
	}{
		{"default_red", DefaultRanges()[0], false},
		{"no_bounds", ColorRange{Color: detection.Green}, true},
		{"three_bounds", ColorRange{Color: detection.Green, Bounds: []HSVBound{
			Bound(0, 0, 0, 1, 1, 1), Bound(0, 0, 0, 1, 1, 1), Bound(0, 0, 0, 1, 1, 1),
		}}, true},
		{"low_above_high", ColorRange{Color: detection.Blue, Bounds: []HSVBound{Bound(130, 100, 50, 95, 255, 255)}}, true},
		{"hue_out_of_range", ColorRange{Color: detection.Blue, Bounds: []HSVBound{Bound(95, 100, 50, 200, 255, 255)}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRange) {
				t.Errorf("expected ErrInvalidRange, got %v", err)
			}
		})
	}
}

func TestValidateRanges_Duplicate(t *testing.T) {
	ranges := append(DefaultRanges(), DefaultRanges()[2])
	if err := ValidateRanges(ranges); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected duplicate color error, got %v", err)
	}
	if err := ValidateRanges(nil); err == nil {
		t.Error("expected error for empty ranges")
	}
}

func TestColorRange_Contains(t *testing.T) {
	red := DefaultRanges()[0]
	if !red.Contains(5, 200, 200) {
		t.Error("hue 5 should be red")
	}
	if !red.Contains(178, 200, 200) {
		t.Error("hue 178 should be red (wrapped band)")
	}
	if red.Contains(90, 200, 200) {
		t.Error("hue 90 should not be red")
	}
	if red.Contains(5, 50, 200) {
		t.Error("low saturation should not be red")
	}
}
