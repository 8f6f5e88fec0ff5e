package wms

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/terrabrasilis/wmscap/pkg/errors"
)

func withNested(layers ...Layer) *Capabilities {
	return &Capabilities{Capability: Capability{Layer: &Layer{Layer: layers}}}
}

func TestDimensions(t *testing.T) {
	caps := withNested(Layer{Dimension: []Dimension{{
		Name:  "time",
		Value: "2020-01-01T00:00:00Z,2020-01-02T00:00:00Z",
	}}})

	got, err := Dimensions(caps)
	if err != nil {
		t.Fatalf("Dimensions failed: %v", err)
	}

	want := []time.Time{
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.Local),
		time.Date(2020, 1, 2, 0, 0, 0, 0, time.Local),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("value[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDimensions_Fixture(t *testing.T) {
	got, err := Dimensions(loadFixture(t))
	if err != nil {
		t.Fatalf("Dimensions failed: %v", err)
	}
	if len(got) != 2 || got[1].Day() != 2 || got[1].Hour() != 0 {
		t.Errorf("Dimensions = %v", got)
	}
}

func TestDimensions_Errors(t *testing.T) {
	tests := []struct {
		name string
		caps *Capabilities
		want error
	}{
		{"nil document", nil, ErrDimensionNotFound},
		{"no root layer", &Capabilities{}, ErrDimensionNotFound},
		{"empty nested layers", withNested(), ErrDimensionNotFound},
		{"no dimension", withNested(Layer{Name: "plain"}), ErrNoDimension},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Dimensions(tt.caps)
			if !stderrors.Is(err, tt.want) {
				t.Errorf("Dimensions() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDimensions_ErrorCodes(t *testing.T) {
	_, err := Dimensions(nil)
	if !errors.Is(err, errors.ErrCodeDimensionNotFound) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeDimensionNotFound)
	}
	_, err = Dimensions(withNested(Layer{}))
	if !errors.Is(err, errors.ErrCodeNoDimension) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeNoDimension)
	}
}

func TestParseDimensionValues(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    []time.Time
		wantErr bool
	}{
		{
			name:  "date only",
			value: "2019-08-01",
			want:  []time.Time{time.Date(2019, 8, 1, 0, 0, 0, 0, time.Local)},
		},
		{
			name:  "spaces and fraction",
			value: "2019-08-01T10:30:00.500Z, 2019-08-02T10:30Z",
			want: []time.Time{
				time.Date(2019, 8, 1, 10, 30, 0, 500000000, time.Local),
				time.Date(2019, 8, 2, 10, 30, 0, 0, time.Local),
			},
		},
		{
			name:  "explicit offset",
			value: "2020-01-01T00:00:00-03:00",
			want:  []time.Time{time.Date(2020, 1, 1, 3, 0, 0, 0, time.UTC)},
		},
		{name: "interval", value: "2019-01-01/2020-01-01/P1Y", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDimensionValues(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDimensionValues(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidDimension) {
					t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidDimension)
				}
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if !got[i].Equal(tt.want[i]) {
					t.Errorf("value[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLayerDimensions_Nil(t *testing.T) {
	if _, err := LayerDimensions(nil); !stderrors.Is(err, ErrNoDimension) {
		t.Errorf("LayerDimensions(nil) error = %v, want ErrNoDimension", err)
	}
}
