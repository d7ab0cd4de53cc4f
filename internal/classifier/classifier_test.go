package classifier

import (
	"errors"
	"math"
	"testing"

	"weather_relay/internal/models"
)

func TestDefaultTables_BoundariesFallOnExpectedSide(t *testing.T) {
	t.Parallel()

	set := Default()
	for _, ch := range Channels {
		ch := ch
		t.Run(string(ch), func(t *testing.T) {
			t.Parallel()
			tbl, ok := set.Table(ch)
			if !ok {
				t.Fatalf("missing table for %s", ch)
			}
			for i, b := range tbl.Bands {
				below := tbl.Floor
				if i+1 < len(tbl.Bands) {
					below = tbl.Bands[i+1]
				}
				cases := []struct {
					v    float64
					want string
				}{
					{b.Threshold, b.Key},
					{b.Threshold + 1, b.Key},
					{b.Threshold - 1, below.Key},
					{math.Nextafter(b.Threshold, math.Inf(-1)), below.Key},
				}
				for _, tc := range cases {
					if got := tbl.Classify(tc.v); got.Key != tc.want {
						t.Errorf("value %v: got %q, want %q", tc.v, got.Key, tc.want)
					}
				}
			}
		})
	}
}

func TestClassify_IsTotal(t *testing.T) {
	t.Parallel()

	tbl, _ := DefaultTable(Temperature)
	valid := map[string]bool{tbl.Floor.Key: true}
	for _, b := range tbl.Bands {
		valid[b.Key] = true
	}
	for _, v := range []float64{math.Inf(-1), -273.15, -1, 0, 19.999, 20, 27.5, 35, 1e9, math.Inf(1), math.NaN()} {
		got := tbl.Classify(v)
		if !valid[got.Key] {
			t.Fatalf("value %v mapped to unknown band %+v", v, got)
		}
	}
	if got := tbl.Classify(math.NaN()); got.Key != tbl.Floor.Key {
		t.Fatalf("NaN: got %q, want floor %q", got.Key, tbl.Floor.Key)
	}
}

func TestClassify_InclusiveBoundaryDiffersFromStrictLegacy(t *testing.T) {
	t.Parallel()

	// The legacy firmware compared light and humidity with ">"; boundaries are now inclusive.
	set := Default()
	cases := []struct {
		ch   Channel
		v    float64
		want string
	}{
		{Light, 50000, "very_bright"},
		{Light, 10, "dim"},
		{Light, 9.99, "very_dark"},
		{Temperature, 35, "very_hot"},
		{Temperature, 34.9, "hot"},
		{Humidity, 85, "very_humid"},
		{Humidity, 20, "dry"},
		{Humidity, 19, "very_dry"},
	}
	for _, tc := range cases {
		got, err := set.Classify(tc.ch, tc.v)
		if err != nil {
			t.Fatalf("Classify(%s, %v): %v", tc.ch, tc.v, err)
		}
		if got.Key != tc.want {
			t.Errorf("Classify(%s, %v) = %q, want %q", tc.ch, tc.v, got.Key, tc.want)
		}
	}
}

func TestSet_LabelsTopBands(t *testing.T) {
	t.Parallel()

	set := Default()
	l := set.Labels(models.Reading{Light: 51000, Temp: 36, Humidity: 90})
	if l.Light.Key != "very_bright" || l.Temperature.Key != "very_hot" || l.Humidity.Key != "very_humid" {
		t.Fatalf("unexpected labels: %+v", l)
	}
	for _, ch := range Channels {
		tbl, _ := set.Table(ch)
		if l.Get(ch) != tbl.Top() {
			t.Errorf("%s: got %+v, want top band %+v", ch, l.Get(ch), tbl.Top())
		}
	}
}

func TestSet_ClassifyUnknownChannel(t *testing.T) {
	t.Parallel()

	_, err := Default().Classify(Channel("pressure"), 1000)
	if !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
}

func TestTable_Validate(t *testing.T) {
	t.Parallel()

	floor := Band{Key: "low", Label: "low"}
	cases := []struct {
		name    string
		ch      Channel
		bands   []Band
		floor   Band
		wantErr error
	}{
		{
			name:  "valid",
			ch:    Light,
			bands: []Band{{Threshold: 10, Key: "a", Label: "A"}, {Threshold: 5, Key: "b", Label: "B"}},
			floor: floor,
		},
		{
			name:    "ascending thresholds",
			ch:      Light,
			bands:   []Band{{Threshold: 5, Key: "a", Label: "A"}, {Threshold: 10, Key: "b", Label: "B"}},
			floor:   floor,
			wantErr: ErrInvalidTable,
		},
		{
			name:    "equal thresholds overlap",
			ch:      Light,
			bands:   []Band{{Threshold: 5, Key: "a", Label: "A"}, {Threshold: 5, Key: "b", Label: "B"}},
			floor:   floor,
			wantErr: ErrInvalidTable,
		},
		{
			name:    "duplicate key",
			ch:      Humidity,
			bands:   []Band{{Threshold: 5, Key: "low", Label: "A"}},
			floor:   floor,
			wantErr: ErrInvalidTable,
		},
		{
			name:    "missing label",
			ch:      Humidity,
			bands:   []Band{{Threshold: 5, Key: "a"}},
			floor:   floor,
			wantErr: ErrInvalidTable,
		},
		{
			name:    "no bands",
			ch:      Temperature,
			floor:   floor,
			wantErr: ErrInvalidTable,
		},
		{
			name:    "unknown channel",
			ch:      Channel("wind"),
			bands:   []Band{{Threshold: 5, Key: "a", Label: "A"}},
			floor:   floor,
			wantErr: ErrUnknownChannel,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewTable(tc.ch, tc.bands, tc.floor)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewSet_RequiresEveryChannel(t *testing.T) {
	t.Parallel()

	light, _ := DefaultTable(Light)
	temp, _ := DefaultTable(Temperature)
	if _, err := NewSet(light, temp); !errors.Is(err, ErrInvalidTable) {
		t.Fatalf("expected missing-table error, got %v", err)
	}
	hum, _ := DefaultTable(Humidity)
	if _, err := NewSet(light, temp, hum, light); !errors.Is(err, ErrInvalidTable) {
		t.Fatalf("expected duplicate-table error, got %v", err)
	}
	if _, err := NewSet(light, temp, hum); err != nil {
		t.Fatalf("NewSet: %v", err)
	}
}
