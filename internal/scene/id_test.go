package scene

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    ID
		wantErr string // field reported by ParseError
	}{
		{
			name:  "full id with suffix",
			input: "LC82070232015032LGN00",
			want:  ID{Sensor: "LC8", Path: 207, Row: 23, Year: 2015, DOY: 32, Suffix: "LGN00"},
		},
		{
			name:  "bare prefix",
			input: "LE71000212000001",
			want:  ID{Sensor: "LE7", Path: 100, Row: 21, Year: 2000, DOY: 1},
		},
		{
			name:  "leap day 366",
			input: "LT52060222016366",
			want:  ID{Sensor: "LT5", Path: 206, Row: 22, Year: 2016, DOY: 366},
		},
		{name: "truncated", input: "LC8207023201503", wantErr: "length"},
		{name: "overlong", input: "LC82070232015032LGN001", wantErr: "length"},
		{name: "bad sensor letter", input: "XC82070232015032", wantErr: "sensor"},
		{name: "bad instrument", input: "LZ82070232015032", wantErr: "sensor"},
		{name: "path out of range", input: "LC80000232015032", wantErr: "path"},
		{name: "row not numeric", input: "LC8207A232015032", wantErr: "row"},
		{name: "doy 366 in common year", input: "LC82070232015366", wantErr: "doy"},
		{name: "doy zero", input: "LC82070232015000", wantErr: "doy"},
		{name: "lowercase suffix", input: "LC82070232015032lgn00", wantErr: "suffix"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.input)
			if tc.wantErr != "" {
				var perr *ParseError
				if !errors.As(err, &perr) {
					t.Fatalf("expected *ParseError, got %v", err)
				}
				if perr.Field != tc.wantErr {
					t.Errorf("expected field %q, got %q (%v)", tc.wantErr, perr.Field, perr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
			if got.String() != tc.input {
				t.Errorf("round trip: expected %q, got %q", tc.input, got.String())
			}
		})
	}
}

func TestIDAccessors(t *testing.T) {
	id := MustParse("LC81000212020001LGN01")

	if id.Prefix() != "LC81000212020001" {
		t.Errorf("unexpected prefix %q", id.Prefix())
	}
	if id.WithRow(20) != "LC81000202020001" {
		t.Errorf("unexpected neighbour prefix %q", id.WithRow(20))
	}
	if id.Family() != FamilyL8 {
		t.Errorf("expected L8 family, got %v", id.Family())
	}
	if MustParse("LT51000212020001").Family() != FamilyL47 {
		t.Error("expected Landsat 5 in the L47 family")
	}
	if id.DateKey() != (DateKey{Year: 2020, DOY: 1}) {
		t.Errorf("unexpected date key %v", id.DateKey())
	}
}

func TestDateKey(t *testing.T) {
	d, err := ParseDateKey("2016060")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2016, time.February, 29, 0, 0, 0, 0, time.UTC)
	if !d.Time().Equal(want) {
		t.Errorf("expected %v, got %v", want, d.Time())
	}
	if DateKeyOf(want) != d {
		t.Errorf("DateKeyOf mismatch: %v", DateKeyOf(want))
	}
	if !(DateKey{2015, 365}).Less(DateKey{2016, 1}) {
		t.Error("expected year to dominate ordering")
	}
	if _, err := ParseDateKey("2015366"); err == nil {
		t.Error("expected error for day 366 of a common year")
	}
}

func TestParseProductName(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"legacy artifact", "LC82070232018093LGN00_ref_ITM.dat", "LC82070232018093"},
		{"collection product", "LC08_L1TP_207023_20180403_20180417_01_T1_ref_ITM.dat", "LC82070232018093"},
		{"espa order", "LE070010022018123101T1-SC20190101120000.tar.gz", "LE70010022018365"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ParseProductName(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id.Prefix() != tc.want {
				t.Errorf("expected %q, got %q", tc.want, id.Prefix())
			}
		})
	}

	if _, err := ParseProductName("readme.txt"); err == nil {
		t.Error("expected error for unrelated file")
	}
}

func TestLevelsAndFamilies(t *testing.T) {
	for in, want := range map[string]Level{"L1TP": LevelL1TP, "l1t": LevelL1TP, "L1GT": LevelL1GT, "L1G": LevelL1GS} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("PR"); err == nil {
		t.Error("expected error for unknown level")
	}
	if f, _ := ParseFamily("l8"); f != FamilyL8 {
		t.Errorf("expected L8, got %v", f)
	}
	if f, _ := ParseFamily("7"); f != FamilyL47 {
		t.Errorf("expected L47, got %v", f)
	}
}

func TestRecordEqual(t *testing.T) {
	a := &Record{ID: MustParse("LC82070232015032"), CloudCover: Float(10), Extra: map[string]string{"a": "1"}}
	b := &Record{ID: MustParse("LC82070232015032"), CloudCover: Float(10), Extra: map[string]string{"a": "1"}}
	if !a.Equal(b) {
		t.Error("expected equal records")
	}
	b.CloudCover = Float(11)
	if a.Equal(b) {
		t.Error("expected cloud cover difference to be detected")
	}
	if a.OutputID() != "LC82070232015032" {
		t.Errorf("expected scene id fallback, got %q", a.OutputID())
	}
}
