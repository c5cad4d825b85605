package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{"2024-03-01", Date{2024, time.March, 1}, false},
		{"2024-12-31", Date{2024, time.December, 31}, false},
		{"2024-02-30", Date{}, true},
		{"01/03/2024", Date{}, true},
		{"", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDateOfUsesLocation(t *testing.T) {
	harare := time.FixedZone("CAT", 2*60*60)
	instant := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)

	if got := DateOf(instant); got.String() != "2024-03-01" {
		t.Errorf("UTC date = %s, want 2024-03-01", got)
	}
	if got := DateOf(instant.In(harare)); got.String() != "2024-03-02" {
		t.Errorf("CAT date = %s, want 2024-03-02", got)
	}
}

func TestDateOrdering(t *testing.T) {
	a := MustParseDate("2024-02-28")
	b := a.AddDays(2)

	if b.String() != "2024-03-01" {
		t.Fatalf("AddDays across leap month = %s, want 2024-03-01", b)
	}
	if !a.Before(b) || b.Before(a) || !b.After(a) {
		t.Error("ordering mismatch")
	}
	if a.Compare(a) != 0 {
		t.Error("a date should compare equal to itself")
	}
}

func TestDateValueScan(t *testing.T) {
	d := MustParseDate("2024-07-15")

	v, err := d.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != "2024-07-15" {
		t.Errorf("Value = %v, want 2024-07-15", v)
	}

	for _, src := range []any{"2024-07-15", []byte("2024-07-15"), time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)} {
		var got Date
		if err := got.Scan(src); err != nil {
			t.Fatalf("Scan(%T): %v", src, err)
		}
		if got != d {
			t.Errorf("Scan(%T) = %v, want %v", src, got, d)
		}
	}

	var zero Date
	if v, _ := zero.Value(); v != nil {
		t.Errorf("zero Value = %v, want nil", v)
	}
	if err := zero.Scan(12); err == nil {
		t.Error("expected error scanning an int")
	}
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		Date Date `json:"date"`
	}

	data, err := json.Marshal(wrapper{Date: MustParseDate("2024-01-09")})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"date":"2024-01-09"}` {
		t.Errorf("JSON = %s", data)
	}

	var back wrapper
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Date.String() != "2024-01-09" {
		t.Errorf("round trip = %s", back.Date)
	}
}
