package models

import "testing"

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{95, "1h 35m"},
		{60, "1h 0m"},
		{45, "0h 45m"},
		{1500, "25h 0m"},
	}
	for _, tt := range tests {
		if got := FormatMinutes(tt.minutes); got != tt.want {
			t.Errorf("FormatMinutes(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestClockHour(t *testing.T) {
	tests := []struct {
		at   string
		want float64
	}{
		{"2026-09-10T08:00:00", 8},
		{"2026-09-10T19:30:00", 19.5},
		{"2026-09-10T23:45", 23.75},
		{"garbage", 0},
	}
	for _, tt := range tests {
		p := SegmentPoint{At: tt.at}
		if got := p.ClockHour(); got != tt.want {
			t.Errorf("ClockHour(%q) = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestCarrierCodesUnionFirstSeenOrder(t *testing.T) {
	o := Offer{Itineraries: []Itinerary{
		{Segments: []Segment{{CarrierCode: "qf"}, {CarrierCode: "JQ"}}},
		{Segments: []Segment{{CarrierCode: "QF"}, {CarrierCode: "VA"}}},
	}}

	got := o.CarrierCodes()
	want := []string{"QF", "JQ", "VA"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, limit, want int
	}{
		{25, 10, 3},
		{30, 10, 3},
		{0, 10, 0},
		{5, 0, 0},
	}
	for _, tt := range tests {
		m := Meta{Total: tt.total, Limit: tt.limit}
		if got := m.TotalPages(); got != tt.want {
			t.Errorf("TotalPages(%d,%d) = %d, want %d", tt.total, tt.limit, got, tt.want)
		}
	}
}
