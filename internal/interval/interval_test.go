package interval

import "testing"

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                           string
		startA, endA, startB, endB     string
		want                           bool
	}{
		{name: "touching endpoints", startA: "10:00", endA: "11:00", startB: "11:00", endB: "12:00", want: false},
		{name: "partial overlap", startA: "10:00", endA: "11:00", startB: "10:30", endB: "11:30", want: true},
		{name: "disjoint", startA: "10:00", endA: "11:00", startB: "11:01", endB: "12:00", want: false},
		{name: "contained", startA: "09:00", endA: "12:00", startB: "10:00", endB: "11:00", want: true},
		{name: "identical", startA: "10:00", endA: "11:00", startB: "10:00", endB: "11:00", want: true},
		{name: "touching before", startA: "11:00", endA: "12:00", startB: "10:00", endB: "11:00", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sa := mustParse(t, tt.startA)
			ea := mustParse(t, tt.endA)
			sb := mustParse(t, tt.startB)
			eb := mustParse(t, tt.endB)
			if got := Overlaps(sa, ea, sb, eb); got != tt.want {
				t.Fatalf("Overlaps(%s-%s, %s-%s) = %v, want %v", tt.startA, tt.endA, tt.startB, tt.endB, got, tt.want)
			}
			// Overlap is symmetric.
			if got := Overlaps(sb, eb, sa, ea); got != tt.want {
				t.Fatalf("Overlaps not symmetric for %s-%s vs %s-%s", tt.startA, tt.endA, tt.startB, tt.endB)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		value   string
		want    int
		wantErr bool
	}{
		{value: "00:00", want: 0},
		{value: "09:30", want: 570},
		{value: "23:59", want: 1439},
		{value: " 08:00 ", want: 480},
		{value: "24:00", wantErr: true},
		{value: "12:60", wantErr: true},
		{value: "midnight", wantErr: true},
		{value: "1200", wantErr: true},
		{value: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.value)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseClock(%q) expected error, got %d", tt.value, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", tt.value, err)
		}
		if got != tt.want {
			t.Fatalf("ParseClock(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(570); got != "09:30" {
		t.Fatalf("FormatClock(570) = %q", got)
	}
	if got := FormatClock(0); got != "00:00" {
		t.Fatalf("FormatClock(0) = %q", got)
	}
	if got := FormatClock(1439); got != "23:59" {
		t.Fatalf("FormatClock(1439) = %q", got)
	}
}

func mustParse(t *testing.T, value string) int {
	t.Helper()
	minutes, err := ParseClock(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return minutes
}
