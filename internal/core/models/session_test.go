package models

import (
	"testing"
	"time"
)

func TestSessionValidation(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		wantErr bool
	}{
		{
			name: "valid session",
			session: Session{
				ID:        "0ad5b47f4fcc6e5261acf13b240fb80c",
				Timestamp: Now(),
				Module:    "core",
				Prompt:    "Build the router",
			},
			wantErr: false,
		},
		{
			name: "missing id",
			session: Session{
				Timestamp: Now(),
			},
			wantErr: true,
		},
		{
			name: "missing timestamp",
			session: Session{
				ID: "abc",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	orig := NewTimestamp(time.Date(2024, 3, 9, 14, 5, 6, 123456789, time.Local))

	data, err := orig.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(data) != `"2024-03-09T14:05:06.123456"` {
		t.Errorf("MarshalJSON() = %s", data)
	}

	var back Timestamp
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if !back.Equal(orig.Time) {
		t.Errorf("round trip = %v, want %v", back, orig)
	}
}

func TestTimestampISO(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"microseconds", time.Date(2024, 3, 9, 14, 5, 6, 123456000, time.Local), "2024-03-09T14:05:06.123456"},
		{"whole second", time.Date(2024, 3, 9, 14, 5, 6, 0, time.Local), "2024-03-09T14:05:06"},
		{"sub-microsecond only", time.Date(2024, 3, 9, 14, 5, 6, 999, time.Local), "2024-03-09T14:05:06"},
		{"zero", time.Time{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewTimestamp(tt.in).ISO(); got != tt.want {
				t.Errorf("ISO() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimestampUnmarshalFormats(t *testing.T) {
	inputs := []string{
		`"2024-03-09T14:05:06.123456"`,
		`"2024-03-09T14:05:06"`,
		`"2024-03-09T14:05:06Z"`,
		`"2024-03-09 14:05:06"`,
	}
	for _, in := range inputs {
		var ts Timestamp
		if err := ts.UnmarshalJSON([]byte(in)); err != nil {
			t.Errorf("UnmarshalJSON(%s) error = %v", in, err)
			continue
		}
		if ts.Year() != 2024 || ts.Month() != time.March || ts.Day() != 9 {
			t.Errorf("UnmarshalJSON(%s) = %v", in, ts)
		}
	}

	var ts Timestamp
	if err := ts.UnmarshalJSON([]byte("null")); err != nil || !ts.IsZero() {
		t.Errorf("null should decode to zero timestamp, got %v (%v)", ts, err)
	}
	if err := ts.UnmarshalJSON([]byte(`"yesterday-ish"`)); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}
