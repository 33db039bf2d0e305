package simulator

import (
	"errors"
	"testing"
	"time"
)

func TestNewFrameValidation(t *testing.T) {
	tests := []struct {
		name    string
		times   []time.Time
		assets  []string
		wantErr error
	}{
		{"empty axis", nil, []string{"AAPL"}, ErrConfiguration},
		{"duplicate timestamp", []time.Time{day(0), day(0)}, []string{"AAPL"}, ErrConfiguration},
		{"decreasing axis", []time.Time{day(1), day(0)}, []string{"AAPL"}, ErrConfiguration},
		{"duplicate asset", days(2), []string{"AAPL", "AAPL"}, ErrConfiguration},
		{"valid", days(2), []string{"AAPL", "MSFT"}, nil},
		{"valid without assets", days(2), nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFrame(tt.times, tt.assets)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewFrame() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFrameSetAt(t *testing.T) {
	f := mkFrame(t, days(3), map[string][]string{"AAPL": {"100", "", "102"}})

	if err := f.Set(0, "MSFT", dec("1")); !errors.Is(err, ErrDomain) {
		t.Errorf("Set(unknown asset) error = %v, want ErrDomain", err)
	}
	if err := f.Set(3, "AAPL", dec("1")); !errors.Is(err, ErrDomain) {
		t.Errorf("Set(row out of range) error = %v, want ErrDomain", err)
	}

	wantUnit(t, f, 0, "AAPL", "100")
	wantUnit(t, f, 1, "AAPL", "")
	wantUnit(t, f, 2, "AAPL", "102")

	if _, ok := f.At(0, "MSFT"); ok {
		t.Error("At(unknown asset) reported data")
	}
}

func TestFrameIndexOf(t *testing.T) {
	f := mkFrame(t, days(3), map[string][]string{"AAPL": {"1", "2", "3"}})

	for i := 0; i < 3; i++ {
		got, ok := f.IndexOf(day(i))
		if !ok || got != i {
			t.Errorf("IndexOf(day %d) = %d, %v", i, got, ok)
		}
	}
	if _, ok := f.IndexOf(day(7)); ok {
		t.Error("IndexOf(uncovered day) reported a match")
	}
}

func TestFrameRow(t *testing.T) {
	f := mkFrame(t, days(2), map[string][]string{
		"AAPL": {"100", "101"},
		"MSFT": {"", "50"},
	})

	row := f.Row(0)
	if len(row) != 1 || !row["AAPL"].Equal(dec("100")) {
		t.Errorf("Row(0) = %v, want only AAPL=100", row)
	}
	row = f.Row(1)
	if len(row) != 2 {
		t.Errorf("Row(1) = %v, want AAPL and MSFT", row)
	}
}

func TestFrameCheckContiguous(t *testing.T) {
	tests := []struct {
		name    string
		cells   []string
		wantErr error
	}{
		{"full column", []string{"1", "2", "3", "4"}, nil},
		{"prefix missing", []string{"", "2", "3", "4"}, nil},
		{"suffix missing", []string{"1", "2", "", ""}, nil},
		{"both ends missing", []string{"", "2", "3", ""}, nil},
		{"all missing", []string{"", "", "", ""}, nil},
		{"interior gap", []string{"1", "", "3", "4"}, ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mkFrame(t, days(4), map[string][]string{"AAPL": tt.cells})
			if err := f.checkContiguous(); !errors.Is(err, tt.wantErr) {
				t.Errorf("checkContiguous() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
