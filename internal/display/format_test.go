package display

import (
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0 B"},
		{"small bytes", 512, "512 B"},
		{"exactly 1 KiB", 1024, "1.0 KiB"},
		{"1.5 KiB", 1536, "1.5 KiB"},
		{"1 MiB", 1024 * 1024, "1.0 MiB"},
		{"one field file", 536870912, "512.0 MiB"},
		{"4.7 GiB", 5046586572, "4.7 GiB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatBytes(tt.bytes); got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatBytesWithSign(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{1024 * 1024, "+ 1.0 MiB"},
		{-1024 * 1024, "- 1.0 MiB"},
		{0, "0 B"},
	}
	for _, tt := range tests {
		if got := FormatBytesWithSign(tt.bytes); got != tt.want {
			t.Errorf("FormatBytesWithSign(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestFormatReduction(t *testing.T) {
	tests := []struct {
		name    string
		in, out int64
		want    string
	}{
		{"stride 2 cube", 8000, 1000, "87.5% smaller"},
		{"unchanged", 100, 100, "0.0% smaller"},
		{"grew", 100, 150, "50.0% larger"},
		{"empty input", 0, 10, "n/a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatReduction(tt.in, tt.out); got != tt.want {
				t.Errorf("FormatReduction(%d, %d) = %q, want %q", tt.in, tt.out, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{1500 * time.Millisecond, "0:02"},
		{16 * time.Second, "0:16"},
		{61 * time.Minute, "1:01:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
