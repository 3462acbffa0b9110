package naming

import (
	"errors"
	"testing"
)

func TestImageName(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"exact hundreds", "particles.000300.vtu", "img.3.png"},
		{"leading path", "/data/lagr_stride_4/particles.012700.vtu", "img.127.png"},
		{"zero", "particles.000000.vtu", "img.0.png"},
		{"rounds down", "particles.000349.vtu", "img.3.png"},
		{"rounds up", "particles.000351.vtu", "img.4.png"},
		{"half to even down", "particles.000250.vtu", "img.2.png"},
		{"half to even up", "particles.000350.vtu", "img.4.png"},
		{"float field", "lagr.150.0.vtu", "img.2.png"},
		{"extra fields", "lagr.1200.part2.vtu", "img.12.png"},
		{"text input", "lagr.000900.txt", "img.9.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ImageName(tc.input)
			if err != nil {
				t.Fatalf("ImageName(%q) error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ImageName(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestImageName_Errors(t *testing.T) {
	for _, input := range []string{"particles.vtu", "particles_000300.vtu", "lagr.abc.vtu", "lagr.NaN.vtu"} {
		if _, err := ImageName(input); !errors.Is(err, ErrNoTimeIndex) {
			t.Errorf("ImageName(%q) error = %v, want ErrNoTimeIndex", input, err)
		}
	}
}

func TestFrameIndex(t *testing.T) {
	cases := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"img.0.png", 0, true},
		{"img.127.png", 127, true},
		{"/tmp/frames/img.12.png", 12, true},
		{"img.-1.png", 0, false},
		{"img.12.jpg", 0, false},
		{"snapshot.png", 0, false},
		{"img.1.2.png", 0, false},
	}
	for _, tc := range cases {
		got, ok := FrameIndex(tc.input)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("FrameIndex(%q) = (%d, %v), want (%d, %v)", tc.input, got, ok, tc.want, tc.wantOK)
		}
	}
	if n, ok := FrameIndex(FrameName(42)); !ok || n != 42 {
		t.Errorf("FrameIndex(FrameName(42)) = (%d, %v)", n, ok)
	}
}

func TestOutputPath(t *testing.T) {
	cases := []struct {
		dir, input, ext, want string
	}{
		{"/out", "/in/particles.000300.txt", ".vtu", "/out/particles.000300.vtu"},
		{"/out", "/in/fields.0003.nc", "", "/out/fields.0003.nc"},
		{"out", "noext", ".vtu", "out/noext.vtu"},
	}
	for _, tc := range cases {
		if got := OutputPath(tc.dir, tc.input, tc.ext); got != tc.want {
			t.Errorf("OutputPath(%q, %q, %q) = %q, want %q", tc.dir, tc.input, tc.ext, got, tc.want)
		}
	}
}

func TestStrideDir(t *testing.T) {
	cases := []struct {
		dir    string
		stride int
		want   string
	}{
		{"/data/vtk", 1, "/data/vtk"},
		{"/data/vtk", 4, "/data/vtk_stride_4"},
		{"/data/vtk_stride_4", 4, "/data/vtk_stride_4"},
		{"/data/vtk_stride_2", 4, "/data/vtk_stride_2_stride_4"},
		{"/data/vtk", 0, "/data/vtk"},
	}
	for _, tc := range cases {
		if got := StrideDir(tc.dir, tc.stride); got != tc.want {
			t.Errorf("StrideDir(%q, %d) = %q, want %q", tc.dir, tc.stride, got, tc.want)
		}
	}
}

func TestClaimTracker(t *testing.T) {
	ct := NewClaimTracker()
	if _, ok := ct.Claim("a.000300.vtu", "img.3.png"); !ok {
		t.Fatal("first claim must succeed")
	}
	if _, ok := ct.Claim("a.000300.vtu", "img.3.png"); !ok {
		t.Error("re-claim by the same input must succeed")
	}
	owner, ok := ct.Claim("a.000310.vtu", "img.3.png")
	if ok || owner != "a.000300.vtu" {
		t.Errorf("Claim collision = (%q, %v), want (a.000300.vtu, false)", owner, ok)
	}
	if ct.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ct.Len())
	}
}
