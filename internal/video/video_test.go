package video

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/cloudviz/internal/config"
	"github.com/backmassage/cloudviz/internal/logging"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func testLogger(t *testing.T, cfg *config.Config) *logging.Logger {
	t.Helper()
	cfg.ColorMode = config.ColorNever
	log, err := logging.NewLogger(cfg)
	require.NoError(t, err)
	log.SetOutput(io.Discard, io.Discard)
	return log
}

func TestCollectFrames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"img.10.png", "img.2.png", "img.9.png", "img.0.png", "preview.png", "img.3.jpg"} {
		writePNG(t, filepath.Join(dir, name), 2, 2)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "img.5.png"), 0o755))

	fr, err := CollectFrames(dir)
	require.NoError(t, err)
	if diff := cmp.Diff([]int{0, 2, 9, 10}, fr.Indices); diff != "" {
		t.Errorf("Indices mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, filepath.Join(dir, "img.10.png"), fr.Paths[3])
	assert.Equal(t, []string{"preview.png"}, fr.Ignored)
	if diff := cmp.Diff([]int{1, 3, 4, 5, 6, 7, 8}, fr.Gaps); diff != "" {
		t.Errorf("Gaps mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, fr.Len())

	_, err = CollectFrames(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestEncodeMJPEG(t *testing.T) {
	dir := t.TempDir()
	var frames []string
	for i, size := range [][2]int{{16, 8}, {16, 8}, {15, 9}} {
		p := filepath.Join(dir, "img."+string(rune('0'+i))+".png")
		writePNG(t, p, size[0], size[1])
		frames = append(frames, p)
	}
	out := filepath.Join(dir, config.DefaultOutputVideo)
	require.NoError(t, EncodeMJPEG(context.Background(), frames, out, 5, 90))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Greater(t, len(data), 12)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Equal(t, "AVI ", string(data[8:12]))
	assert.Contains(t, string(data), "MJPG")
}

func TestEncodeMJPEG_Errors(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.avi")
	assert.ErrorIs(t, EncodeMJPEG(context.Background(), nil, out, 5, 90), ErrNoFrames)

	bad := filepath.Join(dir, "img.1.png")
	good := filepath.Join(dir, "img.0.png")
	writePNG(t, good, 4, 4)
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0o644))
	assert.Error(t, EncodeMJPEG(context.Background(), []string{good, bad}, out, 5, 90))
	assert.NoFileExists(t, out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, EncodeMJPEG(ctx, []string{good}, out, 5, 90), context.Canceled)
}

func TestFit(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 6))
	assert.Same(t, img, fit(img, image.Pt(10, 6)))
	got := fit(img, image.Pt(20, 12))
	assert.Equal(t, image.Pt(20, 12), got.Bounds().Size())
}

func TestAssemble_UnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Video.Backend = "gif"
	err := Assemble(context.Background(), &cfg, testLogger(t, &cfg), []string{"img.0.png"})
	assert.Error(t, err)
}

// fakeFFmpeg puts an ffmpeg stand-in first on PATH that rejects odd
// dimensions unless the even-scale filter is present.
func fakeFFmpeg(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in")
	}
	dir := t.TempDir()
	script := `#!/bin/sh
cat > /dev/null
for last; do :; done
case "$*" in
  *"-vf"*) printf avi > "$last"; exit 0 ;;
esac
echo "[mpeg4 @ 0x1] height not divisible by 2 (15x9)" >&2
exit 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ffmpeg"), []byte(script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestEncodeFFmpeg_Retry(t *testing.T) {
	fakeFFmpeg(t)
	dir := t.TempDir()
	frame := filepath.Join(dir, "img.0.png")
	writePNG(t, frame, 15, 9)

	cfg := config.DefaultConfig()
	cfg.Video.Backend = config.VideoFFmpeg
	cfg.Video.Output = filepath.Join(dir, "out.avi")
	log := testLogger(t, &cfg)

	require.NoError(t, Assemble(context.Background(), &cfg, log, []string{frame}))
	assert.FileExists(t, cfg.Video.Output)

	cfg.StrictMode = true
	require.NoError(t, os.Remove(cfg.Video.Output))
	err := Assemble(context.Background(), &cfg, log, []string{frame})
	assert.ErrorIs(t, err, ErrEncodeFailed)
	assert.NoFileExists(t, cfg.Video.Output)
}
