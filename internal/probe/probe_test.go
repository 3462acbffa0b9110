package probe

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ffprobe output for an 80-frame DIVX AVI at 5 fps.
const sampleAVI = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "mpeg4",
      "codec_type": "video",
      "codec_tag_string": "DIVX",
      "width": 2556,
      "height": 1376,
      "pix_fmt": "yuv420p",
      "avg_frame_rate": "5/1",
      "nb_frames": "80"
    }
  ],
  "format": {
    "filename": "/data/img/CloudDropletVisualization.avi",
    "format_name": "avi",
    "duration": "16.000000",
    "size": "9437184",
    "bit_rate": "4718592"
  }
}`

// MJPEG AVI without nb_frames.
const sampleNoCount = `{
  "streams": [
    {"index": 0, "codec_name": "mjpeg", "codec_type": "video", "codec_tag_string": "MJPG",
     "width": 640, "height": 480, "avg_frame_rate": "25/2"}
  ],
  "format": {"format_name": "avi", "duration": "2.000000"}
}`

func TestParseJSON(t *testing.T) {
	pr, err := ParseJSON([]byte(sampleAVI))
	require.NoError(t, err)
	require.NotNil(t, pr.Video)

	assert.Equal(t, "mpeg4", pr.Video.Codec)
	assert.Equal(t, "DIVX", pr.Video.CodecTag)
	assert.Equal(t, "2556x1376", pr.Resolution())
	assert.Equal(t, 5.0, pr.FrameRate())
	assert.Equal(t, 80, pr.FrameCount())
	assert.Equal(t, 16.0, pr.Format.Duration)
	assert.Equal(t, int64(9437184), pr.Format.Size)
}

func TestParseJSON_FrameCountFromDuration(t *testing.T) {
	pr, err := ParseJSON([]byte(sampleNoCount))
	require.NoError(t, err)
	assert.Equal(t, 12.5, pr.FrameRate())
	assert.Equal(t, 25, pr.FrameCount())
}

func TestParseJSON_NoVideo(t *testing.T) {
	pr, err := ParseJSON([]byte(`{"streams": [{"index": 0, "codec_type": "audio"}], "format": {}}`))
	require.NoError(t, err)
	assert.Nil(t, pr.Video)
	assert.Equal(t, "unknown", pr.Resolution())
	assert.Zero(t, pr.FrameRate())
	assert.Zero(t, pr.FrameCount())
}

func TestParseJSON_Invalid(t *testing.T) {
	_, err := ParseJSON([]byte(`{"streams": [`))
	assert.Error(t, err)
}

func TestFrameRate_Malformed(t *testing.T) {
	for _, rate := range []string{"", "0/0", "abc", "5/x"} {
		pr := &ProbeResult{Video: &VideoStream{AvgFrameRate: rate}}
		assert.Zero(t, pr.FrameRate(), rate)
	}
	pr := &ProbeResult{Video: &VideoStream{AvgFrameRate: "30"}}
	assert.Equal(t, 30.0, pr.FrameRate())
}

func TestProbe_MissingFile(t *testing.T) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}
	_, err := Probe(context.Background(), "/nonexistent/video.avi")
	assert.Error(t, err)
}
