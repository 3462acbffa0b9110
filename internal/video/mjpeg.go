package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/icza/mjpeg"
	xdraw "golang.org/x/image/draw"
)

// EncodeMJPEG writes frames as Motion-JPEG into an AVI at fps. Every frame
// is scaled to the size of the first one. A partial output is removed on
// failure.
func EncodeMJPEG(ctx context.Context, frames []string, out string, fps, quality int) (err error) {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	first, err := decodePNG(frames[0])
	if err != nil {
		return err
	}
	size := first.Bounds().Size()

	aw, err := mjpeg.New(out, int32(size.X), int32(size.Y), int32(fps))
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer func() {
		if cerr := aw.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(out)
		}
	}()

	var buf bytes.Buffer
	opts := &jpeg.Options{Quality: quality}
	for i, path := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		img := first
		if i > 0 {
			if img, err = decodePNG(path); err != nil {
				return err
			}
		}
		img = fit(img, size)

		buf.Reset()
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		if err := aw.AddFrame(buf.Bytes()); err != nil {
			return fmt.Errorf("add frame %s: %w", path, err)
		}
	}
	return nil
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// fit returns img scaled to size, or img itself when it already matches.
func fit(img image.Image, size image.Point) image.Image {
	b := img.Bounds()
	if b.Size() == size && b.Min == (image.Point{}) {
		return img
	}
	dst := image.NewRGBA(image.Rectangle{Max: size})
	xdraw.CatmullRom.Scale(dst, dst.Rect, img, b, xdraw.Src, nil)
	return dst
}
