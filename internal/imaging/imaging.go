// Package imaging shrinks uploaded photos and turns them into data URLs.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Preset is a target bounding box and JPEG quality.
type Preset struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

var (
	// ProfilePhoto is applied to profile gallery uploads.
	ProfilePhoto = Preset{MaxWidth: 1200, MaxHeight: 1200, Quality: 85}
	// DefectPhoto is applied to photos attached to a physical defect.
	DefectPhoto = Preset{MaxWidth: 800, MaxHeight: 800, Quality: 80}
)

// ErrEmpty is returned for a zero-length upload.
var ErrEmpty = errors.New("empty image")

// Processed is a compressed photo.
type Processed struct {
	JPEG   []byte
	Width  int
	Height int
}

// DataURL renders the photo as an inline data URL.
func (p Processed) DataURL() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(p.JPEG)
}

// Process decodes a JPEG, PNG or GIF upload, scales it down to fit the
// preset's box keeping the aspect ratio, and re-encodes it as JPEG.
// Images already inside the box are never enlarged.
func Process(raw []byte, preset Preset) (Processed, error) {
	if len(raw) == 0 {
		return Processed{}, ErrEmpty
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Processed{}, fmt.Errorf("decode image: %w", err)
	}

	dst := resizeToFit(src, preset.MaxWidth, preset.MaxHeight)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: preset.Quality}); err != nil {
		return Processed{}, fmt.Errorf("encode jpeg: %w", err)
	}
	b := dst.Bounds()
	return Processed{JPEG: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

func resizeToFit(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return src
	}

	// scale by the tighter of the two ratios
	nw, nh := maxW, h*maxW/w
	if nh > maxH {
		nw, nh = w*maxH/h, maxH
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
