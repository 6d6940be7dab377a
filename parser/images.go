package parser

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"path"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

const thumbnailWidth = 320

// maxDecodePixels caps the area of a raster decoded in memory. Larger
// images are passed through as stored and get no thumbnail.
const maxDecodePixels = 64 << 20

func withinDecodeBudget(w, h int) bool {
	return w > 0 && h > 0 && int64(w)*int64(h) <= maxDecodePixels
}

func mimeFromExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg", ".jpe":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".svg":
		return "image/svg+xml"
	case ".emf":
		return "image/emf"
	case ".wmf":
		return "image/wmf"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}

func mimeFromPath(p string) string {
	if m := mimeFromExt(path.Ext(p)); m != "" {
		return m
	}
	return "application/octet-stream"
}

// isRaster reports whether the image package can decode this MIME type.
func isRaster(mime string) bool {
	switch mime {
	case "image/png", "image/jpeg", "image/gif", "image/bmp", "image/tiff":
		return true
	}
	return false
}

// imageSize returns the width and height of an image from its encoded bytes.
func imageSize(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// processedImage is an image payload ready to be attached to a slide.
type processedImage struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// fitImage downscales a raster image whose longest side exceeds maxSide.
// JPEGs are re-encoded at quality; other rasters become PNG. Vector formats,
// images over maxDecodePixels and images that fail to decode are returned
// unchanged.
func fitImage(data []byte, mime string, maxSide, quality int) processedImage {
	out := processedImage{Data: data, MIME: mime}
	if !isRaster(mime) {
		return out
	}
	out.Width, out.Height = imageSize(data)
	if out.Width == 0 || out.Height == 0 || maxSide <= 0 {
		return out
	}
	if out.Width <= maxSide && out.Height <= maxSide {
		return out
	}
	if !withinDecodeBudget(out.Width, out.Height) {
		return out
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return out
	}
	w, h := scaleToFit(out.Width, out.Height, maxSide)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if mime == "image/jpeg" {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality})
	} else {
		err = png.Encode(&buf, dst)
		mime = "image/png"
	}
	if err != nil {
		return out
	}
	return processedImage{Data: buf.Bytes(), MIME: mime, Width: w, Height: h}
}

func scaleToFit(w, h, maxSide int) (int, int) {
	if w >= h {
		nh := h * maxSide / w
		if nh < 1 {
			nh = 1
		}
		return maxSide, nh
	}
	nw := w * maxSide / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxSide
}

// makeThumbnail renders a raster image into a base64 JPEG no wider than
// thumbnailWidth, flattened onto white.
func makeThumbnail(data []byte, quality int) (string, bool) {
	if !withinDecodeBudget(imageSize(data)) {
		return "", false
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", false
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return "", false
	}
	w, h := b.Dx(), b.Dy()
	if w > thumbnailWidth {
		h = h * thumbnailWidth / w
		if h < 1 {
			h = 1
		}
		w = thumbnailWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return "", false
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), true
}
