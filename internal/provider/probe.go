package provider

import (
	"bytes"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"

	"github.com/rotisserie/eris"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// visionMediaTypes are the formats the vision backends accept as-is.
var visionMediaTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// probeImage checks that data decodes as a supported raster image and
// returns its media type and dimensions.
func probeImage(data []byte) (string, image.Config, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", image.Config{}, eris.Wrap(err, "provider: decode image header")
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return "", image.Config{}, eris.Errorf("provider: image has zero size (%dx%d)", cfg.Width, cfg.Height)
	}
	return "image/" + format, cfg, nil
}

// normalizeImage re-encodes formats the vision backends reject as PNG.
func normalizeImage(data []byte, mediaType string) ([]byte, string, error) {
	if visionMediaTypes[mediaType] {
		return data, mediaType, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", eris.Wrapf(err, "provider: decode %s", mediaType)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", eris.Wrap(err, "provider: encode png")
	}
	return buf.Bytes(), "image/png", nil
}
