package chatdb

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/mitchellh/go-homedir"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DimensionProber reports the pixel size of the image at path. ok is false
// when the size cannot be determined for any reason.
type DimensionProber interface {
	Dimensions(path string) (width, height int, ok bool)
}

// ImageProber reads image headers from the local filesystem. Paths may
// start with "~", as attachment filenames in chat.db do.
type ImageProber struct{}

func (ImageProber) Dimensions(path string) (int, int, bool) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return 0, 0, false
	}
	f, err := os.Open(expanded)
	if err != nil {
		return 0, 0, false
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}
