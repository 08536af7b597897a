package render

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"image/png"
)

// EncodePNG writes the framebuffer as a PNG. The stdlib encoder is fully
// deterministic for a fixed image, which is what makes render artifacts
// byte-comparable across runs and hosts.
func EncodePNG(fb *Framebuffer, w io.Writer) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(w, fb.Image()); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// EncodePNGBytes returns the PNG encoding as a byte slice.
func EncodePNGBytes(fb *Framebuffer) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(fb, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePNG writes the framebuffer to path with 0644 permissions.
func WritePNG(fb *Framebuffer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return EncodePNG(fb, f)
}
