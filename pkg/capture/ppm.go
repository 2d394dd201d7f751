package capture

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// WritePPM emits a binary "P6" image: ASCII header, then raw RGB triples in
// row-major order, top to bottom.
func WritePPM(w io.Writer, width, height int, rgb []byte) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("ppm: invalid dimensions %dx%d", width, height)
	}
	if len(rgb) != width*height*3 {
		return fmt.Errorf("ppm: payload is %d bytes, want %d for %dx%d", len(rgb), width*height*3, width, height)
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P6\n%d %d\n255\n", width, height); err != nil {
		return err
	}
	if _, err := bw.Write(rgb); err != nil {
		return err
	}
	return bw.Flush()
}

// SavePPM writes the image to path, creating or truncating the file.
func SavePPM(path string, width, height int, rgb []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePPM(f, width, height, rgb); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
