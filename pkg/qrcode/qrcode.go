// Package qrcode renders product QR codes to PNG files.
package qrcode

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	qr "github.com/skip2/go-qrcode"
)

// Generator writes QR images into one directory.
type Generator struct {
	dir  string
	size int
}

// NewGenerator creates the directory if needed.
func NewGenerator(dir string, size int) (*Generator, error) {
	if size <= 0 {
		size = 256
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create qr directory %s: %w", dir, err)
	}
	return &Generator{dir: dir, size: size}, nil
}

// Payload is the content encoded for a product: its id and name.
func Payload(id uint, name string) string {
	return "ID:" + strconv.FormatUint(uint64(id), 10) + "|Name:" + name
}

// Write encodes payload into <dir>/<id>.png, replacing any previous image,
// and returns the file path.
func (g *Generator) Write(id uint, payload string) (string, error) {
	path := filepath.Join(g.dir, strconv.FormatUint(uint64(id), 10)+".png")
	if err := qr.WriteFile(payload, qr.Medium, g.size, path); err != nil {
		return "", fmt.Errorf("write qr code %s: %w", path, err)
	}
	return path, nil
}

// Encode returns the PNG bytes for payload without touching the disk.
func (g *Generator) Encode(payload string) ([]byte, error) {
	png, err := qr.Encode(payload, qr.Medium, g.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

// Remove deletes the image of id. A missing file is not an error.
func (g *Generator) Remove(id uint) error {
	path := filepath.Join(g.dir, strconv.FormatUint(uint64(id), 10)+".png")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove qr code %s: %w", path, err)
	}
	return nil
}
