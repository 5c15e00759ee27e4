// Package filestore keeps uploaded payment proofs on local disk. Images are
// downscaled before storage so proof photos from phones stay small.
package filestore

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/go-faster/errors"
)

// maxProofDim bounds the longest edge of a stored proof image.
const maxProofDim = 1600

// Store writes proof documents under a root directory.
type Store struct {
	root string
}

// NewStore creates the root directory if needed.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "create proof directory")
	}
	return &Store{root: root}, nil
}

// SaveProof stores a proof document for the given order and returns the
// relative path recorded on the order. Images are re-encoded as JPEG after
// downscaling; other types (PDF) are written unchanged.
func (s *Store) SaveProof(orderID string, data []byte, mimeType string) (string, error) {
	name := orderID + extensionFor(mimeType)

	if strings.HasPrefix(mimeType, "image/") {
		resized, err := downscale(data)
		if err != nil {
			return "", errors.Wrap(err, "downscale proof image")
		}
		data = resized
		name = orderID + ".jpg"
	}

	if err := os.WriteFile(filepath.Join(s.root, name), data, 0o644); err != nil {
		return "", errors.Wrap(err, "write proof")
	}
	return name, nil
}

// Open returns the raw bytes of a previously stored proof.
func (s *Store) Open(name string) ([]byte, error) {
	// Reject path traversal in stored names.
	if filepath.Base(name) != name {
		return nil, errors.New("invalid proof name")
	}
	data, err := os.ReadFile(filepath.Join(s.root, name))
	if err != nil {
		return nil, errors.Wrap(err, "read proof")
	}
	return data, nil
}

func downscale(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxProofDim || bounds.Dy() > maxProofDim {
		img = imaging.Fit(img, maxProofDim, maxProofDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := encodeJPEG(&buf, img); err != nil {
		return nil, errors.Wrap(err, "encode image")
	}
	return buf.Bytes(), nil
}

func encodeJPEG(buf *bytes.Buffer, img image.Image) error {
	return imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(85))
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "application/pdf":
		return ".pdf"
	case "image/png":
		return ".png"
	default:
		return ".jpg"
	}
}
