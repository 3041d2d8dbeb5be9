package archive

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// CompressionLevel trades CPU for output size. It never affects extraction
// correctness: every level produces a standard Deflate (or Store) stream.
type CompressionLevel int

const (
	// LevelStore writes entries uncompressed.
	LevelStore CompressionLevel = iota
	LevelFast
	LevelNormal
	LevelBest
)

func (l CompressionLevel) String() string {
	switch l {
	case LevelStore:
		return "store"
	case LevelFast:
		return "fast"
	case LevelNormal:
		return "normal"
	case LevelBest:
		return "best"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel maps the config/flag spelling onto a CompressionLevel.
func ParseLevel(s string) (CompressionLevel, error) {
	switch s {
	case "store":
		return LevelStore, nil
	case "fast":
		return LevelFast, nil
	case "normal", "":
		return LevelNormal, nil
	case "best":
		return LevelBest, nil
	default:
		return LevelNormal, fmt.Errorf("unknown compression level %q", s)
	}
}

// method returns the zip entry method for this level.
func (l CompressionLevel) method() uint16 {
	if l == LevelStore {
		return zip.Store
	}
	return zip.Deflate
}

func (l CompressionLevel) flateLevel() int {
	switch l {
	case LevelFast:
		return flate.BestSpeed
	case LevelBest:
		return flate.BestCompression
	default:
		return flate.DefaultCompression
	}
}

// newWriter creates a zip writer with this level's Deflate implementation
// registered.
func (l CompressionLevel) newWriter(w io.Writer) *zip.Writer {
	zw := zip.NewWriter(w)
	lvl := l.flateLevel()
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, lvl)
	})
	return zw
}
