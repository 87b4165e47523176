package certificates

import (
	"os"
	"path/filepath"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSet holds one face per text role on the certificate. Every face is
// guaranteed non-nil: when no candidate file parses, the built-in bitmap face
// is used, so missing fonts degrade typography but never fail a render.
type FontSet struct {
	Display   font.Face // "CERTIFICADO" headline
	Name      font.Face // participant name
	Title     font.Face // event title
	Body      font.Face // award line
	Small     font.Face // dates, organizer
	Footer    font.Face // footer and QR caption
	Watermark font.Face
}

var (
	boldCandidates    = []string{"Montserrat-Bold.ttf", "Roboto-Bold.ttf", "DejaVuSans-Bold.ttf"}
	regularCandidates = []string{"Montserrat-Regular.ttf", "Roboto-Regular.ttf", "DejaVuSans.ttf"}
	elegantCandidates = []string{"PlayfairDisplay-Bold.ttf", "Georgia.ttf", "DejaVuSerif-Bold.ttf"}
)

// systemFontDirs are probed after the configured font directory.
var systemFontDirs = []string{
	"/usr/share/fonts/truetype/dejavu",
	"/usr/share/fonts/truetype/msttcorefonts",
}

// LoadFonts resolves all text roles against the font directory.
func LoadFonts(fontDir string) *FontSet {
	elegant := parseFirst(fontDir, elegantCandidates)
	bold := parseFirst(fontDir, boldCandidates)
	regular := parseFirst(fontDir, regularCandidates)

	return &FontSet{
		Display:   face(elegant, 72),
		Name:      face(elegant, 58),
		Title:     face(bold, 36),
		Body:      face(regular, 28),
		Small:     face(regular, 20),
		Footer:    face(regular, 16),
		Watermark: face(elegant, 100),
	}
}

// parseFirst returns the first candidate font that loads and parses, or nil.
func parseFirst(fontDir string, names []string) *truetype.Font {
	dirs := append([]string{fontDir}, systemFontDirs...)
	for _, name := range names {
		for _, dir := range dirs {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				continue
			}
			f, err := truetype.Parse(data)
			if err != nil {
				continue
			}
			return f
		}
	}
	return nil
}

func face(f *truetype.Font, size float64) font.Face {
	if f == nil {
		return basicfont.Face7x13
	}
	return truetype.NewFace(f, &truetype.Options{Size: size})
}
