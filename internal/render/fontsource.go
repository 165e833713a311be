package render

import (
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/labelpress/labelpress/internal/domain"
)

// FontSource parses one font face and hands out cached font.Face instances
// per pixel size. Faces are cached because the fitter probes many sizes per
// layout and opentype face construction is not free.
type FontSource struct {
	parsed *opentype.Font

	mu    sync.Mutex
	faces map[int]font.Face
}

// NewFontSource loads the font at path. An empty path selects the embedded
// Go Regular face. A path that cannot be read or parsed is a ConfigError.
func NewFontSource(path string) (*FontSource, error) {
	data := goregular.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, &domain.ConfigError{Field: "font_path", Reason: "font unavailable: " + err.Error()}
		}
		data = b
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, &domain.ConfigError{Field: "font_path", Reason: "parse font: " + err.Error()}
	}

	return &FontSource{
		parsed: parsed,
		faces:  make(map[int]font.Face),
	}, nil
}

// Face returns a face rendering at the given pixel size.
func (s *FontSource) Face(sizePx int) (font.Face, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.faces[sizePx]; ok {
		return f, nil
	}

	f, err := opentype.NewFace(s.parsed, &opentype.FaceOptions{
		Size:    float64(sizePx),
		DPI:     72, // size is already in device pixels
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, &domain.ConfigError{Field: "font_path", Reason: "build face: " + err.Error()}
	}

	s.faces[sizePx] = f
	return f, nil
}

// Measure returns the rendered width and line height of text at sizePx.
func (s *FontSource) Measure(text string, sizePx int) (w, h int, err error) {
	face, err := s.Face(sizePx)
	if err != nil {
		return 0, 0, err
	}
	adv := font.MeasureString(face, text)
	m := face.Metrics()
	return adv.Ceil(), (m.Ascent + m.Descent).Ceil(), nil
}
