package render

import (
	"os"
	"strings"

	"go.uber.org/zap"
)

// CoreFamily is the universal fallback every backend provides without
// registration.
const CoreFamily = "helvetica"

// EmbeddedFamily is the family name under which the resolved font file is
// registered with each canvas.
const EmbeddedFamily = "docfill-text"

// DefaultSystemFonts lists system font files probed, in order, when no
// bundled font is configured. They cover common CJK installs on Windows,
// Linux, and macOS.
var DefaultSystemFonts = []string{
	`C:\Windows\Fonts\simsun.ttc`,
	`C:\Windows\Fonts\simhei.ttf`,
	`C:\Windows\Fonts\msyh.ttc`,
	"/usr/share/fonts/truetype/wqy/wqy-zenhei.ttc",
	"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/System/Library/Fonts/STHeiti Light.ttc",
	"/System/Library/Fonts/STHeiti Medium.ttc",
}

// FontOption configures a FontResolver.
type FontOption func(*FontResolver)

// WithBundledFont prefers the font file at path over system fonts.
func WithBundledFont(path string) FontOption {
	return func(r *FontResolver) {
		r.bundled = strings.TrimSpace(path)
	}
}

// WithSystemFonts replaces the system candidate list.
func WithSystemFonts(paths ...string) FontOption {
	return func(r *FontResolver) {
		r.candidates = append([]string(nil), paths...)
	}
}

// WithCoreFamily overrides the universal fallback family.
func WithCoreFamily(family string) FontOption {
	return func(r *FontResolver) {
		if strings.TrimSpace(family) != "" {
			r.core = strings.TrimSpace(family)
		}
	}
}

// WithFontLogger attaches a logger.
func WithFontLogger(logger *zap.Logger) FontOption {
	return func(r *FontResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// FontResolver probes the font candidates once, at construction, and applies
// the first one a canvas accepts to every canvas it installs on. Resolution is
// deterministic for a given filesystem state.
type FontResolver struct {
	bundled    string
	candidates []string
	core       string
	paths      []string
	logger     *zap.Logger
}

// NewFontResolver probes the bundled font, then the system candidates, and
// keeps every file that exists in that order. With none found the core family
// is the fallback.
func NewFontResolver(opts ...FontOption) *FontResolver {
	r := &FontResolver{
		candidates: DefaultSystemFonts,
		core:       CoreFamily,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	for _, candidate := range append([]string{r.bundled}, r.candidates...) {
		if candidate == "" {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			r.paths = append(r.paths, candidate)
		}
	}
	if len(r.paths) == 0 {
		r.logger.Info("no font file found, using core family", zap.String("family", r.core))
	} else {
		r.logger.Debug("font candidates found", zap.Strings("paths", r.paths))
	}
	return r
}

// Path returns the first font file found, or "" when the core family is used.
func (r *FontResolver) Path() string {
	if len(r.paths) == 0 {
		return ""
	}
	return r.paths[0]
}

// Paths returns every font file found, in probe order.
func (r *FontResolver) Paths() []string {
	return append([]string(nil), r.paths...)
}

// Core returns the universal fallback family.
func (r *FontResolver) Core() string {
	return r.core
}

// Install registers the first font file c accepts and returns the family to
// use as fallback on that canvas. Rejected files are skipped; when every file
// is rejected the core family is used.
func (r *FontResolver) Install(c Canvas) string {
	if len(r.paths) == 0 {
		return r.core
	}
	if c.HasFont(EmbeddedFamily) {
		return EmbeddedFamily
	}
	for _, path := range r.paths {
		err := c.RegisterFont(EmbeddedFamily, path)
		if err == nil {
			return EmbeddedFamily
		}
		r.logger.Warn("font registration failed, trying next candidate",
			zap.String("path", path),
			zap.Error(err),
		)
	}
	r.logger.Warn("no font candidate accepted, using core family", zap.String("family", r.core))
	return r.core
}

// Resolve returns requested when c has it registered, otherwise fallback.
func Resolve(c Canvas, requested, fallback string) string {
	requested = strings.TrimSpace(requested)
	if requested != "" && c.HasFont(requested) {
		return requested
	}
	return fallback
}
