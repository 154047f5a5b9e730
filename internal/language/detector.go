package language

import (
	"fmt"

	"github.com/pemistahl/lingua-go"
)

// Detection is the outcome of running the detector over a text.
type Detection struct {
	Code       string  // ISO 639-1, empty when nothing was detected
	Confidence float64 // probability of the top candidate, 0 when empty
}

// Detector wraps a lingua language detector built for a fixed
// candidate set. Detection is deterministic for identical input.
type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a detector whose candidate set is the given
// allow-list of ISO 639-1/639-2 codes. lingua needs at least two
// candidates to discriminate, so English and German (the shed's
// default corpus languages) are always included as contrast.
func NewDetector(codes []string) (*Detector, error) {
	candidates := make(map[lingua.Language]struct{}, len(codes)+2)
	for _, code := range codes {
		e := lookup(code)
		if e == nil {
			return nil, fmt.Errorf("unsupported language code %q", code)
		}
		candidates[e.lingua] = struct{}{}
	}
	candidates[lingua.English] = struct{}{}
	candidates[lingua.German] = struct{}{}

	langs := make([]lingua.Language, 0, len(candidates))
	for lang := range candidates {
		langs = append(langs, lang)
	}

	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(langs...).
		Build()
	return &Detector{detector: detector}, nil
}

// Detect returns the most likely language for text with its
// confidence. An empty result means lingua produced no candidate
// (e.g. for text without letters).
func (d *Detector) Detect(text string) Detection {
	values := d.detector.ComputeLanguageConfidenceValues(text)
	if len(values) == 0 {
		return Detection{}
	}
	top := values[0]
	e := fromLingua(top.Language())
	if e == nil {
		return Detection{}
	}
	return Detection{Code: e.code2, Confidence: top.Value()}
}
