package validator

import (
	"unicode"

	"docshed/internal/language"
)

// RejectReason identifies which verification check failed.
type RejectReason string

const (
	ReasonLengthOutOfBounds     RejectReason = "length_out_of_bounds"
	ReasonInvalidCharacterRatio RejectReason = "invalid_character_ratio"
	ReasonUnsupportedLanguage   RejectReason = "unsupported_language"
)

// Config carries the verification thresholds. Zero MaxLength means
// no upper bound.
type Config struct {
	MinLength          int
	MaxLength          int
	MaxInvalidRatio    float64
	Languages          []string
	LanguageConfidence float64
	StrictLanguage     bool
}

// Verdict is the outcome of validating one canonical document.
type Verdict struct {
	Accepted   bool
	Reason     RejectReason
	Language   string
	Confidence float64
}

// Validator runs the verification checks that decide a newly imported
// document's initial status. It is stateless apart from the language
// detector and deterministic for identical input and configuration.
type Validator struct {
	cfg      Config
	detector *language.Detector
	allowed  map[string]struct{}
}

// New constructs a validator, building the language detector for the
// configured allow-list once.
func New(cfg Config) (*Validator, error) {
	detector, err := language.NewDetector(cfg.Languages)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]struct{}, len(cfg.Languages))
	for _, code := range cfg.Languages {
		if iso2 := language.ToISO2(code); iso2 != "" {
			allowed[iso2] = struct{}{}
		}
	}
	return &Validator{cfg: cfg, detector: detector, allowed: allowed}, nil
}

// Check applies the checks in order, short-circuiting on the first
// failure: length bounds, character-class ratio, then language. A
// detection below the confidence threshold is advisory: the document
// is accepted with an empty language unless strict mode is on.
func (v *Validator) Check(canonical string) Verdict {
	length := len(canonical)
	if length == 0 || length < v.cfg.MinLength || (v.cfg.MaxLength > 0 && length > v.cfg.MaxLength) {
		return Verdict{Reason: ReasonLengthOutOfBounds}
	}

	if ratio := invalidRatio(canonical); ratio > v.cfg.MaxInvalidRatio {
		return Verdict{Reason: ReasonInvalidCharacterRatio}
	}

	detection := v.detector.Detect(canonical)
	confident := detection.Code != "" && detection.Confidence >= v.cfg.LanguageConfidence
	_, allowed := v.allowed[detection.Code]

	if confident && allowed {
		return Verdict{Accepted: true, Language: detection.Code, Confidence: detection.Confidence}
	}
	if v.cfg.StrictLanguage {
		return Verdict{Reason: ReasonUnsupportedLanguage}
	}
	// Language is advisory: record nothing rather than guess.
	return Verdict{Accepted: true}
}

// invalidRatio returns the fraction of characters in disallowed
// Unicode categories: control and format characters (other than tab
// and newline) and unassigned code points.
func invalidRatio(text string) float64 {
	total := 0
	invalid := 0
	for _, r := range text {
		total++
		if r == '\n' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) || !unicode.IsGraphic(r) {
			invalid++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(invalid) / float64(total)
}
