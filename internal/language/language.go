package language

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

type entry struct {
	code2   string // ISO 639-1 (2-letter)
	code3   string // ISO 639-2 primary (3-letter)
	alt3    string // ISO 639-2 alternate (e.g. "ger" vs "deu")
	display string // Human-readable name
	lingua  lingua.Language
}

var languages = []entry{
	{"en", "eng", "", "English", lingua.English},
	{"de", "deu", "ger", "German", lingua.German},
	{"es", "spa", "", "Spanish", lingua.Spanish},
	{"fr", "fra", "fre", "French", lingua.French},
	{"it", "ita", "", "Italian", lingua.Italian},
	{"pt", "por", "", "Portuguese", lingua.Portuguese},
	{"nl", "nld", "dut", "Dutch", lingua.Dutch},
	{"pl", "pol", "", "Polish", lingua.Polish},
	{"sv", "swe", "", "Swedish", lingua.Swedish},
	{"da", "dan", "", "Danish", lingua.Danish},
	{"fi", "fin", "", "Finnish", lingua.Finnish},
	{"ru", "rus", "", "Russian", lingua.Russian},
	{"ja", "jpn", "", "Japanese", lingua.Japanese},
	{"ko", "kor", "", "Korean", lingua.Korean},
	{"zh", "zho", "chi", "Chinese", lingua.Chinese},
	{"ar", "ara", "", "Arabic", lingua.Arabic},
	{"hi", "hin", "", "Hindi", lingua.Hindi},
}

// Index maps built at init time.
var (
	byCode2  map[string]*entry
	byCode3  map[string]*entry
	byLingua map[lingua.Language]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byLingua = make(map[lingua.Language]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		byLingua[e.lingua] = e
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	return nil
}

// Known reports whether a language code (ISO 639-1 or 639-2) is in the
// registry.
func Known(code string) bool {
	return lookup(code) != nil
}

// ToISO2 converts any recognized language code to ISO 639-1 (2-letter).
// Returns empty string for unrecognized input.
func ToISO2(code string) string {
	if e := lookup(code); e != nil {
		return e.code2
	}
	return ""
}

// Display returns the human-readable name for a recognized code, or
// the input unchanged when unrecognized.
func Display(code string) string {
	if e := lookup(code); e != nil {
		return e.display
	}
	return code
}

func fromLingua(lang lingua.Language) *entry {
	if e, ok := byLingua[lang]; ok {
		return e
	}
	return nil
}
