package engine

import "strings"

// Language codes are accepted in either two-letter or Tesseract three-letter form
// and translated to each engine's own naming.

var toTesseract = map[string]string{
	"en": "eng", "es": "spa", "fr": "fra", "de": "deu", "it": "ita", "pt": "por",
	"ru": "rus", "ja": "jpn", "ko": "kor", "zh": "chi_sim", "ch_sim": "chi_sim", "ch_tra": "chi_tra",
}

var toEasyOCR = map[string]string{
	"eng": "en", "spa": "es", "fra": "fr", "deu": "de", "ita": "it", "por": "pt",
	"rus": "ru", "chi_sim": "ch_sim", "chi_tra": "ch_tra", "jpn": "ja", "kor": "ko", "zh": "ch_sim",
}

var toPaddle = map[string]string{
	"en": "en", "es": "es", "fr": "fr", "de": "german", "it": "it", "pt": "pt",
	"ru": "ru", "ja": "japan", "ko": "korean", "zh": "ch", "chinese": "ch", "ch_sim": "ch",
}

var toVision = map[string]string{
	"en": "en-US", "es": "es-ES", "fr": "fr-FR", "de": "de-DE", "it": "it-IT", "pt": "pt-BR",
	"ru": "ru-RU", "ja": "ja-JP", "ko": "ko-KR", "zh": "zh-Hans", "ch_sim": "zh-Hans", "ch_tra": "zh-Hant",
}

// languageList splits a "+"- or ","-separated language option.
func languageList(lang string) []string {
	fields := strings.FieldsFunc(strings.ToLower(lang), func(r rune) bool { return r == '+' || r == ',' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		out = append(out, "en")
	}
	return out
}

// TesseractLanguages maps a language option to Tesseract traineddata names.
func TesseractLanguages(lang string) []string {
	return mapLanguages(lang, toTesseract)
}

// EasyOCRLanguages maps a language option to EasyOCR codes.
func EasyOCRLanguages(lang string) []string {
	return mapLanguages(lang, toEasyOCR)
}

// PaddleLanguage maps a language option to the single PaddleOCR language.
func PaddleLanguage(lang string) string {
	l := languageList(lang)[0]
	if t, ok := toEasyOCR[l]; ok {
		l = t
	}
	if p, ok := toPaddle[l]; ok {
		return p
	}
	return "en"
}

// VisionLanguages maps a language option to Vision BCP-47 tags.
func VisionLanguages(lang string) []string {
	normalized := make([]string, 0, 2)
	for _, l := range languageList(lang) {
		if t, ok := toEasyOCR[l]; ok {
			l = t
		}
		normalized = append(normalized, l)
	}
	return mapLanguages(strings.Join(normalized, "+"), toVision)
}

func mapLanguages(lang string, table map[string]string) []string {
	langs := languageList(lang)
	out := make([]string, 0, len(langs))
	seen := map[string]bool{}
	for _, l := range langs {
		if m, ok := table[l]; ok {
			l = m
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
