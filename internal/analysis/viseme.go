package analysis

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// VisemeCount is the number of visemes in the table, ids 0 to VisemeCount-1.
const VisemeCount = 22

// ipaToViseme maps IPA symbols, including two-rune diphthongs and
// affricates, onto viseme ids.
var ipaToViseme = map[string]int{
	"_": 0, " ": 0,
	"æ": 1, "a": 1, "ə": 1, "ʌ": 1, "ɐ": 1,
	"ɑ": 2, "ɑː": 2, "ɒ": 2,
	"ɔ": 3, "ɔː": 3,
	"e": 4, "eɪ": 4, "ɛ": 4,
	"ɜ": 5, "ɜː": 5, "ɝ": 5, "ɚ": 5,
	"j": 6, "i": 6, "iː": 6, "ɪ": 6, "ɨ": 6,
	"w": 7, "u": 7, "uː": 7, "ʊ": 7,
	"o": 8, "oʊ": 8, "əʊ": 8,
	"aʊ": 9,
	"ɔɪ": 10,
	"aɪ": 11,
	"h": 12, "ɦ": 12,
	"r": 13, "ɹ": 13, "ɾ": 13,
	"l": 14, "ɫ": 14,
	"s": 15, "z": 15,
	"ʃ": 16, "tʃ": 16, "dʒ": 16, "ʒ": 16,
	"θ": 17, "ð": 17,
	"f": 18, "v": 18,
	"d": 19, "t": 19, "n": 19,
	"k": 20, "g": 20, "ŋ": 20, "ɡ": 20,
	"p": 21, "b": 21, "m": 21,
}

var visemeDescriptions = [VisemeCount]string{
	"Silence: neutral or closed mouth, lips relaxed.",
	"æ, a, ə, ʌ, ɐ: mid-open jaw, lips relaxed or slightly spread (as in 'cat', 'cup').",
	"ɑ, ɑː, ɒ: wide open mouth, lips relaxed or slightly rounded (as in 'father', 'cot').",
	"ɔ, ɔː: rounded lips, mid-open mouth, tongue slightly back (as in 'caught', 'law').",
	"e, eɪ, ɛ: half-open mouth, lips slightly spread, tongue mid-front (as in 'bed', 'say').",
	"ɜ, ɜː, ɝ, ɚ: mid-central vowel, lips slightly rounded, tongue bunched (as in 'bird', 'fur').",
	"j, i, iː, ɪ, ɨ: spread lips (smile shape), mouth nearly closed, tongue high/front (as in 'see', 'yes').",
	"w, u, uː, ʊ: rounded lips protruded forward, minimal jaw movement (as in 'boot', 'wood').",
	"o, oʊ, əʊ: rounded lips, slightly open, less tight than /u/ (as in 'go', 'boat').",
	"aʊ: jaw drops then lips round (open to rounded, as in 'now', 'out').",
	"ɔɪ: rounded to spread transition (as in 'boy', 'toy').",
	"aɪ: open to spread transition, jaw drops then lips spread (as in 'my', 'sky').",
	"h, ɦ: slightly open mouth, lips neutral, breathy airflow (as in 'hat').",
	"r, ɹ, ɾ: lips slightly rounded, corners drawn in, small opening (as in 'red').",
	"l, ɫ: tip of tongue on alveolar ridge, mouth slightly open (as in 'let').",
	"s, z: lips slightly parted, teeth nearly closed, corners retracted (as in 'see', 'zoo').",
	"ʃ, tʃ, dʒ, ʒ: rounded lips, jaw slightly lowered, teeth close (as in 'shoe', 'judge').",
	"θ, ð: tongue between teeth, lips relaxed (as in 'think', 'this').",
	"f, v: upper teeth on lower lip, narrow gap (as in 'fun', 'van').",
	"d, t, n: light tongue contact on upper ridge, lips neutral (as in 'do', 'no').",
	"k, g, ŋ: mouth slightly open, lips neutral, tongue back (as in 'go', 'sing').",
	"p, b, m: closed lips, full bilabial contact (as in 'pat', 'bat', 'man').",
}

// Viseme is one recognised phoneme of an IPA string and the mouth shape it
// maps to.
type Viseme struct {
	Phoneme string
	ID      int
}

// Description returns the articulation hint for the viseme.
func (v Viseme) Description() string { return VisemeDescription(v.ID) }

// Visemes tokenises an IPA string into visemes. At each position a
// two-rune symbol wins over a one-rune symbol; runes that match neither
// (stress marks, unknown symbols) are skipped.
func Visemes(ipa string) []Viseme {
	runes := []rune(ipa)
	var out []Viseme
	for i := 0; i < len(runes); i++ {
		if i+1 < len(runes) {
			if id, ok := ipaToViseme[string(runes[i:i+2])]; ok {
				out = append(out, Viseme{Phoneme: string(runes[i : i+2]), ID: id})
				i++
				continue
			}
		}
		if id, ok := ipaToViseme[string(runes[i])]; ok {
			out = append(out, Viseme{Phoneme: string(runes[i]), ID: id})
		}
	}
	return out
}

// VisemeDescription returns the articulation hint for viseme id, or "" for
// an unknown id.
func VisemeDescription(id int) string {
	if id < 0 || id >= VisemeCount {
		return ""
	}
	return visemeDescriptions[id]
}

// ImagePath returns the visual aid location of viseme id under dir.
func ImagePath(dir string, id int) string {
	return path.Join(dir, fmt.Sprintf("viseme-id-%d.jpg", id))
}

// ParseImagePath extracts the viseme id from a visual aid reference produced
// by [ImagePath]. Backslash separators are accepted.
func ParseImagePath(p string) (int, bool) {
	base := path.Base(strings.ReplaceAll(p, `\`, "/"))
	s, ok := strings.CutPrefix(base, "viseme-id-")
	if !ok {
		return 0, false
	}
	s, ok = strings.CutSuffix(s, ".jpg")
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 || id >= VisemeCount {
		return 0, false
	}
	return id, true
}
