package orientation

import "unicode"

// Score is the probe outcome for one candidate rotation.
type Score struct {
	Angle Angle
	Text  string
	Score int
	Err   error
}

// ScoreText counts the letters and digits in text.
func ScoreText(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// Select returns the highest-scoring entry. Ties go to the earliest entry,
// and an empty slice yields the unrotated candidate.
func Select(scores []Score) Score {
	if len(scores) == 0 {
		return Score{Angle: Angle0}
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best
}

// SelectAngle applies Select to parallel slices of angles and probe texts.
func SelectAngle(angles []Angle, texts []string) Angle {
	scores := make([]Score, 0, len(angles))
	for i, a := range angles {
		var text string
		if i < len(texts) {
			text = texts[i]
		}
		scores = append(scores, Score{Angle: a, Text: text, Score: ScoreText(text)})
	}
	return Select(scores).Angle
}
