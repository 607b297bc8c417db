package quiz

const (
	MaxQuestionLen    = 300
	MinOptions        = 2
	MaxOptions        = 10
	MaxOptionLen      = 100
	MaxExplanationLen = 200

	// Ellipsis marks truncated text. Three ASCII dots, not "…", so the
	// truncated length is predictable for every client.
	Ellipsis = "..."

	// CorrectMark prefixes the explanation, followed by the correct answer.
	CorrectMark = "✓"
)

// RawQuiz is a quiz record as produced by a source.
//
// CorrectOptionID indexes Options. Sources guarantee it is valid when the
// record is returned; Normalize checks it again after truncation.
type RawQuiz struct {
	Question        string   `json:"question"`
	Options         []string `json:"options"`
	CorrectOptionID int      `json:"correct_option_id"`
	Explanation     string   `json:"explanation"`
}

// Poll is a normalized quiz ready for publishing.
type Poll struct {
	Question        string
	Options         []string
	CorrectOptionID int
	Explanation     string

	// Truncated lists the fields Normalize had to shorten
	// ("question", "options", "option[N]", "explanation").
	Truncated []string
}

// CorrectAnswer returns the text of the correct option.
func (p Poll) CorrectAnswer() string {
	if p.CorrectOptionID < 0 || p.CorrectOptionID >= len(p.Options) {
		return ""
	}
	return p.Options[p.CorrectOptionID]
}
