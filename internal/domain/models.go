package domain

import "time"

// Difficulty selects the quiz geometry.
type Difficulty string

const (
	DifficultyEasy Difficulty = "easy"
	DifficultyHard Difficulty = "hard"
)

// ParseDifficulty validates a raw difficulty value.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch d := Difficulty(raw); d {
	case DifficultyEasy, DifficultyHard:
		return d, nil
	default:
		return "", Validationf("unknown difficulty %q", raw)
	}
}

// ImagesPerQuestion is the number of images shown per question, one of which is synthetic.
func (d Difficulty) ImagesPerQuestion() int {
	if d == DifficultyHard {
		return 4
	}
	return 2
}

// Image is one blob returned by the generative service.
type Image struct {
	Data     []byte
	MimeType string
}

// GeneratedAssetRef identifies one synthetic image in the object store.
type GeneratedAssetRef struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// AssetPool is a duplicate-free set of synthetic images.
type AssetPool struct {
	refs []GeneratedAssetRef
	seen map[string]struct{}
}

// NewAssetPool builds a pool, dropping duplicate keys.
func NewAssetPool(refs ...GeneratedAssetRef) *AssetPool {
	p := &AssetPool{seen: make(map[string]struct{}, len(refs))}
	p.Add(refs...)
	return p
}

// Add appends refs whose key is not yet present and reports how many were added.
func (p *AssetPool) Add(refs ...GeneratedAssetRef) int {
	added := 0
	for _, ref := range refs {
		if _, ok := p.seen[ref.Key]; ok {
			continue
		}
		p.seen[ref.Key] = struct{}{}
		p.refs = append(p.refs, ref)
		added++
	}
	return added
}

func (p *AssetPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.refs)
}

// Refs returns a copy of the pool contents.
func (p *AssetPool) Refs() []GeneratedAssetRef {
	if p == nil {
		return nil
	}
	out := make([]GeneratedAssetRef, len(p.refs))
	copy(out, p.refs)
	return out
}

// QuizQuestion holds the shuffled images of one question and the position of the synthetic one.
type QuizQuestion struct {
	Images        []string `json:"images"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// QuizSet is the full ordered collection of questions for one game session.
type QuizSet []QuizQuestion

// ProgressKey identifies one resumable session.
type ProgressKey struct {
	UserID     string
	Difficulty Difficulty
	Topic      string
}

// GameProgress is the persisted state of one game.
type GameProgress struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user"`
	Difficulty      Difficulty `json:"difficulty"`
	Topic           string     `json:"topic"`
	Keyword         string     `json:"keyword,omitempty"`
	CurrentQuestion int        `json:"current_question"`
	Score           int        `json:"score"`
	IsCompleted     bool       `json:"is_completed"`
	QuizSets        QuizSet    `json:"quizSets,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Key returns the identity of the record.
func (p GameProgress) Key() ProgressKey {
	return ProgressKey{UserID: p.UserID, Difficulty: p.Difficulty, Topic: p.Topic}
}

// ProgressUpdate is applied in place to an in-progress record.
type ProgressUpdate struct {
	CurrentQuestion int
	Score           int
	Complete        bool
	UpdatedAt       time.Time
}

// Apply mutates p according to the update.
func (u ProgressUpdate) Apply(p *GameProgress) {
	p.CurrentQuestion = u.CurrentQuestion
	p.Score = u.Score
	p.UpdatedAt = u.UpdatedAt
	if u.Complete {
		p.IsCompleted = true
	}
}
