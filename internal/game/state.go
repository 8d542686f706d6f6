package game

import "time"

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

type ParticipantKind string

const (
	KindHuman ParticipantKind = "human"
	KindAgent ParticipantKind = "agent"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func ParseDifficulty(v string) Difficulty {
	switch Difficulty(v) {
	case DifficultyEasy, DifficultyHard:
		return Difficulty(v)
	default:
		return DifficultyMedium
	}
}

type Room struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	QuestionTimeLimit time.Duration `json:"question_time_limit"`
	Intermission      time.Duration `json:"intermission"`
	TotalQuestions    int           `json:"total_questions"`
	BingoSlots        int           `json:"bingo_slots"`
	CornersEnabled    bool          `json:"corners_enabled"`
	CategoryScope     []string      `json:"category_scope"`
	CreatedAt         time.Time     `json:"created_at"`
}

type Session struct {
	ID                   string        `json:"id"`
	RoomID               string        `json:"room_id"`
	GameNumber           int           `json:"game_number"`
	Status               SessionStatus `json:"status"`
	TotalQuestions       int           `json:"total_questions"`
	CurrentQuestionIndex int           `json:"current_question_index"`
	QuestionsAsked       []string      `json:"questions_asked"`
	BingoSlotsTotal      int           `json:"bingo_slots_total"`
	BingoSlotsRemaining  int           `json:"bingo_slots_remaining"`
	StartedAt            *time.Time    `json:"started_at,omitempty"`
	CompletedAt          *time.Time    `json:"completed_at,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
}

func (s Session) QuestionBudgetUsed() bool {
	return s.CurrentQuestionIndex >= s.TotalQuestions
}

type Participant struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"session_id"`
	DisplayName   string          `json:"display_name"`
	Kind          ParticipantKind `json:"kind"`
	Difficulty    Difficulty      `json:"difficulty,omitempty"`
	Card          Card            `json:"card"`
	Unlocked      CellSet         `json:"unlocked"`
	Completed     Lines           `json:"completed"`
	CorrectCount  int             `json:"correct_count"`
	IncorrectCnt  int             `json:"incorrect_count"`
	TotalXP       int             `json:"total_xp"`
	CurrentStreak int             `json:"current_streak"`
	BestStreak    int             `json:"best_streak"`
	BingosWon     int             `json:"bingos_won"`
	Left          bool            `json:"left"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (p Participant) IsAgent() bool {
	return p.Kind == KindAgent
}

// ApplyCorrect unlocks cell and scores the answer using the streak held
// before the increment.
func (p *Participant) ApplyCorrect(cell Cell, responseTime time.Duration) XPBreakdown {
	xp := CorrectXP(p.CurrentStreak, responseTime)
	p.Unlocked = p.Unlocked.With(cell)
	p.CorrectCount++
	p.CurrentStreak++
	if p.CurrentStreak > p.BestStreak {
		p.BestStreak = p.CurrentStreak
	}
	p.TotalXP += xp.Total
	return xp
}

func (p *Participant) ApplyIncorrect() {
	p.IncorrectCnt++
	p.CurrentStreak = 0
	p.TotalXP = ApplyPenalty(p.TotalXP)
}

type Question struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Category     string    `json:"category"`
	Difficulty   string    `json:"difficulty,omitempty"`
	Topic        string    `json:"topic,omitempty"`
	TimesShown   int       `json:"times_shown"`
	TimesCorrect int       `json:"times_correct"`
	CreatedAt    time.Time `json:"created_at"`
}

type ClickSource string

const (
	SourceHuman ClickSource = "human"
	SourceAgent ClickSource = "agent"
)

type ClickEvent struct {
	ID              string        `json:"id"`
	SessionID       string        `json:"session_id"`
	ParticipantID   string        `json:"participant_id"`
	QuestionIndex   int           `json:"question_index"`
	Cell            Cell          `json:"cell"`
	ClickedCategory string        `json:"clicked_category"`
	TargetCategory  string        `json:"target_category"`
	Correct         bool          `json:"correct"`
	ResponseTime    time.Duration `json:"response_time"`
	Unlocked        bool          `json:"unlocked"`
	Source          ClickSource   `json:"source"`
	CreatedAt       time.Time     `json:"created_at"`
}

type BingoAward struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	ParticipantID string    `json:"participant_id"`
	AwardNumber   int       `json:"award_number"`
	Line          Line      `json:"line"`
	QuestionIndex int       `json:"question_index"`
	BonusXP       int       `json:"bonus_xp"`
	CreatedAt     time.Time `json:"created_at"`
}
