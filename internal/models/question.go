package models

// Subject — предмет викторины.
type Subject string

// Поддерживаемые предметы.
const (
	SubjectEnglish Subject = "English"
	SubjectGK      Subject = "GK"
	SubjectMaths   Subject = "Maths"
	SubjectVocab   Subject = "Vocab Booster"
)

// QuizMode — режим генерации вопросов.
type QuizMode string

// Режимы викторины: свободная генерация и вопросы в стиле прошлых лет.
const (
	ModeQuiz QuizMode = "quiz"
	ModePYQ  QuizMode = "pyq"
)

// Difficulty — сложность вопроса, используется только для предмета Maths.
type Difficulty string

// Уровни сложности.
const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyModerate Difficulty = "moderate"
	DifficultyHard     Difficulty = "hard"
)

// Question — сгенерированный вопрос викторины с четырьмя вариантами ответа.
type Question struct {
	ID           string     `json:"id"`
	Subject      Subject    `json:"subject"`
	Mode         QuizMode   `json:"mode"`
	Question     string     `json:"question"`
	Options      []string   `json:"options"`
	CorrectIndex int        `json:"correct_index"`
	Explanation  string     `json:"explanation"`
	Difficulty   Difficulty `json:"difficulty,omitempty"`
}

// Result — зафиксированный ответ пользователя на вопрос.
type Result struct {
	QuestionID         string `json:"question_id"`
	SelectedIndex      int    `json:"selected_index"`
	IsCorrect          bool   `json:"is_correct"`
	CorrectOptionIndex int    `json:"correct_option_index"`
	Explanation        string `json:"explanation"`
}

// HistoryItem — элемент истории сессии: вопрос и ответ на него, если дан.
type HistoryItem struct {
	Question *Question `json:"question"`
	Result   *Result   `json:"result,omitempty"`
}
