package questionprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

// Client получает вопросы от внешнего генератора по HTTP.
type Client struct {
	address    string
	httpClient *http.Client
}

// NewClient создает клиента генератора вопросов.
func NewClient(address string, timeout time.Duration) *Client {
	return &Client{
		address:    address,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Subject    string `json:"subject"`
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty,omitempty"`
}

type generateResponse struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"`
	Explanation string   `json:"explanation"`
}

// Generate запрашивает у генератора один вопрос. Идентификатор вопроса
// присваивается на нашей стороне.
func (c *Client) Generate(ctx context.Context, subject models.Subject, mode models.QuizMode,
	difficulty models.Difficulty) (*models.Question, error) {
	const op = "questionprovider.Client.Generate"

	payload := generateRequest{
		Subject: string(subject),
		Mode:    string(mode),
	}
	if subject == models.SubjectMaths {
		payload.Difficulty = string(difficulty)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.address+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	var data generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if data.Question == "" || len(data.Options) == 0 ||
		data.Correct < 0 || data.Correct >= len(data.Options) {
		return nil, fmt.Errorf("%s: malformed question payload", op)
	}

	q := &models.Question{
		ID:           uuid.NewString(),
		Subject:      subject,
		Mode:         mode,
		Question:     data.Question,
		Options:      data.Options,
		CorrectIndex: data.Correct,
		Explanation:  data.Explanation,
	}
	if subject == models.SubjectMaths {
		q.Difficulty = difficulty
	}
	return q, nil
}
