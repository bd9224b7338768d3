package questionprovider

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClientGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Maths", req.Subject)
		assert.Equal(t, "pyq", req.Mode)
		assert.Equal(t, "hard", req.Difficulty)

		_ = json.NewEncoder(w).Encode(generateResponse{
			Question:    "2 + 2 = ?",
			Options:     []string{"3", "4", "5", "6"},
			Correct:     1,
			Explanation: "Basic addition.",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	q, err := client.Generate(context.Background(), models.SubjectMaths, models.ModePYQ, models.DifficultyHard)
	require.NoError(t, err)
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, models.SubjectMaths, q.Subject)
	assert.Equal(t, models.ModePYQ, q.Mode)
	assert.Equal(t, models.DifficultyHard, q.Difficulty)
	assert.Equal(t, 1, q.CorrectIndex)
	assert.Len(t, q.Options, 4)
}

func TestClientGenerateMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{
			Question: "broken",
			Options:  []string{"a", "b"},
			Correct:  5,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Generate(context.Background(), models.SubjectEnglish, models.ModeQuiz, "")
	assert.Error(t, err)
}

func TestClientGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Generate(context.Background(), models.SubjectGK, models.ModeQuiz, "")
	assert.Error(t, err)
}

func TestBankCoversAllSubjects(t *testing.T) {
	bank := NewBank(1)
	for _, subject := range []models.Subject{
		models.SubjectEnglish, models.SubjectGK, models.SubjectMaths, models.SubjectVocab,
	} {
		q, err := bank.Generate(context.Background(), subject, models.ModeQuiz, models.DifficultyModerate)
		require.NoError(t, err)
		assert.Equal(t, subject, q.Subject)
		assert.NotEmpty(t, q.Question)
		assert.GreaterOrEqual(t, q.CorrectIndex, 0)
		assert.Less(t, q.CorrectIndex, len(q.Options))
	}
}

func TestBankMarksMathsDifficulty(t *testing.T) {
	bank := NewBank(1)
	q, err := bank.Generate(context.Background(), models.SubjectMaths, models.ModeQuiz, models.DifficultyHard)
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyHard, q.Difficulty)

	q, err = bank.Generate(context.Background(), models.SubjectEnglish, models.ModeQuiz, models.DifficultyHard)
	require.NoError(t, err)
	assert.Empty(t, q.Difficulty)
}

func TestFallbackServesReserveOnPrimaryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	provider := NewFallback(NewClient(srv.URL, time.Second), NewBank(1), discardLogger())
	q, err := provider.Generate(context.Background(), models.SubjectVocab, models.ModeQuiz, "")
	require.NoError(t, err)
	assert.Equal(t, models.SubjectVocab, q.Subject)
	assert.Contains(t, q.ID, "offline_")
}

func TestFallbackPrefersPrimary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{
			Question:    "Pick the synonym of CANDID.",
			Options:     []string{"Deceptive", "Frank", "Secretive", "Reserved"},
			Correct:     1,
			Explanation: "Candid means frank.",
		})
	}))
	defer srv.Close()

	provider := NewFallback(NewClient(srv.URL, time.Second), NewBank(1), discardLogger())
	q, err := provider.Generate(context.Background(), models.SubjectEnglish, models.ModeQuiz, "")
	require.NoError(t, err)
	assert.NotContains(t, q.ID, "offline_")
	assert.Equal(t, "Pick the synonym of CANDID.", q.Question)
}
