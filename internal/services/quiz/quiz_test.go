package services

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

// countingProvider выдает пронумерованные вопросы и считает обращения
// к генератору.
type countingProvider struct {
	calls atomic.Int64
}

func (p *countingProvider) Generate(_ context.Context, subject models.Subject,
	mode models.QuizMode, difficulty models.Difficulty) (*models.Question, error) {
	n := p.calls.Add(1)
	return &models.Question{
		ID:           "q-" + strconv.FormatInt(n, 10),
		Subject:      subject,
		Mode:         mode,
		Difficulty:   difficulty,
		Question:     "question " + strconv.FormatInt(n, 10),
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: 1,
		Explanation:  "because",
	}, nil
}

type tokenReaderStub struct {
	mu    sync.Mutex
	token string
}

func (s *tokenReaderStub) SessionToken(_ context.Context, _ string) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return nil, nil
	}
	t := s.token
	return &t, nil
}

func (s *tokenReaderStub) set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(routingkey string, message any) error {
	args := m.Called(routingkey, message)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(provider *countingProvider, tokens *tokenReaderStub) *QuizService {
	return NewQuizService(provider, tokens, nil, time.Hour, discardLogger())
}

func waitForCalls(t *testing.T, provider *countingProvider, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for provider.calls.Load() < want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d provider calls, got %d", want, provider.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStartSeedsFirstQuestionAndPrefetches(t *testing.T) {
	provider := new(countingProvider)
	svc := newService(provider, &tokenReaderStub{token: "tok"})
	defer svc.StopAll()

	st, err := svc.Start(context.Background(), "alice123", "tok",
		models.SubjectEnglish, models.ModeQuiz, "")
	require.NoError(t, err)
	assert.Equal(t, 0, st.Position)
	assert.Equal(t, 1, st.Total)
	assert.NotNil(t, st.Item.Question)

	// Первый вопрос синхронный, еще четыре догружаются в фоне.
	waitForCalls(t, provider, 1+initialPrefetch)
}

func TestNextPopsQueueWithoutFetching(t *testing.T) {
	provider := new(countingProvider)
	svc := newService(provider, &tokenReaderStub{token: "tok"})
	defer svc.StopAll()

	_, err := svc.Start(context.Background(), "alice123", "tok",
		models.SubjectEnglish, models.ModeQuiz, "")
	require.NoError(t, err)
	waitForCalls(t, provider, 1+initialPrefetch)

	before := provider.calls.Load()
	st, err := svc.Next(context.Background(), "alice123")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Position)
	// Вопрос взят из очереди, синхронного обращения к генератору нет,
	// возможна только фоновая дозагрузка.
	assert.GreaterOrEqual(t, provider.calls.Load(), before)
}

func TestNextAfterPrevAdvancesPointerOnly(t *testing.T) {
	provider := new(countingProvider)
	svc := newService(provider, &tokenReaderStub{token: "tok"})
	defer svc.StopAll()

	_, err := svc.Start(context.Background(), "alice123", "tok",
		models.SubjectEnglish, models.ModeQuiz, "")
	require.NoError(t, err)
	waitForCalls(t, provider, 1+initialPrefetch)

	st, err := svc.Next(context.Background(), "alice123")
	require.NoError(t, err)
	secondID := st.Item.Question.ID

	st, err = svc.Prev("alice123")
	require.NoError(t, err)
	assert.Equal(t, 0, st.Position)

	calls := provider.calls.Load()
	st, err = svc.Next(context.Background(), "alice123")
	require.NoError(t, err)
	assert.Equal(t, secondID, st.Item.Question.ID)
	// Возврат к уже просмотренному вопросу не трогает генератор.
	assert.Equal(t, calls, provider.calls.Load())
}

func TestPrevNeverFetchesAndStopsAtStart(t *testing.T) {
	provider := new(countingProvider)
	svc := newService(provider, &tokenReaderStub{token: "tok"})
	defer svc.StopAll()

	_, err := svc.Start(context.Background(), "alice123", "tok",
		models.SubjectGK, models.ModeQuiz, "")
	require.NoError(t, err)
	waitForCalls(t, provider, 1+initialPrefetch)

	calls := provider.calls.Load()
	for i := 0; i < 5; i++ {
		st, err := svc.Prev("alice123")
		require.NoError(t, err)
		assert.Equal(t, 0, st.Position)
	}
	assert.Equal(t, calls, provider.calls.Load())
}

func TestQueueNeverExceedsCapUnderRapidNext(t *testing.T) {
	provider := new(countingProvider)
	svc := newService(provider, &tokenReaderStub{token: "tok"})
	defer svc.StopAll()

	_, err := svc.Start(context.Background(), "alice123", "tok",
		models.SubjectMaths, models.ModePYQ, models.DifficultyHard)
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		_, err := svc.Next(context.Background(), "alice123")
		require.NoError(t, err)
	}
	// Дать фоновым дозагрузкам отработать до конца.
	time.Sleep(100 * time.Millisecond)

	sess, err := svc.get("alice123")
	require.NoError(t, err)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	assert.LessOrEqual(t, len(sess.queue), queueCap)
}

func TestAnswerScoresOnceAndIsIdempotent(t *testing.T) {
	provider := new(countingProvider)
	svc := newService(provider, &tokenReaderStub{token: "tok"})
	defer svc.StopAll()

	_, err := svc.Start(context.Background(), "alice123", "tok",
		models.SubjectEnglish, models.ModeQuiz, "")
	require.NoError(t, err)

	result, err := svc.Answer("alice123", 1)
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, 1, result.CorrectOptionIndex)

	// Повторный ответ, даже другой, ничего не меняет.
	again, err := svc.Answer("alice123", 3)
	require.NoError(t, err)
	assert.Equal(t, result, again)

	st, err := svc.Prev("alice123")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Score)
}

func TestStopEndsSession(t *testing.T) {
	provider := new(countingProvider)
	svc := newService(provider, &tokenReaderStub{token: "tok"})

	_, err := svc.Start(context.Background(), "alice123", "tok",
		models.SubjectEnglish, models.ModeQuiz, "")
	require.NoError(t, err)

	svc.Stop("alice123")
	_, err = svc.Next(context.Background(), "alice123")
	assert.ErrorIs(t, err, ErrNoActiveSession)

	// Повторная остановка безвредна.
	svc.Stop("alice123")
}

func TestGuardEvictsStaleQuizSession(t *testing.T) {
	provider := new(countingProvider)
	tokens := &tokenReaderStub{token: "tok"}
	publisher := new(PublisherMock)
	publisher.On("Publish", "session.evicted", mock.Anything).Return(nil)

	svc := NewQuizService(provider, tokens, publisher, 10*time.Millisecond, discardLogger())
	defer svc.StopAll()

	_, err := svc.Start(context.Background(), "alice123", "tok",
		models.SubjectEnglish, models.ModeQuiz, "")
	require.NoError(t, err)

	// Вход с другого устройства перезаписывает токен.
	tokens.set("newer-token")

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err = svc.Next(context.Background(), "alice123")
		if err != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session was not evicted")
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.ErrorIs(t, err, ErrNoActiveSession)
	publisher.AssertCalled(t, "Publish", "session.evicted", mock.Anything)
}
