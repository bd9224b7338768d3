// Package services реализует сессию практики с очередью предзагрузки.
//
// На пользователя существует не более одной активной сессии. Вопросы
// подгружаются в фоне, чтобы переход к следующему вопросу не ждал
// генератора. Вся фоновая работа сессии живет в контексте сессии и
// останавливается вместе с ней.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/quiz-access-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/quiz-access-service/internal/lib/sl"
	"github.com/magabrotheeeer/quiz-access-service/internal/models"
	"github.com/magabrotheeeer/quiz-access-service/internal/questionprovider"
	sessionguard "github.com/magabrotheeeer/quiz-access-service/internal/services/sessionguard"
)

const (
	// queueCap ограничивает очередь предзагрузки. Производитель,
	// упирающийся в предел, молча отбрасывает лишнее.
	queueCap = 11
	// initialPrefetch — сколько вопросов догружается в фоне сразу
	// после старта сессии.
	initialPrefetch = 4
	// topupBatch — размер фоновой дозагрузки при опустевшей очереди.
	topupBatch = 3
	// topupThreshold — дозагрузка начинается, когда в очереди
	// остается меньше этого количества.
	topupThreshold = 2
)

var (
	// ErrNoActiveSession — у пользователя нет запущенной сессии практики.
	ErrNoActiveSession = errors.New("no active quiz session")
	// ErrSessionEvicted — сессия была вытеснена входом с другого устройства.
	ErrSessionEvicted = errors.New("quiz session evicted")
)

// Publisher описывает отправку уведомлений о событиях сессии.
type Publisher interface {
	Publish(routingkey string, message any) error
}

// State — снимок сессии для выдачи наружу.
type State struct {
	Item     *models.HistoryItem `json:"item"`
	Position int                 `json:"position"`
	Total    int                 `json:"total"`
	Score    int                 `json:"score"`
}

// session — состояние одной активной сессии практики.
type session struct {
	username   string
	subject    models.Subject
	mode       models.QuizMode
	difficulty models.Difficulty

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	history []*models.HistoryItem
	pos     int
	queue   []*models.Question
	score   int
}

// QuizService управляет сессиями практики всех пользователей.
type QuizService struct {
	provider      questionprovider.Provider
	tokens        sessionguard.TokenReader
	publisher     Publisher
	guardInterval time.Duration
	log           *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewQuizService создает сервис сессий практики.
func NewQuizService(provider questionprovider.Provider, tokens sessionguard.TokenReader,
	publisher Publisher, guardInterval time.Duration, log *slog.Logger) *QuizService {
	return &QuizService{
		provider:      provider,
		tokens:        tokens,
		publisher:     publisher,
		guardInterval: guardInterval,
		log:           log,
		sessions:      make(map[string]*session),
	}
}

// Start запускает новую сессию практики. Первый вопрос загружается
// синхронно, еще несколько — в фоне. Прежняя сессия пользователя,
// если была, останавливается. Сторож сессии запускается в контексте
// сессии и вытесняет ее при входе с другого устройства.
func (s *QuizService) Start(ctx context.Context, username, token string,
	subject models.Subject, mode models.QuizMode, difficulty models.Difficulty) (*State, error) {
	const op = "services.QuizService.Start"

	first, err := s.provider.Generate(ctx, subject, mode, difficulty)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sessCtx, cancel := context.WithCancel(context.Background())
	sess := &session{
		username:   username,
		subject:    subject,
		mode:       mode,
		difficulty: difficulty,
		ctx:        sessCtx,
		cancel:     cancel,
		history:    []*models.HistoryItem{{Question: first}},
	}

	s.mu.Lock()
	if old, ok := s.sessions[username]; ok {
		old.cancel()
	}
	s.sessions[username] = sess
	s.mu.Unlock()

	go s.prefetch(sess, initialPrefetch)

	guard := sessionguard.NewGuard(s.tokens, username, token, s.guardInterval,
		func() { s.evict(username, sess) }, s.log)
	go guard.Run(sessCtx)

	return sess.state(), nil
}

// Next выдает следующий вопрос. Уже загруженный более поздний элемент
// истории выдается сдвигом указателя, вопрос из очереди — без задержки,
// и только на пустой очереди приходится ждать генератор.
func (s *QuizService) Next(ctx context.Context, username string) (*State, error) {
	const op = "services.QuizService.Next"

	sess, err := s.get(username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sess.mu.Lock()
	if sess.pos < len(sess.history)-1 {
		sess.pos++
		st := sess.stateLocked()
		sess.mu.Unlock()
		return st, nil
	}
	if len(sess.queue) > 0 {
		q := sess.queue[0]
		sess.queue = sess.queue[1:]
		sess.history = append(sess.history, &models.HistoryItem{Question: q})
		sess.pos++
		topup := len(sess.queue) < topupThreshold
		st := sess.stateLocked()
		sess.mu.Unlock()
		if topup {
			go s.prefetch(sess, topupBatch)
		}
		return st, nil
	}
	sess.mu.Unlock()

	// Очередь пуста: загрузка на переднем плане, затем фоновая дозагрузка.
	q, err := s.provider.Generate(ctx, sess.subject, sess.mode, sess.difficulty)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sess.mu.Lock()
	sess.history = append(sess.history, &models.HistoryItem{Question: q})
	sess.pos = len(sess.history) - 1
	st := sess.stateLocked()
	sess.mu.Unlock()

	go s.prefetch(sess, topupBatch)
	return st, nil
}

// Prev сдвигает указатель назад по истории. Загрузок не бывает.
func (s *QuizService) Prev(username string) (*State, error) {
	const op = "services.QuizService.Prev"

	sess, err := s.get(username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.pos > 0 {
		sess.pos--
	}
	return sess.stateLocked(), nil
}

// Answer фиксирует ответ на текущий вопрос. Повторный ответ на тот же
// вопрос результата не меняет.
func (s *QuizService) Answer(username string, optionIndex int) (*models.Result, error) {
	const op = "services.QuizService.Answer"

	sess, err := s.get(username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	item := sess.history[sess.pos]
	if item.Result != nil {
		return item.Result, nil
	}

	q := item.Question
	result := &models.Result{
		QuestionID:         q.ID,
		SelectedIndex:      optionIndex,
		IsCorrect:          optionIndex == q.CorrectIndex,
		CorrectOptionIndex: q.CorrectIndex,
		Explanation:        q.Explanation,
	}
	item.Result = result
	if result.IsCorrect {
		sess.score++
	}
	return result, nil
}

// Stop завершает сессию пользователя вместе со всей ее фоновой работой.
// Отсутствие сессии не является ошибкой.
func (s *QuizService) Stop(username string) {
	s.mu.Lock()
	sess, ok := s.sessions[username]
	if ok {
		delete(s.sessions, username)
	}
	s.mu.Unlock()

	if ok {
		sess.cancel()
	}
}

// StopAll завершает все активные сессии, используется при остановке сервиса.
func (s *QuizService) StopAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.cancel()
	}
}

// get возвращает живую сессию пользователя.
func (s *QuizService) get(username string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[username]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoActiveSession
	}
	if sess.ctx.Err() != nil {
		return nil, ErrSessionEvicted
	}
	return sess, nil
}

// evict вытесняет сессию после входа с другого устройства.
func (s *QuizService) evict(username string, sess *session) {
	s.mu.Lock()
	if current, ok := s.sessions[username]; ok && current == sess {
		delete(s.sessions, username)
	}
	s.mu.Unlock()

	sess.cancel()

	if s.publisher != nil {
		err := s.publisher.Publish(rabbitmq.RoutingKeySessionEvicted, map[string]string{
			"username": username,
		})
		if err != nil {
			s.log.Error("failed to publish session eviction",
				slog.String("username", username), sl.Err(err))
		}
	}
}

// prefetch догружает до n вопросов в очередь сессии. Ошибки генератора
// только логируются, переполнение очереди обрывает догрузку.
func (s *QuizService) prefetch(sess *session, n int) {
	for i := 0; i < n; i++ {
		if sess.ctx.Err() != nil {
			return
		}
		q, err := s.provider.Generate(sess.ctx, sess.subject, sess.mode, sess.difficulty)
		if err != nil {
			if sess.ctx.Err() == nil {
				s.log.Warn("background question fetch failed",
					slog.String("username", sess.username), sl.Err(err))
			}
			return
		}

		sess.mu.Lock()
		if sess.ctx.Err() != nil {
			sess.mu.Unlock()
			return
		}
		if len(sess.queue) >= queueCap {
			sess.mu.Unlock()
			return
		}
		sess.queue = append(sess.queue, q)
		sess.mu.Unlock()
	}
}

func (sess *session) state() *State {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.stateLocked()
}

func (sess *session) stateLocked() *State {
	return &State{
		Item:     sess.history[sess.pos],
		Position: sess.pos,
		Total:    len(sess.history),
		Score:    sess.score,
	}
}
