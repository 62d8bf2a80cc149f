package services

import (
	"errors"
	"sync"
	"time"

	"astrowell_go_backend/internal/models"
	"astrowell_go_backend/internal/utils/broker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrSessionNotFound = errors.New("chat session not found")

	// ErrReplyPending rejects a send while the previous reply is
	// still being generated; the send control stays disabled until
	// the pending reply resolves.
	ErrReplyPending = errors.New("a reply is still pending for this session")

	// ErrNoCreditsRemaining rejects a send at zero balance, before
	// anything is appended.
	ErrNoCreditsRemaining = errors.New("no credits remaining")
)

// chatSession is the in-memory state of one active consultation.
// Nothing here touches the store until an explicit save.
type chatSession struct {
	profile      models.BirthProfile
	recordID     string // stable archive id, set on first save or resume
	messages     []models.ChatMessage
	saved        bool
	replyPending bool
}

// ChatSessionManager runs active consultations: it spends credits on
// each user message, schedules the delayed assistant reply, and
// persists transcripts through the archive on demand.
type ChatSessionManager interface {
	StartSession(profile models.BirthProfile) (sessionID, greeting string, err error)
	ResumeSession(recordID string) (sessionID string, messages []models.ChatMessage, err error)
	SendMessage(sessionID, text string, now time.Time) (*models.ChatMessage, error)
	Messages(sessionID string) ([]models.ChatMessage, error)
	Saved(sessionID string) (bool, error)
	SaveSession(sessionID string, now time.Time) (recordID string, err error)
	EndSession(sessionID string) error
}

// DefaultChatSessionService implements ChatSessionManager.
type DefaultChatSessionService struct {
	mu       sync.Mutex
	sessions map[string]*chatSession

	credits    CreditLedger
	archive    ChatArchive
	readings   ReadingGenerator
	replies    *broker.Broker
	replyDelay time.Duration
}

func NewChatSessionService(
	credits CreditLedger,
	archive ChatArchive,
	readings ReadingGenerator,
	replies *broker.Broker,
	replyDelay time.Duration,
) *DefaultChatSessionService {
	return &DefaultChatSessionService{
		sessions:   make(map[string]*chatSession),
		credits:    credits,
		archive:    archive,
		readings:   readings,
		replies:    replies,
		replyDelay: replyDelay,
	}
}

// StartSession opens a fresh consultation for a complete birth
// profile. The returned greeting is display copy only; it is not part
// of the message sequence and is never saved.
func (s *DefaultChatSessionService) StartSession(profile models.BirthProfile) (string, string, error) {
	if !profile.Complete() {
		return "", "", validationError("All birth details are required to start a consultation.")
	}

	sessionID := uuid.New().String()
	s.mu.Lock()
	s.sessions[sessionID] = &chatSession{profile: profile}
	s.mu.Unlock()

	log.Info().Str("session_id", sessionID).Str("subject", profile.Name).Msg("consultation started")
	return sessionID, s.readings.Greeting(profile), nil
}

// ResumeSession reopens a saved reading. Further saves go back to the
// same archive record.
func (s *DefaultChatSessionService) ResumeSession(recordID string) (string, []models.ChatMessage, error) {
	record, err := s.archive.Get(recordID)
	if err != nil {
		return "", nil, err
	}

	sessionID := uuid.New().String()
	messages := make([]models.ChatMessage, len(record.Messages))
	copy(messages, record.Messages)

	s.mu.Lock()
	s.sessions[sessionID] = &chatSession{
		profile:  record.BirthProfile,
		recordID: record.ID,
		messages: messages,
		saved:    true,
	}
	s.mu.Unlock()

	return sessionID, messages, nil
}

// SendMessage appends one user message and schedules the assistant
// reply. The credit is spent atomically with the append: a rejected
// spend leaves the session untouched.
func (s *DefaultChatSessionService) SendMessage(sessionID, text string, now time.Time) (*models.ChatMessage, error) {
	if text == "" {
		return nil, validationError("Message text is required.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.replyPending {
		return nil, ErrReplyPending
	}

	if _, err := s.credits.Spend(1, now); err != nil {
		if errors.Is(err, ErrInsufficientCredits) {
			return nil, ErrNoCreditsRemaining
		}
		return nil, err
	}

	msg := models.ChatMessage{
		ID:     uuid.New().String(),
		Role:   models.RoleUser,
		Text:   text,
		SentAt: now,
	}
	sess.messages = append(sess.messages, msg)
	sess.saved = false
	sess.replyPending = true

	time.AfterFunc(s.replyDelay, func() {
		s.completeReply(sessionID, text)
	})

	return &msg, nil
}

// completeReply resolves the pending reply. A session discarded
// before the timer fires just drops the result; there is no visible
// side effect beyond the in-memory message list.
func (s *DefaultChatSessionService) completeReply(sessionID, question string) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		log.Debug().Str("session_id", sessionID).Msg("discarding reply for abandoned session")
		return
	}

	msg := models.ChatMessage{
		ID:     uuid.New().String(),
		Role:   models.RoleAssistant,
		Text:   s.readings.Reply(sess.profile, question),
		SentAt: time.Now(),
	}
	sess.messages = append(sess.messages, msg)
	sess.saved = false
	sess.replyPending = false
	s.mu.Unlock()

	s.replies.Publish(sessionID, msg)
}

func (s *DefaultChatSessionService) Messages(sessionID string) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	messages := make([]models.ChatMessage, len(sess.messages))
	copy(messages, sess.messages)
	return messages, nil
}

func (s *DefaultChatSessionService) Saved(sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return false, ErrSessionNotFound
	}
	return sess.saved, nil
}

// SaveSession snapshots the session into the archive. The record id
// stays stable across saves of the same consultation, so a re-save
// replaces the record in place.
func (s *DefaultChatSessionService) SaveSession(sessionID string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return "", ErrSessionNotFound
	}
	if sess.recordID == "" {
		sess.recordID = "chat_" + uuid.New().String()
	}

	messages := make([]models.ChatMessage, len(sess.messages))
	copy(messages, sess.messages)

	recordID, err := s.archive.Upsert(models.ChatRecord{
		ID:           sess.recordID,
		Title:        "Reading for " + sess.profile.Name,
		SavedAt:      now,
		BirthProfile: sess.profile,
		MessageCount: len(messages),
		Messages:     messages,
	})
	if err != nil {
		return "", err
	}
	sess.saved = true
	return recordID, nil
}

// EndSession discards the in-memory session; an unresolved reply is
// dropped when its timer fires.
func (s *DefaultChatSessionService) EndSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}
