package services_test

import (
	"fmt"
	"testing"
	"time"

	"astrowell_go_backend/internal/models"
	"astrowell_go_backend/internal/services"
	"astrowell_go_backend/internal/store"
	"astrowell_go_backend/internal/utils/broker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	chat     *services.DefaultChatSessionService
	credits  services.CreditLedger
	archive  services.ChatArchive
	sessions services.SessionManager
	replies  *broker.Broker
	readings *MockReadingGenerator
}

func newChatFixture(replyDelay time.Duration) *chatFixture {
	kv := store.NewMemoryStore()
	credits := services.NewCreditLedger(kv, 10)
	archive := services.NewChatArchive(kv)

	readings := new(MockReadingGenerator)
	readings.On("Greeting", mock.Anything).Return("greeting copy")
	readings.On("Reply", mock.Anything, mock.Anything).Return("the stars have spoken")

	replies := broker.NewBroker()
	return &chatFixture{
		chat:     services.NewChatSessionService(credits, archive, readings, replies, replyDelay),
		credits:  credits,
		archive:  archive,
		sessions: services.NewSessionManager(kv, credits),
		replies:  replies,
		readings: readings,
	}
}

func waitForReply(t *testing.T, ch <-chan models.ChatMessage) models.ChatMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the assistant reply")
		return models.ChatMessage{}
	}
}

func TestStartSession(t *testing.T) {
	fx := newChatFixture(0)

	t.Run("requires a complete birth profile", func(t *testing.T) {
		var validationErr *services.ValidationError
		_, _, err := fx.chat.StartSession(models.BirthProfile{Name: "Maya P."})
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("greeting is display copy, not part of the transcript", func(t *testing.T) {
		sessionID, greeting, err := fx.chat.StartSession(mayaProfile)
		require.NoError(t, err)
		assert.Equal(t, "greeting copy", greeting)

		messages, err := fx.chat.Messages(sessionID)
		require.NoError(t, err)
		assert.Empty(t, messages)
	})
}

func TestSendMessageValidation(t *testing.T) {
	fx := newChatFixture(0)
	_, err := fx.credits.SeedIfAbsent(day0)
	require.NoError(t, err)

	sessionID, _, err := fx.chat.StartSession(mayaProfile)
	require.NoError(t, err)

	t.Run("empty text is rejected", func(t *testing.T) {
		var validationErr *services.ValidationError
		_, err := fx.chat.SendMessage(sessionID, "", day0)
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := fx.chat.SendMessage("nope", "hello", day0)
		assert.ErrorIs(t, err, services.ErrSessionNotFound)
	})
}

func TestReplyArrivesAfterDelay(t *testing.T) {
	fx := newChatFixture(0)
	_, err := fx.credits.SeedIfAbsent(day0)
	require.NoError(t, err)

	sessionID, _, err := fx.chat.StartSession(mayaProfile)
	require.NoError(t, err)

	replyCh := fx.replies.Subscribe(sessionID)
	defer fx.replies.Unsubscribe(sessionID, replyCh)

	sent, err := fx.chat.SendMessage(sessionID, "What does my chart say?", day0)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, sent.Role)

	reply := waitForReply(t, replyCh)
	assert.Equal(t, models.RoleAssistant, reply.Role)
	assert.Equal(t, "the stars have spoken", reply.Text)

	messages, err := fx.chat.Messages(sessionID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)

	// The resolved reply unblocks the next question.
	_, err = fx.chat.SendMessage(sessionID, "And my career?", day0)
	require.NoError(t, err)
}

func TestSendBlockedWhileReplyPending(t *testing.T) {
	fx := newChatFixture(time.Hour)
	_, err := fx.credits.SeedIfAbsent(day0)
	require.NoError(t, err)

	sessionID, _, err := fx.chat.StartSession(mayaProfile)
	require.NoError(t, err)

	_, err = fx.chat.SendMessage(sessionID, "first question", day0)
	require.NoError(t, err)

	_, err = fx.chat.SendMessage(sessionID, "too soon", day0)
	assert.ErrorIs(t, err, services.ErrReplyPending)

	// The blocked send spent nothing.
	balance, err := fx.credits.Balance(day0)
	require.NoError(t, err)
	assert.Equal(t, 9, balance)
}

func TestSaveResumeRoundTrip(t *testing.T) {
	fx := newChatFixture(0)
	_, err := fx.credits.SeedIfAbsent(day0)
	require.NoError(t, err)

	sessionID, _, err := fx.chat.StartSession(mayaProfile)
	require.NoError(t, err)

	replyCh := fx.replies.Subscribe(sessionID)
	_, err = fx.chat.SendMessage(sessionID, "What does my chart say?", day0)
	require.NoError(t, err)
	waitForReply(t, replyCh)
	fx.replies.Unsubscribe(sessionID, replyCh)

	recordID, err := fx.chat.SaveSession(sessionID, day0)
	require.NoError(t, err)

	saved, err := fx.chat.Saved(sessionID)
	require.NoError(t, err)
	assert.True(t, saved)

	t.Run("a new message marks the session unsaved", func(t *testing.T) {
		replyCh := fx.replies.Subscribe(sessionID)
		defer fx.replies.Unsubscribe(sessionID, replyCh)
		_, err := fx.chat.SendMessage(sessionID, "And my career?", day0)
		require.NoError(t, err)
		waitForReply(t, replyCh)

		saved, err := fx.chat.Saved(sessionID)
		require.NoError(t, err)
		assert.False(t, saved)
	})

	t.Run("re-saving replaces the same record", func(t *testing.T) {
		again, err := fx.chat.SaveSession(sessionID, day0.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, recordID, again)

		records, err := fx.archive.List()
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Reading for Maya P.", records[0].Title)
		assert.Equal(t, 4, records[0].MessageCount)
	})

	t.Run("resume restores the transcript", func(t *testing.T) {
		require.NoError(t, fx.chat.EndSession(sessionID))

		resumedID, messages, err := fx.chat.ResumeSession(recordID)
		require.NoError(t, err)
		assert.Len(t, messages, 4)

		saved, err := fx.chat.Saved(resumedID)
		require.NoError(t, err)
		assert.True(t, saved)

		// Saving the resumed session still targets the same record.
		again, err := fx.chat.SaveSession(resumedID, day0.Add(2*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, recordID, again)
	})

	t.Run("resume of an unknown record fails", func(t *testing.T) {
		_, _, err := fx.chat.ResumeSession("chat_missing")
		assert.ErrorIs(t, err, services.ErrRecordNotFound)
	})
}

func TestEndSessionDiscardsState(t *testing.T) {
	fx := newChatFixture(0)

	sessionID, _, err := fx.chat.StartSession(mayaProfile)
	require.NoError(t, err)

	require.NoError(t, fx.chat.EndSession(sessionID))

	_, err = fx.chat.Messages(sessionID)
	assert.ErrorIs(t, err, services.ErrSessionNotFound)

	assert.ErrorIs(t, fx.chat.EndSession(sessionID), services.ErrSessionNotFound)

	// An unsaved session leaves no trace in the archive.
	records, err := fx.archive.List()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestConsultationRunsDryAtTenQuestions(t *testing.T) {
	fx := newChatFixture(0)

	session, err := fx.sessions.SignIn(services.SignInInput{Email: "maya@example.com", Password: "secret"}, day0)
	require.NoError(t, err)
	require.Equal(t, 10, session.Credits)

	sessionID, _, err := fx.chat.StartSession(mayaProfile)
	require.NoError(t, err)

	replyCh := fx.replies.Subscribe(sessionID)
	defer fx.replies.Unsubscribe(sessionID, replyCh)

	for i := 1; i <= 10; i++ {
		_, err := fx.chat.SendMessage(sessionID, fmt.Sprintf("question %d", i), day0)
		require.NoError(t, err)
		waitForReply(t, replyCh)

		balance, err := fx.credits.Balance(day0)
		require.NoError(t, err)
		assert.Equal(t, 10-i, balance)
	}

	_, err = fx.chat.SendMessage(sessionID, "one more", day0)
	assert.ErrorIs(t, err, services.ErrNoCreditsRemaining)

	_, err = fx.chat.SaveSession(sessionID, day0)
	require.NoError(t, err)

	records, err := fx.archive.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 20, records[0].MessageCount)
	assert.Len(t, records[0].Messages, 20)
}
