package api

import (
	"errors"
	"net/http"
	"time"

	"astrowell_go_backend/internal/auth"
	apperrors "astrowell_go_backend/internal/errors"
	"astrowell_go_backend/internal/models"
	"astrowell_go_backend/internal/services"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	r *gin.Engine,
	sessions services.SessionManager,
	credits services.CreditLedger,
	moods services.MoodStreakTracker,
	archive services.ChatArchive,
	chat services.ChatSessionManager,
	tokenTTL time.Duration,
) {
	api := r.Group("/api")
	{
		api.POST("/auth/signin", signInHandler(sessions, tokenTTL))
		api.POST("/auth/signup", signUpHandler(sessions, tokenTTL))

		authed := api.Group("/")
		authed.Use(auth.AuthMiddleware(sessions))
		{
			authed.POST("/auth/signout", signOutHandler(sessions))
			authed.GET("/session", getSessionHandler(sessions))
			authed.GET("/credits", getCreditsHandler(credits))

			authed.PUT("/birth-profile/pending", putPendingProfileHandler(sessions))
			authed.GET("/birth-profile/pending", consumePendingProfileHandler(sessions))

			authed.POST("/mood", recordMoodHandler(moods))
			authed.GET("/mood", getMoodHandler(moods))

			authed.POST("/chat/start", startChatHandler(chat))
			authed.POST("/chat/message", sendMessageHandler(chat))
			authed.POST("/chat/save", saveChatHandler(chat))
			authed.POST("/chat/end", endChatHandler(chat))

			authed.GET("/readings", listReadingsHandler(archive))
			authed.GET("/readings/stats", readingStatsHandler(archive))
			authed.GET("/readings/:id", getReadingHandler(archive))
			authed.DELETE("/readings/:id", deleteReadingHandler(archive))
		}
	}
}

// handleServiceError maps service sentinels onto the error renderer.
func handleServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		apperrors.HandleError(c, apperrors.New400Error(validationErr.Message))
	case errors.Is(err, services.ErrNoCreditsRemaining), errors.Is(err, services.ErrInsufficientCredits):
		apperrors.HandleError(c, apperrors.New402Error("You need credits to ask questions. You'll receive 10 new credits tomorrow!"))
	case errors.Is(err, services.ErrReplyPending):
		apperrors.HandleError(c, apperrors.New409Error("A reply is still pending. Please wait for it to arrive."))
	case errors.Is(err, services.ErrRecordNotFound):
		apperrors.HandleError(c, apperrors.New404Error("Reading not found"))
	case errors.Is(err, services.ErrSessionNotFound):
		apperrors.HandleError(c, apperrors.New404Error("Chat session not found"))
	default:
		apperrors.HandleError(c, err)
	}
}

func signInHandler(sessions services.SessionManager, tokenTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.SignInInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}
		session, err := sessions.SignIn(input, time.Now())
		if err != nil {
			handleServiceError(c, err)
			return
		}
		issueSession(c, session, tokenTTL)
	}
}

func signUpHandler(sessions services.SessionManager, tokenTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.SignUpInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}
		session, err := sessions.SignUp(input, time.Now())
		if err != nil {
			handleServiceError(c, err)
			return
		}
		issueSession(c, session, tokenTTL)
	}
}

func issueSession(c *gin.Context, session *models.Session, tokenTTL time.Duration) {
	token, err := auth.IssueToken(session.User, tokenTTL)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"session": session,
	})
}

func signOutHandler(sessions services.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sessions.SignOut(); err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
	}
}

func getSessionHandler(sessions services.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := sessions.RestoreSession(time.Now())
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		if session == nil {
			apperrors.HandleError(c, apperrors.New401Error())
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

func getCreditsHandler(credits services.CreditLedger) gin.HandlerFunc {
	return func(c *gin.Context) {
		balance, err := credits.Balance(time.Now())
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"credits": balance})
	}
}

func putPendingProfileHandler(sessions services.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var profile models.BirthProfile
		if err := c.ShouldBindJSON(&profile); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}
		if err := sessions.SetPendingBirthProfile(profile); err != nil {
			handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Birth profile stored"})
	}
}

func consumePendingProfileHandler(sessions services.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := sessions.ConsumePendingBirthProfile()
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		if profile == nil {
			apperrors.HandleError(c, apperrors.New404Error("No pending birth profile"))
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

func recordMoodHandler(moods services.MoodStreakTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			Mood string `json:"mood" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}
		entry, err := moods.RecordMood(request.Mood, time.Now())
		if err != nil {
			handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func getMoodHandler(moods services.MoodStreakTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		streak, err := moods.CurrentStreak()
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		label, ok, err := moods.TodaysMood(time.Now())
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		response := gin.H{"streak": streak}
		if ok {
			response["mood"] = label
		}
		c.JSON(http.StatusOK, response)
	}
}

func startChatHandler(chat services.ChatSessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			Profile  *models.BirthProfile `json:"profile"`
			ResumeID string               `json:"resume_id"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}

		if request.ResumeID != "" {
			sessionID, messages, err := chat.ResumeSession(request.ResumeID)
			if err != nil {
				handleServiceError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"session_id": sessionID,
				"messages":   messages,
			})
			return
		}

		if request.Profile == nil {
			apperrors.HandleError(c, apperrors.New400Error("Either profile or resume_id is required"))
			return
		}
		sessionID, greeting, err := chat.StartSession(*request.Profile)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"session_id": sessionID,
			"greeting":   greeting,
		})
	}
}

func sendMessageHandler(chat services.ChatSessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			SessionID string `json:"session_id" binding:"required"`
			Message   string `json:"message" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}
		msg, err := chat.SendMessage(request.SessionID, request.Message, time.Now())
		if err != nil {
			handleServiceError(c, err)
			return
		}
		// The assistant reply arrives over the WebSocket once the
		// simulated generation resolves.
		c.JSON(http.StatusAccepted, msg)
	}
}

func saveChatHandler(chat services.ChatSessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			SessionID string `json:"session_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}
		recordID, err := chat.SaveSession(request.SessionID, time.Now())
		if err != nil {
			handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"record_id": recordID})
	}
}

func endChatHandler(chat services.ChatSessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			SessionID string `json:"session_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}
		if err := chat.EndSession(request.SessionID); err != nil {
			handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Session ended"})
	}
}

func listReadingsHandler(archive services.ChatArchive) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := archive.Search(c.Query("q"))
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		// Listings omit the transcripts; they are fetched per reading.
		summaries := make([]gin.H, 0, len(records))
		for _, r := range records {
			summaries = append(summaries, gin.H{
				"id":           r.ID,
				"title":        r.Title,
				"savedAt":      r.SavedAt,
				"birthProfile": r.BirthProfile,
				"messageCount": r.MessageCount,
			})
		}
		c.JSON(http.StatusOK, gin.H{"readings": summaries})
	}
}

func readingStatsHandler(archive services.ChatArchive) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := archive.Stats()
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func getReadingHandler(archive services.ChatArchive) gin.HandlerFunc {
	return func(c *gin.Context) {
		record, err := archive.Get(c.Param("id"))
		if err != nil {
			handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func deleteReadingHandler(archive services.ChatArchive) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := archive.Delete(c.Param("id")); err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Reading deleted"})
	}
}
