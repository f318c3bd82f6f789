package api

import (
	"errors"
	"os"
	"strings"
)

func (s *Server) registerRoutes() error {
	if s == nil || s.router == nil {
		return nil
	}

	api := s.router.Group("/api")
	apiKey := strings.TrimSpace(os.Getenv("QUIZ_FEEDBACK_API_KEY"))
	if apiKey != "" {
		api.Use(apiKeyAuthMiddleware(apiKey))
	} else if strings.EqualFold(strings.TrimSpace(os.Getenv("QUIZ_FEEDBACK_DISABLE_AUTH")), "true") {
		// Explicitly allow unauthenticated access.
	} else {
		return errors.New("api: missing auth configuration: set QUIZ_FEEDBACK_API_KEY or set QUIZ_FEEDBACK_DISABLE_AUTH=true")
	}

	api.GET("/health", s.handleHealth)

	api.POST("/feedback", s.handleFeedback)
	api.POST("/feedback/simple", s.handleFeedbackSimple)

	api.GET("/quizzes", s.handleListQuizzes)
	api.GET("/quizzes/:title", s.handleGetQuiz)

	api.GET("/history", s.handleListHistory)
	api.GET("/history/:id", s.handleGetHistory)

	return nil
}
