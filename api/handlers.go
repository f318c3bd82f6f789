package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voinici/quiz-feedback/internal/answerkey"
	"github.com/voinici/quiz-feedback/internal/feedback"
	"github.com/voinici/quiz-feedback/internal/pipeline"
	"github.com/voinici/quiz-feedback/internal/quiz"
	"github.com/voinici/quiz-feedback/internal/scorer"
	"github.com/voinici/quiz-feedback/internal/store"
	"github.com/voinici/quiz-feedback/internal/topics"
)

// questionFeedback mirrors the outbound per-question schema. user_answer and
// correct_answer_index carry either the numeric index or the "No answer" /
// "Unknown" sentinel.
type questionFeedback struct {
	QuestionID    int  `json:"question_id"`
	QuizIndex     int  `json:"quiz_index,omitempty"`
	UserAnswer    any  `json:"user_answer"`
	CorrectAnswer any  `json:"correct_answer_index"`
	IsCorrect     bool `json:"is_correct"`
}

type feedbackResponse struct {
	ID               string             `json:"id,omitempty"`
	OverallScore     int                `json:"overall_score"`
	TotalQuestions   int                `json:"total_questions"`
	Feedback         string             `json:"feedback"`
	Guardrail        string             `json:"guardrail"`
	QuestionFeedback []questionFeedback `json:"question_feedback"`
}

type quizView struct {
	Title     string         `json:"title"`
	Questions []questionView `json:"questions"`
}

type questionView struct {
	ID      int      `json:"id"`
	Text    string   `json:"text,omitempty"`
	Options []string `json:"options,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleFeedback(c *gin.Context) {
	var sub quiz.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := sub.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	s.runAndRespond(c, &sub)
}

func (s *Server) handleFeedbackSimple(c *gin.Context) {
	var attempt quiz.Attempt
	if err := c.ShouldBindJSON(&attempt); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	lib, err := quiz.LoadLibrary(s.config.Resources.QuizzesDir)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	expanded, err := lib.Expand(&attempt)
	if err != nil {
		respondError(c, http.StatusNotFound, err)
		return
	}

	s.runAndRespond(c, &quiz.Submission{Quiz: expanded})
}

// runAndRespond runs the pipeline over one submission and writes the result.
// Grading resources are loaded fresh per request; a missing or corrupt file
// degrades to an empty mapping instead of failing the request.
func (s *Server) runAndRespond(c *gin.Context, sub *quiz.Submission) {
	keys, _ := answerkey.Load(s.config.Resources.AnswerKeys)
	advisor, _ := topics.Load(s.config.Resources.Topics)

	gen := feedback.NewGenerator(s.provider, advisor, feedback.Config{
		Timeout:   s.config.Feedback.Timeout,
		MaxTokens: s.config.Feedback.MaxTokens,
		Language:  s.config.Feedback.Language,
	})

	st := pipeline.New(keys, gen, nil).Run(c.Request.Context(), sub)

	resp := feedbackResponse{
		OverallScore:     st.Score,
		TotalQuestions:   st.Total,
		Feedback:         st.Feedback,
		Guardrail:        string(st.Verdict),
		QuestionFeedback: toQuestionFeedback(st.Results),
	}
	if id, err := s.persist(c.Request.Context(), st); err == nil {
		resp.ID = id
	}

	c.JSON(http.StatusOK, resp)
}

// persist saves the run for history queries. Persistence is best-effort:
// a storage failure must not fail a graded response.
func (s *Server) persist(ctx context.Context, st *pipeline.State) (string, error) {
	if s == nil || s.store == nil || st == nil {
		return "", errors.New("api: no store")
	}

	titles := make([]string, 0, len(st.Quizzes))
	for _, q := range st.Quizzes {
		titles = append(titles, q.Title)
	}

	results := make([]store.QuestionRecord, 0, len(st.Results))
	for _, r := range st.Results {
		results = append(results, store.QuestionRecord{
			QuestionID:   r.QuestionID,
			QuizIndex:    r.QuizIndex,
			UserAnswer:   r.UserAnswer,
			CorrectIndex: r.CorrectIndex,
			Correct:      r.Correct,
		})
	}

	rec := &store.Record{
		QuizTitles:     titles,
		Score:          st.Score,
		Total:          st.Total,
		Verdict:        string(st.Verdict),
		FeedbackSource: string(st.FeedbackSource),
		Feedback:       st.Feedback,
		Analysis:       st.Analysis,
		Results:        results,
	}
	if err := s.store.SaveResult(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *Server) handleListQuizzes(c *gin.Context) {
	lib, err := quiz.LoadLibrary(s.config.Resources.QuizzesDir)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	views := make([]quizView, 0)
	for _, title := range lib.Titles() {
		if q, ok := lib.Find(title); ok {
			views = append(views, toQuizView(q))
		}
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) handleGetQuiz(c *gin.Context) {
	title := strings.TrimSpace(c.Param("title"))
	if title == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing quiz title"))
		return
	}

	lib, err := quiz.LoadLibrary(s.config.Resources.QuizzesDir)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	q, ok := lib.Find(title)
	if !ok {
		respondError(c, http.StatusNotFound, errors.New("quiz not found"))
		return
	}
	c.JSON(http.StatusOK, toQuizView(q))
}

func (s *Server) handleListHistory(c *gin.Context) {
	if s.store == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("history disabled"))
		return
	}

	filter := store.Filter{
		Title:   strings.TrimSpace(c.Query("title")),
		Verdict: strings.TrimSpace(c.Query("verdict")),
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		filter.Limit = n
	}

	recs, err := s.store.ListResults(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if recs == nil {
		recs = []*store.Record{}
	}
	c.JSON(http.StatusOK, recs)
}

func (s *Server) handleGetHistory(c *gin.Context) {
	if s.store == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("history disabled"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing record id"))
		return
	}

	rec, err := s.store.GetResult(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func toQuestionFeedback(results []scorer.Result) []questionFeedback {
	out := make([]questionFeedback, 0, len(results))
	for _, r := range results {
		qf := questionFeedback{
			QuestionID:    r.QuestionID,
			QuizIndex:     r.QuizIndex,
			UserAnswer:    any("No answer"),
			CorrectAnswer: any("Unknown"),
			IsCorrect:     r.Correct,
		}
		if r.UserAnswer != nil {
			qf.UserAnswer = *r.UserAnswer
		}
		if r.CorrectIndex != nil {
			qf.CorrectAnswer = *r.CorrectIndex
		}
		out = append(out, qf)
	}
	return out
}

func toQuizView(q *quiz.Quiz) quizView {
	view := quizView{
		Title:     q.Title,
		Questions: make([]questionView, 0, len(q.Questions)),
	}
	for _, question := range q.Questions {
		view.Questions = append(view.Questions, questionView{
			ID:      question.ID,
			Text:    question.Text,
			Options: question.Options,
		})
	}
	return view
}

func respondError(c *gin.Context, code int, err error) {
	msg := "error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(code, gin.H{"error": msg})
}
