package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/http/response"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/session"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

type AssessmentHandler struct {
	log      *logger.Logger
	sessions session.Service
}

func NewAssessmentHandler(log *logger.Logger, sessions session.Service) *AssessmentHandler {
	return &AssessmentHandler{log: log.With("handler", "AssessmentHandler"), sessions: sessions}
}

type startRequest struct {
	StudentID string `json:"studentId"`
	Topic     string `json:"topic"`
	Concept   string `json:"concept,omitempty"`
	// Legacy snake_case field accepted from older clients.
	LegacyStudentID string `json:"student_id,omitempty"`
}

type startResponse struct {
	SessionID         string  `json:"sessionId"`
	ActiveConcept     string  `json:"activeConcept"`
	InitialDifficulty float64 `json:"initialDifficulty"`
}

type decisionPayload struct {
	Action           string  `json:"action"`
	TargetDifficulty float64 `json:"targetDifficulty"`
	Reason           string  `json:"reason"`
}

type nextResponse struct {
	Status   string              `json:"status"`
	Reason   string              `json:"reason,omitempty"`
	Question *types.QuestionView `json:"question,omitempty"`
	Decision *decisionPayload    `json:"decision,omitempty"`
}

type submitRequest struct {
	QuestionID       string  `json:"questionId"`
	SelectedAnswer   *string `json:"selectedAnswer"`
	TimeTakenSeconds float64 `json:"timeTakenSeconds"`
}

type submitResponse struct {
	IsCorrect     bool               `json:"isCorrect"`
	CorrectAnswer string             `json:"correctAnswer"`
	Explanation   string             `json:"explanation"`
	MasteryUpdate map[string]float64 `json:"masteryUpdate"`
}

type resultResponse struct {
	SessionID        string             `json:"sessionId"`
	TotalQuestions   int                `json:"totalQuestions"`
	CorrectAnswers   int                `json:"correctAnswers"`
	FinalMastery     map[string]float64 `json:"finalMastery"`
	FinalScore       float64            `json:"finalScore"`
	CompletionReason string             `json:"completionReason"`
	Message          string             `json:"message"`
}

// POST /api/assessment/start
func (h *AssessmentHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, string(types.CodeValidation), err)
		return
	}
	studentID := strings.TrimSpace(req.StudentID)
	if studentID == "" {
		studentID = strings.TrimSpace(req.LegacyStudentID)
	}
	res, err := h.sessions.Start(c.Request.Context(), session.StartInput{
		StudentID: studentID,
		Topic:     req.Topic,
		Concept:   req.Concept,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, startResponse{
		SessionID:         res.SessionID,
		ActiveConcept:     res.ActiveConcept,
		InitialDifficulty: res.InitialDifficulty,
	})
}

// GET /api/assessment/:id/next-question
func (h *AssessmentHandler) NextQuestion(c *gin.Context) {
	res, err := h.sessions.NextQuestion(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	if res.Completed {
		response.RespondOK(c, nextResponse{Status: "completed", Reason: res.Reason})
		return
	}
	out := nextResponse{Status: "in_progress", Question: res.Question}
	if d := res.Decision; d != nil {
		out.Decision = &decisionPayload{Action: string(d.Action), TargetDifficulty: d.TargetDifficulty, Reason: d.Reason}
	}
	response.RespondOK(c, out)
}

// POST /api/assessment/:id/submit-answer
func (h *AssessmentHandler) SubmitAnswer(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, string(types.CodeValidation), err)
		return
	}
	if strings.TrimSpace(req.QuestionID) == "" || req.SelectedAnswer == nil {
		response.RespondError(c, http.StatusBadRequest, string(types.CodeValidation),
			types.Validation("submit_answer", "questionId and selectedAnswer are required"))
		return
	}
	res, err := h.sessions.SubmitAnswer(c.Request.Context(), session.SubmitInput{
		SessionID:        c.Param("id"),
		QuestionID:       req.QuestionID,
		SelectedAnswer:   *req.SelectedAnswer,
		TimeTakenSeconds: req.TimeTakenSeconds,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, submitResponse{
		IsCorrect:     res.IsCorrect,
		CorrectAnswer: res.CorrectAnswer,
		Explanation:   res.Explanation,
		MasteryUpdate: res.MasteryUpdate,
	})
}

// GET /api/assessment/:id/result
func (h *AssessmentHandler) Result(c *gin.Context) {
	res, err := h.sessions.Result(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, resultResponse{
		SessionID:        res.SessionID,
		TotalQuestions:   res.TotalQuestions,
		CorrectAnswers:   res.CorrectAnswers,
		FinalMastery:     res.FinalMastery,
		FinalScore:       res.FinalScore,
		CompletionReason: res.CompletionReason,
		Message:          res.Message,
	})
}

// GET /api/assessment/student/:studentId/mastery
func (h *AssessmentHandler) StudentMastery(c *gin.Context) {
	res, err := h.sessions.StudentMastery(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"studentId":      res.StudentID,
		"sessionId":      res.SessionID,
		"conceptMastery": res.ConceptMastery,
	})
}

// GET /api/assessment/stats/teacher
func (h *AssessmentHandler) TeacherStats(c *gin.Context) {
	res, err := h.sessions.TeacherStats(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"avgMastery":    res.AvgMastery,
		"totalStudents": res.TotalStudents,
	})
}
