package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowitapp/knowit-backend/internal/http/response"
	"github.com/knowitapp/knowit-backend/internal/services"
)

// QuestionHandler serves the question-by-id routes and answer
// recording.
type QuestionHandler struct {
	questionService services.QuestionService
}

func NewQuestionHandler(questionService services.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

func (qh *QuestionHandler) Get(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	questionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	question, err := qh.questionService.Get(c.Request.Context(), questionID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, question.WithStats())
}

func (qh *QuestionHandler) Update(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	questionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		QuestionText string  `json:"question_text"`
		Answer       string  `json:"answer"`
		Explanation  *string `json:"explanation"`
		FolderID     *uint   `json:"folder_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	input := services.QuestionInput{
		QuestionText: req.QuestionText,
		Answer:       req.Answer,
		Explanation:  req.Explanation,
	}
	if err := qh.questionService.Update(c.Request.Context(), userID, questionID, input, req.FolderID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "question updated"})
}

func (qh *QuestionHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	questionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := qh.questionService.Delete(c.Request.Context(), userID, questionID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "question deleted"})
}

func (qh *QuestionHandler) ProcessAnswer(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		QuestionID *uint `json:"questionId"`
		IsCorrect  *bool `json:"isCorrect"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.QuestionID == nil || *req.QuestionID == 0 || req.IsCorrect == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("questionId and isCorrect required"))
		return
	}
	if err := qh.questionService.RecordAnswer(c.Request.Context(), userID, *req.QuestionID, *req.IsCorrect); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "answer recorded"})
}
