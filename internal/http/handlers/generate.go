package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowitapp/knowit-backend/internal/http/response"
	"github.com/knowitapp/knowit-backend/internal/services"
)

type GenerateHandler struct {
	generateService services.GenerateService
}

func NewGenerateHandler(generateService services.GenerateService) *GenerateHandler {
	return &GenerateHandler{generateService: generateService}
}

// GenerateQuestion drafts a question and explanation for a
// user-supplied answer. Nothing is persisted.
func (gh *GenerateHandler) GenerateQuestion(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	var req struct {
		Answer            string `json:"answer"`
		FolderName        string `json:"folderName"`
		IncludeFolderName bool   `json:"includeFolderName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	generated, err := gh.generateService.QuestionFromAnswer(c.Request.Context(), req.Answer, req.FolderName, req.IncludeFolderName)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, generated)
}
