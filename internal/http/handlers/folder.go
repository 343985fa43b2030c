package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowitapp/knowit-backend/internal/http/response"
	"github.com/knowitapp/knowit-backend/internal/services"
)

// FolderHandler serves the folder routes, including the folder-scoped
// question operations (add, detach, move, copy, play, import, bulk).
type FolderHandler struct {
	folderService   services.FolderService
	questionService services.QuestionService
}

func NewFolderHandler(folderService services.FolderService, questionService services.QuestionService) *FolderHandler {
	return &FolderHandler{
		folderService:   folderService,
		questionService: questionService,
	}
}

func (fh *FolderHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	folders, err := fh.folderService.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, folders)
}

func (fh *FolderHandler) Get(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	folderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	folder, err := fh.folderService.Get(c.Request.Context(), userID, folderID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, folder)
}

func (fh *FolderHandler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	folder, err := fh.folderService.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, folder)
}

func (fh *FolderHandler) Update(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	folderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	folder, err := fh.folderService.Rename(c.Request.Context(), userID, folderID, req.Name)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"id":          folder.ID,
		"folder_name": folder.FolderName,
	})
}

func (fh *FolderHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	folderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := fh.folderService.Delete(c.Request.Context(), userID, folderID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "folder and its questions deleted"})
}

func (fh *FolderHandler) Copy(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	folderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		NewFolderName string `json:"newFolderName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	newFolderID, err := fh.folderService.Copy(c.Request.Context(), userID, folderID, req.NewFolderName)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"message":     "folder copied",
		"newFolderId": newFolderID,
	})
}

func (fh *FolderHandler) QuestionCount(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	folderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	count, err := fh.folderService.QuestionCount(c.Request.Context(), userID, folderID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"count": count})
}

func (fh *FolderHandler) ListQuestions(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	folderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	questions, err := fh.questionService.ListInFolder(c.Request.Context(), userID, folderID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, questions)
}

func (fh *FolderHandler) AddQuestion(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	folderID, ok := paramID(c, "id")
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
	// The body must target the same folder as the path.
	if req.FolderID == nil || *req.FolderID != folderID {
		response.RespondError(c, http.StatusBadRequest, "folder_id_mismatch", fmt.Errorf("body folder_id does not match path"))
		return
	}
	question, err := fh.questionService.AddToFolder(c.Request.Context(), userID, folderID, services.QuestionInput{
		QuestionText: req.QuestionText,
		Answer:       req.Answer,
		Explanation:  req.Explanation,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, question)
}

func (fh *FolderHandler) RemoveQuestion(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	folderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	questionID, ok := paramID(c, "questionId")
	if !ok {
		return
	}
	if err := fh.questionService.Detach(c.Request.Context(), userID, folderID, questionID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "question removed from folder"})
}

func (fh *FolderHandler) MoveQuestion(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	folderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	questionID, ok := paramID(c, "questionId")
	if !ok {
		return
	}
	var req struct {
		TargetFolderID *uint `json:"target_folder_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.TargetFolderID == nil || *req.TargetFolderID == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_target_folder_id", fmt.Errorf("target_folder_id required"))
		return
	}
	question, err := fh.questionService.MoveOne(c.Request.Context(), userID, questionID, folderID, *req.TargetFolderID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"message":  "question moved",
		"question": question,
	})
}

func (fh *FolderHandler) CopyQuestion(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	targetFolderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		QuestionID *uint `json:"question_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.QuestionID == nil || *req.QuestionID == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_question_id", fmt.Errorf("question_id required"))
		return
	}
	question, err := fh.questionService.CopyOne(c.Request.Context(), userID, targetFolderID, *req.QuestionID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"message":  "question copied",
		"question": question,
	})
}

func (fh *FolderHandler) Play(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	folderID, ok := paramID(c, "folderId")
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil {
			limit = 0
		}
	}
	questions, err := fh.questionService.Play(c.Request.Context(), userID, folderID, limit)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, questions)
}

func (fh *FolderHandler) ImportQuestions(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	folderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Questions []struct {
			QuestionText string  `json:"question_text"`
			Answer       string  `json:"answer"`
			Explanation  *string `json:"explanation"`
		} `json:"questions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rows := make([]services.QuestionInput, 0, len(req.Questions))
	for _, q := range req.Questions {
		rows = append(rows, services.QuestionInput{
			QuestionText: q.QuestionText,
			Answer:       q.Answer,
			Explanation:  q.Explanation,
		})
	}
	imported, err := fh.questionService.Import(c.Request.Context(), userID, folderID, rows)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"message": fmt.Sprintf("imported %d questions", imported),
		"count":   imported,
	})
}

func (fh *FolderHandler) DeleteQuestions(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	folderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		QuestionIDs []uint `json:"question_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	deleted, err := fh.questionService.BulkDelete(c.Request.Context(), userID, folderID, req.QuestionIDs)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"message":       fmt.Sprintf("deleted %d questions", deleted),
		"deleted_count": deleted,
	})
}

func (fh *FolderHandler) MoveQuestions(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	folderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		QuestionIDs    []uint `json:"question_ids"`
		TargetFolderID *uint  `json:"target_folder_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.TargetFolderID == nil || *req.TargetFolderID == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_target_folder_id", fmt.Errorf("target_folder_id required"))
		return
	}
	moved, err := fh.questionService.BulkMove(c.Request.Context(), userID, folderID, *req.TargetFolderID, req.QuestionIDs)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"message":     fmt.Sprintf("moved %d questions", moved),
		"moved_count": moved,
	})
}

func (fh *FolderHandler) CopyQuestions(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	targetFolderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		QuestionIDs []uint `json:"question_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	copied, err := fh.questionService.BulkCopy(c.Request.Context(), userID, targetFolderID, req.QuestionIDs)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"message":      fmt.Sprintf("copied %d questions", copied),
		"copied_count": copied,
	})
}
