package repos

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/knowitapp/knowit-backend/internal/domain"
	"github.com/knowitapp/knowit-backend/internal/platform/logger"
)

type QuestionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, questions []*domain.Question) ([]*domain.Question, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uint) ([]*domain.Question, error)
	GetOwnedByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uint, ownerUserID uint) ([]*domain.Question, error)
	ListByFolder(ctx context.Context, tx *gorm.DB, folderID uint) ([]*domain.Question, error)
	UpdateContent(ctx context.Context, tx *gorm.DB, questionID uint, text, answer string, explanation *string, folderID *uint) (int64, error)
	Detach(ctx context.Context, tx *gorm.DB, questionID, folderID uint) (int64, error)
	MoveByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uint, fromFolderID, toFolderID uint) (int64, error)
	DeleteOwnedByID(ctx context.Context, tx *gorm.DB, questionID, ownerUserID uint) (int64, error)
	DeleteInFolderByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uint, folderID uint) (int64, error)
	DeleteByFolder(ctx context.Context, tx *gorm.DB, folderID uint) error
	CountByFolder(ctx context.Context, tx *gorm.DB, folderID uint) (int64, error)
	CountInFolderByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uint, folderID uint) (int64, error)
	RecordAnswer(ctx context.Context, tx *gorm.DB, questionID uint, correct bool, answeredAt time.Time) (int64, error)
	SampleForPlay(ctx context.Context, tx *gorm.DB, folderID uint, limit int) ([]*domain.PlayQuestion, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	repoLog := baseLog.With("repo", "QuestionRepo")
	return &questionRepo{db: db, log: repoLog}
}

func (r *questionRepo) Create(ctx context.Context, tx *gorm.DB, questions []*domain.Question) ([]*domain.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(questions) == 0 {
		return []*domain.Question{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uint) ([]*domain.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Question
	if len(questionIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", questionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetOwnedByIDs resolves ownership transitively through the containing
// folder. Detached questions (folder_id NULL) never match.
func (r *questionRepo) GetOwnedByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uint, ownerUserID uint) ([]*domain.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Question
	if len(questionIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Model(&domain.Question{}).
		Select("questions.*").
		Joins("JOIN folders ON folders.id = questions.folder_id").
		Where("questions.id IN ?", questionIDs).
		Where("folders.owner_user_id = ?", ownerUserID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) ListByFolder(ctx context.Context, tx *gorm.DB, folderID uint) ([]*domain.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Question
	if err := transaction.WithContext(ctx).
		Where("folder_id = ?", folderID).
		Order("id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) UpdateContent(ctx context.Context, tx *gorm.DB, questionID uint, text, answer string, explanation *string, folderID *uint) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&domain.Question{}).
		Where("id = ?", questionID).
		Updates(map[string]interface{}{
			"question_text": text,
			"answer":        answer,
			"explanation":   explanation,
			"folder_id":     folderID,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Detach clears folder_id, leaving the question reachable only by id.
func (r *questionRepo) Detach(ctx context.Context, tx *gorm.DB, questionID, folderID uint) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&domain.Question{}).
		Where("id = ?", questionID).
		Where("folder_id = ?", folderID).
		Update("folder_id", nil)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *questionRepo) MoveByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uint, fromFolderID, toFolderID uint) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(questionIDs) == 0 {
		return 0, nil
	}

	res := transaction.WithContext(ctx).
		Model(&domain.Question{}).
		Where("id IN ?", questionIDs).
		Where("folder_id = ?", fromFolderID).
		Update("folder_id", toFolderID)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// DeleteOwnedByID deletes a question only when its containing folder
// belongs to ownerUserID; detached questions never match, and absent
// and foreign rows alike report 0.
func (r *questionRepo) DeleteOwnedByID(ctx context.Context, tx *gorm.DB, questionID, ownerUserID uint) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	ownedFolders := transaction.
		Model(&domain.Folder{}).
		Select("id").
		Where("owner_user_id = ?", ownerUserID)

	res := transaction.WithContext(ctx).
		Where("id = ?", questionID).
		Where("folder_id IN (?)", ownedFolders).
		Delete(&domain.Question{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *questionRepo) DeleteInFolderByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uint, folderID uint) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(questionIDs) == 0 {
		return 0, nil
	}

	res := transaction.WithContext(ctx).
		Where("id IN ?", questionIDs).
		Where("folder_id = ?", folderID).
		Delete(&domain.Question{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *questionRepo) DeleteByFolder(ctx context.Context, tx *gorm.DB, folderID uint) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Where("folder_id = ?", folderID).
		Delete(&domain.Question{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *questionRepo) CountByFolder(ctx context.Context, tx *gorm.DB, folderID uint) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.Question{}).
		Where("folder_id = ?", folderID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *questionRepo) CountInFolderByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uint, folderID uint) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(questionIDs) == 0 {
		return 0, nil
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.Question{}).
		Where("id IN ?", questionIDs).
		Where("folder_id = ?", folderID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// RecordAnswer bumps exactly one of the two counters and stamps
// last_answered_at in a single UPDATE.
func (r *questionRepo) RecordAnswer(ctx context.Context, tx *gorm.DB, questionID uint, correct bool, answeredAt time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	column := "incorrect_count"
	if correct {
		column = "correct_count"
	}

	res := transaction.WithContext(ctx).
		Model(&domain.Question{}).
		Where("id = ?", questionID).
		Updates(map[string]interface{}{
			column:             gorm.Expr(column + " + 1"),
			"last_answered_at": answeredAt,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// SampleForPlay draws up to limit questions without replacement in
// randomized order. Under-supply returns the whole folder.
func (r *questionRepo) SampleForPlay(ctx context.Context, tx *gorm.DB, folderID uint, limit int) ([]*domain.PlayQuestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	results := []*domain.PlayQuestion{}
	if err := transaction.WithContext(ctx).
		Model(&domain.Question{}).
		Select("id, question_text, answer").
		Where("folder_id = ?", folderID).
		Order("RANDOM()").
		Limit(limit).
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
