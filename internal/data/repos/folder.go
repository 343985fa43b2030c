package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/knowitapp/knowit-backend/internal/domain"
	"github.com/knowitapp/knowit-backend/internal/platform/logger"
)

type FolderRepo interface {
	Create(ctx context.Context, tx *gorm.DB, folders []*domain.Folder) ([]*domain.Folder, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, folderIDs []uint) ([]*domain.Folder, error)
	GetOwnedByIDs(ctx context.Context, tx *gorm.DB, folderIDs []uint, ownerUserID uint) ([]*domain.Folder, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerUserID uint) ([]*domain.FolderSummary, error)
	UpdateName(ctx context.Context, tx *gorm.DB, folderID, ownerUserID uint, name string) (int64, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, folderID uint) error
}

type folderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFolderRepo(db *gorm.DB, baseLog *logger.Logger) FolderRepo {
	repoLog := baseLog.With("repo", "FolderRepo")
	return &folderRepo{db: db, log: repoLog}
}

func (r *folderRepo) Create(ctx context.Context, tx *gorm.DB, folders []*domain.Folder) ([]*domain.Folder, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(folders) == 0 {
		return []*domain.Folder{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

func (r *folderRepo) GetByIDs(ctx context.Context, tx *gorm.DB, folderIDs []uint) ([]*domain.Folder, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Folder
	if len(folderIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", folderIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *folderRepo) GetOwnedByIDs(ctx context.Context, tx *gorm.DB, folderIDs []uint, ownerUserID uint) ([]*domain.Folder, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Folder
	if len(folderIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", folderIDs).
		Where("owner_user_id = ?", ownerUserID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ListByOwner returns the caller's folders with their question counts.
// LEFT JOIN keeps empty folders in the result with a count of 0.
func (r *folderRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerUserID uint) ([]*domain.FolderSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	results := []*domain.FolderSummary{}
	if err := transaction.WithContext(ctx).
		Table("folders").
		Select("folders.id, folders.folder_name, COUNT(questions.id) AS question_count").
		Joins("LEFT JOIN questions ON questions.folder_id = folders.id").
		Where("folders.owner_user_id = ?", ownerUserID).
		Group("folders.id, folders.folder_name").
		Order("folders.id").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateName renames only when the row is owned by ownerUserID; the
// returned count is 0 for absent and foreign folders alike.
func (r *folderRepo) UpdateName(ctx context.Context, tx *gorm.DB, folderID, ownerUserID uint, name string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&domain.Folder{}).
		Where("id = ?", folderID).
		Where("owner_user_id = ?", ownerUserID).
		Update("folder_name", name)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *folderRepo) DeleteByID(ctx context.Context, tx *gorm.DB, folderID uint) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Where("id = ?", folderID).
		Delete(&domain.Folder{}).Error; err != nil {
		return err
	}
	return nil
}
