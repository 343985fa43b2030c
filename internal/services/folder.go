package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/knowitapp/knowit-backend/internal/data/repos"
	"github.com/knowitapp/knowit-backend/internal/domain"
	errs "github.com/knowitapp/knowit-backend/internal/pkg/errors"
	"github.com/knowitapp/knowit-backend/internal/platform/apierr"
	"github.com/knowitapp/knowit-backend/internal/platform/logger"
)

type FolderService interface {
	List(ctx context.Context, userID uint) ([]*domain.FolderSummary, error)
	Get(ctx context.Context, userID, folderID uint) (*domain.Folder, error)
	Create(ctx context.Context, userID uint, name string) (*domain.Folder, error)
	Rename(ctx context.Context, userID, folderID uint, name string) (*domain.Folder, error)
	Delete(ctx context.Context, userID, folderID uint) error
	Copy(ctx context.Context, userID, folderID uint, newName string) (uint, error)
	QuestionCount(ctx context.Context, userID, folderID uint) (int64, error)
}

type folderService struct {
	db           *gorm.DB
	log          *logger.Logger
	folderRepo   repos.FolderRepo
	questionRepo repos.QuestionRepo
	ownership    OwnershipService
}

func NewFolderService(db *gorm.DB, log *logger.Logger, folderRepo repos.FolderRepo, questionRepo repos.QuestionRepo, ownership OwnershipService) FolderService {
	serviceLog := log.With("service", "FolderService")
	return &folderService{
		db:           db,
		log:          serviceLog,
		folderRepo:   folderRepo,
		questionRepo: questionRepo,
		ownership:    ownership,
	}
}

func (s *folderService) List(ctx context.Context, userID uint) ([]*domain.FolderSummary, error) {
	return s.folderRepo.ListByOwner(ctx, nil, userID)
}

func (s *folderService) Get(ctx context.Context, userID, folderID uint) (*domain.Folder, error) {
	return s.ownership.OwnedFolder(ctx, nil, folderID, userID)
}

func (s *folderService) Create(ctx context.Context, userID uint, name string) (*domain.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierr.BadRequest("folder_name_required", errs.ErrInvalidArgument)
	}

	folder := &domain.Folder{FolderName: name, OwnerUserID: userID}
	if _, err := s.folderRepo.Create(ctx, nil, []*domain.Folder{folder}); err != nil {
		return nil, err
	}
	return folder, nil
}

func (s *folderService) Rename(ctx context.Context, userID, folderID uint, name string) (*domain.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierr.BadRequest("folder_name_required", errs.ErrInvalidArgument)
	}

	n, err := s.folderRepo.UpdateName(ctx, nil, folderID, userID, name)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apierr.NotFound("folder_not_found", errs.ErrNotFound)
	}
	return &domain.Folder{ID: folderID, FolderName: name, OwnerUserID: userID}, nil
}

// Delete removes the folder and every contained question in one
// transaction.
func (s *folderService) Delete(ctx context.Context, userID, folderID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownership.OwnedFolder(ctx, tx, folderID, userID); err != nil {
			return err
		}
		if err := s.questionRepo.DeleteByFolder(ctx, tx, folderID); err != nil {
			return err
		}
		return s.folderRepo.DeleteByID(ctx, tx, folderID)
	})
}

// Copy duplicates the folder and all its questions with statistics
// reset. A failure at any row rolls back the whole copy, leaving
// neither the new folder nor partial questions.
func (s *folderService) Copy(ctx context.Context, userID, folderID uint, newName string) (uint, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return 0, apierr.BadRequest("folder_name_required", errs.ErrInvalidArgument)
	}

	var newFolderID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownership.OwnedFolder(ctx, tx, folderID, userID); err != nil {
			return err
		}

		newFolder := &domain.Folder{FolderName: newName, OwnerUserID: userID}
		if _, err := s.folderRepo.Create(ctx, tx, []*domain.Folder{newFolder}); err != nil {
			return err
		}
		newFolderID = newFolder.ID

		questions, err := s.questionRepo.ListByFolder(ctx, tx, folderID)
		if err != nil {
			return err
		}

		copies := make([]*domain.Question, 0, len(questions))
		for _, q := range questions {
			copies = append(copies, &domain.Question{
				QuestionText: q.QuestionText,
				Answer:       q.Answer,
				Explanation:  q.Explanation,
				FolderID:     &newFolder.ID,
			})
		}
		_, err = s.questionRepo.Create(ctx, tx, copies)
		return err
	})
	if err != nil {
		return 0, err
	}
	return newFolderID, nil
}

func (s *folderService) QuestionCount(ctx context.Context, userID, folderID uint) (int64, error) {
	if _, err := s.ownership.OwnedFolder(ctx, nil, folderID, userID); err != nil {
		return 0, err
	}
	return s.questionRepo.CountByFolder(ctx, nil, folderID)
}
