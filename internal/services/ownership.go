package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/knowitapp/knowit-backend/internal/data/repos"
	"github.com/knowitapp/knowit-backend/internal/domain"
	"github.com/knowitapp/knowit-backend/internal/platform/apierr"
	errs "github.com/knowitapp/knowit-backend/internal/pkg/errors"
	"github.com/knowitapp/knowit-backend/internal/platform/logger"
)

// OwnershipService is the single authorization predicate applied before
// every folder/question write. Singular misses come back as 404 so a
// caller cannot probe for other users' rows; only named destination
// folders (cross-folder move/copy targets) are reported as 403, since
// the caller supplied that id themselves.
type OwnershipService interface {
	OwnedFolder(ctx context.Context, tx *gorm.DB, folderID, userID uint) (*domain.Folder, error)
	OwnedDestinationFolder(ctx context.Context, tx *gorm.DB, folderID, userID uint, code string) (*domain.Folder, error)
	OwnedQuestion(ctx context.Context, tx *gorm.DB, questionID, userID uint) (*domain.Question, error)
}

type ownershipService struct {
	log          *logger.Logger
	folderRepo   repos.FolderRepo
	questionRepo repos.QuestionRepo
}

func NewOwnershipService(log *logger.Logger, folderRepo repos.FolderRepo, questionRepo repos.QuestionRepo) OwnershipService {
	serviceLog := log.With("service", "OwnershipService")
	return &ownershipService{
		log:          serviceLog,
		folderRepo:   folderRepo,
		questionRepo: questionRepo,
	}
}

func (s *ownershipService) OwnedFolder(ctx context.Context, tx *gorm.DB, folderID, userID uint) (*domain.Folder, error) {
	folders, err := s.folderRepo.GetOwnedByIDs(ctx, tx, []uint{folderID}, userID)
	if err != nil {
		return nil, err
	}
	if len(folders) == 0 {
		return nil, apierr.NotFound("folder_not_found", errs.ErrNotFound)
	}
	return folders[0], nil
}

// OwnedDestinationFolder distinguishes an absent destination (404) from
// a foreign one (403).
func (s *ownershipService) OwnedDestinationFolder(ctx context.Context, tx *gorm.DB, folderID, userID uint, code string) (*domain.Folder, error) {
	folders, err := s.folderRepo.GetByIDs(ctx, tx, []uint{folderID})
	if err != nil {
		return nil, err
	}
	if len(folders) == 0 {
		return nil, apierr.NotFound("folder_not_found", errs.ErrNotFound)
	}
	if folders[0].OwnerUserID != userID {
		return nil, apierr.Forbidden(code, errs.ErrForbidden)
	}
	return folders[0], nil
}

func (s *ownershipService) OwnedQuestion(ctx context.Context, tx *gorm.DB, questionID, userID uint) (*domain.Question, error) {
	questions, err := s.questionRepo.GetOwnedByIDs(ctx, tx, []uint{questionID}, userID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, apierr.NotFound("question_not_found", errs.ErrNotFound)
	}
	return questions[0], nil
}
