package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/knowitapp/knowit-backend/internal/data/repos"
	"github.com/knowitapp/knowit-backend/internal/domain"
	errs "github.com/knowitapp/knowit-backend/internal/pkg/errors"
	"github.com/knowitapp/knowit-backend/internal/platform/apierr"
	"github.com/knowitapp/knowit-backend/internal/platform/logger"
)

const defaultPlayLimit = 10

// QuestionInput is the client-supplied portion of a question; counters
// and last_answered_at are never writable through it.
type QuestionInput struct {
	QuestionText string
	Answer       string
	Explanation  *string
}

type QuestionService interface {
	Get(ctx context.Context, questionID uint) (*domain.Question, error)
	ListInFolder(ctx context.Context, userID, folderID uint) ([]*domain.QuestionWithStats, error)
	AddToFolder(ctx context.Context, userID, folderID uint, input QuestionInput) (*domain.Question, error)
	Update(ctx context.Context, userID, questionID uint, input QuestionInput, folderID *uint) error
	Delete(ctx context.Context, userID, questionID uint) error
	Detach(ctx context.Context, userID, folderID, questionID uint) error
	MoveOne(ctx context.Context, userID, questionID, sourceFolderID, targetFolderID uint) (*domain.Question, error)
	CopyOne(ctx context.Context, userID, targetFolderID, questionID uint) (*domain.Question, error)
	RecordAnswer(ctx context.Context, userID, questionID uint, correct bool) error
	Play(ctx context.Context, userID, folderID uint, limit int) ([]*domain.PlayQuestion, error)
	Import(ctx context.Context, userID, folderID uint, rows []QuestionInput) (int, error)
	BulkDelete(ctx context.Context, userID, folderID uint, questionIDs []uint) (int64, error)
	BulkMove(ctx context.Context, userID, sourceFolderID, targetFolderID uint, questionIDs []uint) (int64, error)
	BulkCopy(ctx context.Context, userID, targetFolderID uint, questionIDs []uint) (int64, error)
}

type questionService struct {
	db           *gorm.DB
	log          *logger.Logger
	folderRepo   repos.FolderRepo
	questionRepo repos.QuestionRepo
	ownership    OwnershipService
}

func NewQuestionService(db *gorm.DB, log *logger.Logger, folderRepo repos.FolderRepo, questionRepo repos.QuestionRepo, ownership OwnershipService) QuestionService {
	serviceLog := log.With("service", "QuestionService")
	return &questionService{
		db:           db,
		log:          serviceLog,
		folderRepo:   folderRepo,
		questionRepo: questionRepo,
		ownership:    ownership,
	}
}

func validateInput(input QuestionInput) error {
	if strings.TrimSpace(input.QuestionText) == "" || strings.TrimSpace(input.Answer) == "" {
		return apierr.BadRequest("question_and_answer_required", errs.ErrInvalidArgument)
	}
	return nil
}

// Get is a plain id lookup; detached questions stay reachable here.
func (s *questionService) Get(ctx context.Context, questionID uint) (*domain.Question, error) {
	questions, err := s.questionRepo.GetByIDs(ctx, nil, []uint{questionID})
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, apierr.NotFound("question_not_found", errs.ErrNotFound)
	}
	return questions[0], nil
}

func (s *questionService) ListInFolder(ctx context.Context, userID, folderID uint) ([]*domain.QuestionWithStats, error) {
	if _, err := s.ownership.OwnedFolder(ctx, nil, folderID, userID); err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.ListByFolder(ctx, nil, folderID)
	if err != nil {
		return nil, err
	}
	views := make([]*domain.QuestionWithStats, 0, len(questions))
	for _, q := range questions {
		views = append(views, q.WithStats())
	}
	return views, nil
}

func (s *questionService) AddToFolder(ctx context.Context, userID, folderID uint, input QuestionInput) (*domain.Question, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if _, err := s.ownership.OwnedFolder(ctx, nil, folderID, userID); err != nil {
		return nil, err
	}

	question := &domain.Question{
		QuestionText: input.QuestionText,
		Answer:       input.Answer,
		Explanation:  input.Explanation,
		FolderID:     &folderID,
	}
	if _, err := s.questionRepo.Create(ctx, nil, []*domain.Question{question}); err != nil {
		return nil, err
	}
	return question, nil
}

// Update rewrites the question content; when folder_id changes, the
// destination folder is validated separately and a foreign destination
// is a 403 rather than a 404.
func (s *questionService) Update(ctx context.Context, userID, questionID uint, input QuestionInput, folderID *uint) error {
	if err := validateInput(input); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.ownership.OwnedQuestion(ctx, tx, questionID, userID)
		if err != nil {
			return err
		}

		if folderID != nil && (current.FolderID == nil || *current.FolderID != *folderID) {
			if _, err := s.ownership.OwnedDestinationFolder(ctx, tx, *folderID, userID, "target_folder_forbidden"); err != nil {
				return err
			}
		}

		n, err := s.questionRepo.UpdateContent(ctx, tx, questionID, input.QuestionText, input.Answer, input.Explanation, folderID)
		if err != nil {
			return err
		}
		if n == 0 {
			return apierr.NotFound("question_not_found", errs.ErrNotFound)
		}
		return nil
	})
}

// Delete removes a question by id. Ownership is derived transitively
// through the containing folder; absent, foreign, and detached rows
// all come back as the same 404.
func (s *questionService) Delete(ctx context.Context, userID, questionID uint) error {
	n, err := s.questionRepo.DeleteOwnedByID(ctx, nil, questionID, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apierr.NotFound("question_not_found", errs.ErrNotFound)
	}
	return nil
}

// Detach removes a question from a folder without deleting the row.
func (s *questionService) Detach(ctx context.Context, userID, folderID, questionID uint) error {
	if _, err := s.ownership.OwnedFolder(ctx, nil, folderID, userID); err != nil {
		return err
	}
	n, err := s.questionRepo.Detach(ctx, nil, questionID, folderID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apierr.NotFound("question_not_found", errs.ErrNotFound)
	}
	return nil
}

func (s *questionService) MoveOne(ctx context.Context, userID, questionID, sourceFolderID, targetFolderID uint) (*domain.Question, error) {
	if sourceFolderID == targetFolderID {
		return nil, apierr.BadRequest("same_folder", errs.ErrInvalidArgument)
	}

	var moved *domain.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownership.OwnedFolder(ctx, tx, sourceFolderID, userID); err != nil {
			return err
		}
		if _, err := s.ownership.OwnedDestinationFolder(ctx, tx, targetFolderID, userID, "target_folder_forbidden"); err != nil {
			return err
		}

		inSource, err := s.questionRepo.CountInFolderByIDs(ctx, tx, []uint{questionID}, sourceFolderID)
		if err != nil {
			return err
		}
		if inSource == 0 {
			return apierr.NotFound("question_not_in_folder", errs.ErrNotFound)
		}

		if _, err := s.questionRepo.MoveByIDs(ctx, tx, []uint{questionID}, sourceFolderID, targetFolderID); err != nil {
			return err
		}

		questions, err := s.questionRepo.GetByIDs(ctx, tx, []uint{questionID})
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			return apierr.NotFound("question_not_found", errs.ErrNotFound)
		}
		moved = questions[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// CopyOne duplicates a single question into the target folder with
// statistics reset. The source only has to exist; the target must be
// owned.
func (s *questionService) CopyOne(ctx context.Context, userID, targetFolderID, questionID uint) (*domain.Question, error) {
	var created *domain.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownership.OwnedDestinationFolder(ctx, tx, targetFolderID, userID, "target_folder_forbidden"); err != nil {
			return err
		}

		questions, err := s.questionRepo.GetByIDs(ctx, tx, []uint{questionID})
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			return apierr.NotFound("question_not_found", errs.ErrNotFound)
		}
		source := questions[0]

		created = &domain.Question{
			QuestionText: source.QuestionText,
			Answer:       source.Answer,
			Explanation:  source.Explanation,
			FolderID:     &targetFolderID,
		}
		_, err = s.questionRepo.Create(ctx, tx, []*domain.Question{created})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RecordAnswer increments exactly one counter by 1 and stamps
// last_answered_at. Ownership is derived through the question's current
// folder, so detached questions are not answerable.
func (s *questionService) RecordAnswer(ctx context.Context, userID, questionID uint, correct bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownership.OwnedQuestion(ctx, tx, questionID, userID); err != nil {
			return err
		}
		n, err := s.questionRepo.RecordAnswer(ctx, tx, questionID, correct, time.Now())
		if err != nil {
			return err
		}
		if n == 0 {
			return apierr.NotFound("question_not_found", errs.ErrNotFound)
		}
		return nil
	})
}

func (s *questionService) Play(ctx context.Context, userID, folderID uint, limit int) ([]*domain.PlayQuestion, error) {
	if limit <= 0 {
		limit = defaultPlayLimit
	}
	if _, err := s.ownership.OwnedFolder(ctx, nil, folderID, userID); err != nil {
		return nil, err
	}
	return s.questionRepo.SampleForPlay(ctx, nil, folderID, limit)
}

// Import inserts a batch of rows (CSV upload) into an owned folder in
// one transaction.
func (s *questionService) Import(ctx context.Context, userID, folderID uint, rows []QuestionInput) (int, error) {
	if len(rows) == 0 {
		return 0, apierr.BadRequest("questions_required", errs.ErrInvalidArgument)
	}
	for _, row := range rows {
		if err := validateInput(row); err != nil {
			return 0, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownership.OwnedFolder(ctx, tx, folderID, userID); err != nil {
			return err
		}
		questions := make([]*domain.Question, 0, len(rows))
		for _, row := range rows {
			questions = append(questions, &domain.Question{
				QuestionText: row.QuestionText,
				Answer:       row.Answer,
				Explanation:  row.Explanation,
				FolderID:     &folderID,
			})
		}
		_, err := s.questionRepo.Create(ctx, tx, questions)
		return err
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// BulkDelete removes the requested questions that actually live in the
// caller's folder and silently skips the rest; the returned count is
// the authoritative record of what happened.
func (s *questionService) BulkDelete(ctx context.Context, userID, folderID uint, questionIDs []uint) (int64, error) {
	if len(questionIDs) == 0 {
		return 0, apierr.BadRequest("question_ids_required", errs.ErrInvalidArgument)
	}

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		folders, err := s.folderRepo.GetOwnedByIDs(ctx, tx, []uint{folderID}, userID)
		if err != nil {
			return err
		}
		if len(folders) == 0 {
			return apierr.Forbidden("folder_forbidden", errs.ErrForbidden)
		}

		deleted, err = s.questionRepo.DeleteInFolderByIDs(ctx, tx, questionIDs, folderID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// BulkMove is strict all-or-nothing: both folders must be owned and
// every requested id must currently sit in the source folder, otherwise
// nothing moves.
func (s *questionService) BulkMove(ctx context.Context, userID, sourceFolderID, targetFolderID uint, questionIDs []uint) (int64, error) {
	if len(questionIDs) == 0 {
		return 0, apierr.BadRequest("question_ids_required", errs.ErrInvalidArgument)
	}
	if sourceFolderID == targetFolderID {
		return 0, apierr.BadRequest("same_folder", errs.ErrInvalidArgument)
	}

	var moved int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned, err := s.folderRepo.GetOwnedByIDs(ctx, tx, []uint{sourceFolderID, targetFolderID}, userID)
		if err != nil {
			return err
		}
		if len(owned) != 2 {
			return apierr.Forbidden("folder_forbidden", errs.ErrForbidden)
		}

		inSource, err := s.questionRepo.CountInFolderByIDs(ctx, tx, questionIDs, sourceFolderID)
		if err != nil {
			return err
		}
		if inSource != int64(len(questionIDs)) {
			return apierr.Forbidden("questions_not_in_source_folder", errs.ErrForbidden)
		}

		moved, err = s.questionRepo.MoveByIDs(ctx, tx, questionIDs, sourceFolderID, targetFolderID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

// BulkCopy is strict like BulkMove: the target must be owned and every
// source question must be owned transitively, otherwise nothing is
// copied. Copies start with zeroed statistics.
func (s *questionService) BulkCopy(ctx context.Context, userID, targetFolderID uint, questionIDs []uint) (int64, error) {
	if len(questionIDs) == 0 {
		return 0, apierr.BadRequest("question_ids_required", errs.ErrInvalidArgument)
	}

	var copied int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		folders, err := s.folderRepo.GetOwnedByIDs(ctx, tx, []uint{targetFolderID}, userID)
		if err != nil {
			return err
		}
		if len(folders) == 0 {
			return apierr.Forbidden("folder_forbidden", errs.ErrForbidden)
		}

		sources, err := s.questionRepo.GetOwnedByIDs(ctx, tx, questionIDs, userID)
		if err != nil {
			return err
		}
		if len(sources) != len(questionIDs) {
			return apierr.Forbidden("questions_forbidden", errs.ErrForbidden)
		}

		copies := make([]*domain.Question, 0, len(sources))
		for _, source := range sources {
			copies = append(copies, &domain.Question{
				QuestionText: source.QuestionText,
				Answer:       source.Answer,
				Explanation:  source.Explanation,
				FolderID:     &targetFolderID,
			})
		}
		if _, err := s.questionRepo.Create(ctx, tx, copies); err != nil {
			return err
		}
		copied = int64(len(copies))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return copied, nil
}
