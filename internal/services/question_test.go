package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/knowitapp/knowit-backend/internal/data/repos"
	"github.com/knowitapp/knowit-backend/internal/data/repos/testutil"
	"github.com/knowitapp/knowit-backend/internal/domain"
	"github.com/knowitapp/knowit-backend/internal/services"
)

type questionFixture struct {
	tx           *gorm.DB
	folderRepo   repos.FolderRepo
	questionRepo repos.QuestionRepo
	svc          services.QuestionService
}

func newQuestionFixture(t *testing.T) (questionFixture, context.Context) {
	t.Helper()
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	folderRepo := repos.NewFolderRepo(tx, log)
	questionRepo := repos.NewQuestionRepo(tx, log)
	ownership := services.NewOwnershipService(log, folderRepo, questionRepo)
	svc := services.NewQuestionService(tx, log, folderRepo, questionRepo, ownership)
	return questionFixture{tx: tx, folderRepo: folderRepo, questionRepo: questionRepo, svc: svc}, ctx
}

func (fx questionFixture) folderIDOf(t *testing.T, questionID uint) *uint {
	t.Helper()
	var q domain.Question
	require.NoError(t, fx.tx.First(&q, questionID).Error)
	return q.FolderID
}

func TestQuestionService_AddToFolder(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	folder := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Capitals")

	_, err := fx.svc.AddToFolder(ctx, alice.ID, folder.ID, services.QuestionInput{QuestionText: " ", Answer: "Paris"})
	requireAPIError(t, err, 400, "question_and_answer_required")

	q, err := fx.svc.AddToFolder(ctx, alice.ID, folder.ID, services.QuestionInput{
		QuestionText: "Capital of France?",
		Answer:       "Paris",
		Explanation:  testutil.PtrString("Seine-side city."),
	})
	require.NoError(t, err)
	require.NotZero(t, q.ID)
	require.Zero(t, q.CorrectCount)
	require.Zero(t, q.IncorrectCount)
	require.Nil(t, q.LastAnsweredAt)
	require.Equal(t, folder.ID, *q.FolderID)
}

func TestQuestionService_AddToForeignFolder(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	bob := testutil.SeedUser(t, ctx, fx.tx, "bob")
	theirs := testutil.SeedFolder(t, ctx, fx.tx, bob.ID, "Secrets")

	_, err := fx.svc.AddToFolder(ctx, alice.ID, theirs.ID, services.QuestionInput{QuestionText: "q", Answer: "a"})
	requireAPIError(t, err, 404, "folder_not_found")
}

func TestQuestionService_RecordAnswer(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	folder := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Capitals")
	q := testutil.SeedQuestion(t, ctx, fx.tx, &folder.ID, "Capital of France?", "Paris")

	require.NoError(t, fx.svc.RecordAnswer(ctx, alice.ID, q.ID, true))
	require.NoError(t, fx.svc.RecordAnswer(ctx, alice.ID, q.ID, false))
	require.NoError(t, fx.svc.RecordAnswer(ctx, alice.ID, q.ID, true))

	var got domain.Question
	require.NoError(t, fx.tx.First(&got, q.ID).Error)
	require.Equal(t, 2, got.CorrectCount)
	require.Equal(t, 1, got.IncorrectCount)
	require.NotNil(t, got.LastAnsweredAt)
	require.InDelta(t, 66.7, got.CorrectRate(), 0.1)
}

func TestQuestionService_RecordAnswerDetachedQuestion(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	orphan := testutil.SeedQuestion(t, ctx, fx.tx, nil, "floating", "nowhere")

	err := fx.svc.RecordAnswer(ctx, alice.ID, orphan.ID, true)
	requireAPIError(t, err, 404, "question_not_found")
}

func TestQuestionService_RecordAnswerForeignQuestion(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	bob := testutil.SeedUser(t, ctx, fx.tx, "bob")
	theirs := testutil.SeedFolder(t, ctx, fx.tx, bob.ID, "Secrets")
	q := testutil.SeedQuestion(t, ctx, fx.tx, &theirs.ID, "q", "a")

	err := fx.svc.RecordAnswer(ctx, alice.ID, q.ID, true)
	requireAPIError(t, err, 404, "question_not_found")

	var got domain.Question
	require.NoError(t, fx.tx.First(&got, q.ID).Error)
	require.Zero(t, got.CorrectCount)
}

func TestQuestionService_Detach(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	folder := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Capitals")
	q := testutil.SeedQuestion(t, ctx, fx.tx, &folder.ID, "q", "a")

	require.NoError(t, fx.svc.Detach(ctx, alice.ID, folder.ID, q.ID))
	require.Nil(t, fx.folderIDOf(t, q.ID))

	// The row survives and is still readable by id.
	got, err := fx.svc.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, q.ID, got.ID)

	// A second detach finds nothing in the folder.
	err = fx.svc.Detach(ctx, alice.ID, folder.ID, q.ID)
	requireAPIError(t, err, 404, "question_not_found")
}

func TestQuestionService_Delete(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	folder := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Capitals")
	q := testutil.SeedQuestion(t, ctx, fx.tx, &folder.ID, "q", "a")

	require.NoError(t, fx.svc.Delete(ctx, alice.ID, q.ID))

	var left int64
	require.NoError(t, fx.tx.Model(&domain.Question{}).Where("id = ?", q.ID).Count(&left).Error)
	require.Zero(t, left)

	// A second delete finds nothing.
	err := fx.svc.Delete(ctx, alice.ID, q.ID)
	requireAPIError(t, err, 404, "question_not_found")
}

func TestQuestionService_DeleteForeignQuestion(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	bob := testutil.SeedUser(t, ctx, fx.tx, "bob")
	theirs := testutil.SeedFolder(t, ctx, fx.tx, bob.ID, "Secrets")
	q := testutil.SeedQuestion(t, ctx, fx.tx, &theirs.ID, "q", "a")

	err := fx.svc.Delete(ctx, alice.ID, q.ID)
	requireAPIError(t, err, 404, "question_not_found")

	var left int64
	require.NoError(t, fx.tx.Model(&domain.Question{}).Where("id = ?", q.ID).Count(&left).Error)
	require.EqualValues(t, 1, left)
}

func TestQuestionService_DeleteDetachedQuestion(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	orphan := testutil.SeedQuestion(t, ctx, fx.tx, nil, "floating", "nowhere")

	err := fx.svc.Delete(ctx, alice.ID, orphan.ID)
	requireAPIError(t, err, 404, "question_not_found")

	var left int64
	require.NoError(t, fx.tx.Model(&domain.Question{}).Where("id = ?", orphan.ID).Count(&left).Error)
	require.EqualValues(t, 1, left)
}

func TestQuestionService_MoveOne(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	src := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Source")
	dst := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Target")
	q := testutil.SeedQuestion(t, ctx, fx.tx, &src.ID, "q", "a")

	_, err := fx.svc.MoveOne(ctx, alice.ID, q.ID, src.ID, src.ID)
	requireAPIError(t, err, 400, "same_folder")

	moved, err := fx.svc.MoveOne(ctx, alice.ID, q.ID, src.ID, dst.ID)
	require.NoError(t, err)
	require.Equal(t, dst.ID, *moved.FolderID)

	// The question is no longer in the source folder.
	_, err = fx.svc.MoveOne(ctx, alice.ID, q.ID, src.ID, dst.ID)
	requireAPIError(t, err, 404, "question_not_in_folder")
}

func TestQuestionService_MoveOneForeignTarget(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	bob := testutil.SeedUser(t, ctx, fx.tx, "bob")
	src := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Source")
	theirs := testutil.SeedFolder(t, ctx, fx.tx, bob.ID, "Secrets")
	q := testutil.SeedQuestion(t, ctx, fx.tx, &src.ID, "q", "a")

	_, err := fx.svc.MoveOne(ctx, alice.ID, q.ID, src.ID, theirs.ID)
	requireAPIError(t, err, 403, "target_folder_forbidden")
	require.Equal(t, src.ID, *fx.folderIDOf(t, q.ID))

	_, err = fx.svc.MoveOne(ctx, alice.ID, q.ID, src.ID, theirs.ID+1000)
	requireAPIError(t, err, 404, "folder_not_found")
}

func TestQuestionService_CopyOne(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	bob := testutil.SeedUser(t, ctx, fx.tx, "bob")
	mine := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Mine")
	theirs := testutil.SeedFolder(t, ctx, fx.tx, bob.ID, "Theirs")
	source := testutil.SeedQuestion(t, ctx, fx.tx, &theirs.ID, "borrowed", "answer")
	require.NoError(t, fx.tx.Model(source).Update("correct_count", 9).Error)

	// Copying into an owned folder works even when the source question
	// belongs to someone else; statistics start from zero.
	copied, err := fx.svc.CopyOne(ctx, alice.ID, mine.ID, source.ID)
	require.NoError(t, err)
	require.Equal(t, mine.ID, *copied.FolderID)
	require.Equal(t, "borrowed", copied.QuestionText)
	require.Zero(t, copied.CorrectCount)

	// Copying into a foreign folder is rejected.
	_, err = fx.svc.CopyOne(ctx, alice.ID, theirs.ID, source.ID)
	requireAPIError(t, err, 403, "target_folder_forbidden")

	_, err = fx.svc.CopyOne(ctx, alice.ID, mine.ID, source.ID+1000)
	requireAPIError(t, err, 404, "question_not_found")
}

func TestQuestionService_UpdateMovesBetweenFolders(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	bob := testutil.SeedUser(t, ctx, fx.tx, "bob")
	src := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Source")
	dst := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Target")
	theirs := testutil.SeedFolder(t, ctx, fx.tx, bob.ID, "Secrets")
	q := testutil.SeedQuestion(t, ctx, fx.tx, &src.ID, "q", "a")

	err := fx.svc.Update(ctx, alice.ID, q.ID, services.QuestionInput{QuestionText: "q2", Answer: ""}, nil)
	requireAPIError(t, err, 400, "question_and_answer_required")

	err = fx.svc.Update(ctx, alice.ID, q.ID, services.QuestionInput{QuestionText: "q2", Answer: "a2"}, &dst.ID)
	require.NoError(t, err)
	require.Equal(t, dst.ID, *fx.folderIDOf(t, q.ID))

	err = fx.svc.Update(ctx, alice.ID, q.ID, services.QuestionInput{QuestionText: "q3", Answer: "a3"}, &theirs.ID)
	requireAPIError(t, err, 403, "target_folder_forbidden")
	require.Equal(t, dst.ID, *fx.folderIDOf(t, q.ID))
}

func TestQuestionService_Play(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	folder := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Capitals")
	for i := 0; i < 15; i++ {
		testutil.SeedQuestion(t, ctx, fx.tx, &folder.ID, "q", "a")
	}

	// Zero limit falls back to the default of 10.
	sample, err := fx.svc.Play(ctx, alice.ID, folder.ID, 0)
	require.NoError(t, err)
	require.Len(t, sample, 10)

	sample, err = fx.svc.Play(ctx, alice.ID, folder.ID, 3)
	require.NoError(t, err)
	require.Len(t, sample, 3)

	sample, err = fx.svc.Play(ctx, alice.ID, folder.ID, 100)
	require.NoError(t, err)
	require.Len(t, sample, 15)
}

func TestQuestionService_Import(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	folder := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Capitals")

	_, err := fx.svc.Import(ctx, alice.ID, folder.ID, nil)
	requireAPIError(t, err, 400, "questions_required")

	_, err = fx.svc.Import(ctx, alice.ID, folder.ID, []services.QuestionInput{
		{QuestionText: "ok", Answer: "ok"},
		{QuestionText: "", Answer: "broken"},
	})
	requireAPIError(t, err, 400, "question_and_answer_required")

	n, err := fx.svc.Import(ctx, alice.ID, folder.ID, []services.QuestionInput{
		{QuestionText: "Capital of France?", Answer: "Paris"},
		{QuestionText: "Capital of Japan?", Answer: "Tokyo", Explanation: testutil.PtrString("Largest metro area.")},
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	rows, err := fx.questionRepo.ListByFolder(ctx, nil, folder.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestQuestionService_BulkDeleteSkipsForeignRows(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	bob := testutil.SeedUser(t, ctx, fx.tx, "bob")
	mine := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Mine")
	theirs := testutil.SeedFolder(t, ctx, fx.tx, bob.ID, "Theirs")
	q1 := testutil.SeedQuestion(t, ctx, fx.tx, &mine.ID, "q1", "a1")
	q2 := testutil.SeedQuestion(t, ctx, fx.tx, &mine.ID, "q2", "a2")
	foreign := testutil.SeedQuestion(t, ctx, fx.tx, &theirs.ID, "q3", "a3")

	// Ids outside the folder are skipped; the returned count is what
	// was actually removed.
	deleted, err := fx.svc.BulkDelete(ctx, alice.ID, mine.ID, []uint{q1.ID, q2.ID, foreign.ID, 99999})
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	var left int64
	require.NoError(t, fx.tx.Model(&domain.Question{}).Where("id = ?", foreign.ID).Count(&left).Error)
	require.EqualValues(t, 1, left)
}

func TestQuestionService_BulkDeleteForeignFolder(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	bob := testutil.SeedUser(t, ctx, fx.tx, "bob")
	theirs := testutil.SeedFolder(t, ctx, fx.tx, bob.ID, "Theirs")
	q := testutil.SeedQuestion(t, ctx, fx.tx, &theirs.ID, "q", "a")

	_, err := fx.svc.BulkDelete(ctx, alice.ID, theirs.ID, []uint{q.ID})
	requireAPIError(t, err, 403, "folder_forbidden")
}

func TestQuestionService_BulkMoveAllOrNothing(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	src := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Source")
	dst := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Target")
	q1 := testutil.SeedQuestion(t, ctx, fx.tx, &src.ID, "q1", "a1")
	q2 := testutil.SeedQuestion(t, ctx, fx.tx, &src.ID, "q2", "a2")
	outside := testutil.SeedQuestion(t, ctx, fx.tx, &dst.ID, "q3", "a3")

	_, err := fx.svc.BulkMove(ctx, alice.ID, src.ID, src.ID, []uint{q1.ID})
	requireAPIError(t, err, 400, "same_folder")

	// One id outside the source folder aborts the whole move.
	_, err = fx.svc.BulkMove(ctx, alice.ID, src.ID, dst.ID, []uint{q1.ID, q2.ID, outside.ID})
	requireAPIError(t, err, 403, "questions_not_in_source_folder")
	require.Equal(t, src.ID, *fx.folderIDOf(t, q1.ID))
	require.Equal(t, src.ID, *fx.folderIDOf(t, q2.ID))

	moved, err := fx.svc.BulkMove(ctx, alice.ID, src.ID, dst.ID, []uint{q1.ID, q2.ID})
	require.NoError(t, err)
	require.EqualValues(t, 2, moved)
	require.Equal(t, dst.ID, *fx.folderIDOf(t, q1.ID))
	require.Equal(t, dst.ID, *fx.folderIDOf(t, q2.ID))
}

func TestQuestionService_BulkMoveForeignFolders(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	bob := testutil.SeedUser(t, ctx, fx.tx, "bob")
	mine := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Mine")
	theirs := testutil.SeedFolder(t, ctx, fx.tx, bob.ID, "Theirs")
	q := testutil.SeedQuestion(t, ctx, fx.tx, &mine.ID, "q", "a")

	_, err := fx.svc.BulkMove(ctx, alice.ID, mine.ID, theirs.ID, []uint{q.ID})
	requireAPIError(t, err, 403, "folder_forbidden")
	require.Equal(t, mine.ID, *fx.folderIDOf(t, q.ID))
}

func TestQuestionService_BulkCopyAllOrNothing(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	bob := testutil.SeedUser(t, ctx, fx.tx, "bob")
	src := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Source")
	dst := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Target")
	theirs := testutil.SeedFolder(t, ctx, fx.tx, bob.ID, "Theirs")
	q1 := testutil.SeedQuestion(t, ctx, fx.tx, &src.ID, "q1", "a1")
	q2 := testutil.SeedQuestion(t, ctx, fx.tx, &src.ID, "q2", "a2")
	foreign := testutil.SeedQuestion(t, ctx, fx.tx, &theirs.ID, "q3", "a3")
	require.NoError(t, fx.tx.Model(q1).Update("correct_count", 5).Error)

	// A single foreign source question aborts the whole copy.
	_, err := fx.svc.BulkCopy(ctx, alice.ID, dst.ID, []uint{q1.ID, foreign.ID})
	requireAPIError(t, err, 403, "questions_forbidden")
	empty, err := fx.questionRepo.ListByFolder(ctx, nil, dst.ID)
	require.NoError(t, err)
	require.Empty(t, empty)

	copied, err := fx.svc.BulkCopy(ctx, alice.ID, dst.ID, []uint{q1.ID, q2.ID})
	require.NoError(t, err)
	require.EqualValues(t, 2, copied)

	rows, err := fx.questionRepo.ListByFolder(ctx, nil, dst.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Zero(t, row.CorrectCount)
		require.Nil(t, row.LastAnsweredAt)
	}

	// Originals stay in the source folder.
	require.Equal(t, src.ID, *fx.folderIDOf(t, q1.ID))
	require.Equal(t, src.ID, *fx.folderIDOf(t, q2.ID))
}

func TestQuestionService_BulkCopyForeignTarget(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	bob := testutil.SeedUser(t, ctx, fx.tx, "bob")
	mine := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Mine")
	theirs := testutil.SeedFolder(t, ctx, fx.tx, bob.ID, "Theirs")
	q := testutil.SeedQuestion(t, ctx, fx.tx, &mine.ID, "q", "a")

	_, err := fx.svc.BulkCopy(ctx, alice.ID, theirs.ID, []uint{q.ID})
	requireAPIError(t, err, 403, "folder_forbidden")
}

func TestQuestionService_ListInFolderComputesStats(t *testing.T) {
	fx, ctx := newQuestionFixture(t)
	alice := testutil.SeedUser(t, ctx, fx.tx, "alice")
	folder := testutil.SeedFolder(t, ctx, fx.tx, alice.ID, "Capitals")
	q := testutil.SeedQuestion(t, ctx, fx.tx, &folder.ID, "q", "a")
	require.NoError(t, fx.tx.Model(q).Updates(map[string]any{"correct_count": 3, "incorrect_count": 1}).Error)

	views, err := fx.svc.ListInFolder(ctx, alice.ID, folder.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, 4, views[0].TotalCount)
	require.InDelta(t, 75.0, views[0].CorrectRate, 0.001)
}
