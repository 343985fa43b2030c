package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/knowitapp/knowit-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username string) *domain.User {
	tb.Helper()
	u := &domain.User{
		Username: username,
		Password: "hash",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedFolder(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerUserID uint, name string) *domain.Folder {
	tb.Helper()
	f := &domain.Folder{
		FolderName:  name,
		OwnerUserID: ownerUserID,
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed folder: %v", err)
	}
	return f
}

func SeedQuestion(tb testing.TB, ctx context.Context, tx *gorm.DB, folderID *uint, text, answer string) *domain.Question {
	tb.Helper()
	q := &domain.Question{
		QuestionText: text,
		Answer:       answer,
		FolderID:     folderID,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return q
}

func PtrUint(v uint) *uint { return &v }

func PtrString(v string) *string { return &v }
