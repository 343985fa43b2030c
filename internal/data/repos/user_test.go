package repos

import (
	"context"
	"testing"
	"time"

	"github.com/knowitapp/knowit-backend/internal/data/repos/testutil"
	"github.com/knowitapp/knowit-backend/internal/domain"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewUserRepo(db, testutil.Logger(t))

	u := &domain.User{Username: "alice", Password: "hash"}
	if _, err := repo.Create(ctx, tx, []*domain.User{u}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rows, err := repo.GetByIDs(ctx, tx, []uint{u.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByUsernames(ctx, tx, []string{"alice"}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByUsernames: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByUsernames(ctx, tx, []string{"bob"}); err != nil || len(rows) != 0 {
		t.Fatalf("GetByUsernames missing: err=%v len=%d", err, len(rows))
	}

	if u.LastLoginAt != nil {
		t.Fatalf("fresh user already has last_login_at")
	}
	if err := repo.TouchLastLogin(ctx, tx, u.ID, time.Now()); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}
	rows, err := repo.GetByIDs(ctx, tx, []uint{u.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs after touch: err=%v len=%d", err, len(rows))
	}
	if rows[0].LastLoginAt == nil {
		t.Fatalf("last_login_at still nil after TouchLastLogin")
	}
}
