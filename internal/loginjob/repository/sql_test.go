package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	accountdomain "account-console/internal/account/domain"
	accountrepo "account-console/internal/account/repository"
	"account-console/internal/db"
	"account-console/internal/db/migrate"
	"account-console/internal/loginjob/domain"
)

func setup(t *testing.T) (*SQLRepository, int64) {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Up(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	acc := &accountdomain.Account{Name: "Account A"}
	if err := accountrepo.NewSQLRepository(conn).Create(context.Background(), acc); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return NewSQLRepository(conn), acc.ID
}

func TestSQLRepository_CreateAndLatest(t *testing.T) {
	ctx := context.Background()
	repo, accountID := setup(t)

	got, err := repo.LatestByAccount(ctx, accountID)
	if err != nil || got != nil {
		t.Fatalf("LatestByAccount on empty = %+v, %v; want nil", got, err)
	}

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	first := &domain.Job{ID: "job-1", AccountID: accountID, Status: domain.StatusRunning, StartedAt: base}
	second := &domain.Job{ID: "job-2", AccountID: accountID, Status: domain.StatusRunning, StartedAt: base.Add(time.Minute)}
	for _, j := range []*domain.Job{first, second} {
		if err := repo.Create(ctx, j); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err = repo.LatestByAccount(ctx, accountID)
	if err != nil {
		t.Fatalf("LatestByAccount: %v", err)
	}
	if got.ID != "job-2" || got.Status != domain.StatusRunning || !got.StartedAt.Equal(second.StartedAt) {
		t.Errorf("latest = %+v", got)
	}
	if got.FinishedAt != nil || got.Error != "" {
		t.Errorf("new job should have no finish time or error: %+v", got)
	}
}

func TestSQLRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo, accountID := setup(t)
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	if err := repo.Create(ctx, &domain.Job{ID: "job-1", AccountID: accountID, Status: domain.StatusRunning, StartedAt: start}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ok, err := repo.UpdateStatus(ctx, "job-1", domain.StatusWaitingForUser, "", nil)
	if err != nil || !ok {
		t.Fatalf("UpdateStatus = %v, %v", ok, err)
	}
	got, _ := repo.LatestByAccount(ctx, accountID)
	if got.Status != domain.StatusWaitingForUser || got.FinishedAt != nil {
		t.Errorf("after waiting = %+v", got)
	}

	finished := start.Add(5 * time.Minute)
	if _, err := repo.UpdateStatus(ctx, "job-1", domain.StatusFailed, "window closed", &finished); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, _ = repo.LatestByAccount(ctx, accountID)
	if got.Status != domain.StatusFailed || got.Error != "window closed" {
		t.Errorf("after failed = %+v", got)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, finished)
	}

	ok, err = repo.UpdateStatus(ctx, "missing", domain.StatusCompleted, "", nil)
	if err != nil || ok {
		t.Errorf("UpdateStatus(missing) = %v, %v; want false, nil", ok, err)
	}
}

func TestSQLRepository_FailActive(t *testing.T) {
	ctx := context.Background()
	repo, accountID := setup(t)
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	done := start.Add(time.Minute)
	jobs := []*domain.Job{
		{ID: "a", AccountID: accountID, Status: domain.StatusCompleted, StartedAt: start, FinishedAt: &done},
		{ID: "b", AccountID: accountID, Status: domain.StatusWaitingForUser, StartedAt: start.Add(2 * time.Minute)},
	}
	for _, j := range jobs {
		if err := repo.Create(ctx, j); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	n, err := repo.FailActive(ctx, "server restarted", start.Add(time.Hour))
	if err != nil {
		t.Fatalf("FailActive: %v", err)
	}
	if n != 1 {
		t.Errorf("FailActive changed %d jobs, want 1", n)
	}
	got, _ := repo.LatestByAccount(ctx, accountID)
	if got.ID != "b" || got.Status != domain.StatusFailed || got.Error != "server restarted" || got.FinishedAt == nil {
		t.Errorf("latest = %+v", got)
	}
}
