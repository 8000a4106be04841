package service

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/testutil"
)

// 固定基准日，所有日期断言相对它
var testToday = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func testClock() time.Time {
	return testToday
}

func setupScheduleTest(t *testing.T) (*gorm.DB, *repository.Repositories, *ScheduleService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return db, repos, NewScheduleService(repos.Case, repos.Task, testClock)
}

func fmtDate(v *time.Time) string {
	if v == nil {
		return "<nil>"
	}
	return v.Format("2006-01-02")
}

func setTaskDates(t *testing.T, db *gorm.DB, taskID string, fields map[string]interface{}) {
	t.Helper()
	if err := db.Model(&entity.Task{}).Where("id = ?", taskID).Updates(fields).Error; err != nil {
		t.Fatalf("Failed to set task dates: %v", err)
	}
}

func TestUpdateCaseDatesSetsStartFromTasks(t *testing.T) {
	db, repos, svc := setupScheduleTest(t)
	kase := testutil.SeedCase(t, db, "Probate Matter", entity.StatusInProgress)

	t1 := testutil.SeedTask(t, db, kase.ID, "File petition", entity.StatusCompleted)
	setTaskDates(t, db, t1.ID, map[string]interface{}{"task_start_date": testutil.Date(2026, 3, 3)})
	t2 := testutil.SeedTask(t, db, kase.ID, "Serve notice", entity.StatusInProgress)
	setTaskDates(t, db, t2.ID, map[string]interface{}{"task_start_date": testutil.Date(2026, 3, 5)})
	// Not Started 任务的开始日期不参与
	t3 := testutil.SeedTask(t, db, kase.ID, "Inventory assets", entity.StatusNotStarted)
	setTaskDates(t, db, t3.ID, map[string]interface{}{"task_start_date": testutil.Date(2026, 3, 1)})

	if err := svc.UpdateCaseDates(context.Background(), kase.ID); err != nil {
		t.Fatalf("UpdateCaseDates failed: %v", err)
	}

	got, err := repos.Case.FindByID(context.Background(), kase.ID)
	if err != nil {
		t.Fatalf("Failed to reload case: %v", err)
	}
	if fmtDate(got.StartDate) != "2026-03-03" {
		t.Errorf("Expected start date 2026-03-03, got %s", fmtDate(got.StartDate))
	}
	if got.CompletedDate != nil {
		t.Errorf("Expected no completed date, got %s", fmtDate(got.CompletedDate))
	}
}

func TestRecalcOverwritesExplicitDueDate(t *testing.T) {
	db, repos, svc := setupScheduleTest(t)
	kase := testutil.SeedCase(t, db, "Conveyancing", entity.StatusInProgress)

	t1 := testutil.SeedTask(t, db, kase.ID, "Sign agreement", entity.StatusInProgress)
	setTaskDates(t, db, t1.ID, map[string]interface{}{"task_start_date": testutil.Date(2026, 3, 3)})

	// 带偏移的任务，即使有人填过显式到期日，开始日期变化时也会被覆盖
	t2 := testutil.SeedTask(t, db, kase.ID, "Lodge transfer", entity.StatusNotStarted)
	setTaskDates(t, db, t2.ID, map[string]interface{}{
		"day_offset": 7,
		"due_date":   testutil.Date(2026, 4, 1),
	})

	if err := svc.UpdateCaseDates(context.Background(), kase.ID); err != nil {
		t.Fatalf("UpdateCaseDates failed: %v", err)
	}

	got, err := repos.Task.FindByID(context.Background(), t2.ID)
	if err != nil {
		t.Fatalf("Failed to reload task: %v", err)
	}
	if fmtDate(got.DueDate) != "2026-03-10" {
		t.Errorf("Expected due date recalculated to 2026-03-10, got %s", fmtDate(got.DueDate))
	}
}

func TestUpdateCaseDatesNoTasks(t *testing.T) {
	db, repos, svc := setupScheduleTest(t)
	kase := testutil.SeedCase(t, db, "Empty Matter", entity.StatusInProgress)

	if err := svc.UpdateCaseDates(context.Background(), kase.ID); err != nil {
		t.Fatalf("UpdateCaseDates failed: %v", err)
	}

	// 没有任务时未完成数为零，完成日期落为今天
	got, err := repos.Case.FindByID(context.Background(), kase.ID)
	if err != nil {
		t.Fatalf("Failed to reload case: %v", err)
	}
	if fmtDate(got.CompletedDate) != "2026-03-10" {
		t.Errorf("Expected completed date 2026-03-10, got %s", fmtDate(got.CompletedDate))
	}
	if got.StartDate != nil {
		t.Errorf("Expected no start date, got %s", fmtDate(got.StartDate))
	}
}

func TestUpdateCaseDatesCompletion(t *testing.T) {
	db, repos, svc := setupScheduleTest(t)
	kase := testutil.SeedCase(t, db, "Estate Wind-up", entity.StatusInProgress)

	t1 := testutil.SeedTask(t, db, kase.ID, "Final accounting", entity.StatusCompleted)
	setTaskDates(t, db, t1.ID, map[string]interface{}{
		"task_start_date":     testutil.Date(2026, 3, 1),
		"task_completed_date": testutil.Date(2026, 3, 4),
	})
	t2 := testutil.SeedTask(t, db, kase.ID, "Distribute assets", entity.StatusCompleted)
	setTaskDates(t, db, t2.ID, map[string]interface{}{
		"task_start_date":     testutil.Date(2026, 3, 2),
		"task_completed_date": testutil.Date(2026, 3, 8),
	})

	if err := svc.UpdateCaseDates(context.Background(), kase.ID); err != nil {
		t.Fatalf("UpdateCaseDates failed: %v", err)
	}

	got, err := repos.Case.FindByID(context.Background(), kase.ID)
	if err != nil {
		t.Fatalf("Failed to reload case: %v", err)
	}
	if fmtDate(got.CompletedDate) != "2026-03-08" {
		t.Errorf("Expected completed date 2026-03-08 (latest task), got %s", fmtDate(got.CompletedDate))
	}
	if fmtDate(got.StartDate) != "2026-03-01" {
		t.Errorf("Expected start date 2026-03-01, got %s", fmtDate(got.StartDate))
	}
}

func TestUpdateCaseDatesClearsCompletedWhenReopened(t *testing.T) {
	db, repos, svc := setupScheduleTest(t)
	kase := testutil.SeedCase(t, db, "Reopened Matter", entity.StatusInProgress)
	if err := db.Model(&entity.Case{}).Where("id = ?", kase.ID).
		Update("completed_date", testutil.Date(2026, 3, 1)).Error; err != nil {
		t.Fatalf("Failed to preset completed date: %v", err)
	}

	t1 := testutil.SeedTask(t, db, kase.ID, "Further submissions", entity.StatusInProgress)
	setTaskDates(t, db, t1.ID, map[string]interface{}{"task_start_date": testutil.Date(2026, 3, 2)})

	if err := svc.UpdateCaseDates(context.Background(), kase.ID); err != nil {
		t.Fatalf("UpdateCaseDates failed: %v", err)
	}

	got, err := repos.Case.FindByID(context.Background(), kase.ID)
	if err != nil {
		t.Fatalf("Failed to reload case: %v", err)
	}
	if got.CompletedDate != nil {
		t.Errorf("Expected completed date cleared, got %s", fmtDate(got.CompletedDate))
	}
}

func TestUpdateCaseDatesMissingCase(t *testing.T) {
	_, _, svc := setupScheduleTest(t)
	if err := svc.UpdateCaseDates(context.Background(), "no-such-case"); err != nil {
		t.Fatalf("Expected silent no-op for missing case, got %v", err)
	}
}
