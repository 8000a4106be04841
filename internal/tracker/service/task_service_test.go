package service

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/testutil"
)

func setupCaseStack(t *testing.T) (*gorm.DB, *repository.Repositories, *CaseService, *TaskService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	schedule := NewScheduleService(repos.Case, repos.Task, testClock)
	templateSvc := NewTemplateService(repos.Template, repos.Task, testClock)
	caseSvc := NewCaseService(repos.Case, repos.Task, repos.Remark, templateSvc, schedule, testClock)
	taskSvc := NewTaskService(repos.Task, repos.Case, repos.Attachment, caseSvc, schedule, testClock)
	return db, repos, caseSvc, taskSvc
}

func TestUpdateTaskAutoStartsCase(t *testing.T) {
	db, repos, _, taskSvc := setupCaseStack(t)
	kase := testutil.SeedCase(t, db, "Divorce Matter", entity.StatusNotStarted)
	t1 := testutil.SeedTask(t, db, kase.ID, "Draft petition", entity.StatusNotStarted)
	t2 := testutil.SeedTask(t, db, kase.ID, "File petition", entity.StatusNotStarted)
	setTaskDates(t, db, t2.ID, map[string]interface{}{"day_offset": 5})

	result, err := taskSvc.UpdateDetails(context.Background(), &UpdateTaskInput{
		TaskID:    t1.ID,
		Name:      "Draft petition",
		Status:    entity.StatusInProgress,
		UpdatedBy: "tester",
	})
	if err != nil {
		t.Fatalf("UpdateDetails failed: %v", err)
	}
	if !result.CaseAutoStarted {
		t.Error("Expected case to auto-start")
	}
	if result.Status != entity.StatusInProgress {
		t.Errorf("Expected task status In Progress, got %q", result.Status)
	}

	// 开始日期缺省补今天，并联动案件
	task, err := repos.Task.FindByID(context.Background(), t1.ID)
	if err != nil {
		t.Fatalf("Failed to reload task: %v", err)
	}
	if fmtDate(task.StartDate) != "2026-03-10" {
		t.Errorf("Expected task start date defaulted to today, got %s", fmtDate(task.StartDate))
	}
	if task.LastUpdatedBy != "tester" {
		t.Errorf("Expected last_updated_by recorded, got %q", task.LastUpdatedBy)
	}

	got, err := repos.Case.FindByID(context.Background(), kase.ID)
	if err != nil {
		t.Fatalf("Failed to reload case: %v", err)
	}
	if got.Status != entity.StatusInProgress {
		t.Errorf("Expected case In Progress, got %q", got.Status)
	}
	if fmtDate(got.StartDate) != "2026-03-10" {
		t.Errorf("Expected case start date 2026-03-10, got %s", fmtDate(got.StartDate))
	}

	// 兄弟任务的偏移按新开始日推算到期日
	sibling, err := repos.Task.FindByID(context.Background(), t2.ID)
	if err != nil {
		t.Fatalf("Failed to reload sibling: %v", err)
	}
	if fmtDate(sibling.DueDate) != "2026-03-15" {
		t.Errorf("Expected sibling due date start+5, got %s", fmtDate(sibling.DueDate))
	}
}

func TestUpdateTaskCompletedDateForcesStatus(t *testing.T) {
	db, repos, _, taskSvc := setupCaseStack(t)
	kase := testutil.SeedCase(t, db, "Lease Review", entity.StatusInProgress)
	t1 := testutil.SeedTask(t, db, kase.ID, "Review lease", entity.StatusInProgress)
	testutil.SeedTask(t, db, kase.ID, "Report to client", entity.StatusNotStarted)

	result, err := taskSvc.UpdateDetails(context.Background(), &UpdateTaskInput{
		TaskID:        t1.ID,
		Name:          "Review lease",
		Status:        entity.StatusInProgress,
		CompletedDate: testutil.DatePtr(2026, 3, 8),
		UpdatedBy:     "tester",
	})
	if err != nil {
		t.Fatalf("UpdateDetails failed: %v", err)
	}
	if result.Status != entity.StatusCompleted {
		t.Errorf("Expected completed date to force Completed, got %q", result.Status)
	}

	task, err := repos.Task.FindByID(context.Background(), t1.ID)
	if err != nil {
		t.Fatalf("Failed to reload task: %v", err)
	}
	if fmtDate(task.CompletedDate) != "2026-03-08" {
		t.Errorf("Expected completed date 2026-03-08, got %s", fmtDate(task.CompletedDate))
	}
}

func TestUpdateTaskReopenClearsCompletedDate(t *testing.T) {
	db, repos, _, taskSvc := setupCaseStack(t)
	kase := testutil.SeedCase(t, db, "Appeal", entity.StatusInProgress)
	t1 := testutil.SeedTask(t, db, kase.ID, "Lodge appeal", entity.StatusCompleted)
	setTaskDates(t, db, t1.ID, map[string]interface{}{
		"task_start_date":     testutil.Date(2026, 3, 1),
		"task_completed_date": testutil.Date(2026, 3, 5),
	})

	result, err := taskSvc.UpdateDetails(context.Background(), &UpdateTaskInput{
		TaskID:    t1.ID,
		Name:      "Lodge appeal",
		Status:    entity.StatusInProgress,
		StartDate: testutil.DatePtr(2026, 3, 1),
		UpdatedBy: "tester",
	})
	if err != nil {
		t.Fatalf("UpdateDetails failed: %v", err)
	}
	if result.Status != entity.StatusInProgress {
		t.Errorf("Expected In Progress, got %q", result.Status)
	}

	task, err := repos.Task.FindByID(context.Background(), t1.ID)
	if err != nil {
		t.Fatalf("Failed to reload task: %v", err)
	}
	if task.CompletedDate != nil {
		t.Errorf("Expected completed date cleared on reopen, got %s", fmtDate(task.CompletedDate))
	}
}

func TestUpdateTaskAutoCompletesCase(t *testing.T) {
	db, repos, _, taskSvc := setupCaseStack(t)
	kase := testutil.SeedCase(t, db, "Trademark Filing", entity.StatusInProgress)
	t1 := testutil.SeedTask(t, db, kase.ID, "File application", entity.StatusInProgress)
	t2 := testutil.SeedTask(t, db, kase.ID, "Receive certificate", entity.StatusInProgress)

	ctx := context.Background()
	if _, err := taskSvc.UpdateDetails(ctx, &UpdateTaskInput{
		TaskID: t1.ID, Name: "File application", Status: entity.StatusCompleted,
		CompletedDate: testutil.DatePtr(2026, 3, 4), UpdatedBy: "tester",
	}); err != nil {
		t.Fatalf("UpdateDetails t1 failed: %v", err)
	}

	got, _ := repos.Case.FindByID(ctx, kase.ID)
	if got.Status == entity.StatusCompleted {
		t.Fatal("Case completed too early, one task still open")
	}

	result, err := taskSvc.UpdateDetails(ctx, &UpdateTaskInput{
		TaskID: t2.ID, Name: "Receive certificate", Status: entity.StatusCompleted,
		CompletedDate: testutil.DatePtr(2026, 3, 8), UpdatedBy: "tester",
	})
	if err != nil {
		t.Fatalf("UpdateDetails t2 failed: %v", err)
	}
	if result.Status != entity.StatusCompleted {
		t.Errorf("Expected Completed, got %q", result.Status)
	}

	got, err = repos.Case.FindByID(ctx, kase.ID)
	if err != nil {
		t.Fatalf("Failed to reload case: %v", err)
	}
	if got.Status != entity.StatusCompleted {
		t.Errorf("Expected case auto-completed, got %q", got.Status)
	}
	if fmtDate(got.CompletedDate) != "2026-03-08" {
		t.Errorf("Expected case completed date 2026-03-08 (latest task), got %s", fmtDate(got.CompletedDate))
	}
}

func TestUpdateTaskMissingTaskIsNoOp(t *testing.T) {
	_, _, _, taskSvc := setupCaseStack(t)

	result, err := taskSvc.UpdateDetails(context.Background(), &UpdateTaskInput{
		TaskID: "gone", Name: "Anything", Status: entity.StatusInProgress, UpdatedBy: "tester",
	})
	if err != nil {
		t.Fatalf("Expected silent no-op for missing task, got %v", err)
	}
	if result.Status != entity.StatusInProgress {
		t.Errorf("Expected echoed status, got %q", result.Status)
	}
	if result.CaseAutoStarted {
		t.Error("Missing task must not auto-start anything")
	}
}

func TestUpdateTaskNilDueDateClearsExplicit(t *testing.T) {
	db, repos, _, taskSvc := setupCaseStack(t)
	kase := testutil.SeedCase(t, db, "Contract Dispute", entity.StatusInProgress)
	t1 := testutil.SeedTask(t, db, kase.ID, "Exchange discovery", entity.StatusInProgress)
	setTaskDates(t, db, t1.ID, map[string]interface{}{
		"task_start_date": testutil.Date(2026, 3, 1),
		"due_date":        testutil.Date(2026, 4, 1),
	})

	// 不带到期日的保存（非管理员路径）直接清掉显式到期日
	if _, err := taskSvc.UpdateDetails(context.Background(), &UpdateTaskInput{
		TaskID:    t1.ID,
		Name:      "Exchange discovery",
		Status:    entity.StatusInProgress,
		StartDate: testutil.DatePtr(2026, 3, 1),
		UpdatedBy: "tester",
	}); err != nil {
		t.Fatalf("UpdateDetails failed: %v", err)
	}

	task, err := repos.Task.FindByID(context.Background(), t1.ID)
	if err != nil {
		t.Fatalf("Failed to reload task: %v", err)
	}
	if task.DueDate != nil {
		t.Errorf("Expected due date cleared, got %s", fmtDate(task.DueDate))
	}
}
