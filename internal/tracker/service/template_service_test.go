package service

import (
	"context"
	"errors"
	"testing"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/testutil"
)

func TestPopulateTasksExpandsChecklistInOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewTemplateService(repos.Template, repos.Task, testClock)

	tt := testutil.SeedTemplateType(t, db, "Probate")
	testutil.SeedTemplateTask(t, db, tt.ID, 2, "Apply for grant", testutil.IntPtr(14))
	testutil.SeedTemplateTask(t, db, tt.ID, 1, "Obtain death certificate", nil)
	testutil.SeedTemplateTask(t, db, tt.ID, 3, "Notify beneficiaries", testutil.IntPtr(30))

	kase := testutil.SeedCase(t, db, "Estate of Smith", entity.StatusNotStarted)
	if err := svc.PopulateTasks(context.Background(), kase.ID, "Probate"); err != nil {
		t.Fatalf("PopulateTasks failed: %v", err)
	}

	tasks, err := repos.Task.ListByCase(context.Background(), kase.ID)
	if err != nil {
		t.Fatalf("ListByCase failed: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("Expected 3 tasks, got %d", len(tasks))
	}

	// 清单按模板序号展开，读取顺序与序号一致
	wantNames := []string{"Obtain death certificate", "Apply for grant", "Notify beneficiaries"}
	for i, want := range wantNames {
		if tasks[i].Name != want {
			t.Errorf("Task %d: expected %q, got %q", i, want, tasks[i].Name)
		}
	}

	if tasks[1].DayOffset == nil || *tasks[1].DayOffset != 14 {
		t.Error("Expected day offset carried over from template")
	}
	if tasks[0].DueDate != nil {
		t.Error("Expected due dates left empty until the case has a start date")
	}
	if tasks[0].Status != entity.StatusNotStarted {
		t.Errorf("Expected default status Not Started, got %q", tasks[0].Status)
	}
}

func TestPopulateTasksEmptyTypeIsNoOp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewTemplateService(repos.Template, repos.Task, testClock)

	kase := testutil.SeedCase(t, db, "Ad Hoc Matter", entity.StatusNotStarted)

	if err := svc.PopulateTasks(context.Background(), kase.ID, ""); err != nil {
		t.Fatalf("Empty type should be a no-op, got %v", err)
	}
	if err := svc.PopulateTasks(context.Background(), kase.ID, "No Such Type"); err != nil {
		t.Fatalf("Unknown type should be a no-op, got %v", err)
	}

	tasks, err := repos.Task.ListByCase(context.Background(), kase.ID)
	if err != nil {
		t.Fatalf("ListByCase failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("Expected no tasks, got %d", len(tasks))
	}
}

func TestAddTypeIdempotentOnName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewTemplateService(repos.Template, repos.Task, testClock)

	ctx := context.Background()
	if _, err := svc.AddType(ctx, "Conveyancing"); err != nil {
		t.Fatalf("AddType failed: %v", err)
	}
	// 重名静默跳过，不报错也不产生第二行
	if _, err := svc.AddType(ctx, "Conveyancing"); err != nil {
		t.Fatalf("Duplicate AddType should not fail: %v", err)
	}

	types, err := svc.ListTypes(ctx)
	if err != nil {
		t.Fatalf("ListTypes failed: %v", err)
	}
	if len(types) != 1 {
		t.Errorf("Expected 1 type, got %d", len(types))
	}
}

func TestDeleteTypeLeavesExistingCasesAlone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewTemplateService(repos.Template, repos.Task, testClock)

	ctx := context.Background()
	tt := testutil.SeedTemplateType(t, db, "Litigation")
	testutil.SeedTemplateTask(t, db, tt.ID, 1, "File statement of claim", nil)

	kase := testutil.SeedCase(t, db, "Smith v Jones", entity.StatusNotStarted)
	if err := svc.PopulateTasks(ctx, kase.ID, "Litigation"); err != nil {
		t.Fatalf("PopulateTasks failed: %v", err)
	}

	if err := svc.DeleteType(ctx, tt.ID); err != nil {
		t.Fatalf("DeleteType failed: %v", err)
	}

	if _, err := repos.Template.FindTypeByID(ctx, tt.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected type gone, got %v", err)
	}

	tasks, err := repos.Task.ListByCase(ctx, kase.ID)
	if err != nil {
		t.Fatalf("ListByCase failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("Existing case tasks must survive template deletion, got %d", len(tasks))
	}
}

func TestUpdateTaskKeepsTypeBinding(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewTemplateService(repos.Template, repos.Task, testClock)

	ctx := context.Background()
	tt := testutil.SeedTemplateType(t, db, "Conveyancing")
	seeded := testutil.SeedTemplateTask(t, db, tt.ID, 1, "Draft contract", testutil.IntPtr(7))

	// Edits arrive without the type ID, the way the handler builds them.
	edited := &entity.TemplateTask{
		ID:            seeded.ID,
		Sequence:      2,
		Name:          "Draft sale contract",
		DefaultStatus: entity.StatusNotStarted,
		DayOffset:     testutil.IntPtr(10),
	}
	if err := svc.UpdateTask(ctx, edited); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	tasks, err := svc.ListTasks(ctx, tt.ID)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("Expected task to stay under its type, got %d tasks", len(tasks))
	}
	got := tasks[0]
	if got.TemplateTypeID != tt.ID {
		t.Errorf("Expected type binding %q preserved, got %q", tt.ID, got.TemplateTypeID)
	}
	if got.Name != "Draft sale contract" || got.Sequence != 2 {
		t.Errorf("Expected edited fields saved, got name=%q sequence=%d", got.Name, got.Sequence)
	}
	if got.DayOffset == nil || *got.DayOffset != 10 {
		t.Error("Expected day offset updated to 10")
	}
	if got.CreatedAt.IsZero() {
		t.Error("Expected created_at untouched by the edit")
	}

	byName, err := repos.Template.ListTasksByTypeName(ctx, "Conveyancing")
	if err != nil {
		t.Fatalf("ListTasksByTypeName failed: %v", err)
	}
	if len(byName) != 1 {
		t.Errorf("Edited task must still expand for new cases, got %d", len(byName))
	}
}

func TestUpdateTaskMissingReturnsNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewTemplateService(repos.Template, repos.Task, testClock)

	err := svc.UpdateTask(context.Background(), &entity.TemplateTask{ID: "missing", Name: "Ghost step"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for unknown template task, got %v", err)
	}

	var count int64
	if err := db.Model(&entity.TemplateTask{}).Count(&count).Error; err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no orphan row created, got %d", count)
	}
}
