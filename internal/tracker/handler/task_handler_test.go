package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/phangsc88/legal-case-tracker/internal/middleware"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/service"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/testutil"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func setupTaskHandlerTest(t *testing.T) (*testutil.TestEnv, *repository.Repositories) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()
	repos := repository.NewRepositories(db)

	schedule := service.NewScheduleService(repos.Case, repos.Task, fixedClock)
	templateSvc := service.NewTemplateService(repos.Template, repos.Task, fixedClock)
	caseSvc := service.NewCaseService(repos.Case, repos.Task, repos.Remark, templateSvc, schedule, fixedClock)
	taskSvc := service.NewTaskService(repos.Task, repos.Case, repos.Attachment, caseSvc, schedule, fixedClock)
	userSvc := service.NewUserService(repos.User, fixedClock)

	taskHandler := NewTaskHandler(taskSvc)
	caseHandler := NewCaseHandler(caseSvc)
	userHandler := NewUserHandler(userSvc)

	api := testutil.AuthGroup(router, "/api/v1")
	api.PUT("/tasks/:id", taskHandler.Update)
	api.GET("/cases/:id/tasks", taskHandler.ListForCase)
	api.GET("/cases/:id", caseHandler.Get)
	api.GET("/users", middleware.RequireAdmin(), userHandler.List)

	return &testutil.TestEnv{DB: db, Router: router, T: t}, repos
}

func seedTaskWithDueDate(t *testing.T, db *gorm.DB) (*entity.Case, *entity.Task) {
	t.Helper()
	kase := testutil.SeedCase(t, db, "Handler Matter", entity.StatusInProgress)
	task := testutil.SeedTask(t, db, kase.ID, "Review documents", entity.StatusInProgress)
	err := db.Model(&entity.Task{}).Where("id = ?", task.ID).Updates(map[string]interface{}{
		"task_start_date": time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		"due_date":        time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}).Error
	if err != nil {
		t.Fatalf("Failed to set task dates: %v", err)
	}
	return kase, task
}

func TestTaskUpdateRequiresAuth(t *testing.T) {
	env, _ := setupTaskHandlerTest(t)
	w := testutil.DoRequest(env.Router, "PUT", "/api/v1/tasks/some-id",
		map[string]interface{}{"name": "x", "status": "In Progress"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}
}

func TestTaskUpdateAdminSetsDueDate(t *testing.T) {
	env, repos := setupTaskHandlerTest(t)
	_, task := seedTaskWithDueDate(t, env.DB)

	w := testutil.DoRequest(env.Router, "PUT", "/api/v1/tasks/"+task.ID,
		map[string]interface{}{
			"name":       "Review documents",
			"status":     "In Progress",
			"start_date": "2026-03-01",
			"due_date":   "2026-05-01",
		}, testutil.AdminToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	got, err := repos.Task.FindByID(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("Failed to reload task: %v", err)
	}
	if got.DueDate == nil || got.DueDate.Format("2006-01-02") != "2026-05-01" {
		t.Errorf("Expected admin due date written, got %v", got.DueDate)
	}
}

func TestTaskUpdateNonAdminDueDateDiscarded(t *testing.T) {
	env, repos := setupTaskHandlerTest(t)
	_, task := seedTaskWithDueDate(t, env.DB)

	// 非管理员提交的到期日被丢弃，保存把显式到期日清空
	w := testutil.DoRequest(env.Router, "PUT", "/api/v1/tasks/"+task.ID,
		map[string]interface{}{
			"name":       "Review documents",
			"status":     "In Progress",
			"start_date": "2026-03-01",
			"due_date":   "2026-05-01",
		}, testutil.UserToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	got, err := repos.Task.FindByID(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("Failed to reload task: %v", err)
	}
	if got.DueDate != nil {
		t.Errorf("Expected due date cleared for non-admin save, got %v", got.DueDate)
	}
}

func TestTaskUpdateCompletedDateResponse(t *testing.T) {
	env, _ := setupTaskHandlerTest(t)
	_, task := seedTaskWithDueDate(t, env.DB)

	w := testutil.DoRequest(env.Router, "PUT", "/api/v1/tasks/"+task.ID,
		map[string]interface{}{
			"name":           "Review documents",
			"status":         "In Progress",
			"completed_date": "2026-03-09",
		}, testutil.AdminToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["status"] != entity.StatusCompleted {
		t.Errorf("Expected Completed in response, got %v", data["status"])
	}
}

func TestUserListAdminOnly(t *testing.T) {
	env, _ := setupTaskHandlerTest(t)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/users", nil, testutil.UserToken())
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/users", nil, testutil.AdminToken())
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for admin, got %d", w.Code)
	}
}

func TestTaskListForCase(t *testing.T) {
	env, _ := setupTaskHandlerTest(t)
	kase, _ := seedTaskWithDueDate(t, env.DB)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/cases/"+kase.ID+"/tasks", nil, testutil.UserToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(items))
	}
	first := items[0].(map[string]interface{})
	if first["performance"] != entity.PerfOnTime {
		t.Errorf("Expected On Time label, got %v", first["performance"])
	}
	if first["due_date_display"] != "2026-04-01" {
		t.Errorf("Expected due date display, got %v", first["due_date_display"])
	}
}
