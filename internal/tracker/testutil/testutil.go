package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phangsc88/legal-case-tracker/internal/middleware"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
)

const (
	TestSchema = "test_casetrack"
	JWTSecret  = "casetrack-test-jwt-secret"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is cleaned up after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "casetrack")
	password := getEnv("DB_PASSWORD", "casetrack")
	dbname := getEnv("DB_NAME", "casetrack")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// Create a unique test schema for isolation
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// Open connection with search_path in DSN so ALL pooled connections use the test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&entity.User{},
		&entity.TemplateType{},
		&entity.TemplateTask{},
		&entity.Case{},
		&entity.Task{},
		&entity.Remark{},
		&entity.Attachment{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, privilege string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       userID,
		"uid":       userID,
		"name":      name,
		"privilege": privilege,
		"iss":       "legal-case-tracker",
		"iat":       now.Unix(),
		"exp":       now.Add(24 * time.Hour).Unix(),
		"jti":       fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// AdminToken returns a token for a default admin test user
func AdminToken() string {
	return GenerateTestToken("test-admin-001", "Test Admin", entity.PrivilegeAdmin)
}

// UserToken returns a token for a default non-admin test user
func UserToken() string {
	return GenerateTestToken("test-user-001", "Test User", entity.PrivilegeUser)
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// Date builds a midnight UTC timestamp for date assertions and fixtures
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DatePtr is Date returning a pointer
func DatePtr(year int, month time.Month, day int) *time.Time {
	d := Date(year, month, day)
	return &d
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// SeedCase creates a test case in the database
func SeedCase(t *testing.T, db *gorm.DB, name, status string) *entity.Case {
	t.Helper()
	c := &entity.Case{
		ID:        uuid.New().String()[:32],
		Name:      name,
		Status:    status,
		CreatedBy: "tester",
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("Failed to seed test case: %v", err)
	}
	return c
}

// SeedTask creates a test task under a case
func SeedTask(t *testing.T, db *gorm.DB, caseID, name, status string) *entity.Task {
	t.Helper()
	task := &entity.Task{
		ID:     uuid.New().String()[:32],
		CaseID: caseID,
		Name:   name,
		Status: status,
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("Failed to seed test task: %v", err)
	}
	return task
}

// SeedTemplateType creates a test template type
func SeedTemplateType(t *testing.T, db *gorm.DB, name string) *entity.TemplateType {
	t.Helper()
	tt := &entity.TemplateType{
		ID:   uuid.New().String()[:32],
		Name: name,
	}
	if err := db.Create(tt).Error; err != nil {
		t.Fatalf("Failed to seed template type: %v", err)
	}
	return tt
}

// SeedTemplateTask creates a test template task
func SeedTemplateTask(t *testing.T, db *gorm.DB, typeID string, seq int, name string, dayOffset *int) *entity.TemplateTask {
	t.Helper()
	tt := &entity.TemplateTask{
		ID:             uuid.New().String()[:32],
		TemplateTypeID: typeID,
		Sequence:       seq,
		Name:           name,
		DefaultStatus:  entity.StatusNotStarted,
		DayOffset:      dayOffset,
	}
	if err := db.Create(tt).Error; err != nil {
		t.Fatalf("Failed to seed template task: %v", err)
	}
	return tt
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
