package passwordreset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classlab/classlab/pkg/classlab/auth"
	"github.com/classlab/classlab/pkg/classlab/models"
	"github.com/classlab/classlab/pkg/classlab/users"
)

type fakeMailer struct {
	to      string
	subject string
	html    string
	err     error
	calls   int
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, html string) error {
	f.calls++
	f.to, f.subject, f.html = to, subject, html
	return f.err
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) models.User {
	hash, _ := auth.HashPassword("password123")
	user := models.User{Email: email, PasswordHash: hash, Name: "Test User", Role: models.RoleUser}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func setupTestRouter(db *gorm.DB, mailer Mailer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db, mailer, "https://classlab.example.com")
	handler.RegisterPublicRoutes(r.Group("/api"))
	return r
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestCreateResetMailsToken(t *testing.T) {
	db := setupTestDB(t)
	mailer := &fakeMailer{}
	router := setupTestRouter(db, mailer)
	user := createTestUser(t, db, "test@example.com")

	resp := doJSON(t, router, "POST", "/api/password-resets",
		CreateResetRequest{Email: "Test@Example.com"})

	if resp.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", resp.Code, resp.Body.String())
	}
	if mailer.calls != 1 {
		t.Fatalf("Expected 1 mail sent, got %d", mailer.calls)
	}
	if mailer.to != user.Email {
		t.Errorf("Expected mail to %q, got %q", user.Email, mailer.to)
	}

	var reset models.PasswordReset
	if err := db.First(&reset, "user_id = ?", user.ID).Error; err != nil {
		t.Fatalf("Expected a reset token persisted: %v", err)
	}
	if !strings.Contains(mailer.html, reset.Token) {
		t.Error("Expected the mailed link to carry the token")
	}
}

func TestCreateResetUnknownEmail(t *testing.T) {
	db := setupTestDB(t)
	mailer := &fakeMailer{}
	router := setupTestRouter(db, mailer)

	resp := doJSON(t, router, "POST", "/api/password-resets",
		CreateResetRequest{Email: "nobody@example.com"})

	// same response as a known address, no mail, no token
	if resp.Code != http.StatusAccepted {
		t.Errorf("Expected status 202, got %d", resp.Code)
	}
	if mailer.calls != 0 {
		t.Errorf("Expected no mail for unknown address, got %d", mailer.calls)
	}
}

func TestCreateResetMailFailure(t *testing.T) {
	db := setupTestDB(t)
	mailer := &fakeMailer{err: errors.New("sendgrid down")}
	router := setupTestRouter(db, mailer)
	createTestUser(t, db, "test@example.com")

	resp := doJSON(t, router, "POST", "/api/password-resets",
		CreateResetRequest{Email: "test@example.com"})

	if resp.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestGetResetShowsUser(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db, nil)
	user := createTestUser(t, db, "test@example.com")

	reset := models.PasswordReset{Token: uuid.NewString(), UserID: user.ID}
	db.Create(&reset)

	resp := doJSON(t, router, "GET", "/api/password-resets/"+reset.Token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var response users.UserResponse
	json.Unmarshal(resp.Body.Bytes(), &response)
	if response.ID != user.ID {
		t.Errorf("Expected token to resolve to user %d, got %d", user.ID, response.ID)
	}
}

func TestUpdateConsumesToken(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db, nil)
	user := createTestUser(t, db, "test@example.com")

	reset := models.PasswordReset{Token: uuid.NewString(), UserID: user.ID}
	db.Create(&reset)

	resp := doJSON(t, router, "PUT", "/api/password-resets/"+reset.Token,
		SetPasswordRequest{Password: "brandnew1"})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var reloaded models.User
	db.First(&reloaded, user.ID)
	if !auth.CheckPassword("brandnew1", reloaded.PasswordHash) {
		t.Error("Expected new password to verify")
	}

	// single use
	resp = doJSON(t, router, "PUT", "/api/password-resets/"+reset.Token,
		SetPasswordRequest{Password: "again"})
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected consumed token to 404, got %d", resp.Code)
	}
}

func TestUpdateUnknownToken(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db, nil)

	resp := doJSON(t, router, "PUT", "/api/password-resets/nope",
		SetPasswordRequest{Password: "brandnew1"})
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}
}
