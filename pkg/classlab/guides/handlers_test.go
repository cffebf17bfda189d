package guides

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classlab/classlab/pkg/classlab/auth"
	"github.com/classlab/classlab/pkg/classlab/models"
)

func createTestUser(t *testing.T, db *gorm.DB, email string, role models.Role) models.User {
	hash, _ := auth.HashPassword("password123")
	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func getAuthHeader(t *testing.T, db *gorm.DB, user models.User) string {
	session := models.Session{ID: uuid.NewString(), UserID: user.ID}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}
	token, _ := auth.GenerateToken(session.ID, user.ID, user.Email, string(user.Role))
	return "Bearer " + token
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db, newTestService(db))

	api := r.Group("/api")
	api.Use(auth.SessionMiddleware(db))
	handler.RegisterRoutes(api)

	return r
}

func doJSON(t *testing.T, router *gin.Engine, method, path, authHeader string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", authHeader)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestCreateGuideDefaultsToQuestion(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com", models.RoleUser)

	resp := doJSON(t, router, "POST", "/api/guides", getAuthHeader(t, db, user),
		CreateGuideRequest{Title: "What is a half?"})

	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var response GuideResponse
	json.Unmarshal(resp.Body.Bytes(), &response)
	if response.Kind != "question" {
		t.Errorf("Expected kind 'question', got %q", response.Kind)
	}
	if response.User == nil || response.User.ID != user.ID {
		t.Error("Expected guide owned by the authenticated user")
	}
}

func TestKindScopedCreate(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com", models.RoleUser)
	header := getAuthHeader(t, db, user)

	resp := doJSON(t, router, "POST", "/api/activities", header,
		CreateGuideRequest{Title: "Build a paper bridge"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var response GuideResponse
	json.Unmarshal(resp.Body.Bytes(), &response)
	if response.Kind != "activity" {
		t.Errorf("Expected kind 'activity', got %q", response.Kind)
	}
}

func TestKindScopedList(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com", models.RoleUser)
	header := getAuthHeader(t, db, user)

	db.Create(&models.Guide{Kind: models.KindQuestion, Title: "Q"})
	db.Create(&models.Guide{Kind: models.KindResource, Title: "R"})

	resp := doJSON(t, router, "GET", "/api/resources", header, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var response []GuideResponse
	json.Unmarshal(resp.Body.Bytes(), &response)
	if len(response) != 1 || response[0].Kind != "resource" {
		t.Errorf("Expected only the resource guide, got %v", response)
	}
}

func TestCreateGuideInvalidKind(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com", models.RoleUser)

	resp := doJSON(t, router, "POST", "/api/guides", getAuthHeader(t, db, user),
		map[string]string{"kind": "lecture", "title": "Nope"})

	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCreateGuideUnknownChallenge(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com", models.RoleUser)

	challengeID := uint(42)
	resp := doJSON(t, router, "POST", "/api/guides", getAuthHeader(t, db, user),
		CreateGuideRequest{Title: "Orphan", Challenge: &challengeID})

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUpdateGuideNonOwner(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	owner := createTestUser(t, db, "owner@example.com", models.RoleUser)
	other := createTestUser(t, db, "other@example.com", models.RoleUser)

	g := models.Guide{Kind: models.KindQuestion, Title: "Mine", UserID: &owner.ID}
	db.Create(&g)

	title := "Stolen"
	resp := doJSON(t, router, "PUT", fmt.Sprintf("/api/guides/%d", g.ID),
		getAuthHeader(t, db, other), UpdateGuideRequest{Title: &title})

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUpdateGuideAdminOverride(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	owner := createTestUser(t, db, "owner@example.com", models.RoleUser)
	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)

	g := models.Guide{Kind: models.KindQuestion, Title: "Mine", UserID: &owner.ID}
	db.Create(&g)

	title := "Corrected"
	resp := doJSON(t, router, "PUT", fmt.Sprintf("/api/guides/%d", g.ID),
		getAuthHeader(t, db, admin), UpdateGuideRequest{Title: &title})

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var response GuideResponse
	json.Unmarshal(resp.Body.Bytes(), &response)
	if response.Title != "Corrected" {
		t.Errorf("Expected updated title, got %q", response.Title)
	}
}

func TestUpdateGuideDetachChallenge(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com", models.RoleUser)

	challenge := models.Challenge{Title: "Fractions"}
	db.Create(&challenge)
	g := models.Guide{Kind: models.KindQuestion, Title: "Q", UserID: &user.ID, ChallengeID: &challenge.ID}
	db.Create(&g)

	resp := doJSON(t, router, "PUT", fmt.Sprintf("/api/guides/%d", g.ID),
		getAuthHeader(t, db, user), map[string]any{"challenge": nil})

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var reloaded models.Guide
	db.First(&reloaded, g.ID)
	if reloaded.ChallengeID != nil {
		t.Errorf("Expected challenge detached, still %v", *reloaded.ChallengeID)
	}
}

func TestListGuidesByPeer(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com", models.RoleUser)
	header := getAuthHeader(t, db, user)

	a := models.Guide{Kind: models.KindQuestion, Title: "A"}
	b := models.Guide{Kind: models.KindQuestion, Title: "B"}
	c := models.Guide{Kind: models.KindQuestion, Title: "C"}
	db.Create(&a)
	db.Create(&b)
	db.Create(&c)
	db.Create(&models.GuideLink{GuideID: a.ID, PeerID: b.ID})
	db.Create(&models.GuideLink{GuideID: b.ID, PeerID: a.ID})

	resp := doJSON(t, router, "GET", fmt.Sprintf("/api/guides?guide=%d", a.ID), header, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var response []GuideResponse
	json.Unmarshal(resp.Body.Bytes(), &response)
	if len(response) != 1 || response[0].ID != b.ID {
		t.Errorf("Expected only guide b related to a, got %v", response)
	}
}

func TestDeleteGuide(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "test@example.com", models.RoleUser)

	g := models.Guide{Kind: models.KindQuestion, Title: "Doomed", UserID: &user.ID}
	db.Create(&g)
	tag := models.Tag{Name: "math", Count: 1}
	db.Create(&tag)
	db.Create(&models.GuideTag{GuideID: g.ID, TagID: tag.ID})

	resp := doJSON(t, router, "DELETE", fmt.Sprintf("/api/guides/%d", g.ID),
		getAuthHeader(t, db, user), nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d: %s", resp.Code, resp.Body.String())
	}

	var joins int64
	db.Model(&models.GuideTag{}).Count(&joins)
	if joins != 0 {
		t.Errorf("Expected guide_tags cleared, got %d rows", joins)
	}
}

func TestGuideRequiresAuth(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	req, _ := http.NewRequest("GET", "/api/guides", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
}
