package http

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"warbler/internal/bootstrap"
	"warbler/internal/config"
	"warbler/internal/model"
)

func newTestServer(t *testing.T, csrfEnabled bool) (*httptest.Server, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := bootstrap.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	redisClient := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	cfg := &config.Config{
		App: config.AppConfig{
			Name:        "warbler",
			Env:         "test",
			GinMode:     gin.TestMode,
			CSRFEnabled: csrfEnabled,
		},
		Session: config.SessionConfig{
			CookieName: "warbler_session",
			Secret:     "test-secret",
			TTLMinute:  60,
		},
		Redis: config.RedisConfig{TimelineTTLSeconds: 30},
	}

	app := &bootstrap.App{
		Config:    cfg,
		DB:        db,
		Redis:     redisClient,
		StartedAt: time.Now(),
	}

	server := httptest.NewServer(NewRouter(app))
	t.Cleanup(server.Close)
	return server, db
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp, readBody(t, resp)
}

func postForm(t *testing.T, client *http.Client, url string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := client.PostForm(url, form)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func signup(t *testing.T, client *http.Client, baseURL, username string) string {
	t.Helper()
	_, body := postForm(t, client, baseURL+"/signup", url.Values{
		"username": {username},
		"email":    {username + "@example.com"},
		"password": {"secret-" + username},
	})
	return body
}

func TestSignupLogsUserIn(t *testing.T) {
	server, db := newTestServer(t, false)
	client := newClient(t)

	body := signup(t, client, server.URL, "alice")
	if !strings.Contains(body, "/logout") {
		t.Fatalf("expected signed-in page after signup, got: %s", body)
	}

	var count int64
	if err := db.Model(&model.User{}).Where("username = ?", "alice").Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one alice row, got %d", count)
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	server, db := newTestServer(t, false)

	signup(t, newClient(t), server.URL, "alice")

	_, body := postForm(t, newClient(t), server.URL+"/signup", url.Values{
		"username": {"alice"},
		"email":    {"second@example.com"},
		"password": {"pw"},
	})
	if !strings.Contains(body, "Username already taken") {
		t.Fatalf("expected duplicate-username flash, got: %s", body)
	}

	var count int64
	if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single user row, got %d", count)
	}
}

func TestLoginAndLogout(t *testing.T) {
	server, _ := newTestServer(t, false)

	client := newClient(t)
	signup(t, client, server.URL, "alice")
	postForm(t, client, server.URL+"/logout", nil)

	_, body := postForm(t, client, server.URL+"/login", url.Values{
		"username": {"alice"},
		"password": {"secret-alice"},
	})
	if !strings.Contains(body, "Hello, alice!") {
		t.Fatalf("expected greeting after login, got: %s", body)
	}
	if !strings.Contains(body, "/logout") {
		t.Fatal("expected signed-in nav after login")
	}

	_, body = postForm(t, client, server.URL+"/logout", nil)
	if !strings.Contains(body, "You have successfully logged out.") {
		t.Fatalf("expected logout flash, got: %s", body)
	}
	if strings.Contains(body, "/logout\"") {
		t.Fatal("expected anonymous nav after logout")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	server, _ := newTestServer(t, false)
	signup(t, newClient(t), server.URL, "alice")

	client := newClient(t)
	_, body := postForm(t, client, server.URL+"/login", url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	})
	if !strings.Contains(body, "Invalid credentials.") {
		t.Fatalf("expected invalid-credentials flash, got: %s", body)
	}
	if strings.Contains(body, "/logout") {
		t.Fatal("must not be signed in after failed login")
	}
}

func TestAnonymousCannotPost(t *testing.T) {
	server, db := newTestServer(t, false)
	client := newClient(t)

	_, body := postForm(t, client, server.URL+"/messages/new", url.Values{
		"text": {"sneaky"},
	})
	if !strings.Contains(body, "Access unauthorized.") {
		t.Fatalf("expected unauthorized flash, got: %s", body)
	}

	var count int64
	if err := db.Model(&model.Message{}).Count(&count).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if count != 0 {
		t.Fatalf("anonymous post must not persist, got %d rows", count)
	}
}

func TestPostMessage(t *testing.T) {
	server, db := newTestServer(t, false)
	client := newClient(t)
	signup(t, client, server.URL, "alice")

	_, body := postForm(t, client, server.URL+"/messages/new", url.Values{
		"text": {"Hello"},
	})
	if !strings.Contains(body, "Hello") {
		t.Fatalf("expected posted warble on profile, got: %s", body)
	}

	var message model.Message
	if err := db.First(&message).Error; err != nil {
		t.Fatalf("load message: %v", err)
	}
	if message.Text != "Hello" {
		t.Fatalf("unexpected stored text %q", message.Text)
	}
}

func TestPostMessageRedirectStatus(t *testing.T) {
	server, db := newTestServer(t, false)
	client := newClient(t)
	signup(t, client, server.URL, "alice")

	var alice model.User
	if err := db.Where("username = ?", "alice").First(&alice).Error; err != nil {
		t.Fatalf("load alice: %v", err)
	}

	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, _ := postForm(t, client, server.URL+"/messages/new", url.Values{
		"text": {"raw status"},
	})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/users/"+itoa(alice.ID) {
		t.Fatalf("unexpected redirect target %q", loc)
	}
}

func TestDeleteForeignMessageIsRefused(t *testing.T) {
	server, db := newTestServer(t, false)

	alice := newClient(t)
	signup(t, alice, server.URL, "alice")
	postForm(t, alice, server.URL+"/messages/new", url.Values{"text": {"mine"}})

	var message model.Message
	if err := db.First(&message).Error; err != nil {
		t.Fatalf("load message: %v", err)
	}

	bob := newClient(t)
	signup(t, bob, server.URL, "bob")
	_, body := postForm(t, bob, server.URL+"/messages/"+itoa(message.ID)+"/delete", nil)
	if !strings.Contains(body, "Access unauthorized.") {
		t.Fatalf("expected unauthorized flash, got: %s", body)
	}

	var count int64
	if err := db.Model(&model.Message{}).Count(&count).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if count != 1 {
		t.Fatal("foreign delete must not remove the message")
	}

	_, body = postForm(t, alice, server.URL+"/messages/"+itoa(message.ID)+"/delete", nil)
	if strings.Contains(body, "mine") {
		t.Fatalf("expected message gone from profile, got: %s", body)
	}
}

func TestFollowAndStopFollowing(t *testing.T) {
	server, db := newTestServer(t, false)

	signup(t, newClient(t), server.URL, "bob")
	var bob model.User
	if err := db.Where("username = ?", "bob").First(&bob).Error; err != nil {
		t.Fatalf("load bob: %v", err)
	}

	alice := newClient(t)
	signup(t, alice, server.URL, "alice")

	_, body := postForm(t, alice, server.URL+"/users/follow/"+itoa(bob.ID), nil)
	if !strings.Contains(body, "@bob") {
		t.Fatalf("expected bob on following page, got: %s", body)
	}

	_, body = postForm(t, alice, server.URL+"/users/stop-following/"+itoa(bob.ID), nil)
	if !strings.Contains(body, "Not following anyone yet.") {
		t.Fatalf("expected empty following page, got: %s", body)
	}
}

func TestFollowingPageRequiresLogin(t *testing.T) {
	server, db := newTestServer(t, false)

	signup(t, newClient(t), server.URL, "bob")
	var bob model.User
	if err := db.Where("username = ?", "bob").First(&bob).Error; err != nil {
		t.Fatalf("load bob: %v", err)
	}

	_, body := get(t, newClient(t), server.URL+"/users/"+itoa(bob.ID)+"/following")
	if !strings.Contains(body, "Access unauthorized.") {
		t.Fatalf("expected unauthorized flash, got: %s", body)
	}
}

func TestFollowersPageRequiresLogin(t *testing.T) {
	server, db := newTestServer(t, false)

	signup(t, newClient(t), server.URL, "bob")
	var bob model.User
	if err := db.Where("username = ?", "bob").First(&bob).Error; err != nil {
		t.Fatalf("load bob: %v", err)
	}

	_, body := get(t, newClient(t), server.URL+"/users/"+itoa(bob.ID)+"/followers")
	if !strings.Contains(body, "Access unauthorized.") {
		t.Fatalf("expected unauthorized flash, got: %s", body)
	}
}

func TestFollowersPageShowsFollower(t *testing.T) {
	server, db := newTestServer(t, false)

	bobClient := newClient(t)
	signup(t, bobClient, server.URL, "bob")
	var bob model.User
	if err := db.Where("username = ?", "bob").First(&bob).Error; err != nil {
		t.Fatalf("load bob: %v", err)
	}

	alice := newClient(t)
	signup(t, alice, server.URL, "alice")
	postForm(t, alice, server.URL+"/users/follow/"+itoa(bob.ID), nil)

	// Viewed as bob, so "@alice" can only come from the follower list.
	_, body := get(t, bobClient, server.URL+"/users/"+itoa(bob.ID)+"/followers")
	if !strings.Contains(body, "@alice") {
		t.Fatalf("expected alice on bob's followers page, got: %s", body)
	}
	if strings.Contains(body, "No followers yet.") {
		t.Fatal("follower list must not be empty")
	}
}

func TestTimelineShowsFollowedWarbles(t *testing.T) {
	server, db := newTestServer(t, false)

	bob := newClient(t)
	signup(t, bob, server.URL, "bob")
	postForm(t, bob, server.URL+"/messages/new", url.Values{"text": {"warble from bob"}})

	carol := newClient(t)
	signup(t, carol, server.URL, "carol")
	postForm(t, carol, server.URL+"/messages/new", url.Values{"text": {"warble from carol"}})

	var bobRow model.User
	if err := db.Where("username = ?", "bob").First(&bobRow).Error; err != nil {
		t.Fatalf("load bob: %v", err)
	}

	alice := newClient(t)
	signup(t, alice, server.URL, "alice")
	postForm(t, alice, server.URL+"/users/follow/"+itoa(bobRow.ID), nil)

	_, body := get(t, alice, server.URL+"/")
	if !strings.Contains(body, "warble from bob") {
		t.Fatalf("expected followed warble on timeline, got: %s", body)
	}
	if strings.Contains(body, "warble from carol") {
		t.Fatal("unfollowed warble must not be on the timeline")
	}
}

func TestAnonymousHomeShowsRecent(t *testing.T) {
	server, _ := newTestServer(t, false)

	bob := newClient(t)
	signup(t, bob, server.URL, "bob")
	postForm(t, bob, server.URL+"/messages/new", url.Values{"text": {"public warble"}})

	_, body := get(t, newClient(t), server.URL+"/")
	if !strings.Contains(body, "public warble") {
		t.Fatalf("expected recent warble on anonymous home, got: %s", body)
	}
	if !strings.Contains(body, "Sign up now") {
		t.Fatal("expected anonymous landing page")
	}
}

func TestUnknownUserIs404(t *testing.T) {
	server, _ := newTestServer(t, false)

	resp, _ := get(t, newClient(t), server.URL+"/users/9999")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCSRFRejectsMissingToken(t *testing.T) {
	server, _ := newTestServer(t, true)
	client := newClient(t)

	resp, body := postForm(t, client, server.URL+"/signup", url.Values{
		"username": {"alice"},
		"email":    {"alice@example.com"},
		"password": {"pw"},
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf token, got %d: %s", resp.StatusCode, body)
	}
}

func TestCSRFAcceptsFormToken(t *testing.T) {
	server, _ := newTestServer(t, true)
	client := newClient(t)

	_, page := get(t, client, server.URL+"/signup")
	token := extractCSRFToken(t, page)

	_, body := postForm(t, client, server.URL+"/signup", url.Values{
		"username":   {"alice"},
		"email":      {"alice@example.com"},
		"password":   {"pw"},
		"csrf_token": {token},
	})
	if !strings.Contains(body, "/logout") {
		t.Fatalf("expected signup to succeed with token, got: %s", body)
	}
}

func extractCSRFToken(t *testing.T, page string) string {
	t.Helper()
	marker := `name="csrf_token" value="`
	idx := strings.Index(page, marker)
	if idx < 0 {
		t.Fatalf("no csrf token in page: %s", page)
	}
	rest := page[idx+len(marker):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		t.Fatal("unterminated csrf token attribute")
	}
	return rest[:end]
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
