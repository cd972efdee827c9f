package app

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"warbler/internal/model"
	"warbler/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// The in-memory database lives per connection; keep a single one so
	// every query sees the same data.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&model.User{},
		&model.Message{},
		&model.Follow{},
		&model.Like{},
		&model.Notification{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type testServices struct {
	auth     *AuthService
	users    *UserService
	messages *MessageService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	followRepo := repository.NewFollowRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	return &testServices{
		auth:     NewAuthService(userRepo),
		users:    NewUserService(userRepo, followRepo, notifRepo, nil, nil),
		messages: NewMessageService(messageRepo, followRepo, likeRepo, nil, nil),
	}
}

func mustSignup(t *testing.T, auth *AuthService, username string) *model.User {
	t.Helper()
	user, err := auth.Signup(SignupInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret-" + username,
	})
	if err != nil {
		t.Fatalf("signup %s: %v", username, err)
	}
	return user
}
