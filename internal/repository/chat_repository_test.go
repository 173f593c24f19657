package repository

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ashwinyue/fastagent/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(model.AllModels...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestChatRepository_SessionOwnership(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	session := &model.ChatSession{UserID: alice.ID, Title: "测试会话", IsActive: true}
	if err := repo.CreateSession(session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := repo.GetSession(session.ID, alice.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}

	// 非本人查询视同不存在
	if _, err := repo.GetSession(session.ID, bob.ID); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound for non-owner, got %v", err)
	}

	if err := repo.DeleteSession(session.ID, bob.ID); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound deleting non-owned session, got %v", err)
	}
}

func TestChatRepository_ListSessionsWithCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)
	alice := seedUser(t, db, "alice")

	s1 := &model.ChatSession{UserID: alice.ID, Title: "一", IsActive: true}
	s2 := &model.ChatSession{UserID: alice.ID, Title: "二", IsActive: true}
	for _, s := range []*model.ChatSession{s1, s2} {
		if err := repo.CreateSession(s); err != nil {
			t.Fatalf("create session: %v", err)
		}
	}

	for i := 0; i < 3; i++ {
		msg := &model.ChatMessage{SessionID: s2.ID, Role: model.RoleUser, Content: "hi"}
		if err := repo.CreateMessage(msg); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	sessions, err := repo.ListSessions(alice.ID, 0, 20)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}

	// 追加消息推进 updated_at，s2 应排在前面
	if sessions[0].ID != s2.ID {
		t.Errorf("expected session %d first, got %d", s2.ID, sessions[0].ID)
	}
	if sessions[0].MessageCount != 3 {
		t.Errorf("expected message_count 3, got %d", sessions[0].MessageCount)
	}
	if sessions[1].MessageCount != 0 {
		t.Errorf("expected message_count 0, got %d", sessions[1].MessageCount)
	}
}

func TestChatRepository_CreateMessageBumpsUpdatedAt(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)
	alice := seedUser(t, db, "alice")

	session := &model.ChatSession{UserID: alice.ID, Title: "t", IsActive: true}
	if err := repo.CreateSession(session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	before := session.UpdatedAt

	msg := &model.ChatMessage{SessionID: session.ID, Role: model.RoleUser, Content: "你好"}
	if err := repo.CreateMessage(msg); err != nil {
		t.Fatalf("create message: %v", err)
	}

	got, err := repo.GetSession(session.ID, alice.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.UpdatedAt.Before(before) {
		t.Errorf("updated_at went backwards: %v -> %v", before, got.UpdatedAt)
	}
}

func TestChatRepository_BatchDeleteMessages(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)
	alice := seedUser(t, db, "alice")

	session := &model.ChatSession{UserID: alice.ID, Title: "t", IsActive: true}
	if err := repo.CreateSession(session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	other := &model.ChatSession{UserID: alice.ID, Title: "o", IsActive: true}
	if err := repo.CreateSession(other); err != nil {
		t.Fatalf("create session: %v", err)
	}

	var ids []uint
	for i := 0; i < 3; i++ {
		msg := &model.ChatMessage{SessionID: session.ID, Role: model.RoleUser, Content: "m"}
		if err := repo.CreateMessage(msg); err != nil {
			t.Fatalf("create message: %v", err)
		}
		ids = append(ids, msg.ID)
	}
	foreign := &model.ChatMessage{SessionID: other.ID, Role: model.RoleUser, Content: "x"}
	if err := repo.CreateMessage(foreign); err != nil {
		t.Fatalf("create message: %v", err)
	}

	// 混入不存在的 ID 和别的会话的 ID，只删属于本会话的两条
	deleted, err := repo.BatchDeleteMessages(session.ID, []uint{ids[0], ids[1], foreign.ID, 999})
	if err != nil {
		t.Fatalf("batch delete: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected deleted 2, got %d", deleted)
	}

	// 全部无效 ID：删除 0 条不是错误
	deleted, err = repo.BatchDeleteMessages(session.ID, []uint{888, 999})
	if err != nil {
		t.Fatalf("batch delete: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected deleted 0, got %d", deleted)
	}

	remaining, err := repo.ListMessages(session.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != ids[2] {
		t.Errorf("unexpected remaining messages: %+v", remaining)
	}

	// 别的会话的消息不受影响
	if _, err := repo.GetMessage(foreign.ID, other.ID); err != nil {
		t.Errorf("foreign message should survive: %v", err)
	}
}

func TestChatRepository_ClearMessages(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)
	alice := seedUser(t, db, "alice")

	session := &model.ChatSession{UserID: alice.ID, Title: "t", IsActive: true}
	if err := repo.CreateSession(session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	for i := 0; i < 4; i++ {
		msg := &model.ChatMessage{SessionID: session.ID, Role: model.RoleAssistant, Content: "m"}
		if err := repo.CreateMessage(msg); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	deleted, err := repo.ClearMessages(session.ID)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if deleted != 4 {
		t.Errorf("expected deleted 4, got %d", deleted)
	}

	// 会话仍在，消息数归零
	sessions, err := repo.ListSessions(alice.ID, 0, 10)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].MessageCount != 0 {
		t.Errorf("expected surviving session with 0 messages, got %+v", sessions)
	}

	// 再次清空：0 条不是错误
	deleted, err = repo.ClearMessages(session.ID)
	if err != nil {
		t.Fatalf("clear empty: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected deleted 0, got %d", deleted)
	}
}

func TestChatRepository_DeleteSessionCascades(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)
	alice := seedUser(t, db, "alice")

	session := &model.ChatSession{UserID: alice.ID, Title: "t", IsActive: true}
	if err := repo.CreateSession(session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	msg := &model.ChatMessage{SessionID: session.ID, Role: model.RoleUser, Content: "m"}
	if err := repo.CreateMessage(msg); err != nil {
		t.Fatalf("create message: %v", err)
	}

	if err := repo.DeleteSession(session.ID, alice.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	var count int64
	if err := db.Model(&model.ChatMessage{}).Where("session_id = ?", session.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected cascading delete, %d messages left", count)
	}
}

func TestChatRepository_ListRecentMessagesOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)
	alice := seedUser(t, db, "alice")

	session := &model.ChatSession{UserID: alice.ID, Title: "t", IsActive: true}
	if err := repo.CreateSession(session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	for i := 0; i < 5; i++ {
		msg := &model.ChatMessage{SessionID: session.ID, Role: model.RoleUser, Content: string(rune('a' + i))}
		if err := repo.CreateMessage(msg); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	recent, err := repo.ListRecentMessages(session.ID, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(recent))
	}
	// 取最近 3 条，按时间顺序返回
	want := []string{"c", "d", "e"}
	for i, m := range recent {
		if m.Content != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], m.Content)
		}
	}
}
