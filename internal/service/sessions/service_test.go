package sessions

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"docchat/internal/config"
	"docchat/internal/models"
	"docchat/internal/storage"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.Config{
		DBDriver: "sqlite3",
		DBPath:   ":memory:",
	}
	db, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := storage.Migrate(db, cfg.DBDriver); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	db := openTestDB(t)
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func TestCreateAndGet(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()
	ctx := context.Background()

	created, err := svc.Create(ctx, "documents/abc_report.pdf")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created session has empty id")
	}
	if created.Version != 0 {
		t.Fatalf("new session version = %d, want 0", created.Version)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.FilePath != "documents/abc_report.pdf" {
		t.Fatalf("file path = %q", got.FilePath)
	}
	if len(got.Messages) != 0 {
		t.Fatalf("new session has %d messages, want 0", len(got.Messages))
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set")
	}
}

func TestCreateRequiresFilePath(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	if _, err := svc.Create(context.Background(), "   "); err == nil {
		t.Fatal("create accepted a blank file path")
	}
}

func TestGetUnknownSession(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	if _, err := svc.Get(context.Background(), "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get unknown session error = %v, want ErrNotFound", err)
	}
}

func TestAppendExchange(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()
	ctx := context.Background()

	created, err := svc.Create(ctx, "documents/abc_guide.docx")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	first, err := svc.AppendExchange(ctx, created.ID,
		models.Message{Role: models.RoleUser, Content: "first question"},
		models.Message{Role: models.RoleAssistant, Content: "first answer"},
	)
	if err != nil {
		t.Fatalf("append first exchange: %v", err)
	}
	if first.Version != 1 {
		t.Fatalf("version after first append = %d, want 1", first.Version)
	}

	second, err := svc.AppendExchange(ctx, created.ID,
		models.Message{Role: models.RoleUser, Content: "second question"},
		models.Message{Role: models.RoleAssistant, Content: "second answer"},
	)
	if err != nil {
		t.Fatalf("append second exchange: %v", err)
	}
	if second.Version != 2 {
		t.Fatalf("version after second append = %d, want 2", second.Version)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	wantContents := []string{"first question", "first answer", "second question", "second answer"}
	if len(got.Messages) != len(wantContents) {
		t.Fatalf("history has %d messages, want %d", len(got.Messages), len(wantContents))
	}
	for i, want := range wantContents {
		if got.Messages[i].Content != want {
			t.Errorf("message[%d] = %q, want %q", i, got.Messages[i].Content, want)
		}
	}
	for i, want := range []models.Role{models.RoleUser, models.RoleAssistant, models.RoleUser, models.RoleAssistant} {
		if got.Messages[i].Role != want {
			t.Errorf("message[%d] role = %q, want %q", i, got.Messages[i].Role, want)
		}
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Errorf("updated_at %v before created_at %v", got.UpdatedAt, got.CreatedAt)
	}
}

func TestAppendExchangeUnknownSession(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	_, err := svc.AppendExchange(context.Background(), "no-such-id",
		models.Message{Role: models.RoleUser, Content: "hello"},
		models.Message{Role: models.RoleAssistant, Content: "hi"},
	)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("append to unknown session error = %v, want ErrNotFound", err)
	}
}

func TestAppendExchangeConflict(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()
	ctx := context.Background()

	created, err := svc.Create(ctx, "documents/abc_paper.pdf")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	stale, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}

	// Another turn lands between this reader's Get and its write.
	if _, err := svc.AppendExchange(ctx, created.ID,
		models.Message{Role: models.RoleUser, Content: "winner question"},
		models.Message{Role: models.RoleAssistant, Content: "winner answer"},
	); err != nil {
		t.Fatalf("append winning exchange: %v", err)
	}

	_, err = svc.saveExchange(ctx, stale,
		models.Message{Role: models.RoleUser, Content: "loser question"},
		models.Message{Role: models.RoleAssistant, Content: "loser answer"},
	)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("stale write error = %v, want ErrConflict", err)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(got.Messages) != 2 || got.Messages[0].Content != "winner question" {
		t.Fatalf("history after conflict = %+v, want only the winning exchange", got.Messages)
	}
}

func TestDelete(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()
	ctx := context.Background()

	created, err := svc.Create(ctx, "documents/abc_notes.docx")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get deleted session error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}
}
