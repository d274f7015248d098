package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dreamacademy/labtrack/internal/db"
	"dreamacademy/labtrack/internal/model"
)

func openTestDB(t *testing.T) *pgxpool.Pool {
	url := os.Getenv("LABTRACK_TEST_DB")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("LABTRACK_TEST_DB or DATABASE_URL not set")
		return nil
	}
	if err := db.RunMigrations(url); err != nil {
		t.Skipf("migrations failed: %v", err)
		return nil
	}
	pool, err := db.NewPool(context.Background(), url)
	if err != nil {
		t.Skipf("db unavailable: %v", err)
		return nil
	}
	return pool
}

func seedStudent(t *testing.T, store *Store, studentID string) model.Student {
	t.Helper()
	student := model.Student{
		ID:           uuid.NewString(),
		FullName:     "Test " + studentID,
		StudentID:    studentID,
		PasswordHash: "x",
		Grade:        "10",
		GN:           "GN-1",
		DOB:          "2008-01-01",
		Gender:       "female",
		PhoneNumber:  "0770000000",
		ParentNumber: "0771111111",
		Address:      "Main Street",
		Center:       "Jaffna",
		Classes:      []string{"Mon 9-11"},
		Status:       model.StudentStatusCome,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.CreateStudent(context.Background(), student); err != nil {
		t.Fatalf("create student: %v", err)
	}
	return student
}

func activeSession(student model.Student, pcID string) model.Session {
	return model.Session{
		ID:        uuid.NewString(),
		FullName:  student.FullName,
		StudentID: student.StudentID,
		PCID:      pcID,
		Center:    student.Center,
		LoginTime: time.Now().UTC(),
		Status:    model.SessionStatusActive,
	}
}

func TestSessionUniquenessConstraints(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()
	ctx := context.Background()
	store := NewStore(pool)

	s1 := seedStudent(t, store, "IT-"+uuid.NewString()[:8])
	s2 := seedStudent(t, store, "IT-"+uuid.NewString()[:8])
	pc := "pc-" + uuid.NewString()[:8]

	first := activeSession(s1, pc)
	if err := store.CreateSession(ctx, first); err != nil {
		t.Fatalf("create session: %v", err)
	}

	var pgErr *pgconn.PgError

	// Second active session for the same student.
	err := store.CreateSession(ctx, activeSession(s1, "pc-"+uuid.NewString()[:8]))
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" || pgErr.ConstraintName != "sessions_one_active_per_student" {
		t.Fatalf("expected student unique violation, got %v", err)
	}

	// Second active session on the same PC, different student.
	err = store.CreateSession(ctx, activeSession(s2, pc))
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" || pgErr.ConstraintName != "sessions_one_active_per_pc" {
		t.Fatalf("expected pc unique violation, got %v", err)
	}

	// Closing the session frees both the student and the PC.
	if err := store.CloseSession(ctx, first.ID, time.Now().UTC()); err != nil {
		t.Fatalf("close session: %v", err)
	}
	if _, err := store.GetActiveSessionByStudent(ctx, s1.StudentID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected no active session for student, got %v", err)
	}
	if err := store.CreateSession(ctx, activeSession(s2, pc)); err != nil {
		t.Fatalf("expected pc to be free after close: %v", err)
	}
}

func TestCloseSessionKeepsFirstLogoutTime(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()
	ctx := context.Background()
	store := NewStore(pool)

	student := seedStudent(t, store, "IT-"+uuid.NewString()[:8])
	sess := activeSession(student, "pc-"+uuid.NewString()[:8])
	if err := store.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	first := time.Now().UTC().Truncate(time.Microsecond)
	if err := store.CloseSession(ctx, sess.ID, first); err != nil {
		t.Fatalf("close session: %v", err)
	}
	if err := store.CloseSession(ctx, sess.ID, first.Add(time.Hour)); err != nil {
		t.Fatalf("second close: %v", err)
	}

	got, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Status != model.SessionStatusInactive {
		t.Fatalf("expected inactive, got %s", got.Status)
	}
	if got.LogoutTime == nil || !got.LogoutTime.Equal(first) {
		t.Fatalf("expected first logout time %v, got %v", first, got.LogoutTime)
	}
}

func TestCloseAllActiveReportsCount(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()
	ctx := context.Background()
	store := NewStore(pool)

	// Start from a clean slate so the count is deterministic.
	if _, err := store.CloseAllActive(ctx, time.Now().UTC()); err != nil {
		t.Fatalf("pre-close: %v", err)
	}

	for i := 0; i < 3; i++ {
		student := seedStudent(t, store, "IT-"+uuid.NewString()[:8])
		if err := store.CreateSession(ctx, activeSession(student, "pc-"+uuid.NewString()[:8])); err != nil {
			t.Fatalf("create session: %v", err)
		}
	}

	closed, err := store.CloseAllActive(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("close all: %v", err)
	}
	if closed != 3 {
		t.Fatalf("expected 3 closed, got %d", closed)
	}

	closed, err = store.CloseAllActive(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("re-close: %v", err)
	}
	if closed != 0 {
		t.Fatalf("expected idempotent re-run, got %d", closed)
	}
}

func TestStudentRoundTrip(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()
	ctx := context.Background()
	store := NewStore(pool)

	student := seedStudent(t, store, "IT-"+uuid.NewString()[:8])

	got, err := store.GetStudentByStudentID(ctx, student.StudentID)
	if err != nil {
		t.Fatalf("get by student id: %v", err)
	}
	if got.ID != student.ID || got.FullName != student.FullName {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	project := "University of Moratuwa"
	if err := store.UpdateStudentSessionMeta(ctx, student.ID, &project, nil, nil); err != nil {
		t.Fatalf("update session meta: %v", err)
	}
	got, err = store.GetStudentByID(ctx, student.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Project == nil || *got.Project != project {
		t.Fatalf("expected project set, got %v", got.Project)
	}
	if got.Homework != nil {
		t.Fatalf("expected homework cleared, got %v", got.Homework)
	}

	if err := store.UpdateStudentClasses(ctx, student.ID, []string{"Wed 14-16"}); err != nil {
		t.Fatalf("update classes: %v", err)
	}
	got, _ = store.GetStudentByID(ctx, student.ID)
	if len(got.Classes) != 1 || got.Classes[0] != "Wed 14-16" {
		t.Fatalf("expected classes replaced, got %v", got.Classes)
	}
}
