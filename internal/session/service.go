// Package session holds the admission and lifecycle rules for PC logins:
// at most one active session per student, at most one active session per
// physical PC (global across centers), and idempotent termination.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"dreamacademy/labtrack/internal/crypto"
	"dreamacademy/labtrack/internal/model"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrBadPassword     = errors.New("incorrect password")
	ErrDropout         = errors.New("student marked as dropout")
	ErrStudentActive   = errors.New("student already has an active session")
	ErrPCActive        = errors.New("pc already has an active session")
)

// Store is the persistence surface the admission and lifecycle logic needs.
// Lookups report missing rows as pgx.ErrNoRows.
type Store interface {
	GetStudentByStudentID(ctx context.Context, studentID string) (model.Student, error)
	UpdateStudentSessionMeta(ctx context.Context, id string, project, homework, certificates *string) error
	CreateSession(ctx context.Context, sess model.Session) error
	GetSession(ctx context.Context, id string) (model.Session, error)
	GetActiveSessionByStudent(ctx context.Context, studentID string) (model.Session, error)
	GetActiveSessionByPC(ctx context.Context, pcID string) (model.Session, error)
	CloseSession(ctx context.Context, id string, logoutAt time.Time) error
	CloseAllActive(ctx context.Context, logoutAt time.Time) (int64, error)
	ListSessionsByCenter(ctx context.Context, center string) ([]model.Session, error)
}

type Service struct {
	store Store
	loc   *time.Location
}

func NewService(store Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc}
}

func (s *Service) Now() time.Time {
	return time.Now().In(s.loc)
}

type LoginInput struct {
	StudentID    string
	Password     string
	PCID         string
	Project      *string
	Homework     *string
	Certificates *string
}

// Login runs the admission checks in their externally observable order:
// student exists, password matches, not a dropout, no active session for the
// student, no active session for the PC. On success the student's
// session-intent fields are overwritten and a new active session is created.
func (s *Service) Login(ctx context.Context, in LoginInput) (model.Session, error) {
	student, err := s.store.GetStudentByStudentID(ctx, in.StudentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, ErrStudentNotFound
		}
		return model.Session{}, err
	}

	if err := crypto.CheckPassword(student.PasswordHash, in.Password); err != nil {
		return model.Session{}, ErrBadPassword
	}

	if student.Status == model.StudentStatusDropout {
		return model.Session{}, ErrDropout
	}

	if _, err := s.store.GetActiveSessionByStudent(ctx, student.StudentID); err == nil {
		return model.Session{}, ErrStudentActive
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return model.Session{}, err
	}

	if _, err := s.store.GetActiveSessionByPC(ctx, in.PCID); err == nil {
		return model.Session{}, ErrPCActive
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return model.Session{}, err
	}

	if err := s.store.UpdateStudentSessionMeta(ctx, student.ID, in.Project, in.Homework, in.Certificates); err != nil {
		return model.Session{}, err
	}

	sess := model.Session{
		ID:           uuid.NewString(),
		FullName:     student.FullName,
		StudentID:    student.StudentID,
		PCID:         in.PCID,
		Center:       student.Center,
		Project:      in.Project,
		Homework:     in.Homework,
		Certificates: in.Certificates,
		LoginTime:    s.Now(),
		Status:       model.SessionStatusActive,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		// The partial unique indexes close the check-then-act race: a
		// concurrent login that won the insert surfaces here as 23505.
		return model.Session{}, admissionConflict(err)
	}
	return sess, nil
}

func admissionConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	if pgErr.ConstraintName == "sessions_one_active_per_pc" {
		return ErrPCActive
	}
	return ErrStudentActive
}

// Logout terminates a session exactly once. Terminating an already-inactive
// session returns the session untouched, first logout timestamp preserved.
func (s *Service) Logout(ctx context.Context, sessionID string) (model.Session, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return model.Session{}, err
	}
	if sess.Status == model.SessionStatusInactive {
		return sess, nil
	}

	now := s.Now()
	if err := s.store.CloseSession(ctx, sessionID, now); err != nil {
		return model.Session{}, err
	}
	sess.Status = model.SessionStatusInactive
	sess.LogoutTime = &now
	return sess, nil
}

// CloseAll terminates every active session; the sweep's batch pass. It is
// a single idempotent update, so re-running it is harmless.
func (s *Service) CloseAll(ctx context.Context) (int64, error) {
	return s.store.CloseAllActive(ctx, s.Now())
}

func (s *Service) SessionsByCenter(ctx context.Context, center string) ([]model.Session, error) {
	return s.store.ListSessionsByCenter(ctx, center)
}
