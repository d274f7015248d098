package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dreamacademy/labtrack/internal/model"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const studentColumns = `id, full_name, student_id, password_hash, grade, gn, dob, gender,
    phone_number, parent_number, address, center, project, homework, certificates,
    classes, student_status, created_at`

func scanStudent(row interface{ Scan(...any) error }) (model.Student, error) {
	var s model.Student
	err := row.Scan(
		&s.ID,
		&s.FullName,
		&s.StudentID,
		&s.PasswordHash,
		&s.Grade,
		&s.GN,
		&s.DOB,
		&s.Gender,
		&s.PhoneNumber,
		&s.ParentNumber,
		&s.Address,
		&s.Center,
		&s.Project,
		&s.Homework,
		&s.Certificates,
		&s.Classes,
		&s.Status,
		&s.CreatedAt,
	)
	return s, err
}

func (s *Store) CreateStudent(ctx context.Context, student model.Student) error {
	_, err := s.pool.Exec(ctx, `
    INSERT INTO students (`+studentColumns+`)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
  `,
		student.ID,
		student.FullName,
		student.StudentID,
		student.PasswordHash,
		student.Grade,
		student.GN,
		student.DOB,
		student.Gender,
		student.PhoneNumber,
		student.ParentNumber,
		student.Address,
		student.Center,
		student.Project,
		student.Homework,
		student.Certificates,
		student.Classes,
		student.Status,
		student.CreatedAt,
	)
	return err
}

func (s *Store) GetStudentByStudentID(ctx context.Context, studentID string) (model.Student, error) {
	row := s.pool.QueryRow(ctx, `
    SELECT `+studentColumns+`
    FROM students
    WHERE student_id = $1
  `, studentID)
	return scanStudent(row)
}

func (s *Store) GetStudentByID(ctx context.Context, id string) (model.Student, error) {
	row := s.pool.QueryRow(ctx, `
    SELECT `+studentColumns+`
    FROM students
    WHERE id = $1
  `, id)
	return scanStudent(row)
}

// UpdateStudentProfile overwrites the mutable profile fields. Credential,
// session-intent fields and classes have their own writers.
func (s *Store) UpdateStudentProfile(ctx context.Context, student model.Student) error {
	_, err := s.pool.Exec(ctx, `
    UPDATE students
    SET full_name = $1, grade = $2, gn = $3, dob = $4, gender = $5,
        phone_number = $6, parent_number = $7, address = $8, center = $9,
        student_status = $10
    WHERE id = $11
  `,
		student.FullName,
		student.Grade,
		student.GN,
		student.DOB,
		student.Gender,
		student.PhoneNumber,
		student.ParentNumber,
		student.Address,
		student.Center,
		student.Status,
		student.ID,
	)
	return err
}

func (s *Store) UpdateStudentClasses(ctx context.Context, id string, classes []string) error {
	_, err := s.pool.Exec(ctx, `
    UPDATE students SET classes = $1 WHERE id = $2
  `, classes, id)
	return err
}

// UpdateStudentSessionMeta overwrites the session-intent fields written on
// every successful login.
func (s *Store) UpdateStudentSessionMeta(ctx context.Context, id string, project, homework, certificates *string) error {
	_, err := s.pool.Exec(ctx, `
    UPDATE students SET project = $1, homework = $2, certificates = $3 WHERE id = $4
  `, project, homework, certificates, id)
	return err
}

func (s *Store) ListStudentsByCenter(ctx context.Context, center string) ([]model.Student, error) {
	rows, err := s.pool.Query(ctx, `
    SELECT `+studentColumns+`
    FROM students
    WHERE center = $1
    ORDER BY created_at
  `, center)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

func (s *Store) ListStudentsByProject(ctx context.Context, project string) ([]model.Student, error) {
	rows, err := s.pool.Query(ctx, `
    SELECT `+studentColumns+`
    FROM students
    WHERE project = $1
    ORDER BY created_at
  `, project)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

func (s *Store) CreateAdmin(ctx context.Context, admin model.Admin) error {
	_, err := s.pool.Exec(ctx, `
    INSERT INTO admins (id, email, password_hash, googlesheet, idmodel, center, created_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
  `, admin.ID, admin.Email, admin.PasswordHash, admin.GoogleSheet, admin.IDModel, admin.Center, admin.CreatedAt)
	return err
}

func (s *Store) GetAdminByEmail(ctx context.Context, email string) (model.Admin, error) {
	var admin model.Admin
	row := s.pool.QueryRow(ctx, `
    SELECT id, email, password_hash, googlesheet, idmodel, center, created_at
    FROM admins
    WHERE email = $1
  `, email)
	err := row.Scan(&admin.ID, &admin.Email, &admin.PasswordHash, &admin.GoogleSheet, &admin.IDModel, &admin.Center, &admin.CreatedAt)
	return admin, err
}

func (s *Store) GetAdminByID(ctx context.Context, id string) (model.Admin, error) {
	var admin model.Admin
	row := s.pool.QueryRow(ctx, `
    SELECT id, email, password_hash, googlesheet, idmodel, center, created_at
    FROM admins
    WHERE id = $1
  `, id)
	err := row.Scan(&admin.ID, &admin.Email, &admin.PasswordHash, &admin.GoogleSheet, &admin.IDModel, &admin.Center, &admin.CreatedAt)
	return admin, err
}

func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	rows, err := s.pool.Query(ctx, `
    SELECT id, email, password_hash, googlesheet, idmodel, center, created_at
    FROM admins
    ORDER BY created_at
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	admins := []model.Admin{}
	for rows.Next() {
		var admin model.Admin
		if err := rows.Scan(&admin.ID, &admin.Email, &admin.PasswordHash, &admin.GoogleSheet, &admin.IDModel, &admin.Center, &admin.CreatedAt); err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}
	return admins, rows.Err()
}

const sessionColumns = `id, fullname, student_id, pc_id, center, project, homework,
    certificates, login_time, logout_time, status`

func scanSession(row interface{ Scan(...any) error }) (model.Session, error) {
	var sess model.Session
	err := row.Scan(
		&sess.ID,
		&sess.FullName,
		&sess.StudentID,
		&sess.PCID,
		&sess.Center,
		&sess.Project,
		&sess.Homework,
		&sess.Certificates,
		&sess.LoginTime,
		&sess.LogoutTime,
		&sess.Status,
	)
	return sess, err
}

func (s *Store) CreateSession(ctx context.Context, sess model.Session) error {
	_, err := s.pool.Exec(ctx, `
    INSERT INTO sessions (`+sessionColumns+`)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
  `,
		sess.ID,
		sess.FullName,
		sess.StudentID,
		sess.PCID,
		sess.Center,
		sess.Project,
		sess.Homework,
		sess.Certificates,
		sess.LoginTime,
		sess.LogoutTime,
		sess.Status,
	)
	return err
}

func (s *Store) GetSession(ctx context.Context, id string) (model.Session, error) {
	row := s.pool.QueryRow(ctx, `
    SELECT `+sessionColumns+`
    FROM sessions
    WHERE id = $1
  `, id)
	return scanSession(row)
}

func (s *Store) GetActiveSessionByStudent(ctx context.Context, studentID string) (model.Session, error) {
	row := s.pool.QueryRow(ctx, `
    SELECT `+sessionColumns+`
    FROM sessions
    WHERE student_id = $1 AND status = 'active'
  `, studentID)
	return scanSession(row)
}

func (s *Store) GetActiveSessionByPC(ctx context.Context, pcID string) (model.Session, error) {
	row := s.pool.QueryRow(ctx, `
    SELECT `+sessionColumns+`
    FROM sessions
    WHERE pc_id = $1 AND status = 'active'
  `, pcID)
	return scanSession(row)
}

// CloseSession marks a session inactive. The status guard keeps the first
// logout timestamp: closing an already-inactive session is a no-op.
func (s *Store) CloseSession(ctx context.Context, id string, logoutAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
    UPDATE sessions
    SET status = 'inactive', logout_time = $1
    WHERE id = $2 AND status = 'active'
  `, logoutAt, id)
	return err
}

// CloseAllActive terminates every active session in one statement; used by
// the midnight sweep.
func (s *Store) CloseAllActive(ctx context.Context, logoutAt time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
    UPDATE sessions
    SET status = 'inactive', logout_time = $1
    WHERE status = 'active'
  `, logoutAt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) ListSessionsByCenter(ctx context.Context, center string) ([]model.Session, error) {
	rows, err := s.pool.Query(ctx, `
    SELECT `+sessionColumns+`
    FROM sessions
    WHERE center = $1
    ORDER BY login_time
  `, center)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []model.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
