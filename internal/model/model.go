package model

import "time"

const (
	StudentStatusCome    = "come"
	StudentStatusDropout = "dropout"
)

const (
	SessionStatusActive   = "active"
	SessionStatusInactive = "inactive"
)

type Student struct {
	ID           string
	FullName     string
	StudentID    string
	PasswordHash string
	Grade        string
	GN           string
	DOB          string
	Gender       string
	PhoneNumber  string
	ParentNumber string
	Address      string
	Center       string
	Project      *string
	Homework     *string
	Certificates *string
	Classes      []string
	Status       string
	CreatedAt    time.Time
}

type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	GoogleSheet  string
	IDModel      string
	Center       string
	CreatedAt    time.Time
}

// Session is one student's logged-in period on one PC. FullName and Center
// are snapshots taken at login time, not live references to the student.
type Session struct {
	ID           string
	FullName     string
	StudentID    string
	PCID         string
	Center       string
	Project      *string
	Homework     *string
	Certificates *string
	LoginTime    time.Time
	LogoutTime   *time.Time
	Status       string
}
