package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dreamacademy/labtrack/internal/auth"
	"dreamacademy/labtrack/internal/config"
	"dreamacademy/labtrack/internal/crypto"
	"dreamacademy/labtrack/internal/metrics"
	"dreamacademy/labtrack/internal/model"
	"dreamacademy/labtrack/internal/otp"
	"dreamacademy/labtrack/internal/session"
)

// Students with this project feed the university report.
const universityProject = "University of Moratuwa"

// Store is the persistence surface the handlers need beyond the session
// service. *repository.Store satisfies it.
type Store interface {
	session.Store
	CreateStudent(ctx context.Context, student model.Student) error
	GetStudentByID(ctx context.Context, id string) (model.Student, error)
	UpdateStudentProfile(ctx context.Context, student model.Student) error
	UpdateStudentClasses(ctx context.Context, id string, classes []string) error
	ListStudentsByCenter(ctx context.Context, center string) ([]model.Student, error)
	ListStudentsByProject(ctx context.Context, project string) ([]model.Student, error)
	CreateAdmin(ctx context.Context, admin model.Admin) error
	GetAdminByEmail(ctx context.Context, email string) (model.Admin, error)
	GetAdminByID(ctx context.Context, id string) (model.Admin, error)
	ListAdmins(ctx context.Context) ([]model.Admin, error)
}

// OTPMailer delivers verification codes. A nil mailer logs the code instead,
// which keeps local development working without an SMTP account.
type OTPMailer interface {
	SendOTP(to, code string) error
}

type Server struct {
	cfg          config.Config
	store        Store
	sessions     *session.Service
	otpStore     otp.Store
	mailer       OTPMailer
	loc          *time.Location
	otpLimiter   *ipRateLimiter
	loginLimiter *ipRateLimiter
}

func NewServer(cfg config.Config, store Store, sessions *session.Service, otpStore otp.Store, mailer OTPMailer) *Server {
	return &Server{
		cfg:          cfg,
		store:        store,
		sessions:     sessions,
		otpStore:     otpStore,
		mailer:       mailer,
		loc:          cfg.Location(),
		otpLimiter:   newIPRateLimiter(3.0/60.0, 3),
		loginLimiter: newIPRateLimiter(30.0/60.0, 10),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.With(s.rateLimit(s.otpLimiter)).Post("/send-otp", s.handleSendOTP)
	r.Post("/verify-otp", s.handleVerifyOTP)

	r.Route("/v1/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.With(s.rateLimit(s.loginLimiter)).Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.Post("/logout/{id}", s.handleLogoutByID)
			r.Get("/data/online", s.handleSessionsByCenter)
		})

		r.Route("/students", func(r chi.Router) {
			r.Post("/register", s.handleStudentRegister)
			r.Post("/verify", s.handleStudentVerify)
			r.Get("/details/{id}", s.handleStudentDetails)
			r.Get("/univercity", s.handleUniversityReport)
			r.Put("/update-classes/{id}", s.handleUpdateClasses)
			r.Put("/{id}", s.handleStudentUpdate)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/register", s.handleAdminRegister)
			r.Post("/login", s.handleAdminLogin)
			r.Get("/centers/register", s.handleCenters)
			r.Get("/data/studentsData", s.handleStudentsByCenter)
			r.Get("/{id}", s.handleAdminLookup)
		})
	})

	return r
}

type sessionJSON struct {
	ID           string     `json:"id"`
	FullName     string     `json:"fullname"`
	StudentID    string     `json:"studentId"`
	LoginTime    time.Time  `json:"logintime"`
	LogoutTime   *time.Time `json:"logouttime,omitempty"`
	PCID         string     `json:"pcId"`
	Status       string     `json:"status"`
	Center       string     `json:"center"`
	Project      *string    `json:"project"`
	Homework     *string    `json:"homework"`
	Certificates *string    `json:"certificates"`
}

func (s *Server) sessionToJSON(sess model.Session) sessionJSON {
	out := sessionJSON{
		ID:           sess.ID,
		FullName:     sess.FullName,
		StudentID:    sess.StudentID,
		LoginTime:    sess.LoginTime.In(s.loc),
		PCID:         sess.PCID,
		Status:       sess.Status,
		Center:       sess.Center,
		Project:      sess.Project,
		Homework:     sess.Homework,
		Certificates: sess.Certificates,
	}
	if sess.LogoutTime != nil {
		t := sess.LogoutTime.In(s.loc)
		out.LogoutTime = &t
	}
	return out
}

type studentJSON struct {
	ID            string    `json:"id"`
	FullName      string    `json:"fullName"`
	StudentID     string    `json:"studentId"`
	Grade         string    `json:"grade"`
	GN            string    `json:"gn"`
	DOB           string    `json:"dob"`
	Gender        string    `json:"gender"`
	PhoneNumber   string    `json:"phoneNumber"`
	ParentNumber  string    `json:"parentNumber"`
	Address       string    `json:"address"`
	Center        string    `json:"center"`
	Project       *string   `json:"project"`
	Homework      *string   `json:"homework"`
	Certificates  *string   `json:"certificates"`
	Classes       []string  `json:"classes"`
	StudentStatus string    `json:"studentStatus"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (s *Server) studentToJSON(student model.Student) studentJSON {
	classes := student.Classes
	if classes == nil {
		classes = []string{}
	}
	return studentJSON{
		ID:            student.ID,
		FullName:      student.FullName,
		StudentID:     student.StudentID,
		Grade:         student.Grade,
		GN:            student.GN,
		DOB:           student.DOB,
		Gender:        student.Gender,
		PhoneNumber:   student.PhoneNumber,
		ParentNumber:  student.ParentNumber,
		Address:       student.Address,
		Center:        student.Center,
		Project:       student.Project,
		Homework:      student.Homework,
		Certificates:  student.Certificates,
		Classes:       classes,
		StudentStatus: student.Status,
		CreatedAt:     student.CreatedAt.In(s.loc),
	}
}

// ---- session routes ----

type loginRequest struct {
	StudentID    string  `json:"studentId"`
	Password     string  `json:"password"`
	PCID         string  `json:"pcId"`
	Project      *string `json:"project"`
	Homework     *string `json:"homework"`
	Certificates *string `json:"certificates"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := s.sessions.Login(r.Context(), session.LoginInput{
		StudentID:    req.StudentID,
		Password:     req.Password,
		PCID:         req.PCID,
		Project:      req.Project,
		Homework:     req.Homework,
		Certificates: req.Certificates,
	})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrStudentNotFound):
			metrics.Logins.WithLabelValues("not_found").Inc()
			writeMessage(w, http.StatusNotFound, "Username not found")
		case errors.Is(err, session.ErrBadPassword):
			metrics.Logins.WithLabelValues("bad_password").Inc()
			writeMessage(w, http.StatusUnauthorized, "Incorrect password")
		case errors.Is(err, session.ErrDropout):
			metrics.Logins.WithLabelValues("dropout").Inc()
			writeMessage(w, http.StatusForbidden, "You are currently marked as a dropout. Please contact the center for assistance.")
		case errors.Is(err, session.ErrStudentActive):
			metrics.Logins.WithLabelValues("student_conflict").Inc()
			writeMessage(w, http.StatusConflict, "User already logged in")
		case errors.Is(err, session.ErrPCActive):
			metrics.Logins.WithLabelValues("pc_conflict").Inc()
			writeMessage(w, http.StatusConflict, "PC already in use")
		default:
			metrics.Logins.WithLabelValues("error").Inc()
			log.Printf("login error: %v", err)
			writeMessage(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	token, err := auth.NewSessionToken(s.cfg.JWTSecret, s.cfg.TokenTTL, sess.ID, sess.StudentID)
	if err != nil {
		metrics.Logins.WithLabelValues("error").Inc()
		log.Printf("token error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	metrics.Logins.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":   token,
		"message": "Login successful",
		"user": map[string]string{
			"fullname":  sess.FullName,
			"studentId": sess.StudentID,
		},
	})
}

type logoutRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSON(r, &req); err != nil || req.Token == "" {
		writeMessage(w, http.StatusUnauthorized, "Invalid token or expired session")
		return
	}

	claims, err := auth.ParseSessionToken(s.cfg.JWTSecret, req.Token)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid token or expired session")
		return
	}

	if _, err := s.sessions.Logout(r.Context(), claims.SessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeMessage(w, http.StatusNotFound, "User not found or already logged out")
			return
		}
		log.Printf("logout error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeMessage(w, http.StatusOK, "Logout successful")
}

func (s *Server) handleLogoutByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := s.sessions.Logout(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("logout error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Logout successful",
		"user":    s.sessionToJSON(sess),
	})
}

func (s *Server) handleSessionsByCenter(w http.ResponseWriter, r *http.Request) {
	center := r.URL.Query().Get("center")

	sessions, err := s.sessions.SessionsByCenter(r.Context(), center)
	if err != nil {
		log.Printf("sessions by center error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch user data")
		return
	}

	out := make([]sessionJSON, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, s.sessionToJSON(sess))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": out})
}

// ---- student routes ----

type studentRegisterRequest struct {
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	StudentID    string   `json:"studentId"`
	Password     string   `json:"password"`
	Grade        string   `json:"grade"`
	GN           string   `json:"gn"`
	DOB          string   `json:"dob"`
	Gender       string   `json:"gender"`
	PhoneNumber  string   `json:"phoneNumber"`
	ParentNumber string   `json:"parentNumber"`
	Address      string   `json:"address"`
	Center       string   `json:"center"`
	Project      *string  `json:"project"`
	Homework     *string  `json:"homework"`
	Certificates *string  `json:"certificates"`
	Classes      []string `json:"classes"`
}

func (s *Server) handleStudentRegister(w http.ResponseWriter, r *http.Request) {
	var req studentRegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	required := []string{
		req.FirstName, req.LastName, req.StudentID, req.Password, req.Grade,
		req.GN, req.DOB, req.Gender, req.PhoneNumber, req.ParentNumber,
		req.Address, req.Center,
	}
	for _, field := range required {
		if strings.TrimSpace(field) == "" {
			writeError(w, http.StatusBadRequest, "All fields are required")
			return
		}
	}

	if _, err := s.store.GetStudentByStudentID(r.Context(), req.StudentID); err == nil {
		writeError(w, http.StatusConflict, "Student ID already exists")
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("student lookup error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to register Student")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		log.Printf("hash error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to register Student")
		return
	}

	student := model.Student{
		ID:           uuid.NewString(),
		FullName:     capitalize(req.FirstName) + " " + capitalize(req.LastName),
		StudentID:    req.StudentID,
		PasswordHash: hash,
		Grade:        req.Grade,
		GN:           req.GN,
		DOB:          req.DOB,
		Gender:       req.Gender,
		PhoneNumber:  req.PhoneNumber,
		ParentNumber: req.ParentNumber,
		Address:      req.Address,
		Center:       req.Center,
		Project:      req.Project,
		Homework:     req.Homework,
		Certificates: req.Certificates,
		Classes:      dedupe(req.Classes),
		Status:       model.StudentStatusCome,
		CreatedAt:    time.Now().In(s.loc),
	}
	if err := s.store.CreateStudent(r.Context(), student); err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "Student ID already exists")
			return
		}
		log.Printf("create student error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to register Student")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Student registered successfully"})
}

type studentVerifyRequest struct {
	StudentID string `json:"studentId"`
	Password  string `json:"password"`
}

func (s *Server) handleStudentVerify(w http.ResponseWriter, r *http.Request) {
	var req studentVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	student, err := s.store.GetStudentByStudentID(r.Context(), req.StudentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Student not found")
			return
		}
		log.Printf("student lookup error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to verify student credentials")
		return
	}

	if student.Status == model.StudentStatusDropout {
		writeError(w, http.StatusForbidden, "You are currently marked as a dropout. Please contact the center for assistance.")
		return
	}

	if err := crypto.CheckPassword(student.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"fullname": student.FullName,
		"id":       student.ID,
	})
}

func (s *Server) handleStudentDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	student, err := s.store.GetStudentByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeMessage(w, http.StatusNotFound, "Student not found")
			return
		}
		log.Printf("student details error: %v", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	writeJSON(w, http.StatusOK, s.studentToJSON(student))
}

type studentUpdateRequest struct {
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	FullName      *string `json:"fullName"`
	Grade         *string `json:"grade"`
	GN            *string `json:"gn"`
	DOB           *string `json:"dob"`
	Gender        *string `json:"gender"`
	PhoneNumber   *string `json:"phoneNumber"`
	ParentNumber  *string `json:"parentNumber"`
	Address       *string `json:"address"`
	Center        *string `json:"center"`
	StudentStatus *string `json:"studentStatus"`
}

func (s *Server) handleStudentUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req studentUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	student, err := s.store.GetStudentByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeMessage(w, http.StatusNotFound, "Student not found")
			return
		}
		log.Printf("student lookup error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Error updating student")
		return
	}

	if req.FirstName != nil || req.LastName != nil {
		first, last := splitFullName(student.FullName)
		if req.FirstName != nil {
			first = *req.FirstName
		}
		if req.LastName != nil {
			last = *req.LastName
		}
		student.FullName = capitalize(first) + " " + capitalize(last)
	}
	if req.FullName != nil {
		student.FullName = *req.FullName
	}
	applyIfSet(&student.Grade, req.Grade)
	applyIfSet(&student.GN, req.GN)
	applyIfSet(&student.DOB, req.DOB)
	applyIfSet(&student.Gender, req.Gender)
	applyIfSet(&student.PhoneNumber, req.PhoneNumber)
	applyIfSet(&student.ParentNumber, req.ParentNumber)
	applyIfSet(&student.Address, req.Address)
	applyIfSet(&student.Center, req.Center)

	if req.StudentStatus != nil {
		status := *req.StudentStatus
		if status != model.StudentStatusCome && status != model.StudentStatusDropout {
			writeMessage(w, http.StatusBadRequest, "Invalid student status")
			return
		}
		student.Status = status
	}

	if err := s.store.UpdateStudentProfile(r.Context(), student); err != nil {
		log.Printf("update student error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Error updating student")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Student updated successfully",
		"student": s.studentToJSON(student),
	})
}

type updateClassesRequest struct {
	Classes []string `json:"classes"`
}

func (s *Server) handleUpdateClasses(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateClassesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	student, err := s.store.GetStudentByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeMessage(w, http.StatusNotFound, "Student not found")
			return
		}
		log.Printf("student lookup error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	classes := dedupe(req.Classes)
	if err := s.store.UpdateStudentClasses(r.Context(), student.ID, classes); err != nil {
		log.Printf("update classes error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	student.Classes = classes

	writeJSON(w, http.StatusOK, s.studentToJSON(student))
}

func (s *Server) handleUniversityReport(w http.ResponseWriter, r *http.Request) {
	students, err := s.store.ListStudentsByProject(r.Context(), universityProject)
	if err != nil {
		log.Printf("university report error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	type entry struct {
		FullName     string  `json:"fullName"`
		Certificates *string `json:"certificates"`
		Center       string  `json:"center"`
	}

	seen := map[string]bool{}
	out := []entry{}
	for _, student := range students {
		if seen[student.FullName] {
			continue
		}
		seen[student.FullName] = true
		out = append(out, entry{
			FullName:     student.FullName,
			Certificates: student.Certificates,
			Center:       student.Center,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"students": out})
}

// ---- admin routes ----

type adminRegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	GoogleSheet string `json:"googlesheet"`
	IDModel     string `json:"Idmodel"`
	Center      string `json:"center"`
}

func (s *Server) handleAdminRegister(w http.ResponseWriter, r *http.Request) {
	var req adminRegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" || req.GoogleSheet == "" || req.IDModel == "" || req.Center == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	if _, err := s.store.GetAdminByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusConflict, "Email is already registered")
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("admin lookup error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		log.Printf("hash error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	admin := model.Admin{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		GoogleSheet:  req.GoogleSheet,
		IDModel:      req.IDModel,
		Center:       req.Center,
		CreatedAt:    time.Now().In(s.loc),
	}
	if err := s.store.CreateAdmin(r.Context(), admin); err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "Email is already registered")
			return
		}
		log.Printf("create admin error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Admin registered successfully"})
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Both email and password are required")
		return
	}

	admin, err := s.store.GetAdminByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Printf("admin lookup error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := crypto.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Login successful",
		"id":      admin.ID,
		"email":   admin.Email,
	})
}

func (s *Server) handleAdminLookup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	admin, err := s.store.GetAdminByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Admin not found")
			return
		}
		log.Printf("admin lookup error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"email":  admin.Email,
		"center": admin.Center,
	})
}

func (s *Server) handleCenters(w http.ResponseWriter, r *http.Request) {
	admins, err := s.store.ListAdmins(r.Context())
	if err != nil {
		log.Printf("list admins error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch centers")
		return
	}

	centers := []string{}
	idModels := []string{}
	seenCenter := map[string]bool{}
	seenModel := map[string]bool{}
	for _, admin := range admins {
		if !seenCenter[admin.Center] {
			seenCenter[admin.Center] = true
			centers = append(centers, admin.Center)
		}
		if !seenModel[admin.IDModel] {
			seenModel[admin.IDModel] = true
			idModels = append(idModels, admin.IDModel)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"centers": centers,
		"Idmodel": idModels,
	})
}

func (s *Server) handleStudentsByCenter(w http.ResponseWriter, r *http.Request) {
	center := r.URL.Query().Get("center")
	if center == "" {
		writeError(w, http.StatusBadRequest, "Center is required")
		return
	}

	students, err := s.store.ListStudentsByCenter(r.Context(), center)
	if err != nil {
		log.Printf("students by center error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]studentJSON, 0, len(students))
	for _, student := range students {
		out = append(out, s.studentToJSON(student))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalStudents": len(out),
		"studentsData":  out,
	})
}

// ---- OTP routes ----

type sendOTPRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Email is required.")
		return
	}

	code, err := otp.Generate()
	if err != nil {
		log.Printf("otp generate error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to send OTP. Please try again.")
		return
	}

	if err := s.otpStore.Put(r.Context(), req.Email, code); err != nil {
		log.Printf("otp store error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to send OTP. Please try again.")
		return
	}

	if s.mailer == nil {
		log.Printf("otp mail disabled, code for %s: %s", req.Email, code)
	} else if err := s.mailer.SendOTP(req.Email, code); err != nil {
		log.Printf("otp mail error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to send OTP. Please try again.")
		return
	}

	metrics.OTPSent.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent successfully!"})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" || req.OTP == "" {
		writeError(w, http.StatusBadRequest, "Email and OTP are required.")
		return
	}

	ok, err := s.otpStore.Consume(r.Context(), req.Email, req.OTP)
	if err != nil {
		log.Printf("otp verify error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid or expired OTP.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP verified successfully!"})
}

// ---- helpers ----

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func capitalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	runes := []rune(strings.ToLower(name))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func splitFullName(fullName string) (string, string) {
	parts := strings.SplitN(fullName, " ", 2)
	if len(parts) < 2 {
		return fullName, ""
	}
	return parts[0], parts[1]
}

func applyIfSet(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func dedupe(values []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, value := range values {
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	return out
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
