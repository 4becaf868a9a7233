package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"hyperleaf/domain/core"
	"hyperleaf/internal"
	"hyperleaf/internal/errors"
	"hyperleaf/models"
	"hyperleaf/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	maxUploadBytes = 64 << 20
	timeLayout     = "2006-01-02T15:04:05.999999"
)

type ctxKey struct{}

// Server is a development stand-in for the prediction service. It speaks
// the same HTTP contract and answers predictions from canned fixtures.
type Server struct {
	users       ports.UserRepository
	predictions ports.PredictionRepository
	origins     []string
	logger      *internal.Logger
}

// NewServer creates the development prediction service
func NewServer(users ports.UserRepository, predictions ports.PredictionRepository, origins []string, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Server{users: users, predictions: predictions, origins: origins, logger: logger}
}

// Seed creates the development accounts, skipping ones that already exist
func (s *Server) Seed(ctx context.Context) error {
	for _, u := range SeedUsers() {
		user := u
		if err := s.users.CreateUser(ctx, &user); err != nil && !errors.HasCode(err, errors.CodeConflict) {
			return errors.Wrapf(err, "seed user %s", u.Username)
		}
	}
	return nil
}

// Routes builds the chi router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"http://localhost:8080", "http://127.0.0.1:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "HyperLeaf AI API is running"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/auth/me", s.handleMe)
		r.Post("/api/predict", s.handlePredict)
		r.Get("/api/dashboard", s.handleDashboard)
		r.Get("/api/admin/users", s.handleAdminUsers)
	})

	return r
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if token == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		user, err := s.users.GetUserByToken(r.Context(), token)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
	})
}

func currentUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(ctxKey{}).(*models.User)
	return u
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userJSON(currentUser(r)))
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "expected multipart form")
		return
	}

	area, errArea := strconv.ParseFloat(strings.TrimSpace(r.FormValue("field_area")), 64)
	rate, errRate := strconv.ParseFloat(strings.TrimSpace(r.FormValue("fertilizer_rate")), 64)
	if errArea != nil || errRate != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "field_area and fertilizer_rate must be numbers")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil || len(image) == 0 {
		writeDetail(w, http.StatusBadRequest, "Invalid TIFF file: empty upload")
		return
	}

	fixture := PickFixture(image)
	payload := fixture.Payload(area, rate)
	body, err := json.Marshal(payload)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Inference failed")
		return
	}

	pred := &models.Prediction{
		UserID:    user.ID,
		ImagePath: "uploads/" + core.DigestOf(image).Short() + "_" + filepath.Base(header.Filename),
		Payload:   body,
	}
	if err := s.predictions.SavePrediction(r.Context(), pred); err != nil {
		s.logger.Error("[upstream] save prediction: %v", err)
		writeDetail(w, http.StatusInternalServerError, "could not store prediction")
		return
	}

	s.logger.Info("[upstream] prediction %d for %s: %s", pred.ID, user.Username, fixture.Cultivar)
	writeJSON(w, http.StatusOK, withMeta(payload, pred))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var owner *int64
	if user.IsAdmin() {
		if raw := r.URL.Query().Get("user_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				writeDetail(w, http.StatusUnprocessableEntity, "user_id must be an integer")
				return
			}
			if id != 0 {
				owner = &id
			}
		}
	} else {
		id := user.ID
		owner = &id
	}

	preds, err := s.predictions.ListPredictions(r.Context(), owner)
	if err != nil {
		s.logger.Error("[upstream] list predictions: %v", err)
		writeDetail(w, http.StatusInternalServerError, "could not list predictions")
		return
	}

	out := make([]map[string]interface{}, 0, len(preds))
	for _, p := range preds {
		payload := map[string]interface{}{}
		if err := json.Unmarshal(p.Payload, &payload); err != nil {
			s.logger.Warn("[upstream] prediction %d has unreadable payload: %v", p.ID, err)
		}
		out = append(out, withMeta(payload, p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if !currentUser(r).IsAdmin() {
		writeDetail(w, http.StatusForbidden, "Not authorized")
		return
	}
	farmers, err := s.users.ListUsersByRole(r.Context(), models.RoleFarmer)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not list users")
		return
	}
	out := make([]map[string]interface{}, 0, len(farmers))
	for _, u := range farmers {
		out = append(out, userJSON(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func withMeta(payload map[string]interface{}, p *models.Prediction) map[string]interface{} {
	out := make(map[string]interface{}, len(payload)+4)
	for k, v := range payload {
		out[k] = v
	}
	out["id"] = p.ID
	out["user_id"] = p.UserID
	out["image_path"] = p.ImagePath
	out["created_at"] = p.CreatedAt.UTC().Format(timeLayout)
	return out
}

func userJSON(u *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":                 u.ID,
		"username":           u.Username,
		"email":              u.Email,
		"role":               u.Role,
		"preferred_language": u.PreferredLanguage,
		"created_at":         u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
