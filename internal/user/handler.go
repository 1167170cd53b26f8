package user

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"userdirectory/internal/common"
)

const (
	photoField = "profilePhoto"
	// formOverhead is allowed on top of the photo size for the text fields.
	formOverhead = 1 << 20
)

// Handler maps HTTP requests onto the UserService and converts domain errors
// into JSON responses.
type Handler struct {
	userService   UserService
	logger        *slog.Logger
	reporter      common.ErrorReporter
	maxUploadSize int64
	exposeErrors  bool
}

type HandlerConfig struct {
	MaxUploadSize int64
	// ExposeErrors adds internal error detail to 500 responses (development only).
	ExposeErrors bool
}

func NewHandler(userService UserService, logger *slog.Logger, reporter common.ErrorReporter, cfg HandlerConfig) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if reporter == nil {
		reporter = common.NopReporter{}
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 10 << 20
	}
	return &Handler{
		userService:   userService,
		logger:        logger,
		reporter:      reporter,
		maxUploadSize: cfg.MaxUploadSize,
		exposeErrors:  cfg.ExposeErrors,
	}
}

// RegisterRoutes mounts the user API on api. Mutating routes go through protect.
func (h *Handler) RegisterRoutes(api *mux.Router, protect func(http.Handler) http.Handler) {
	if protect == nil {
		protect = func(next http.Handler) http.Handler { return next }
	}

	// static paths first so they are not captured by {userId}
	api.HandleFunc("/users/search", h.SearchUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/export/csv", h.ExportCSV).Methods(http.MethodGet)
	api.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}", h.GetUser).Methods(http.MethodGet)

	api.Handle("/users", protect(http.HandlerFunc(h.CreateUser))).Methods(http.MethodPost)
	api.Handle("/users/{userId}", protect(http.HandlerFunc(h.EditUser))).Methods(http.MethodPut)
	api.Handle("/users/{userId}", protect(http.HandlerFunc(h.DeleteUser))).Methods(http.MethodDelete)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	fields, photo, cleanup, err := h.parseUserRequest(w, r)
	defer cleanup()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.userService.CreateUser(r.Context(), fields.createInput(), photo)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	verr := common.NewValidationError()
	page := queryInt(r, "page", verr)
	limit := queryInt(r, "limit", verr)
	if err := verr.ErrOrNil(); err != nil {
		h.writeError(w, r, err)
		return
	}

	users, err := h.userService.ListUsers(r.Context(), page, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, nonNil(users))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) EditUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	fields, photo, cleanup, err := h.parseUserRequest(w, r)
	defer cleanup()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.userService.EditUser(r.Context(), userID, fields.updateInput(), photo)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.userService.DeleteUser(r.Context(), userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, common.MessageResponse{Message: "User deleted successfully"})
}

func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.SearchUsers(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, nonNil(users))
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	// buffered so a store failure can still produce a JSON error
	var buf bytes.Buffer
	if err := h.userService.ExportCSV(r.Context(), &buf); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=users.csv")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.WarnContext(r.Context(), "writing csv export", "error", err)
	}
}

// writeError is the single place where domain errors become HTTP responses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatus(err)
	resp := common.ErrorResponse{Success: false}

	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		resp.Error = "validation failed"
		resp.Fields = verr.Fields
	case errors.Is(err, common.ErrMissingAttachment):
		resp.Error = "Profile photo is required"
	case errors.Is(err, common.ErrRecordNotFound):
		resp.Error = "User not found"
	case errors.Is(err, common.ErrUniquenessViolation):
		resp.Error = "Email or mobile already in use"
	case errors.Is(err, common.ErrPayloadTooLarge):
		resp.Error = common.ErrPayloadTooLarge.Error()
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err,
			"request_id", common.RequestIDFromContext(r.Context()))
		h.reporter.Report(r.Context(), err)
		resp.Error = "internal server error"
		if h.exposeErrors {
			resp.Detail = err.Error()
		}
	}

	common.WriteJSON(w, status, resp)
}

// userFields are the user attributes as sent by the client; nil means absent.
type userFields struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Mobile    *string `json:"mobile"`
	Gender    *string `json:"gender"`
	Status    *string `json:"status"`
	Location  *string `json:"location"`
}

func (f userFields) createInput() CreateUserInput {
	return CreateUserInput{
		FirstName: deref(f.FirstName),
		LastName:  deref(f.LastName),
		Email:     deref(f.Email),
		Mobile:    deref(f.Mobile),
		Gender:    deref(f.Gender),
		Status:    deref(f.Status),
		Location:  deref(f.Location),
	}
}

func (f userFields) updateInput() UpdateUserInput {
	return UpdateUserInput(f)
}

// parseUserRequest reads multipart, urlencoded or JSON bodies. The returned
// cleanup must always be called.
func (h *Handler) parseUserRequest(w http.ResponseWriter, r *http.Request) (userFields, *Photo, func(), error) {
	var fields userFields
	cleanup := func() {}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+formOverhead)
	contentType := r.Header.Get("Content-Type")

	switch {
	case strings.HasPrefix(contentType, "application/json"):
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			return fields, nil, cleanup, bodyError(err)
		}
		return fields, nil, cleanup, nil

	case strings.HasPrefix(contentType, "multipart/form-data"):
		if err := r.ParseMultipartForm(formOverhead); err != nil {
			return fields, nil, cleanup, bodyError(err)
		}
		cleanup = func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}

	default:
		if err := r.ParseForm(); err != nil {
			return fields, nil, cleanup, bodyError(err)
		}
	}

	fields = userFields{
		FirstName: formValue(r, "firstName"),
		LastName:  formValue(r, "lastName"),
		Email:     formValue(r, "email"),
		Mobile:    formValue(r, "mobile"),
		Gender:    formValue(r, "gender"),
		Status:    formValue(r, "status"),
		Location:  formValue(r, "location"),
	}

	if r.MultipartForm == nil {
		return fields, nil, cleanup, nil
	}

	file, header, err := r.FormFile(photoField)
	if errors.Is(err, http.ErrMissingFile) {
		return fields, nil, cleanup, nil
	}
	if err != nil {
		return fields, nil, cleanup, fmt.Errorf("read %s: %w", photoField, err)
	}
	formCleanup := cleanup
	cleanup = func() {
		_ = file.Close()
		formCleanup()
	}

	if header.Size > h.maxUploadSize {
		return fields, nil, cleanup, common.ErrPayloadTooLarge
	}

	return fields, photoFromHeader(file, header), cleanup, nil
}

func photoFromHeader(file multipart.File, header *multipart.FileHeader) *Photo {
	return &Photo{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return common.ErrPayloadTooLarge
	}
	verr := common.NewValidationError()
	verr.Add("body", "malformed request body")
	return verr
}

func formValue(r *http.Request, key string) *string {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func pathUserID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["userId"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		verr := common.NewValidationError()
		verr.Add("userId", "must be a positive integer")
		return 0, verr
	}
	return id, nil
}

func queryInt(r *http.Request, key string, verr *common.ValidationError) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(key, "must be an integer")
		return 0
	}
	return n
}

func nonNil(users []*User) []*User {
	if users == nil {
		return []*User{}
	}
	return users
}
