package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gear6io/lakeshare/pkg/errors"
	"github.com/gear6io/lakeshare/server/auth"
	"github.com/gear6io/lakeshare/server/deltalog"
	"github.com/gear6io/lakeshare/server/pagination"
	"github.com/gear6io/lakeshare/server/sharing"
	"github.com/rs/zerolog"
)

// Package-specific error codes for request parsing
var (
	ErrBadRequest = errors.MustNewCode("http.bad_request")
)

// envelope is the wire shape of every API response
type envelope struct {
	Success bool          `json:"success"`
	Data    interface{}   `json:"data,omitempty"`
	Error   *errorPayload `json:"error,omitempty"`
}

type errorPayload struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Stack   string            `json:"stack,omitempty"`
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	maxResults := pagination.ResolveMaxResults(r.URL.Query().Get("maxResults"))

	page, err := s.sharing.ListTables(r.Context(), maxResults, r.URL.Query().Get("pageToken"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, page)
}

func (s *Server) handleTableVersion(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")

	version, err := s.sharing.TableVersion(r.Context(), table)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Delta-Table-Version", strconv.FormatInt(version, 10))
	s.writeData(w, r, map[string]interface{}{"table": table, "version": version})
}

func (s *Server) handleTableMetadata(w http.ResponseWriter, r *http.Request) {
	version, err := parseVersion(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	state, err := s.sharing.TableMetadata(r.Context(), r.PathValue("table"), version)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, state)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	version, err := parseVersion(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	maxResults := pagination.ResolveMaxResults(r.URL.Query().Get("maxResults"))

	page, err := s.sharing.ListFiles(r.Context(), r.PathValue("table"), version, maxResults, r.URL.Query().Get("pageToken"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, page)
}

func (s *Server) handleQueryRows(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filePath := query.Get("file")
	if filePath == "" {
		s.writeError(w, r, errors.New(ErrBadRequest, "missing required query parameter 'file'", nil))
		return
	}

	version, err := parseVersion(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := parseInt64(query.Get("limit"), 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	offset, err := parseInt64(query.Get("offset"), 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows, err := s.sharing.QueryRows(r.Context(), r.PathValue("table"), version, filePath, limit, offset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, rows)
}

// parseVersion reads the optional version query parameter; nil means latest
func parseVersion(r *http.Request) (*int64, error) {
	raw := r.URL.Query().Get("version")
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.New(ErrBadRequest, "version must be an integer", err).AddContext("version", raw)
	}
	return &v, nil
}

func parseInt64(raw string, fallback int64) (int64, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New(ErrBadRequest, "parameter must be an integer", err).AddContext("value", raw)
	}
	return v, nil
}

func (s *Server) writeData(w http.ResponseWriter, r *http.Request, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}

// writeError maps a coded error to a status and the error envelope. The
// stack is included outside production only.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	lsErr := errors.AsError(err)

	status := statusForCode(lsErr.Code.String())
	logger := zerolog.Ctx(r.Context())
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.
		Str("code", lsErr.Code.String()).
		Int("status", status).
		Str("path", r.URL.Path).
		Err(err).
		Msg("Request failed")

	payload := &errorPayload{
		Message: lsErr.Message,
		Details: lsErr.Context,
	}
	if !s.cfg.IsProduction() {
		payload.Stack = lsErr.StackTrace()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(envelope{Success: false, Error: payload}); encodeErr != nil {
		logger.Error().Err(encodeErr).Msg("Failed to write error response")
	}
}

// statusForCode maps internal error codes onto HTTP statuses. Unknown
// codes fail as internal errors rather than leaking as false successes.
func statusForCode(code string) int {
	switch code {
	case auth.ErrMalformedAuthorization.String(), auth.ErrUnauthenticated.String():
		return http.StatusUnauthorized
	case deltalog.ErrTableNotFound.String(),
		deltalog.ErrTableNotInitialized.String(),
		sharing.ErrFileNotInTable.String():
		return http.StatusNotFound
	case deltalog.ErrVersionUnavailable.String(),
		deltalog.ErrInvalidVersion.String(),
		deltalog.ErrProtocolUnsupported.String(),
		deltalog.ErrInvalidPath.String(),
		ErrBadRequest.String():
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
