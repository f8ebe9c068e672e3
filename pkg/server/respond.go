package server

import (
	"net/http"

	json "github.com/goccy/go-json"

	gserrors "github.com/matzehuels/graphscope/pkg/errors"
)

// StatusSuccess is the status field of every successful JSON response.
const StatusSuccess = "Success"

type envelope struct {
	Status string     `json:"status"`
	Data   any        `json:"data,omitempty"`
	Error  *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code      gserrors.Code `json:"code"`
	Message   string        `json:"message"`
	RequestID string        `json:"request_id,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Status: StatusSuccess, Data: data}); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := gserrors.HTTPStatus(err)
	code := gserrors.GetCode(err)
	if code == "" {
		code = gserrors.ErrCodeInternal
	}
	msg := gserrors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err, "request_id", RequestIDFrom(r.Context()))
		if code == gserrors.ErrCodeInternal {
			msg = "internal error"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{
		Status: "Failed",
		Error: &errorBody{
			Code:      code,
			Message:   msg,
			RequestID: RequestIDFrom(r.Context()),
		},
	})
}
