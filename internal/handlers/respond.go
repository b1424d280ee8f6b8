package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindnest-backend/internal/services"
)

const maxBodyBytes = 1 << 20

const msgInvalidBody = "Invalid request body."

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// decode reads a JSON body into dst and validates it. A failed check is
// reported with message when given, otherwise with the offending field.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}, message string) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return &services.Error{Kind: services.ErrValidation, Message: msgInvalidBody}
	}
	return check(dst, message)
}

func check(v interface{}, message string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if message == "" {
		message = describe(err)
	}
	return &services.Error{Kind: services.ErrValidation, Message: message}
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return msgInvalidBody
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return fe.Field() + " is required."
	}
	return fe.Field() + " is invalid."
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage returns the message safe to show for err.
func clientMessage(err error) string {
	var se *services.Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return services.MsgGenericFailure
}

func requestLogger(log *zap.Logger, r *http.Request) *zap.Logger {
	return log.With(
		zap.String("request_id", chimw.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
	)
}

// fail writes the error envelope for err and logs it.
func fail(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		requestLogger(log, r).Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		requestLogger(log, r).Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": clientMessage(err),
	})
}

func ok(w http.ResponseWriter, key string, value interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		key:       value,
	})
}

// storeTimeout bounds every database and cache round trip of a request.
const storeTimeout = 5 * time.Second

func storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), storeTimeout)
}
