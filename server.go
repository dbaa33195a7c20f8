package restrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"
)

// StatusCoder is implemented by handler errors that carry an HTTP status
// code. Errors without one are written as 500.
type StatusCoder interface {
	StatusCode() int
}

// HandlerError is an error with an HTTP status code, for returning from
// handlers.
type HandlerError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *HandlerError) Error() string { return e.Message }

// StatusCode returns the HTTP status code.
func (e *HandlerError) StatusCode() int { return e.Status }

// Error returns a handler error with the given HTTP status code and message.
func Error(status int, message string) error {
	return &HandlerError{Status: status, Message: message}
}

// Errorf returns a formatted handler error with the given HTTP status code.
func Errorf(status int, format string, args ...any) error {
	return &HandlerError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// buildServerHandler wraps a typed Handler into an http.Handler: decode the
// request into Req by slot kind, invoke, encode the response as JSON.
func buildServerHandler[Req, Resp any](route *RouteDescriptor, plan []boundSlot, h Handler[Req, Resp]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := new(Req)
		if err := decodeServerRequest(req, plan, r); err != nil {
			writeServerError(w, Error(http.StatusBadRequest, err.Error()))
			return
		}

		resp, err := h(r.Context(), req)
		if err != nil {
			writeServerError(w, err)
			return
		}

		if _, ok := any(resp).(*Void); ok || resp == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // best-effort after WriteHeader
		json.NewEncoder(w).Encode(resp)
	})
}

// decodeServerRequest populates a request struct from the incoming HTTP
// request, one slot at a time. Query and header slots absent from the wire
// fall back to the slot default.
func decodeServerRequest(target any, plan []boundSlot, r *http.Request) error {
	rv := reflect.ValueOf(target).Elem()
	for _, slot := range plan {
		fv := rv.FieldByIndex(slot.index)
		switch slot.Kind {
		case KindPath:
			if err := setField(fv, slot, chi.URLParam(r, slot.Name)); err != nil {
				return fmt.Errorf("path parameter %q: %w", slot.Name, err)
			}
		case KindQuery:
			val := r.URL.Query().Get(slot.Name)
			if val == "" && slot.HasDefault {
				val = slot.Default
			}
			if err := setField(fv, slot, val); err != nil {
				return fmt.Errorf("query parameter %q: %w", slot.Name, err)
			}
		case KindHeader:
			val := r.Header.Get(slot.headerName())
			if val == "" && slot.HasDefault {
				val = slot.Default
			}
			if err := setField(fv, slot, val); err != nil {
				return fmt.Errorf("header parameter %q: %w", slot.Name, err)
			}
		case KindBody:
			if err := decodeServerBody(r, fv.Addr().Interface()); err != nil {
				return fmt.Errorf("body: %w", err)
			}
		}
	}
	return nil
}

func setField(fv reflect.Value, slot boundSlot, raw string) error {
	if raw == "" {
		return nil // absent optional value, leave the zero value
	}
	v, err := parseValue(fv.Type(), raw)
	if err != nil {
		return err
	}
	fv.Set(v)
	return nil
}

func decodeServerBody(r *http.Request, target any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(target)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeServerError writes a handler error as a JSON payload with its status.
func writeServerError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var sc StatusCoder
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}

	var he *HandlerError
	if !errors.As(err, &he) {
		he = &HandlerError{Status: status, Message: err.Error()}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort after WriteHeader
	json.NewEncoder(w).Encode(he)
}
