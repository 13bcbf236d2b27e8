package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/golang/gddo/httputil/header"
)

type MalformedRequest struct {
	Status int
	Msg    string
}

func (mr *MalformedRequest) Error() string {
	return mr.Msg
}

// decodeJSONBody decodes the request body into dst, returning a
// *MalformedRequest for the various ways clients get it wrong so handlers
// can answer 400 instead of 500.
func decodeJSONBody(r *http.Request, dst interface{}) error {
	if r.Header.Get("Content-Type") != "" {
		value, _ := header.ParseValueAndParams(r.Header, "Content-Type")
		if value != "application/json" {
			return &MalformedRequest{
				Status: http.StatusUnsupportedMediaType,
				Msg:    "Content-Type header is not application/json",
			}
		}
	}

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(&dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError

		switch {
		case errors.As(err, &syntaxError):
			return &MalformedRequest{
				Status: http.StatusBadRequest,
				Msg:    fmt.Sprintf("request body contains badly-formed JSON (at position %d)", syntaxError.Offset),
			}
		case errors.Is(err, io.ErrUnexpectedEOF):
			return &MalformedRequest{
				Status: http.StatusBadRequest,
				Msg:    "request body contains badly-formed JSON",
			}
		case errors.As(err, &unmarshalTypeError):
			return &MalformedRequest{
				Status: http.StatusBadRequest,
				Msg: fmt.Sprintf("request body contains an invalid value for the %q field (at position %d)",
					unmarshalTypeError.Field, unmarshalTypeError.Offset),
			}
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return &MalformedRequest{
				Status: http.StatusBadRequest,
				Msg:    fmt.Sprintf("request body contains unknown field %s", fieldName),
			}
		case errors.Is(err, io.EOF):
			return &MalformedRequest{
				Status: http.StatusBadRequest,
				Msg:    "request body must not be empty",
			}
		case err.Error() == "http: request body too large":
			return &MalformedRequest{
				Status: http.StatusRequestEntityTooLarge,
				Msg:    "request body too large",
			}
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return &MalformedRequest{
			Status: http.StatusBadRequest,
			Msg:    "request body must only contain a single JSON object",
		}
	}
	return nil
}
