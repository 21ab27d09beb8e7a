package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ByLCY/labelsheet/document"
	"github.com/ByLCY/labelsheet/label"
	"github.com/ByLCY/labelsheet/layout"
	"github.com/ByLCY/labelsheet/spreadsheet"
)

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

// classify 把领域错误映射为对外的 APIError，其余错误视为内部错误。
func classify(err error) *APIError {
	var api *APIError
	if errors.As(err, &api) {
		return api
	}
	var rowErr *spreadsheet.RowError
	switch {
	case errors.Is(err, document.ErrNotFound),
		errors.Is(err, label.ErrItemNotFound):
		return ErrNotFound(err.Error())
	case errors.Is(err, document.ErrSuperseded):
		return ErrConflict(err.Error())
	case errors.Is(err, spreadsheet.ErrMissingColumns),
		errors.Is(err, spreadsheet.ErrMalformed),
		errors.Is(err, layout.ErrTooManyPages),
		errors.As(err, &rowErr),
		errors.Is(err, label.ErrKindMismatch),
		errors.Is(err, label.ErrEmptyItem):
		return ErrInvalid(err.Error())
	default:
		return ErrInternal(err.Error())
	}
}

func toHTTPStatus(err error) int {
	switch classify(err).Code {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type errDTO struct {
	Error *APIError `json:"error"`
}

func newErrDTO(err error) errDTO { return errDTO{Error: classify(err)} }
