// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Code    string   `json:"code,omitempty"`
}

type PaginatedData struct {
	Items      any `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func JSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(body)
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func OKWithMessage(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Response{Success: true, Data: data})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Paginated(w http.ResponseWriter, items any, page, pageSize, total int) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	OK(w, PaginatedData{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	})
}

func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, Response{
		Success: false,
		Message: message,
		Code:    "BAD_REQUEST",
	})
}

func ValidationFailed(w http.ResponseWriter, errs []string) {
	JSON(w, http.StatusBadRequest, Response{
		Success: false,
		Message: "validation failed",
		Errors:  errs,
		Code:    "VALIDATION_FAILED",
	})
}

func NotFound(w http.ResponseWriter, resource string) {
	JSONError(w, NotFoundError(resource))
}

func InternalServerError(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)
	JSON(w, http.StatusInternalServerError, Response{
		Success: false,
		Message: "internal server error",
		Code:    "INTERNAL_ERROR",
	})
}

// JSONError writes err as a failure envelope using the AppError mapping.
func JSONError(w http.ResponseWriter, err error) {
	appErr := ToAppError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		InternalServerError(w, err)
		return
	}

	JSON(w, appErr.StatusCode, Response{
		Success: false,
		Message: appErr.Message,
		Errors:  appErr.Errors,
		Code:    appErr.Code,
	})
}
