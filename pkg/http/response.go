package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

func envelope(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// SuccessResponse answers 200 with data.
func SuccessResponse(c echo.Context, data interface{}) error {
	return envelope(c, http.StatusOK, data)
}

// ListResponse answers 200 with rows and a total count.
func ListResponse(c echo.Context, rows interface{}, total int64) error {
	return envelope(c, http.StatusOK, &ListDataResponse{Rows: rows, Total: total})
}

// BadRequestResponse answers with a 400 application status; data carries
// the validation error list.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return envelope(c, http.StatusBadRequest, data)
}

// AppErrorResponse maps an AppError to its status; anything else becomes
// an opaque 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return envelope(c, appErr.Status, []*AppError{appErr})
	}
	return envelope(c, http.StatusInternalServerError, "Something went wrong")
}
