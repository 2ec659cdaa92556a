package errors

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// CustomHTTPErrorHandler renders errors using the matching service's error envelope:
// {"error": {"message": "...", "status": 404}}
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := err.Error()

	e := HttpError{}
	he := &echo.HTTPError{}
	if errors.As(err, &e) {
		code = e.Code
	} else if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		}
	}

	body := map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"status":  code,
		},
	}
	if err := c.JSON(code, body); err != nil {
		c.Logger().Error(err)
	}
}
