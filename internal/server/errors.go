package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// NotFoundJSON returns the HTTP error handler for the warehouse API. Every
// error that escapes a handler — echo's own 404/405s, key-auth rejections,
// rate-limit 429s — comes out as the same ErrorResponse JSON the handlers
// emit themselves, so clients parse one error shape.
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Handler already wrote a response; nothing to translate
		if c.Response().Committed {
			return
		}

		if he, ok := err.(*echo.HTTPError); ok {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		// Anything unrecognized stays opaque: warehouse and LLM error
		// strings never leak through this path
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}
