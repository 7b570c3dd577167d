package handlers

import (
	"github.com/labstack/echo/v4"
)

type successResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

func respond(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, successResponse{Success: true, Data: data})
}

func respondMessage(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, successResponse{Success: true, Message: message, Data: data})
}

// bindAndValidate binds the request body into dst and runs the echo validator.
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return err
	}
	return c.Validate(dst)
}
