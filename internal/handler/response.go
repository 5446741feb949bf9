package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Every endpoint answers with the same JSON envelope:
// {success, message?, count?, data?, erreurs?}.  The helpers below keep
// the handlers terse and the shape consistent.

func respondOK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}

func respondList(c echo.Context, count int, data interface{}) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "count": count, "data": data})
}

func respondMessage(c echo.Context, status int, message string, data interface{}) error {
	body := echo.Map{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"success": false, "message": message})
}

// respondValidation reports every violated rule at once, matching the
// original API contract.
func respondValidation(c echo.Context, erreurs []string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"success": false,
		"message": "Données invalides",
		"erreurs": erreurs,
	})
}
