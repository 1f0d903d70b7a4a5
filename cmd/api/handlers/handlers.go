// Package handlers holds the echo handlers for the API service. Handlers
// bind and validate requests, call services and translate errors; business
// rules live in the service layer.
package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/myuon/flowit-sub001/cmd/api/service"
	"github.com/myuon/flowit-sub001/common/dsl"
	"github.com/myuon/flowit-sub001/common/repository"
)

// parseID parses a UUID path param, answering 400 on garbage
func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name+" format")
	}
	return id, nil
}

// serviceError maps service-layer failures onto HTTP responses. DSL
// validation failures keep the {valid, errors} shape the validate endpoint
// uses so clients handle both the same way.
func serviceError(c echo.Context, err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}

	var validationErrs dsl.ValidationErrors
	if errors.As(err, &validationErrs) {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"valid":  false,
			"errors": validationErrs.Strings(),
		})
	}

	var inputsErr *dsl.InputsError
	if errors.As(err, &inputsErr) {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":   "invalid inputs",
			"details": inputsErr.Problems,
		})
	}

	var badReq *service.BadRequestError
	if errors.As(err, &badReq) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": badReq.Error()})
	}

	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
