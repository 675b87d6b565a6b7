package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/signcast/internal/domain"
)

type publishResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handlePublish(c echo.Context) error {
	var msg domain.Message
	if err := decodeJSON(c, &msg); err != nil {
		return HandleValidationError(c, "Invalid JSON body")
	}

	if err := s.app.Publish(c.Request().Context(), msg.Text); err != nil {
		return HandleError(c, err)
	}

	resp := publishResponse{Success: true, Message: "Output received and broadcasted"}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to write publish response: %w", err)
	}
	return nil
}

// decodeJSON reads a JSON body into v. An empty body leaves v at its zero
// value so the field checks downstream report what is missing.
func decodeJSON(c echo.Context, v any) error {
	err := json.NewDecoder(c.Request().Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
