package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/signcast/internal/domain"
)

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

type synthesizeRequest struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode"`
	Gender       string `json:"gender"`
}

// audioContent is marshalled as base64.
type synthesizeResponse struct {
	AudioContent []byte `json:"audioContent"`
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := decodeJSON(c, &req); err != nil {
		return HandleValidationError(c, "Invalid JSON body")
	}

	translated, err := s.app.Translate(c.Request().Context(), req.Text, req.TargetLanguage)
	if err != nil {
		return HandleError(c, err)
	}

	if err := c.JSON(http.StatusOK, translateResponse{TranslatedText: translated}); err != nil {
		return fmt.Errorf("failed to write translate response: %w", err)
	}
	return nil
}

func (s *Server) handleSynthesize(c echo.Context) error {
	var req synthesizeRequest
	if err := decodeJSON(c, &req); err != nil {
		return HandleValidationError(c, "Invalid JSON body")
	}

	audio, err := s.app.Synthesize(c.Request().Context(), req.Text, req.LanguageCode, req.Gender)
	if err != nil {
		return HandleError(c, err)
	}

	if err := c.JSON(http.StatusOK, synthesizeResponse{AudioContent: audio}); err != nil {
		return fmt.Errorf("failed to write synthesize response: %w", err)
	}
	return nil
}

func (s *Server) handleLanguages(c echo.Context) error {
	if err := c.JSON(http.StatusOK, domain.SupportedLanguages); err != nil {
		return fmt.Errorf("failed to write languages response: %w", err)
	}
	return nil
}
