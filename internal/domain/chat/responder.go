// Package chat is the dashboard's rule-based health assistant: one
// deterministic reply per query, keyed by substring, with no history
// awareness.
package chat

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Message is one chat exchange payload.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	replyVitaminD = "Your latest Vitamin D reading is below the reference range. " +
		"Common next steps are supplementation and a re-test in 8-12 weeks; " +
		"bring this up with your doctor before changing anything."
	replyCholesterol = "LDL cholesterol responds well to dietary changes and regular exercise. " +
		"Ask your doctor whether your current level warrants a follow-up lipid panel."
	replyGeneric = "I can answer questions about your Vitamin D and cholesterol trends. " +
		"Try asking about one of those, or upload a new lab report."
)

// Respond returns the assistant reply for one query. Matching is
// case-insensitive substring; unmatched queries get a generic prompt.
func Respond(query string) Message {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "vitamin d"):
		return Message{Role: "assistant", Content: replyVitaminD}
	case strings.Contains(q, "cholesterol"):
		return Message{Role: "assistant", Content: replyCholesterol}
	default:
		return Message{Role: "assistant", Content: replyGeneric}
	}
}

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/chat", h.Chat)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.JSON(http.StatusOK, Respond(req.Message))
}
