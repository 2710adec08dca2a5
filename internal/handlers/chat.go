package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"script-analysis-backend/internal/analyzer"
	"script-analysis-backend/internal/models"
)

// chatHistoryWindow caps how many prior turns are forwarded as context.
const chatHistoryWindow = 5

type ChatHandler struct {
	analyzerClient *analyzer.Client
}

func NewChatHandler(analyzerClient *analyzer.Client) *ChatHandler {
	return &ChatHandler{analyzerClient: analyzerClient}
}

// Chat godoc
// @Summary     Ask the filmmaking assistant
// @Description Proxies the message to the analysis service's chat endpoint and
// @Description decorates the reply with suggested UI actions. When the service
// @Description is unreachable the endpoint still answers with navigation help.
// @Tags        chat
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.ChatRequest true "Message and optional history"
// @Success     200 {object} models.ChatResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "message is required"})
		return
	}

	if h.analyzerClient == nil {
		c.JSON(http.StatusOK, fallbackChatResponse())
		return
	}

	reply, err := h.analyzerClient.Chat(c.Request.Context(), req.Message, conversationContext(req.History))
	if err != nil {
		c.JSON(http.StatusOK, fallbackChatResponse())
		return
	}

	c.JSON(http.StatusOK, models.ChatResponse{
		Response:  reply,
		Actions:   suggestedActions(req.Message),
		Timestamp: time.Now().UTC(),
	})
}

// conversationContext flattens the most recent history turns into the
// "User:"/"Assistant:" transcript the analysis service expects.
func conversationContext(history []models.ChatMessage) string {
	if len(history) == 0 {
		return ""
	}
	start := 0
	if len(history) > chatHistoryWindow {
		start = len(history) - chatHistoryWindow
	}
	lines := make([]string, 0, len(history)-start)
	for _, msg := range history[start:] {
		speaker := "Assistant"
		if msg.Type == "user" {
			speaker = "User"
		}
		lines = append(lines, speaker+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

// suggestedActions keyword-matches the user's message to the UI shortcuts the
// frontend renders under the reply.
func suggestedActions(message string) []models.ChatAction {
	lower := strings.ToLower(message)
	mentions := func(words ...string) bool {
		for _, word := range words {
			if strings.Contains(lower, word) {
				return true
			}
		}
		return false
	}

	switch {
	case mentions("budget", "cost", "money", "expense", "financing"):
		return []models.ChatAction{
			{Label: "View Budget Breakdown", Action: "navigate_budget"},
			{Label: "Export Budget Report", Action: "export_budget"},
		}
	case mentions("scene", "script", "breakdown", "analysis", "character"):
		return []models.ChatAction{
			{Label: "View Script Analysis", Action: "navigate_script"},
			{Label: "Upload New Script", Action: "upload_script"},
		}
	case mentions("project", "create", "new", "manage"):
		return []models.ChatAction{
			{Label: "Create New Project", Action: "create_project"},
			{Label: "View All Projects", Action: "view_projects"},
		}
	case mentions("export", "download", "report", "save"):
		return []models.ChatAction{
			{Label: "Export Scene Report", Action: "export_scenes"},
			{Label: "Export Budget Report", Action: "export_budget"},
		}
	}
	return []models.ChatAction{}
}

func fallbackChatResponse() models.ChatResponse {
	return models.ChatResponse{
		Response: "I'm having trouble connecting to the AI service right now. " +
			"However, I can still help you navigate this application! You can upload scripts for analysis, " +
			"view budget breakdowns, manage projects, and export reports. What would you like to do?",
		Actions: []models.ChatAction{
			{Label: "Upload Script", Action: "upload_script"},
			{Label: "View Projects", Action: "view_projects"},
			{Label: "Help & Guide", Action: "show_guide"},
		},
		Timestamp: time.Now().UTC(),
	}
}
