package models

type SaveAnalysisRequest struct {
	Filename              string      `json:"filename"`
	OriginalFilename      string      `json:"original_filename,omitempty"`
	FileSizeBytes         int64       `json:"file_size_bytes"`
	AnalysisData          interface{} `json:"analysis_data"`
	ProcessingTimeSeconds *float64    `json:"processing_time_seconds,omitempty"`
	// Defaults to 2 when omitted.
	APICallsUsed *int    `json:"api_calls_used,omitempty"`
	ProjectID    *string `json:"project_id,omitempty"`
}

type HumanFeedbackRequest struct {
	Approved          bool   `json:"approved"`
	FeedbackText      string `json:"feedback_text,omitempty"`
	RequestReanalysis bool   `json:"request_reanalysis,omitempty"`
}

type CreateProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type UpdateProjectRequest struct {
	Title                 *string  `json:"title,omitempty"`
	Description           *string  `json:"description,omitempty"`
	Status                *string  `json:"status,omitempty"`
	BudgetTotal           *float64 `json:"budget_total,omitempty"`
	EstimatedDurationDays *int     `json:"estimated_duration_days,omitempty"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChatMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
