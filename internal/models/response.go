package models

import (
	"encoding/json"
	"time"
)

// ScriptResponse mirrors the full stored record, breakdowns included.
type ScriptResponse struct {
	ID                    string                 `json:"id"`
	Filename              string                 `json:"filename"`
	OriginalFilename      string                 `json:"original_filename"`
	FileSizeBytes         int64                  `json:"file_size_bytes"`
	ScriptData            map[string]interface{} `json:"script_data"`
	CastBreakdown         map[string]interface{} `json:"cast_breakdown"`
	CostBreakdown         map[string]interface{} `json:"cost_breakdown"`
	LocationBreakdown     map[string]interface{} `json:"location_breakdown"`
	PropsBreakdown        map[string]interface{} `json:"props_breakdown"`
	ProcessingTimeSeconds *float64               `json:"processing_time_seconds"`
	APICallsUsed          int                    `json:"api_calls_used"`
	Status                string                 `json:"status"`
	ErrorMessage          string                 `json:"error_message,omitempty"`
	TotalScenes           int                    `json:"total_scenes"`
	TotalCharacters       int                    `json:"total_characters"`
	TotalLocations        int                    `json:"total_locations"`
	EstimatedBudget       float64                `json:"estimated_budget"`
	BudgetCategory        string                 `json:"budget_category"`
	ProjectID             string                 `json:"project_id,omitempty"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

// ScriptSummary is the compact list-view shape.
type ScriptSummary struct {
	ID                    string    `json:"id"`
	Filename              string    `json:"filename"`
	FileSizeBytes         int64     `json:"file_size_bytes"`
	Status                string    `json:"status"`
	TotalScenes           int       `json:"total_scenes"`
	EstimatedBudget       float64   `json:"estimated_budget"`
	BudgetCategory        string    `json:"budget_category"`
	ProcessingTimeSeconds *float64  `json:"processing_time_seconds"`
	CreatedAt             time.Time `json:"created_at"`
}

type Pagination struct {
	Total    int  `json:"total"`
	Skip     int  `json:"skip"`
	Limit    int  `json:"limit"`
	Returned int  `json:"returned"`
	HasMore  bool `json:"has_more"`
}

type ScriptListResponse struct {
	Success    bool            `json:"success"`
	Data       []ScriptSummary `json:"data"`
	Pagination Pagination      `json:"pagination"`
	SearchTerm string          `json:"search_term,omitempty"`
}

type ScriptDetailResponse struct {
	Success bool            `json:"success"`
	Data    *ScriptResponse `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ScriptRecordListResponse is the /scripts list shape, which carries full
// records rather than summaries.
type ScriptRecordListResponse struct {
	Success    bool             `json:"success"`
	Data       []ScriptResponse `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

// ScriptEnvelope is the alternate detail shape used by the /scripts routes.
type ScriptEnvelope struct {
	Success bool            `json:"success"`
	Script  *ScriptResponse `json:"script"`
	Message string          `json:"message"`
}

type SaveMetadata struct {
	Filename              string   `json:"filename"`
	OriginalFilename      string   `json:"original_filename"`
	FileSizeBytes         int64    `json:"file_size_bytes"`
	ProcessingTimeSeconds *float64 `json:"processing_time_seconds"`
	APICallsUsed          int      `json:"api_calls_used"`
	Status                string   `json:"status"`
	TotalScenes           int      `json:"total_scenes"`
	EstimatedBudget       float64  `json:"estimated_budget"`
	BudgetCategory        string   `json:"budget_category"`
}

type SaveAnalysisResponse struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message"`
	DatabaseID string       `json:"database_id"`
	SavedAt    time.Time    `json:"saved_at"`
	Metadata   SaveMetadata `json:"metadata"`
}

type OptimizationInfo struct {
	ActualCallsUsed int `json:"actual_calls_used"`
	ExpectedCalls   int `json:"expected_calls"`
}

type AnalyzeMetadata struct {
	Filename              string    `json:"filename"`
	OriginalFilename      string    `json:"original_filename"`
	FileSizeBytes         int64     `json:"file_size_bytes"`
	ProcessingTimeSeconds float64   `json:"processing_time_seconds"`
	Timestamp             time.Time `json:"timestamp"`
	APICallsUsed          int       `json:"api_calls_used"`
}

// AnalyzeScriptResponse carries the analysis twice (data and analysis_data)
// plus a ready-to-post SaveAnalysisRequest so clients can save without
// reshaping anything.
type AnalyzeScriptResponse struct {
	Success          bool                   `json:"success"`
	Message          string                 `json:"message"`
	OptimizationInfo OptimizationInfo       `json:"optimization_info"`
	Metadata         AnalyzeMetadata        `json:"metadata"`
	Data             map[string]interface{} `json:"data"`
	AnalysisData     map[string]interface{} `json:"analysis_data"`
	SaveRequest      SaveAnalysisRequest    `json:"save_request"`
}

type FeedbackResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	ScriptID          string `json:"script_id"`
	FeedbackProcessed bool   `json:"feedback_processed"`
	ActionTaken       string `json:"action_taken"`
	Status            string `json:"status"`
}

type StatisticsResponse struct {
	TotalScripts          int     `json:"total_scripts"`
	CompletedScripts      int     `json:"completed_scripts"`
	ErrorScripts          int     `json:"error_scripts"`
	SuccessRate           float64 `json:"success_rate"`
	AverageProcessingTime float64 `json:"average_processing_time"`
	TotalFileSizeMB       float64 `json:"total_file_size_mb"`
}

type CountResponse struct {
	TotalScripts int `json:"total_scripts"`
}

type ProjectResponse struct {
	ID                    string    `json:"id"`
	Title                 string    `json:"title"`
	Description           string    `json:"description,omitempty"`
	Status                string    `json:"status"`
	UserID                string    `json:"user_id,omitempty"`
	BudgetTotal           float64   `json:"budget_total"`
	EstimatedDurationDays int       `json:"estimated_duration_days"`
	ScriptFilename        string    `json:"script_filename,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type ProjectEnvelope struct {
	Success bool             `json:"success"`
	Project *ProjectResponse `json:"project"`
	Message string           `json:"message"`
}

// ProjectWithScriptResponse is returned by the combined create-and-analyze
// flow, pairing the project with a summary of its freshly stored script.
type ProjectWithScriptResponse struct {
	Success        bool             `json:"success"`
	Project        *ProjectResponse `json:"project"`
	ScriptAnalysis *ScriptSummary   `json:"script_analysis"`
	Message        string           `json:"message"`
}

type ProjectListResponse struct {
	Success    bool              `json:"success"`
	Data       []ProjectResponse `json:"data"`
	Pagination Pagination        `json:"pagination"`
}

type ProjectAnalysisResponse struct {
	Success  bool            `json:"success"`
	Analysis *ScriptResponse `json:"analysis"`
	Message  string          `json:"message"`
}

type UserResponse struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Username          string     `json:"username"`
	FullName          string     `json:"full_name,omitempty"`
	OAuthProvider     string     `json:"oauth_provider,omitempty"`
	ProfilePictureURL string     `json:"profile_picture_url,omitempty"`
	IsVerified        bool       `json:"is_verified"`
	IsActive          bool       `json:"is_active"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type AuthResponse struct {
	Success     bool         `json:"success"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        UserResponse `json:"user"`
}

type VerifyTokenResponse struct {
	Valid bool         `json:"valid"`
	User  UserResponse `json:"user"`
}

type AuthStatusResponse struct {
	GoogleConfigured bool `json:"google_configured"`
	AppleConfigured  bool `json:"apple_configured"`
	PasswordAuth     bool `json:"password_auth"`
	JWTConfigured    bool `json:"jwt_configured"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type RootResponse struct {
	Message  string   `json:"message"`
	Status   string   `json:"status"`
	Version  string   `json:"version"`
	Features []string `json:"features"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Analyzer  string    `json:"analyzer"`
	Version   string    `json:"version"`
}

type ChatAction struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

type ChatResponse struct {
	Response  string       `json:"response"`
	Actions   []ChatAction `json:"actions"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewScriptResponse converts a stored record to the full API shape.
func NewScriptResponse(s *AnalyzedScript) ScriptResponse {
	resp := ScriptResponse{
		ID:                s.ID.String(),
		Filename:          s.Filename,
		OriginalFilename:  s.OriginalFilename,
		FileSizeBytes:     s.FileSizeBytes,
		ScriptData:        unmarshalDoc(s.ScriptData),
		CastBreakdown:     unmarshalDoc(s.CastBreakdown),
		CostBreakdown:     unmarshalDoc(s.CostBreakdown),
		LocationBreakdown: unmarshalDoc(s.LocationBreakdown),
		PropsBreakdown:    unmarshalDoc(s.PropsBreakdown),
		APICallsUsed:      s.APICallsUsed,
		Status:            s.Status,
		TotalScenes:       s.TotalScenes,
		TotalCharacters:   s.TotalCharacters,
		TotalLocations:    s.TotalLocations,
		EstimatedBudget:   s.EstimatedBudget,
		BudgetCategory:    s.BudgetCategory,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	if s.ProcessingTimeSeconds.Valid {
		v := s.ProcessingTimeSeconds.Float64
		resp.ProcessingTimeSeconds = &v
	}
	if s.ErrorMessage.Valid {
		resp.ErrorMessage = s.ErrorMessage.String
	}
	if s.ProjectID.Valid {
		resp.ProjectID = s.ProjectID.UUID.String()
	}
	return resp
}

// NewScriptSummary converts a stored record to the list-view shape.
func NewScriptSummary(s *AnalyzedScript) ScriptSummary {
	sum := ScriptSummary{
		ID:              s.ID.String(),
		Filename:        s.Filename,
		FileSizeBytes:   s.FileSizeBytes,
		Status:          s.Status,
		TotalScenes:     s.TotalScenes,
		EstimatedBudget: s.EstimatedBudget,
		BudgetCategory:  s.BudgetCategory,
		CreatedAt:       s.CreatedAt,
	}
	if s.ProcessingTimeSeconds.Valid {
		v := s.ProcessingTimeSeconds.Float64
		sum.ProcessingTimeSeconds = &v
	}
	return sum
}

func NewProjectResponse(p *Project) ProjectResponse {
	resp := ProjectResponse{
		ID:                    p.ID.String(),
		Title:                 p.Title,
		Status:                p.Status,
		BudgetTotal:           p.BudgetTotal,
		EstimatedDurationDays: p.EstimatedDurationDays,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
	if p.Description.Valid {
		resp.Description = p.Description.String
	}
	if p.UserID.Valid {
		resp.UserID = p.UserID.UUID.String()
	}
	if p.ScriptFilename.Valid {
		resp.ScriptFilename = p.ScriptFilename.String
	}
	return resp
}

func NewUserResponse(u *User) UserResponse {
	resp := UserResponse{
		ID:         u.ID.String(),
		Email:      u.Email,
		Username:   u.Username,
		IsVerified: u.IsVerified,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
	if u.FullName.Valid {
		resp.FullName = u.FullName.String
	}
	if u.OAuthProvider.Valid {
		resp.OAuthProvider = u.OAuthProvider.String
	}
	if u.ProfilePictureURL.Valid {
		resp.ProfilePictureURL = u.ProfilePictureURL.String
	}
	if u.LastLoginAt.Valid {
		v := u.LastLoginAt.Time
		resp.LastLoginAt = &v
	}
	return resp
}

func unmarshalDoc(raw json.RawMessage) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
