package server

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// AuthSignupRequest represents the signup payload.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest represents the login payload.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// ProcessRequest names an application to run through the pipeline.
type ProcessRequest struct {
	Name           string `json:"name"`
	InfoURL        string `json:"info_url"`
	ApplicationURL string `json:"application_url"`
	Context        string `json:"context"`
}

// ProcessResponse returns the run id to poll for progress.
type ProcessResponse struct {
	RunID string `json:"run_id"`
}

// ValidateURLRequest carries one URL to check.
type ValidateURLRequest struct {
	URL string `json:"url"`
}

// ValidateURLResponse reports whether the URL is fetchable as given.
type ValidateURLResponse struct {
	URL   string `json:"url"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// PageRequest carries one URL for a single-stage extraction call.
type PageRequest struct {
	URL string `json:"url"`
}

// AnswersRequest carries the inputs of the answer-generation stage.
type AnswersRequest struct {
	ApplicationInfo interface{}   `json:"application_info"`
	Questions       []interface{} `json:"questions"`
	Context         string        `json:"context"`
}

// StageResponse wraps a single-stage extraction result.
type StageResponse struct {
	Result    interface{} `json:"result"`
	FromCache bool        `json:"from_cache"`
	Warning   string      `json:"warning,omitempty"`
}

// ResultDetail is an archived report plus its rendered markdown.
type ResultDetail struct {
	Report          interface{} `json:"report"`
	AnswersMarkdown string      `json:"answers_markdown,omitempty"`
}

// SearchResponse lists archive search hits for a query.
type SearchResponse struct {
	Query string      `json:"query"`
	Hits  interface{} `json:"hits"`
}

// CreateApplicationRequest registers a tracked application.
type CreateApplicationRequest struct {
	Name           string `json:"name"`
	InfoURL        string `json:"info_url"`
	ApplicationURL string `json:"application_url"`
	Context        string `json:"context"`
	ScheduleCron   string `json:"schedule_cron"`
}

// IDResponse is a generic id response wrapper.
type IDResponse struct {
	ID string `json:"id"`
}
