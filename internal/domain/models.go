package domain

// CallerIdentity is the verified identity of an inbound caller.
// Produced per request by the identity verifier; never persisted.
type CallerIdentity struct {
	Subject  string `json:"subject"`
	Audience string `json:"audience"`
}

// Account is the prepaid balance entry for a subject.
type Account struct {
	Subject string  `json:"subject"`
	Balance float64 `json:"balance"`
}

// Usage tracks token consumption reported by the upstream API.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// CompletionResult is the outcome of one upstream call. Body is the raw
// upstream response, returned to the caller unmodified; Model and Usage are
// the only fields decoded locally, for pricing and audit.
type CompletionResult struct {
	Model string
	Usage Usage
	Body  []byte
}

// TransactionRecord is the immutable audit entry written once per completed
// billed call, before the balance deduction.
type TransactionRecord struct {
	ID              string  `json:"transaction_id"`
	UserID          string  `json:"user_id"`
	Model           string  `json:"model"`
	ReqTokens       int     `json:"req_tokens"`
	ResTokens       int     `json:"res_tokens"`
	DurationSeconds float64 `json:"duration_seconds"`
}
