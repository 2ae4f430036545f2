package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldAPIURL     = "api_url"
	FieldUserID     = "user_id"
	FieldCount      = "count"
)

// Components
const (
	ComponentApp     = "app"
	ComponentAPI     = "api"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentMockAPI = "mockapi"
	ComponentCLI     = "cli"
)
