package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldGroupID   = "group_id"
	FieldExpenseID = "expense_id"
	FieldPaymentID = "payment_id"
	FieldMemberID  = "member_id"
	FieldAmount    = "amount"
	FieldVersion   = "version"
	FieldMethodKey = "split_method"
	FieldPairs     = "pairs"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentLedger     = "ledger"
	ComponentSettlement = "settlement"
	ComponentStore      = "store"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentExport     = "export"
	ComponentCache      = "cache"
	ComponentRateLimit  = "rate_limit"
	ComponentTrace      = "trace"
	ComponentBackend    = "backend"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpSplit     = "split"
	OpSettle    = "settle"
	OpRecompute = "recompute"
	OpExport    = "export"
	OpValidate  = "validate"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)
