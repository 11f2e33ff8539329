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
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUser       = "user"
	FieldDate       = "date"
	FieldBucketKey  = "bucket_key"
	FieldRecordKey  = "record_key"
	FieldDeviceID   = "device_id"
	FieldRecords    = "records"
	FieldAnomalies  = "anomalies"
	FieldUpstream   = "upstream_status"
	FieldTier       = "tier"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentGateway   = "gateway"
	ComponentDashboard = "dashboard"
	ComponentBucket    = "bucket"
	ComponentSession   = "session"
	ComponentCache     = "cache"
	ComponentAMQP      = "amqp"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpLogin    = "login"
	OpLogout   = "logout"
	OpFetch    = "fetch"
	OpLookup   = "lookup"
	OpAppend   = "append"
	OpPublish  = "publish"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
