package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldListingID  = "listing_id"
	FieldStatus     = "status"
	FieldStage      = "stage"
	FieldMonth      = "month"
	FieldPhotos     = "photos"
	FieldBackend    = "backend"
)

// Components.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentListings = "listings"
	ComponentIncome   = "income"
	ComponentExport   = "export"
	ComponentStorage  = "storage"
	ComponentObjects  = "objects"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentAuth     = "auth"
	ComponentBackend  = "backend"
)

// Operations.
const (
	OpCreate   = "create"
	OpQuick    = "quick_capture"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpDeal     = "deal_upsert"
	OpUpload   = "photo_upload"
	OpExport   = "export"
	OpScan     = "followup_scan"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields builds slog key/value pairs.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithListing(id string) LogFields {
	f[FieldListingID] = id
	return f
}

func (f LogFields) WithStage(stage string) LogFields {
	f[FieldStage] = stage
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields for slog, in no particular order.
func (f LogFields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
