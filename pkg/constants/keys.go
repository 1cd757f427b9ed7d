package constants

type ContextKey string

const (
	TxKey        ContextKey = "tx"
	PoolKey      ContextKey = "pool"
	LoggerKey    ContextKey = "logger"
	RequestIDKey ContextKey = "request_id"
	ParamsKey    ContextKey = "params"
	AppKey       ContextKey = "app"
)

const RequestStart ContextKey = "requestStart"
