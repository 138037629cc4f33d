package pkg

const (
	HeaderTraceId string = "X-Trace-Id"
)

const (
	TraceId   string = "trace_id"
	ProductId string = "product_id"
)

// Deployment environments accepted by APP_ENV.
const (
	EnvLocal string = "local"
	EnvDev   string = "dev"
	EnvQA    string = "qa"
	EnvStage string = "stage"
	EnvProd  string = "prod"
)

// IsProductionEnv reports whether logs should be emitted in the machine-parsable format.
func IsProductionEnv(env string) bool {
	return env == EnvStage || env == EnvProd
}
