package bapp

import (
	"time"

	"github.com/advdv/bslim"
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations must implement.
// Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	port() int
	serviceName() string
	readinessCheckPath() string
	logLevel() zapcore.Level
	otelExporter() string
	errorFlags() bslim.Flags
	bufferLimit() int
	writeTimeout() time.Duration
}

// BaseEnvironment contains the environment variables every app reads.
// Embed this in your custom environment struct.
type BaseEnvironment struct {
	Port               int           `env:"BSLIM_PORT,required"`
	ServiceName        string        `env:"BSLIM_SERVICE_NAME,required"`
	ReadinessCheckPath string        `env:"BSLIM_READINESS_CHECK_PATH" envDefault:"/health"`
	LogLevel           zapcore.Level `env:"BSLIM_LOG_LEVEL" envDefault:"info"`
	// OtelExporter is one of "stdout", "xrayudp" or "none".
	OtelExporter string `env:"BSLIM_OTEL_EXPORTER" envDefault:"stdout"`

	DisplayErrorDetails bool `env:"BSLIM_DISPLAY_ERROR_DETAILS" envDefault:"false"`
	LogErrors           bool `env:"BSLIM_LOG_ERRORS" envDefault:"true"`
	LogErrorDetails     bool `env:"BSLIM_LOG_ERROR_DETAILS" envDefault:"true"`

	// BufferLimit caps the bytes a response may buffer, negative means no limit.
	BufferLimit  int           `env:"BSLIM_BUFFER_LIMIT" envDefault:"-1"`
	WriteTimeout time.Duration `env:"BSLIM_WRITE_TIMEOUT" envDefault:"30s"`
}

func (e BaseEnvironment) port() int {
	return e.Port
}

func (e BaseEnvironment) serviceName() string {
	return e.ServiceName
}

func (e BaseEnvironment) readinessCheckPath() string {
	return e.ReadinessCheckPath
}

func (e BaseEnvironment) logLevel() zapcore.Level {
	return e.LogLevel
}

func (e BaseEnvironment) otelExporter() string {
	return e.OtelExporter
}

func (e BaseEnvironment) errorFlags() bslim.Flags {
	return bslim.Flags{
		DisplayErrorDetails: e.DisplayErrorDetails,
		LogErrors:           e.LogErrors,
		LogErrorDetails:     e.LogErrorDetails,
	}
}

func (e BaseEnvironment) bufferLimit() int {
	return e.BufferLimit
}

func (e BaseEnvironment) writeTimeout() time.Duration {
	return e.WriteTimeout
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}
		return e, nil
	}
}
