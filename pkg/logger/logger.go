// Package logger provides the unified logging framework.
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Level aliases the zerolog level type.
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

// Config controls the global logger.
type Config struct {
	Level      string `json:"level"`
	Format     string `json:"format"` // json/console
	Output     string `json:"output"` // stdout/stderr/file
	FilePath   string `json:"file_path,omitempty"`
	TimeFormat string `json:"time_format,omitempty"`
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// Init initializes the global logger. Subsequent calls are no-ops.
func Init(cfg Config) {
	once.Do(func() {
		zerolog.SetGlobalLevel(parseLevel(cfg.Level))

		var output io.Writer
		switch cfg.Output {
		case "stderr":
			output = os.Stderr
		case "file":
			if cfg.FilePath != "" {
				f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
				if err == nil {
					output = f
				} else {
					output = os.Stdout
				}
			} else {
				output = os.Stdout
			}
		default:
			output = os.Stdout
		}

		if cfg.Format == "console" {
			output = zerolog.ConsoleWriter{
				Out:        output,
				TimeFormat: cfg.TimeFormat,
			}
		}

		logger = zerolog.New(output).With().Timestamp().Logger()
	})
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the global logger, initializing defaults if needed.
func Get() *zerolog.Logger {
	if logger.GetLevel() == zerolog.Disabled {
		Init(DefaultConfig())
	}
	return &logger
}

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	teamIDKey    ctxKey = "team_id"
)

// WithRequestID stores the request id in the context for WithContext.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithTeamID stores the team id in the context for WithContext.
func WithTeamID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, teamIDKey, id)
}

// WithContext derives a logger enriched with request and team ids from ctx.
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Get().With().Logger()

	if reqID, ok := ctx.Value(requestIDKey).(string); ok {
		l = l.With().Str("request_id", reqID).Logger()
	}
	if teamID, ok := ctx.Value(teamIDKey).(string); ok {
		l = l.With().Str("team_id", teamID).Logger()
	}

	return &l
}

// RequestIDFrom extracts the request id stored by WithRequestID.
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// Debug starts a debug event.
func Debug() *zerolog.Event { return Get().Debug() }

// Info starts an info event.
func Info() *zerolog.Event { return Get().Info() }

// Warn starts a warning event.
func Warn() *zerolog.Event { return Get().Warn() }

// Error starts an error event.
func Error() *zerolog.Event { return Get().Error() }

// Fatal starts a fatal event.
func Fatal() *zerolog.Event { return Get().Fatal() }

// WithError starts an error event carrying err.
func WithError(err error) *zerolog.Event { return Get().Error().Err(err) }

// OrchestratorLogger is the domain logger of the planning engine.
type OrchestratorLogger struct {
	base *zerolog.Logger
}

// NewOrchestratorLogger creates a logger scoped to the orchestrator component.
func NewOrchestratorLogger() *OrchestratorLogger {
	l := Get().With().Str("component", "orchestrator").Logger()
	return &OrchestratorLogger{base: &l}
}

// StartRun logs the start of an orchestration run.
func (l *OrchestratorLogger) StartRun(runID, teamID uuid.UUID, mode string, horizonStart, horizonEnd time.Time) {
	l.base.Info().
		Str("run_id", runID.String()).
		Str("team_id", teamID.String()).
		Str("mode", mode).
		Str("horizon_start", horizonStart.Format("2006-01-02")).
		Str("horizon_end", horizonEnd.Format("2006-01-02")).
		Msg("orchestration run started")
}

// ConstraintEvent logs a constraint event that influenced planning.
func (l *OrchestratorLogger) ConstraintEvent(product, kind, severity, note string) {
	l.base.Warn().
		Str("product", product).
		Str("kind", kind).
		Str("severity", severity).
		Str("note", note).
		Msg("constraint event")
}

// UnitPlanned logs a planned unit at debug level.
func (l *OrchestratorLogger) UnitPlanned(product string, unitKey time.Time, assignee string) {
	l.base.Debug().
		Str("product", product).
		Str("unit", unitKey.Format("2006-01-02")).
		Str("assignee", assignee).
		Msg("unit planned")
}

// RunComplete logs the completion of a run.
func (l *OrchestratorLogger) RunComplete(runID uuid.UUID, duration time.Duration, shifts, unassigned int) {
	l.base.Info().
		Str("run_id", runID.String()).
		Dur("duration", duration).
		Int("shifts", shifts).
		Int("unassigned", unassigned).
		Msg("orchestration run complete")
}

// ExtenderTick logs one nightly extender pass.
func (l *OrchestratorLogger) ExtenderTick(teams, extended, failed int, duration time.Duration) {
	l.base.Info().
		Int("teams", teams).
		Int("extended", extended).
		Int("failed", failed).
		Dur("duration", duration).
		Msg("extender tick complete")
}
