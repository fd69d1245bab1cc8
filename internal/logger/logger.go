package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ctxKey string

const (
	RequestIDKey ctxKey = "request_id"
	LoggerKey    ctxKey = "logger"
	UserIDKey    ctxKey = "user_id"
)

var globalLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the global logger. An unknown level falls back to info.
func Init(level string, jsonFormat bool) {
	InitWithWriter(level, jsonFormat, os.Stdout)
}

// InitWithWriter is Init with an explicit output.
func InitWithWriter(level string, jsonFormat bool, out io.Writer) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	output := out
	if !jsonFormat {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	globalLogger = zerolog.New(output).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "sprint-planner").
		Logger()
}

func Global() *zerolog.Logger {
	return &globalLogger
}

// Get returns the logger carried by ctx, or the global one.
func Get(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &globalLogger
	}
	if l, ok := ctx.Value(LoggerKey).(*zerolog.Logger); ok {
		return l
	}
	return &globalLogger
}

func FromGin(c *gin.Context) *zerolog.Logger {
	return Get(c.Request.Context())
}

// WithRequestID derives a logger tagged with requestID and stores both in ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	l := Get(ctx).With().Str("request_id", requestID).Logger()
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	return context.WithValue(ctx, LoggerKey, &l)
}

// WithUserID tags the context logger with the authenticated user.
func WithUserID(ctx context.Context, userID uint64) context.Context {
	l := Get(ctx).With().Uint64("user_id", userID).Logger()
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, LoggerKey, &l)
}

func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
