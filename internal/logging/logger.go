// Package logging defines the structured logger every engine component
// takes. Backends wrap log/slog or zap; New picks one from config.
package logging

import "context"

// Logger writes leveled records. args are alternating keys and values:
//
//	logger.Info(ctx, "document saved", "key", key, "records", n)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	// Warn is for conditions the engine recovers from, such as a healed
	// config tier or a photo missing from an export.
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record.
	With(args ...any) Logger
}
