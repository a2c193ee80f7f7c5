package core

// AuditLogger receives structured audit events. *zap.SugaredLogger satisfies it.
type AuditLogger interface {
	Infow(msg string, keysAndValues ...any)
}
