package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyEntity      = "entity"
	KeyKind        = "kind"
	KeyOperation   = "operation"
	KeyService     = "service"
	KeyContainerID = "container_id"
	KeyStatus      = "status"
	KeyPath        = "path"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Entity(name string) slog.Attr      { return slog.String(KeyEntity, name) }
func Kind(k string) slog.Attr           { return slog.String(KeyKind, k) }
func Operation(op string) slog.Attr     { return slog.String(KeyOperation, op) }
func Service(s string) slog.Attr        { return slog.String(KeyService, s) }
func ContainerID(id string) slog.Attr   { return slog.String(KeyContainerID, id) }
func Status(s string) slog.Attr         { return slog.String(KeyStatus, s) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
