package enrichment

import "go.uber.org/zap"

// collapse turns a failed or nil lookup result into an empty map. Enrichment
// is best effort: callers must never observe a transport error, only missing
// entries.
func collapse[K comparable, V any](logger *zap.Logger, what string, result map[K]V, err error) map[K]V {
	if err != nil {
		logger.Warn("enrichment lookup failed, returning empty result",
			zap.String("lookup", what),
			zap.Error(err),
		)
		return map[K]V{}
	}
	if result == nil {
		return map[K]V{}
	}
	return result
}
