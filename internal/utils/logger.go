package utils

import (
	"log"
	"strings"
)

// LogEvent prints standardized log line with module/action/run_id.
// Avoid logging credentials or raw payloads; message should be summarized.
func LogEvent(runID, module, action, message string) {
	id := strings.TrimSpace(runID)
	log.Printf("[%s] action=%s run_id=%s msg=%s", strings.ToUpper(module), action, id, message)
}
