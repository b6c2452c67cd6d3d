package llm

import (
	"os"
	"strconv"
	"time"
)

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func clientTimeout() time.Duration {
	return time.Duration(envInt("LLM_TIMEOUT_MS", 60000)) * time.Millisecond
}
