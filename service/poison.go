package service

import (
	"clipnest-pipeline/constant"
	"fmt"
)

// IsPoisoned reports whether a message has been leased more times than the
// retry budget allows. A threshold <= 0 falls back to the default.
func IsPoisoned(readCount, threshold int) bool {
	if threshold <= 0 {
		threshold = constant.DefaultPoisonPillThreshold
	}
	return readCount > threshold
}

func poisonMessage(stage constant.Stage, readCount int) string {
	return fmt.Sprintf("%s job exceeded max retries (read_ct=%d)", stage, readCount)
}
