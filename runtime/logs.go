package runtime

import "github.com/rentchain/rentchain-go/solana"

// DefaultLogBytesLimit is the number of log bytes a transaction may emit
// before its log is truncated.
const DefaultLogBytesLimit = 10000

type logCollector struct {
	limit     int
	size      int
	truncated bool
	logs      []string
}

func newLogCollector(limit int) *logCollector {
	return &logCollector{limit: limit}
}

func (c *logCollector) add(msg string) {
	if c.truncated {
		return
	}

	c.size += len(msg)
	if c.limit > 0 && c.size > c.limit {
		c.truncated = true
		c.logs = append(c.logs, solana.LogTruncated)
		return
	}

	c.logs = append(c.logs, msg)
}

func (c *logCollector) get() []string {
	logs := make([]string, len(c.logs))
	copy(logs, c.logs)
	return logs
}
