package s0_data

import (
	"fmt"
	"iter"
	"strings"

	"github.com/wonny/hqm/backend/internal/contracts"
)

// DefaultBatchSize is the provider's per-request symbol cap
const DefaultBatchSize = 100

// Batch splits symbols into consecutive groups of at most size.
// ⭐ SSOT: 배치 분할은 여기서만
//
// The sequence yields ceil(len/size) groups; their concatenation equals
// symbols. Groups are sub-slices of symbols and must not be modified.
func Batch(symbols []string, size int) (iter.Seq[[]string], error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", contracts.ErrInvalidArgument, size)
	}

	return func(yield func([]string) bool) {
		for start := 0; start < len(symbols); start += size {
			end := min(start+size, len(symbols))
			if !yield(symbols[start:end:end]) {
				return
			}
		}
	}, nil
}

// BatchCount returns ceil(n/size) for size > 0
func BatchCount(n, size int) int {
	if size <= 0 || n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// BatchKey renders the comma-joined provider key for one group
func BatchKey(group []string) string {
	return strings.Join(group, ",")
}

// ParseBatchKey reverses BatchKey
func ParseBatchKey(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, ",")
}
