// Package bugs defines core types shared across subsystems.
package bugs

import (
	"sort"
	"strings"
)

// Record is the normalized output produced for a single tracker URL.
type Record struct {
	// ID combines the humanized project name with the tracker-local number,
	// e.g. "LibreCAD #1234". Ordering compares it case-insensitively.
	ID string `json:"id"`
	// URL is the original input URL, unmodified.
	URL string `json:"url"`
	// Lead attributes the record; it is constant across a run.
	Lead string `json:"lead"`
	// Date is an ISO calendar date (YYYY-MM-DD) when recoverable, the raw
	// textual fallback otherwise, and empty only when nothing date-like
	// could be found.
	Date string `json:"date"`
	// Desc is a single-line title or subject, cleaned of site chrome.
	Desc string `json:"desc"`
}

// SortRecords orders records by case-insensitive ID. Sorting an already
// sorted slice is a no-op.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return strings.ToLower(records[i].ID) < strings.ToLower(records[j].ID)
	})
}
