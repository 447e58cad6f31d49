package shared

import "fmt"

// FormatNumber renders a document number as PREFIX-00000
func FormatNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s-%05d", prefix, n)
}
