package testutil

import (
	"strings"

	"github.com/google/uuid"
)

// RandomUsername returns a username unique across test runs sharing a database.
func RandomUsername(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
