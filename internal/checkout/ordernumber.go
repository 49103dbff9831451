package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newOrderNumber builds a human-legible order number from a UTC timestamp
// token and a random suffix. Collision-freedom is not guaranteed here; the
// order store enforces uniqueness and the caller retries on a duplicate.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102-150405"), suffix)
}
