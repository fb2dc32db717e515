package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const trackingSuffixLen = 9

// NewTrackingID returns "blog_<unix-ms>_<9 chars>".
func NewTrackingID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:trackingSuffixLen]
	return fmt.Sprintf("blog_%d_%s", now.UnixMilli(), suffix)
}
