// Package payload decodes authenticated notification bodies into typed
// events.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"

	"jobsync-engine/internal/domain"
)

// ErrMalformed means the body is not structurally valid JSON for the
// documented schema. Unknown event kinds are NOT malformed; they parse
// fine and the pipeline treats them as no-ops.
var ErrMalformed = errors.New("payload: malformed body")

// Parse decodes rawBody into a WebhookEvent. Unknown top-level fields are
// tolerated; the remote service adds markers (test, retry) freely.
func Parse(rawBody []byte) (domain.WebhookEvent, error) {
	var evt domain.WebhookEvent
	if err := json.Unmarshal(rawBody, &evt); err != nil {
		return domain.WebhookEvent{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return evt, nil
}
