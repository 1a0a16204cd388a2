package shared

import (
	"net/http"
	"strconv"
)

// ActorHeader carries the authenticated user's id, set by the upstream
// gateway. Authentication itself lives outside this service.
const ActorHeader = "X-Actor-ID"

// ActorFromRequest extracts the acting user id from request headers.
// Returns 0 when the header is absent or malformed.
func ActorFromRequest(r *http.Request) int64 {
	raw := r.Header.Get(ActorHeader)
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
