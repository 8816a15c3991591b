package utils

import (
	"capture/globals"
	"net/http"
)

// GetUserIDFromRequest returns the authenticated user's ID, or "" when the
// request carries no valid identity.
func GetUserIDFromRequest(r *http.Request) string {
	requestingUserID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok {
		return ""
	}
	return requestingUserID
}
