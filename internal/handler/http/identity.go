package http

import (
	"net/http"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/shop-service/internal/apperr"
	"github.com/vasiliy-maslov/shop-service/internal/cart"
)

const (
	headerUserID    = "X-User-Id"
	headerSessionID = "X-Session-Id"

	// carts.session_token width
	maxSessionTokenLen = 100
)

// identityFromRequest resolves the caller from the identity headers. Without
// either header a fresh session token is minted for an anonymous cart.
func identityFromRequest(r *http.Request) (cart.Identity, bool, error) {
	userID, err := optionalUserID(r)
	if err != nil {
		return cart.Identity{}, false, err
	}
	if userID != uuid.Nil {
		return cart.Identity{UserID: userID}, false, nil
	}

	token, err := sessionToken(r)
	if err != nil {
		return cart.Identity{}, false, err
	}
	if token != "" {
		return cart.Identity{SessionToken: token}, false, nil
	}

	fresh, err := uuid.NewV4()
	if err != nil {
		return cart.Identity{}, false, err
	}
	return cart.Identity{SessionToken: fresh.String()}, true, nil
}

func sessionToken(r *http.Request) (string, error) {
	token := strings.TrimSpace(r.Header.Get(headerSessionID))
	if len(token) > maxSessionTokenLen {
		return "", apperr.BadRequest("%s header must be at most %d characters", headerSessionID, maxSessionTokenLen)
	}
	return token, nil
}

func optionalUserID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.Header.Get(headerUserID))
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		return uuid.Nil, apperr.BadRequest("invalid %s header", headerUserID)
	}
	return id, nil
}

func requireUserID(r *http.Request) (uuid.UUID, error) {
	id, err := optionalUserID(r)
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, apperr.BadRequest("%s header is required", headerUserID)
	}
	return id, nil
}

func parseUUIDParam(raw, name string) (uuid.UUID, error) {
	id, err := uuid.FromString(raw)
	if err != nil {
		return uuid.Nil, apperr.BadRequest("invalid %s format", name)
	}
	return id, nil
}
