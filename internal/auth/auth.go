// Package auth reads learner identity from backend access tokens.
package auth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoUserID is returned when a token carries no usable user id claim.
var ErrNoUserID = errors.New("token has no user id claim")

// UserIDFromToken returns the user id carried by an access token. The
// signature is not verified; the backend does that on every request.
func UserIDFromToken(token string) (int, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0, fmt.Errorf("failed to parse access token: %w", err)
	}
	for _, key := range []string{"id", "userId", "sub"} {
		raw, ok := claims[key]
		if !ok {
			continue
		}
		id, err := claimInt(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s claim: %w", key, err)
		}
		return id, nil
	}
	return 0, ErrNoUserID
}

func claimInt(raw any) (int, error) {
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) || v <= 0 {
			return 0, fmt.Errorf("%v is not a positive integer", v)
		}
		return int(v), nil
	case string:
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("%q is not a positive integer", v)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("unsupported claim type %T", raw)
	}
}
