package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestUserIDFromToken(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.MapClaims
		want   int
	}{
		{"numeric id", jwt.MapClaims{"id": 5}, 5},
		{"numeric userId", jwt.MapClaims{"userId": 42}, 42},
		{"string sub", jwt.MapClaims{"sub": "7"}, 7},
		{"userId wins over sub", jwt.MapClaims{"userId": 3, "sub": "9"}, 3},
		{"id wins over userId", jwt.MapClaims{"id": 1, "userId": 3}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := UserIDFromToken(sign(t, tc.claims))
			require.NoError(t, err)
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestUserIDFromTokenErrors(t *testing.T) {
	_, err := UserIDFromToken("garbage")
	assert.Error(t, err)

	_, err = UserIDFromToken(sign(t, jwt.MapClaims{"name": "aiko"}))
	assert.ErrorIs(t, err, ErrNoUserID)

	_, err = UserIDFromToken(sign(t, jwt.MapClaims{"sub": "abc"}))
	assert.Error(t, err)

	_, err = UserIDFromToken(sign(t, jwt.MapClaims{"userId": 1.5}))
	assert.Error(t, err)
}
