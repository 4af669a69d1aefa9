//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     LoginRequest
		wantErr bool
		field   string
	}{
		{name: "valid", req: LoginRequest{Username: "admin", Password: "secret"}},
		{name: "missing username", req: LoginRequest{Password: "secret"}, wantErr: true, field: "username"},
		{name: "missing password", req: LoginRequest{Username: "admin"}, wantErr: true, field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestLoginResponse_JSON(t *testing.T) {
	data, err := json.Marshal(LoginResponse{Token: "abc", ExpiresIn: 3600})
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"abc","expires_in":3600}`, string(data))
}
