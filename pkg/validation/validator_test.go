package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestToDetails_ValidationErrors(t *testing.T) {
	v := validator.New()
	err := v.Struct(sample{Email: "not-an-email", Password: "short"})
	require.Error(t, err)

	details := ToDetails(err)
	require.Equal(t, "must be a valid email", details["Email"])
	require.Equal(t, "must be at least 8 characters long", details["Password"])
}

func TestToDetails_InvalidJSON(t *testing.T) {
	var s sample
	err := json.Unmarshal([]byte("{"), &s)
	require.Error(t, err)
	require.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
}

func TestToDetails_Nil(t *testing.T) {
	require.Nil(t, ToDetails(nil))
}
