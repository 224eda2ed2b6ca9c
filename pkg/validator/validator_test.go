package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type productPayload struct {
	Name  string  `json:"name" validate:"required,notblank"`
	Price float64 `json:"price" validate:"gt=0"`
	Image string  `json:"image" validate:"required"`
	Tag   *string `json:"tag" validate:"omitempty,notblank"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := productPayload{Name: "Brass lamp", Price: 49.5, Image: "/lamp.jpg"}
	require.NoError(t, ValidateStruct(payload))
}

func TestValidateStructFailuresUseJSONNames(t *testing.T) {
	payload := productPayload{Name: "", Price: 0}

	err := ValidateStruct(payload)
	require.Error(t, err)

	vErrs, ok := err.(ValidationErrors)
	require.True(t, ok, "expected ValidationErrors, got %T", err)
	require.Len(t, vErrs, 3)

	fields := map[string]string{}
	for _, v := range vErrs {
		fields[v.Field] = v.Tag
	}
	require.Equal(t, "required", fields["name"])
	require.Equal(t, "gt", fields["price"])
	require.Equal(t, "required", fields["image"])
	require.Contains(t, err.Error(), "price failed on gt=0")
}

func TestNotBlankRejectsWhitespace(t *testing.T) {
	blank := "   "
	payload := productPayload{Name: "  ", Price: 1, Image: "x", Tag: &blank}

	err := ValidateStruct(payload)
	require.Error(t, err)

	vErrs := err.(ValidationErrors)
	require.Len(t, vErrs, 2)
	for _, v := range vErrs {
		require.Equal(t, "notblank", v.Tag)
	}
}
