package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "estatehub/pkg/domain-errors"
)

type location struct {
	City    string `json:"city" validate:"notblank"`
	Country string `json:"country" validate:"required"`
}

type sample struct {
	Title    string   `json:"title" validate:"required,max=10"`
	Currency string   `json:"currency" validate:"currency"`
	Color    string   `json:"color" validate:"hexcolor_or_empty"`
	Location location `json:"location"`
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		err := Validate(sample{Title: "Loft", Currency: "USD", Location: location{City: "Austin", Country: "US"}})
		assert.NoError(t, err)
	})

	t.Run("reports each field by json path", func(t *testing.T) {
		err := Validate(sample{Title: "", Currency: "usd", Color: "red", Location: location{City: "  "}})
		require.Error(t, err)

		var de *dErrors.Error
		require.True(t, errors.As(err, &de))
		assert.Equal(t, dErrors.CodeValidation, de.Code)
		assert.Equal(t, map[string]string{
			"title":            "title is required",
			"currency":         "currency must be a 3-letter ISO 4217 code",
			"color":            "color must be a hex color",
			"location.city":    "location.city must not be blank",
			"location.country": "location.country is required",
		}, de.Fields)
		assert.Contains(t, de.Message, "title is required")
	})

	t.Run("max", func(t *testing.T) {
		err := Validate(sample{Title: "a very long title", Currency: "EUR", Location: location{City: "Lyon", Country: "FR"}})
		var de *dErrors.Error
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "title must be at most 10", de.Fields["title"])
	})
}

func TestErrorMessage_NonValidatorError(t *testing.T) {
	assert.Equal(t, "invalid request body", ErrorMessage(errors.New("boom")))
	assert.Nil(t, Fields(errors.New("boom")))
}

func TestValidate_UntaggedFieldsUseSnakeCase(t *testing.T) {
	type filter struct {
		MaxPrice int `validate:"min=1"`
	}

	err := Validate(filter{})

	var de *dErrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "max_price must be at least 1", de.Fields["max_price"])
}
