package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidSlug(t *testing.T) {
	valid := []string{"a", "abc", "a1", "my-site", "my-site-2", "123", "a-b-c"}
	for _, s := range valid {
		assert.True(t, ValidSlug(s), "%q should be valid", s)
	}

	invalid := []string{"", "-abc", "abc-", "a--b", "ABC", "my_site", "my site", "héllo"}
	for _, s := range invalid {
		assert.False(t, ValidSlug(s), "%q should be invalid", s)
	}
}

func TestValidate_SlugTag(t *testing.T) {
	v := New()

	type req struct {
		Slug string `json:"slug" validate:"required,slug"`
	}

	require.NoError(t, v.Validate(req{Slug: "my-site"}))

	err := v.Validate(req{Slug: "My-Site"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slug")
}

func TestValidate_RequiredAndEmail(t *testing.T) {
	v := New()

	type req struct {
		Email string `json:"email" validate:"required,email"`
	}

	require.NoError(t, v.Validate(req{Email: "dana@example.com"}))

	err := v.Validate(req{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email is required")

	err = v.Validate(req{Email: "not-an-email"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid email address")
}
