package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/recordshop/pkg/validate"
)

type loginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type recordInput struct {
	Title   string  `json:"titleRecord" validate:"required,max=10"`
	Price   float64 `json:"price"       validate:"min=0"`
	Year    *int    `json:"year"        validate:"nullable,min=1900"`
	Payment string  `json:"payment"     validate:"required,in=credit-card,paypal"`
	Site    string  `json:"site"        validate:"nullable,url"`
}

func TestValidInput(t *testing.T) {
	year := 1959
	errs := validate.Struct(recordInput{Title: "Blue", Price: 9.5, Year: &year, Payment: "paypal"})
	assert.Empty(t, errs)
	assert.NoError(t, validate.Check(loginInput{Email: "a@b.co", Password: "secret"}))
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(loginInput{})
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
}

func TestEmailRule(t *testing.T) {
	errs := validate.Struct(loginInput{Email: "not-an-email", Password: "secret"})
	assert.Equal(t, "The email must be a valid email address.", errs["email"])
}

func TestMinMaxAndIn(t *testing.T) {
	year := 1800
	errs := validate.Struct(recordInput{Title: "Far too long a title", Price: -1, Year: &year, Payment: "cash", Site: "ftp://x"})
	assert.Contains(t, errs, "titleRecord")
	assert.Contains(t, errs, "price")
	assert.Contains(t, errs, "year")
	assert.Contains(t, errs, "payment")
	assert.Contains(t, errs, "site")
}

func TestNullablePointerSkipped(t *testing.T) {
	errs := validate.Struct(recordInput{Title: "ok", Payment: "credit-card"})
	assert.NotContains(t, errs, "year")
}

func TestCheckReturnsJoinedMessage(t *testing.T) {
	err := validate.Check(loginInput{Email: "x@y.io"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")
}
