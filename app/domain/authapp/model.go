package authapp

import (
	"encoding/json"
	"fmt"

	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/business/types/password"
)

// Token carries a signed token back to the caller.
type Token struct {
	Token string `json:"token"`
}

// Encode implements the web.Encoder interface.
func (t Token) Encode() ([]byte, string, error) {
	data, err := json.Marshal(t)
	return data, "application/json", err
}

func toAppToken(token string) Token {
	return Token{
		Token: token,
	}
}

// Login defines the credentials needed to request a token.
type Login struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *Login) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app Login) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

func toBusPassword(value string) (password.Password, error) {
	return password.Parse(value)
}
