package handler

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"

	"github.com/dtroode/accounts-server/internal/apperrors"
	"github.com/dtroode/accounts-server/internal/model"
)

const minPasswordLength = 6

type registerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Subscription string `json:"subscription"`
}

func subscriptionValues() []interface{} {
	values := make([]interface{}, 0, len(model.Subscriptions))
	for _, s := range model.Subscriptions {
		values = append(values, string(s))
	}
	return values
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(minPasswordLength, model.MaxPasswordBytes)),
		validation.Field(&r.Subscription, validation.In(subscriptionValues()...)),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(minPasswordLength, model.MaxPasswordBytes)),
	)
}

type resendRequest struct {
	Email string `json:"email"`
}

func (r resendRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// parseBody decodes the JSON body into req and validates it.
func parseBody(c *fiber.Ctx, req validation.Validatable) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewErrValidation("invalid request body")
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewErrValidation(err.Error())
	}
	return nil
}
