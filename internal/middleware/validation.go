package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/benbeisheim/chessrules-backend/internal/model"
)

const bodyKey = "validatedBody"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// "square" accepts algebraic names a1..h8.
	if err := v.RegisterValidation("square", func(fl validator.FieldLevel) bool {
		_, err := model.ParseSquare(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}
	return v
}

// FieldError describes one rejected field of a request body.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError is returned by ValidateBody when the body fails its
// validate tags.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s failed %s", f.Field, f.Rule)
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

// Validate runs the validate tags on v.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, len(verrs))}
	for i, fe := range verrs {
		out.Fields[i] = FieldError{Field: fe.Field(), Rule: fe.Tag()}
	}
	return out
}

// ValidateBody parses the JSON body into a new T, validates it and stores
// it for Body. An empty body validates the zero T.
func ValidateBody[T any]() fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := new(T)
		if len(c.Body()) > 0 {
			if err := c.BodyParser(body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
		}
		if err := Validate(body); err != nil {
			return err
		}
		c.Locals(bodyKey, body)
		return c.Next()
	}
}

// Body returns the value stored by ValidateBody[T].
func Body[T any](c *fiber.Ctx) *T {
	body, _ := c.Locals(bodyKey).(*T)
	if body == nil {
		return new(T)
	}
	return body
}
