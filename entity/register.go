package entity

import (
	"fmt"
	"regexp"

	playground "github.com/go-playground/validator/v10"
)

var personNamePattern = regexp.MustCompile(`^[A-Za-záéíóúÁÉÍÓÚñÑ' ]+$`)

func init() {
	err := validate.RegisterValidation("personname", func(fl playground.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("entity: register personname validation: %v", err))
	}
}
