package controllers

import "github.com/go-playground/validator/v10"

// validate is shared by every controller; validator.Validate is safe for
// concurrent use.
var validate = validator.New()
