package report

import "errors"

// ErrTemplateMismatch indicates that the template's table placeholders do not
// correspond one-to-one with the declared targets.
var ErrTemplateMismatch = errors.New("template placeholders do not match targets")
