package user

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/fellowship/core"
)

var (
	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to your name or email"
)

func init() {
	v, t := core.Validate, core.Translator

	v.RegisterStructValidation(userStructValidation, NewUser{}, ChangePassword{}, ResetPassword{})
	core.RegisterCustomTranslation(v, t, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(v, t, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(v, t, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(v, t, pwdAttrSimTag, pwdAttrSimText)
}

// userStructValidation does struct level validation on the forms carrying a new password.
func userStructValidation(sl validator.StructLevel) {
	switch form := sl.Current().Interface().(type) {
	case NewUser:
		validatePassword(form.Password, "password", sl, form.FirstName, form.LastName, form.Email)
	case ChangePassword:
		validatePassword(form.NewPassword, "newPassword", sl, form.usr.FirstName, form.usr.LastName, form.usr.Email)
	case ResetPassword:
		validatePassword(form.Password, "password", sl)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 6
// - no whitespace
// - no all numeric
// - no user attrs similarity
func validatePassword(pwd, field string, sl validator.StructLevel, attrs ...string) {
	if pwd == "" {
		return // reported by `required`
	}
	reportErr := func(tag string) {
		sl.ReportError(pwd, field, field, tag, "")
	}

	// - minLen: 6
	runes := []rune(pwd)
	if len(runes) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	var digitCount int
	for _, char := range runes {
		// - no whitespace
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}

	// - not all numeric
	if digitCount == len(runes) {
		reportErr(pwdNotAllNumTag)
		return
	}

	// - no user attrs similarity
	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if similarity(lpwd, strings.ToLower(attr)) >= pwdMaxSim {
			reportErr(pwdAttrSimTag)
			return
		}
	}
}

func similarity(pwd, attr string) float64 {
	if attr == "" {
		return 0
	}
	return difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(attr, "")).QuickRatio()
}
