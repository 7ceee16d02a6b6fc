package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MinorAge is the age below which a patient cannot register themself.
const MinorAge = 18

// DateLayout is the wire format of date-of-birth values.
const DateLayout = "2006-01-02"

var ErrUnknownField = errors.New("unknown field")

var (
	// Letters (Latin-1 supplement and Latin Extended-A included), space,
	// hyphen, apostrophe, period and backtick.
	namePattern  = regexp.MustCompile("^[A-Za-zÀ-ž\\s\\-'.` ]+$")
	phonePattern = regexp.MustCompile(`^\+?\d+$`)
	zipPattern   = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	emailPattern = regexp.MustCompile(`^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-z\-0-9]+\.)+[a-z]{2,}))$`)
)

// Validate applies the rules registered for key to raw and returns the new
// field state. The returned state is always marked as touched.
func Validate(key Key, raw string, vctx Context) (Result, error) {
	spec, ok := Lookup(key)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	if sanitized(spec.Kind) {
		raw = Sanitize(raw)
	}
	return validateSpec(spec, raw, vctx), nil
}

// sanitized reports whether markup is stripped from values of kind before
// validation. Patterned kinds are checked as typed so markup fails the pattern.
func sanitized(kind Kind) bool {
	return kind == KindText || kind == KindChoice
}

func validateSpec(spec Spec, value string, vctx Context) Result {
	value = normalize(spec.Kind, value)
	res := Result{State: FieldState{RawValue: value, Touched: true}}

	if isEmpty(spec.Kind, value) {
		if required(spec, vctx) {
			res.State.ErrorKind = Required
		}
		return res
	}

	switch spec.Kind {
	case KindName:
		if !namePattern.MatchString(value) {
			res.State.ErrorKind = FormatInvalid
		}
	case KindEmail:
		if !ValidEmail(value) {
			res.State.ErrorKind = FormatInvalid
		}
	case KindPhone:
		if !phonePattern.MatchString(value) {
			res.State.ErrorKind = FormatInvalid
		}
	case KindZip:
		if !zipPattern.MatchString(value) {
			res.State.ErrorKind = FormatInvalid
		}
	case KindDate:
		res.State.ErrorKind, res.Minor = checkBirthDate(value, vctx)
	case KindCheckbox:
		if checked, err := strconv.ParseBool(value); err != nil || !checked {
			res.State.ErrorKind = Required
		}
	}
	return res
}

func normalize(kind Kind, value string) string {
	value = strings.TrimSpace(value)
	if kind == KindName {
		return CapitalizeFirst(value)
	}
	return value
}

func isEmpty(kind Kind, value string) bool {
	if value == "" {
		return true
	}
	// An unticked checkbox counts as missing.
	if kind == KindCheckbox {
		checked, err := strconv.ParseBool(value)
		return err == nil && !checked
	}
	return false
}

func required(spec Spec, vctx Context) bool {
	switch spec.Required {
	case RequiredContactByPhone:
		return vctx.phoneRequired()
	case RequiredUnlessCounterpart:
		return strings.TrimSpace(vctx.Counterpart) == ""
	default:
		return true
	}
}

// CapitalizeFirst upper-cases the first character and leaves the rest as is.
func CapitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// ValidEmail reports whether s is an acceptable e-mail address. Matching is
// case-insensitive.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.ToLower(s))
}

// ValidPhone reports whether s is an optional plus followed by digits.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// ParseBirthDate parses a date-of-birth value in DateLayout.
func ParseBirthDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// AgeAt returns the completed years between dob and now, computed as elapsed
// days divided by 365.25 and truncated.
func AgeAt(dob, now time.Time) int {
	days := now.Sub(dob).Hours() / 24
	return int(days / 365.25)
}

// checkBirthDate applies the date-of-birth rules in order: future date, too
// old, then too young. Caregiver registrations skip the age gate.
func checkBirthDate(value string, vctx Context) (ErrorKind, bool) {
	dob, err := ParseBirthDate(value)
	if err != nil {
		return FormatInvalid, false
	}
	now := vctx.now()
	if dob.After(now) {
		return FutureDate, false
	}
	if dob.Year() < 1900 {
		return TooOld, false
	}
	minor := AgeAt(dob, now) < MinorAge
	if minor && vctx.Registrant != RegistrantCaregiver {
		return TooYoung, true
	}
	return None, minor
}
