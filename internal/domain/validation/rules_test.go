package validation

import (
	"errors"
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func validate(t *testing.T, key Key, raw string, vctx Context) Result {
	t.Helper()
	if vctx.Now.IsZero() {
		vctx.Now = fixedNow
	}
	res, err := Validate(key, raw, vctx)
	if err != nil {
		t.Fatalf("Validate(%s, %q): %v", key, raw, err)
	}
	return res
}

func TestValidate_UnknownField(t *testing.T) {
	_, err := Validate(Key("nickname"), "x", Context{})
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestValidate_NamesAccepted(t *testing.T) {
	names := []string{"Jane", "jean-luc", "O'Brien", "Ana María", "St. John", "Zoë", "Łukasz", "d`Arc", "Renée Ölçer"}
	for _, n := range names {
		for _, key := range []Key{FirstName, LastName, HCPFirstName, HCPLastName, City} {
			res := validate(t, key, n, Context{})
			if res.State.ErrorKind != None {
				t.Errorf("%s=%q: expected valid, got %q", key, n, res.State.ErrorKind)
			}
		}
	}
}

func TestValidate_NamesRejected(t *testing.T) {
	names := []string{"J4ne", "Jane!", "Doe_Smith", "a@b", "Jane#", "100", "Jane/Doe"}
	for _, n := range names {
		res := validate(t, FirstName, n, Context{})
		if res.State.ErrorKind != FormatInvalid {
			t.Errorf("%q: expected format_invalid, got %q", n, res.State.ErrorKind)
		}
	}
}

func TestValidate_NameRequired(t *testing.T) {
	for _, raw := range []string{"", "   "} {
		res := validate(t, LastName, raw, Context{})
		if res.State.ErrorKind != Required {
			t.Errorf("%q: expected required, got %q", raw, res.State.ErrorKind)
		}
		if !res.State.Touched {
			t.Error("expected field to be marked touched")
		}
	}
}

func TestValidate_NameCapitalized(t *testing.T) {
	res := validate(t, FirstName, "  jANE ", Context{})
	if res.State.RawValue != "JANE" {
		t.Errorf("expected first letter upper-cased and rest untouched, got %q", res.State.RawValue)
	}
	res = validate(t, City, "élan", Context{})
	if res.State.RawValue != "Élan" {
		t.Errorf("expected Élan, got %q", res.State.RawValue)
	}
}

func TestValidate_Email(t *testing.T) {
	tests := []struct {
		raw  string
		want ErrorKind
	}{
		{"a@x.com", None},
		{"Jane.Doe@Example.COM", None},
		{"first.middle.last@sub.domain.org", None},
		{`"john doe"@example.com`, None},
		{"user@[192.168.0.1]", None},
		{"", Required},
		{"plain", FormatInvalid},
		{"a@b", FormatInvalid},
		{"a@b.c", FormatInvalid},
		{"a..b@x.com", FormatInvalid},
		{"a b@x.com", FormatInvalid},
		{".a@x.com", FormatInvalid},
	}
	for _, tt := range tests {
		res := validate(t, Email, tt.raw, Context{})
		if res.State.ErrorKind != tt.want {
			t.Errorf("email %q: expected %q, got %q", tt.raw, tt.want, res.State.ErrorKind)
		}
	}
}

func TestValidate_ContactPhone(t *testing.T) {
	tests := []struct {
		raw    string
		method string
		want   ErrorKind
	}{
		{"", "Email", None},
		{"", "Phone", Required},
		{"", "sms", Required},
		{"+15551234567", "Phone", None},
		{"5551234567", "Email", None},
		{"555-123", "Phone", FormatInvalid},
		{"555-123", "Email", FormatInvalid},
		{"++1", "SMS", FormatInvalid},
	}
	for _, tt := range tests {
		res := validate(t, Phone, tt.raw, Context{ContactMethod: tt.method})
		if res.State.ErrorKind != tt.want {
			t.Errorf("phone %q (method %s): expected %q, got %q", tt.raw, tt.method, tt.want, res.State.ErrorKind)
		}
	}
}

func TestValidate_HCPPhoneOrEmail(t *testing.T) {
	tests := []struct {
		name        string
		key         Key
		raw         string
		counterpart string
		want        ErrorKind
	}{
		{"email present, phone absent", HCPPhone, "", "dr@clinic.com", None},
		{"phone present, email absent", HCPEmail, "", "+4912345", None},
		{"both absent phone", HCPPhone, "", "", Required},
		{"both absent email", HCPEmail, "", "", Required},
		{"malformed phone", HCPPhone, "12ab", "dr@clinic.com", FormatInvalid},
		{"malformed email", HCPEmail, "dr@", "+4912345", FormatInvalid},
		{"valid phone alone", HCPPhone, "+4912345", "", None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validate(t, tt.key, tt.raw, Context{Counterpart: tt.counterpart})
			if res.State.ErrorKind != tt.want {
				t.Errorf("expected %q, got %q", tt.want, res.State.ErrorKind)
			}
		})
	}
}

func TestValidate_Zip(t *testing.T) {
	tests := map[string]ErrorKind{
		"10115":   None,
		"SW1A1AA": None,
		"":        Required,
		"SW1A 1AA": FormatInvalid,
		"123-45":  FormatInvalid,
	}
	for raw, want := range tests {
		res := validate(t, Zip, raw, Context{})
		if res.State.ErrorKind != want {
			t.Errorf("zip %q: expected %q, got %q", raw, want, res.State.ErrorKind)
		}
	}
}

func TestValidate_DateOfBirth(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		who       Registrant
		want      ErrorKind
		wantMinor bool
	}{
		{"adult", "1990-01-01", RegistrantPatient, None, false},
		{"exactly eighteen", "2008-10-10", RegistrantPatient, None, false},
		{"seventeen", "2009-01-01", RegistrantPatient, TooYoung, true},
		{"future", "2027-01-01", RegistrantPatient, FutureDate, false},
		{"tomorrow", "2026-10-20", RegistrantPatient, FutureDate, false},
		{"before 1900", "1899-12-31", RegistrantPatient, TooOld, false},
		{"year 1900", "1900-01-01", RegistrantPatient, None, false},
		{"caregiver minor", "2015-05-05", RegistrantCaregiver, None, true},
		{"caregiver future", "2030-05-05", RegistrantCaregiver, FutureDate, false},
		{"garbage", "05/05/1990", RegistrantPatient, FormatInvalid, false},
		{"empty", "", RegistrantPatient, Required, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validate(t, DOB, tt.raw, Context{Registrant: tt.who})
			if res.State.ErrorKind != tt.want {
				t.Errorf("expected %q, got %q", tt.want, res.State.ErrorKind)
			}
			if res.Minor != tt.wantMinor {
				t.Errorf("expected minor=%v, got %v", tt.wantMinor, res.Minor)
			}
		})
	}
}

func TestValidate_UnderEighteenAlwaysTooYoung(t *testing.T) {
	// Every birthday in the 18 years before now is rejected for a patient.
	for d := fixedNow.AddDate(-18, 0, 2); d.Before(fixedNow); d = d.AddDate(0, 0, 37) {
		res := validate(t, DOB, d.Format(DateLayout), Context{Registrant: RegistrantPatient})
		if AgeAt(d, fixedNow) < MinorAge && res.State.ErrorKind != TooYoung {
			t.Fatalf("dob %s: expected too young, got %q", d.Format(DateLayout), res.State.ErrorKind)
		}
	}
}

func TestValidate_Checkbox(t *testing.T) {
	tests := map[string]ErrorKind{
		"true":  None,
		"1":     None,
		"false": Required,
		"":      Required,
		"maybe": Required,
	}
	for raw, want := range tests {
		res := validate(t, ConsentCheckbox, raw, Context{})
		if res.State.ErrorKind != want {
			t.Errorf("checkbox %q: expected %q, got %q", raw, want, res.State.ErrorKind)
		}
	}
}

func TestValidate_ChoiceAndText(t *testing.T) {
	for _, key := range []Key{Gender, PreferredContactMethod, Country, State, Street, AddressLine, AccessCode} {
		if res := validate(t, key, "", Context{}); res.State.ErrorKind != Required {
			t.Errorf("%s empty: expected required, got %q", key, res.State.ErrorKind)
		}
		if res := validate(t, key, "anything #1", Context{}); res.State.ErrorKind != None {
			t.Errorf("%s: expected valid, got %q", key, res.State.ErrorKind)
		}
	}
}

func TestValidate_StripsMarkup(t *testing.T) {
	res := validate(t, Street, "<b>Main</b> Street 5", Context{})
	if res.State.RawValue != "Main Street 5" {
		t.Errorf("expected markup stripped, got %q", res.State.RawValue)
	}
	res = validate(t, LastName, "O'Brien", Context{})
	if res.State.RawValue != "O'Brien" || res.State.ErrorKind != None {
		t.Errorf("expected apostrophe preserved, got %q (%q)", res.State.RawValue, res.State.ErrorKind)
	}
}

func TestValidate_MarkupInPatternedFields(t *testing.T) {
	tests := []struct {
		key Key
		raw string
	}{
		{FirstName, "Jane<script>x</script>"},
		{LastName, "Doe<b>"},
		{Email, "jane<b>@x.com"},
		{Phone, "555<i>1234"},
		{Zip, "12<b>345"},
		{DOB, "<b>1990-05-01</b>"},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			res := validate(t, tt.key, tt.raw, Context{})
			if res.State.ErrorKind != FormatInvalid {
				t.Errorf("expected format error, got %q (value %q)", res.State.ErrorKind, res.State.RawValue)
			}
		})
	}
}

func TestErrorKind_IsAge(t *testing.T) {
	for _, k := range []ErrorKind{TooYoung, FutureDate, TooOld} {
		if !k.IsAge() {
			t.Errorf("%q should be an age error", k)
		}
	}
	for _, k := range []ErrorKind{None, Required, FormatInvalid, DuplicateValue} {
		if k.IsAge() {
			t.Errorf("%q should not be an age error", k)
		}
	}
}
