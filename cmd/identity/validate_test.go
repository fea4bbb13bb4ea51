package identity

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sampleapp/cmd/security/password"
)

func TestValidEmail(t *testing.T) {
	t.Parallel()

	valid := []string{"user@foo.com", "THE_USER@foo.bar.org", "first.last@foo.jp", "a+b@example.co"}
	invalid := []string{"", "user@foo,com", "user_at_foo.org", "example.user@foo.", "user@foo", "user @foo.com", "@foo.com"}

	for _, s := range valid {
		if !ValidEmail(s) {
			t.Errorf("ValidEmail(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if ValidEmail(s) {
			t.Errorf("ValidEmail(%q) = true, want false", s)
		}
	}
}

func TestValidator_Check(t *testing.T) {
	t.Parallel()

	v := DefaultValidator()

	cases := []struct {
		name                         string
		uname, email, pw, confirmPw string
		want                         []FieldError
	}{
		{
			name:  "valid",
			uname: "Example User", email: "user@example.com", pw: "foobar", confirmPw: "foobar",
			want: nil,
		},
		{
			name:  "blank name",
			uname: "   ", email: "user@example.com", pw: "foobar", confirmPw: "foobar",
			want: []FieldError{{Field: "name", Reason: ReasonBlank}},
		},
		{
			name:  "long name",
			uname: strings.Repeat("a", MaxNameLength+1), email: "user@example.com", pw: "foobar", confirmPw: "foobar",
			want: []FieldError{{Field: "name", Reason: "is too long (maximum is 50 characters)"}},
		},
		{
			name:  "blank email",
			uname: "Example User", email: "", pw: "foobar", confirmPw: "foobar",
			want: []FieldError{
				{Field: "email", Reason: ReasonBlank},
				{Field: "email", Reason: ReasonInvalid},
			},
		},
		{
			name:  "malformed email",
			uname: "Example User", email: "user@foo,com", pw: "foobar", confirmPw: "foobar",
			want: []FieldError{{Field: "email", Reason: ReasonInvalid}},
		},
		{
			name:  "blank password",
			uname: "Example User", email: "user@example.com", pw: "", confirmPw: "",
			want: []FieldError{
				{Field: "password", Reason: ReasonBlank},
				{Field: "password", Reason: "is too short (minimum is 6 characters)"},
			},
		},
		{
			name:  "mismatch",
			uname: "Example User", email: "user@example.com", pw: "foobar", confirmPw: "invalid",
			want: []FieldError{{Field: "password", Reason: ReasonMismatch}},
		},
		{
			name:  "short",
			uname: "Example User", email: "user@example.com", pw: "aaaaa", confirmPw: "aaaaa",
			want: []FieldError{{Field: "password", Reason: "is too short (minimum is 6 characters)"}},
		},
		{
			name:  "long",
			uname: "Example User", email: "user@example.com", pw: strings.Repeat("a", 41), confirmPw: strings.Repeat("a", 41),
			want: []FieldError{{Field: "password", Reason: "is too long (maximum is 40 characters)"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := v.Check(tc.uname, tc.email, tc.pw, tc.confirmPw)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Check mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidator_CustomPolicy(t *testing.T) {
	t.Parallel()

	v := NewValidator(password.Config{Policy: password.Policy{MinLength: 8, MaxLength: 12}})

	got := v.Check("Example User", "user@example.com", "foobar", "foobar")
	want := []FieldError{{Field: "password", Reason: "is too short (minimum is 8 characters)"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Check mismatch (-want +got):\n%s", diff)
	}
}

func TestValidator_NameCountsCharacters(t *testing.T) {
	t.Parallel()

	name := strings.Repeat("é", MaxNameLength)
	if got := DefaultValidator().Check(name, "user@example.com", "foobar", "foobar"); len(got) != 0 {
		t.Fatalf("expected %d multibyte chars to be accepted, got %v", MaxNameLength, got)
	}
}
