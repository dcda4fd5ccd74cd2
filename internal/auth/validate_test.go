package auth

import "testing"

func TestNormalizeEmail(t *testing.T) {
	got := NormalizeEmail("  User@EXAMPLE.com ")
	if got != "user@example.com" {
		t.Fatalf("NormalizeEmail = %q, want %q", got, "user@example.com")
	}
}

func TestValidatePasswordStrength_Boundary(t *testing.T) {
	// Exactly 8 chars with all four classes must pass.
	if !ValidatePasswordStrength("Aa1!aaaa") {
		t.Fatal(`ValidatePasswordStrength("Aa1!aaaa") = false, want true`)
	}
	// Missing uppercase must fail even when long enough.
	if ValidatePasswordStrength("alllower1!") {
		t.Fatal(`ValidatePasswordStrength("alllower1!") = true, want false`)
	}
}

func TestValidatePasswordStrength_MissingClasses(t *testing.T) {
	cases := map[string]string{
		"short":      "Aa1!a",
		"no lower":   "AAAA1111!",
		"no digit":   "Aaaaaaa!",
		"no special": "Aaaaaaa1",
	}
	for name, pw := range cases {
		if ValidatePasswordStrength(pw) {
			t.Errorf("%s: ValidatePasswordStrength(%q) = true, want false", name, pw)
		}
	}
}

func TestHoneypotTriggered(t *testing.T) {
	if HoneypotTriggered("") || HoneypotTriggered("   ") {
		t.Fatal("blank honeypot must not trigger")
	}
	if !HoneypotTriggered("http://spam.example") {
		t.Fatal("filled honeypot must trigger")
	}
}

func TestIsDisposableEmail(t *testing.T) {
	blocked := map[string]bool{"tempmail.com": true}
	if !IsDisposableEmail("bot@TempMail.com", blocked) {
		t.Fatal("blocked domain not detected (case-insensitive match expected)")
	}
	if IsDisposableEmail("user@example.com", blocked) {
		t.Fatal("unblocked domain flagged as disposable")
	}
}

func TestSanitizeText(t *testing.T) {
	cases := []struct{ in, want string }{
		{"<script>alert(1)</script>Bob", "alert1Bob"},
		{"  Mary-Jane O'Brien Jr.  ", "Mary-Jane O'Brien Jr."},
		{"Robert); DROP TABLE users;--", "Robert DROP TABLE users--"},
		{"<b></b>", ""},
	}
	for _, tc := range cases {
		if got := SanitizeText(tc.in); got != tc.want {
			t.Errorf("SanitizeText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!Pass", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Str0ng!Pass" {
		t.Fatal("hash must not equal the plain password")
	}
	if !VerifyPassword(hash, "Str0ng!Pass") {
		t.Fatal("VerifyPassword rejected the correct password")
	}
	if VerifyPassword(hash, "wrong") {
		t.Fatal("VerifyPassword accepted a wrong password")
	}
}
