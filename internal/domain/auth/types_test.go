package auth

import "testing"

func TestSession_IsAuthenticated(t *testing.T) {
	if (Session{}).IsAuthenticated() {
		t.Fatalf("empty session must not be authenticated")
	}
	if (Session{RefreshToken: "r"}).IsAuthenticated() {
		t.Fatalf("refresh token alone must not authenticate")
	}
	if !(Session{AccessToken: "a"}).IsAuthenticated() {
		t.Fatalf("expected authenticated")
	}
}

func TestSynthesizeUser(t *testing.T) {
	u := SynthesizeUser("jane.doe@example.com")
	if u.Username != "jane.doe" || u.Email != "jane.doe@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.FirstName != "" || u.LastName != "" {
		t.Fatalf("expected empty names: %+v", u)
	}
	if !u.IsActive {
		t.Fatalf("synthesized profile must not block login")
	}
	if got := SynthesizeUser("nodomain").Username; got != "nodomain" {
		t.Fatalf("username = %q", got)
	}
}

func TestUser_FullName(t *testing.T) {
	if got := (User{FirstName: "Ada", LastName: "Lovelace"}).FullName(); got != "Ada Lovelace" {
		t.Fatalf("FullName() = %q", got)
	}
	if got := (User{Username: "ada"}).FullName(); got != "ada" {
		t.Fatalf("FullName() = %q", got)
	}
}

func TestStaffStatus(t *testing.T) {
	if StaffUnknown.Known() || !StaffNo.Known() {
		t.Fatalf("unexpected Known()")
	}
	if StaffStatusFromBool(true) != StaffYes || StaffStatusFromBool(false) != StaffNo {
		t.Fatalf("unexpected conversion")
	}
	if StaffNo.Bool() || !StaffYes.Bool() {
		t.Fatalf("unexpected Bool()")
	}
}

func TestSession_Clone(t *testing.T) {
	s := Session{User: &User{Email: "a@b.c"}, AccessToken: "a"}
	c := s.Clone()
	c.User.Email = "changed"
	if s.User.Email != "a@b.c" {
		t.Fatalf("clone shares user pointer")
	}
}
