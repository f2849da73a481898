package scope_test

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/dropDatabas3/littlejohn/internal/scope"
)

func TestParse_RoundTripSetEquality(t *testing.T) {
	reg := scope.Default()
	cases := []string{
		"openid",
		"openid profile",
		"profile openid", // order must not matter
		"openid profile email",
		"email  profile\topenid", // odd whitespace
		"permissions email",
		"",
	}
	for _, in := range cases {
		set, err := reg.Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		got := reg.Strings(set)
		want := strings.Fields(in)
		sort.Strings(got)
		sort.Strings(want)
		if strings.Join(got, " ") != strings.Join(want, " ") {
			t.Fatalf("Parse(%q) round-trip = %v, want set %v", in, got, want)
		}
	}
}

func TestParse_UnknownToken(t *testing.T) {
	reg := scope.Default()
	for _, in := range []string{"bogus", "openid bogus", "OPENID"} {
		if _, err := reg.Parse(in); !errors.Is(err, scope.ErrInvalidScope) {
			t.Fatalf("Parse(%q) err = %v, want ErrInvalidScope", in, err)
		}
	}
}

func TestParse_OrderIndependentEquality(t *testing.T) {
	reg := scope.Default()
	a, _ := reg.Parse("openid email profile")
	b, _ := reg.Parse("profile openid email")
	if a != b {
		t.Fatalf("sets differ: %#x vs %#x", a.Int(), b.Int())
	}
}

func TestIntRoundTrip(t *testing.T) {
	reg := scope.Default()
	set, _ := reg.Parse("openid email")
	back, err := reg.FromInt(set.Int())
	if err != nil {
		t.Fatalf("FromInt: %v", err)
	}
	if back != set {
		t.Fatalf("FromInt(%d) = %#x, want %#x", set.Int(), back.Int(), set.Int())
	}
}

func TestFromInt_UnregisteredBits(t *testing.T) {
	reg := scope.Default()
	if _, err := reg.FromInt(1 << 40); !errors.Is(err, scope.ErrInvalidScope) {
		t.Fatalf("err = %v, want ErrInvalidScope", err)
	}
}

func TestJoin_Deterministic(t *testing.T) {
	reg := scope.Default()
	a, _ := reg.Parse("email openid")
	b, _ := reg.Parse("openid email")
	if reg.Join(a) != reg.Join(b) {
		t.Fatalf("Join not stable: %q vs %q", reg.Join(a), reg.Join(b))
	}
	// bit order: openid registered before email
	if reg.Join(a) != "openid email" {
		t.Fatalf("Join = %q, want %q", reg.Join(a), "openid email")
	}
}

func TestHas(t *testing.T) {
	reg := scope.Default()
	set, _ := reg.Parse("openid profile")
	if !set.Has(reg, "openid") || !set.Has(reg, "profile") {
		t.Fatal("expected openid and profile present")
	}
	if set.Has(reg, "email") {
		t.Fatal("email should not be present")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	reg := scope.NewRegistry()
	if err := reg.Register("openid"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register("openid"); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}
