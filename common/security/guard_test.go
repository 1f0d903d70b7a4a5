package security

import "testing"

func TestCheckURL_Schemes(t *testing.T) {
	g := NewGuard(false, nil)

	if err := g.CheckURL("https://example.com/api"); err != nil {
		t.Errorf("https should pass: %v", err)
	}
	if err := g.CheckURL("http://example.com"); err != nil {
		t.Errorf("http should pass: %v", err)
	}

	for _, bad := range []string{
		"file:///etc/passwd",
		"ftp://example.com",
		"gopher://example.com",
		"example.com/no-scheme",
	} {
		if err := g.CheckURL(bad); err == nil {
			t.Errorf("Expected %q to be rejected", bad)
		}
	}
}

func TestCheckURL_PrivateAddresses(t *testing.T) {
	g := NewGuard(false, nil)

	for _, bad := range []string{
		"http://localhost:8080/admin",
		"http://127.0.0.1/",
		"http://10.0.0.5/",
		"http://172.16.1.1/",
		"http://192.168.1.1/",
		"http://169.254.169.254/latest/meta-data/",
		"http://[::1]/",
		"http://0.0.0.0/",
	} {
		if err := g.CheckURL(bad); err == nil {
			t.Errorf("Expected %q to be rejected", bad)
		}
	}

	if err := g.CheckURL("http://93.184.216.34/"); err != nil {
		t.Errorf("Public IP should pass: %v", err)
	}
}

func TestCheckURL_AllowPrivateOverride(t *testing.T) {
	g := NewGuard(true, nil)

	if err := g.CheckURL("http://localhost:3000/hook"); err != nil {
		t.Errorf("Private hosts allowed, got %v", err)
	}
	if err := g.CheckURL("http://192.168.1.1/"); err != nil {
		t.Errorf("Private hosts allowed, got %v", err)
	}
}

func TestCheckHost_Denylist(t *testing.T) {
	g := NewGuard(true, []string{"evil.example.com", ".internal"})

	if err := g.CheckHost("evil.example.com"); err == nil {
		t.Error("Exact denylist match must be rejected")
	}
	if err := g.CheckHost("EVIL.example.COM"); err == nil {
		t.Error("Denylist match must be case-insensitive")
	}
	if err := g.CheckHost("db.internal"); err == nil {
		t.Error("Suffix denylist match must be rejected")
	}
	if err := g.CheckHost("good.example.com"); err != nil {
		t.Errorf("Unlisted host should pass: %v", err)
	}
}
