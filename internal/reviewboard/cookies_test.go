package reviewboard

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCookieFile_Missing(t *testing.T) {
	cf, err := LoadCookieFile(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cf.Get(SessionCookie) != "" {
		t.Error("expected empty cookie file")
	}
}

func TestCookieFile_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "cookies.txt")
	cf, err := LoadCookieFile(path)
	if err != nil {
		t.Fatal(err)
	}
	cf.Set(SessionCookie, "abc")
	cf.Set("csrftoken", "xyz")
	if err := cf.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "csrftoken=xyz\nrbsessionid=abc\n" {
		t.Errorf("file contents = %q", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	again, err := LoadCookieFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if again.Get(SessionCookie) != "abc" || again.Get("csrftoken") != "xyz" {
		t.Errorf("reloaded values wrong: %+v", again.values)
	}
}

func TestLoadCookieFile_SkipsJunk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	content := "# comment\n\nno equals sign\n rbsessionid = abc \n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	cf, err := LoadCookieFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cf.Get(SessionCookie) != "abc" {
		t.Errorf("session = %q", cf.Get(SessionCookie))
	}
}

func TestCookieFile_InMemory(t *testing.T) {
	cf, err := LoadCookieFile("")
	if err != nil {
		t.Fatal(err)
	}
	cf.Set(SessionCookie, "abc")
	if err := cf.Save(); err != nil {
		t.Errorf("in-memory Save() should succeed: %v", err)
	}
}
