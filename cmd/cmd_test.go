package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gokeyring "github.com/zalando/go-keyring"
	"github.com/warpdl/prestoimport/common"
	"github.com/warpdl/prestoimport/internal/cookies"
	"github.com/warpdl/prestoimport/internal/visited"
	"github.com/warpdl/prestoimport/internal/wand/wandtest"
	"github.com/warpdl/prestoimport/pkg/legacycrypt"
	"github.com/warpdl/prestoimport/pkg/tagstream/tagstreamtest"
)

func TestMain(m *testing.M) {
	gokeyring.MockInit()
	os.Exit(m.Run())
}

// run executes the CLI with stdout captured.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(common.ConfigDirEnv, t.TempDir())
	var out bytes.Buffer
	oldOut, oldErr := stdout, stderr
	stdout, stderr = &out, io.Discard
	defer func() { stdout, stderr = oldOut, oldErr }()
	err := Execute(append([]string{"prestoimport"}, args...), BuildArgs{Version: "test", BuildType: "dev"})
	return out.String(), err
}

func frag() *tagstreamtest.Builder {
	return tagstreamtest.NewPresto().Fragment()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0600); err != nil {
		t.Fatal(err)
	}
	return p
}

func cookieFile() []byte {
	b := tagstreamtest.NewPresto()
	b.Record(cookies.TagDomain, frag().String(cookies.TagDomainName, "com"))
	b.Record(cookies.TagDomain, frag().String(cookies.TagDomainName, "example"))
	b.Record(cookies.TagCookie, frag().String(cookies.TagCookieName, "sid").String(cookies.TagCookieValue, "abc"))
	b.Tag(cookies.TagEndDomain)
	b.Tag(cookies.TagEndDomain)
	return b.Build()
}

func visitedFile() []byte {
	b := tagstreamtest.NewPresto()
	b.Record(visited.TagFileEntry, frag().String(visited.TagURL, "http://opera.com/").Int(visited.TagLastVisited, 4, 1200000000))
	return b.Build()
}

func protectedProfile(t *testing.T, dir string) {
	t.Helper()
	code := []byte("check-code")
	blob, err := legacycrypt.EncryptBlob(code, []byte("master"))
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "opcert6.dat", tagstreamtest.NewPresto().Bytes(legacycrypt.TagCheckCode, blob).Build())
	key := append([]byte("master"), code...)
	writeFile(t, dir, "wand.dat", wandtest.Vault(t, key, wandtest.Login{URL: "ftp://files.example.com", Username: "bob", Password: "hunter2"}))
}

func TestCookiesCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "cookies4.dat", cookieFile())
	out := filepath.Join(dir, "cookies.txt")

	if _, err := run(t, "cookies", "-o", out, in); err != nil {
		t.Fatalf("cookies: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.Contains(string(data), "example.com\tFALSE\t/\tFALSE\t0\tsid\tabc") {
		t.Fatalf("unexpected Netscape output:\n%s", data)
	}

	stdoutText, err := run(t, "cookies", in)
	if err != nil || !strings.Contains(stdoutText, "\tsid\tabc") {
		t.Fatalf("expected Netscape output on stdout, got %q (%v)", stdoutText, err)
	}
}

func TestVisitedCommand(t *testing.T) {
	in := writeFile(t, t.TempDir(), "vlink4.dat", visitedFile())
	out, err := run(t, "visited", in)
	if err != nil {
		t.Fatalf("visited: %v", err)
	}
	if !strings.Contains(out, "2008-01-10T21:20:00Z\thttp://opera.com/") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestWandCommand(t *testing.T) {
	dir := t.TempDir()
	protectedProfile(t, dir)
	pwFile := writeFile(t, dir, "pw.txt", []byte("master\n"))
	wandPath := filepath.Join(dir, "wand.dat")

	out, err := run(t, "wand", "--password-file", pwFile, wandPath)
	if err != nil {
		t.Fatalf("wand: %v", err)
	}
	if !strings.Contains(out, "ftp://files.example.com") || !strings.Contains(out, "bob") {
		t.Fatalf("login missing from output %q", out)
	}
	if strings.Contains(out, "hunter2") || !strings.Contains(out, "********") {
		t.Fatalf("password should be hidden, got %q", out)
	}

	out, err = run(t, "wand", "--password-file", pwFile, "--show-passwords", wandPath)
	if err != nil || !strings.Contains(out, "hunter2") {
		t.Fatalf("expected password with --show-passwords, got %q (%v)", out, err)
	}
}

func TestWandCommand_WrongPassword(t *testing.T) {
	dir := t.TempDir()
	protectedProfile(t, dir)
	pwFile := writeFile(t, dir, "pw.txt", []byte("wrong\n"))

	old := readPassword
	prompts := 0
	readPassword = func(string) ([]byte, error) {
		prompts++
		return []byte("still wrong"), nil
	}
	defer func() { readPassword = old }()

	out, err := run(t, "wand", "--password-file", pwFile, filepath.Join(dir, "wand.dat"))
	if err != nil {
		t.Fatalf("wand: %v", err)
	}
	if strings.Contains(out, "bob") {
		t.Fatalf("nothing may be printed without the right password, got %q", out)
	}
	if prompts != 3 {
		t.Fatalf("expected 3 prompts after the password file failed, got %d", prompts)
	}
}

func TestDetectCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cookies4.dat", cookieFile())
	renamed := writeFile(t, t.TempDir(), "history.bin", visitedFile())

	out, err := run(t, "detect", dir, renamed)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !strings.Contains(out, "cookies") || !strings.Contains(out, "visited") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cookies4.dat", cookieFile())
	writeFile(t, dir, "vlink4.dat", visitedFile())
	protectedProfile(t, dir)
	pwFile := writeFile(t, t.TempDir(), "pw.txt", []byte("master"))
	db := filepath.Join(t.TempDir(), "staging.db")

	out, err := run(t, "import", "--db", db, "--password-file", pwFile, dir)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 cookies, 1 logins, 1 visited links from 3 sources") {
		t.Fatalf("unexpected summary %q", out)
	}
	if strings.Contains(out, "hunter2") {
		t.Fatal("password printed by import")
	}

	out, err = run(t, "import", "--db", db, "--password-file", pwFile, dir)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if strings.Count(out, "skipped") != 3 {
		t.Fatalf("expected every source skipped on the second run, got %q", out)
	}
}

func TestImportCommand_ReportsFailures(t *testing.T) {
	dir := t.TempDir()
	bad := visitedFile()
	writeFile(t, dir, "vlink4.dat", bad[:len(bad)-2])
	db := filepath.Join(t.TempDir(), "staging.db")

	if _, err := run(t, "import", "--db", db, dir); err == nil {
		t.Fatal("expected an error when a container fails")
	}
}

func TestKeyringCommands(t *testing.T) {
	dir := t.TempDir()
	protectedProfile(t, dir)
	check := filepath.Join(dir, "opcert6.dat")

	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(string) ([]byte, error) { return []byte("nope"), nil }
	out, _ := run(t, "keyring", "set", "--check-file", check)
	if strings.Contains(out, "stored") {
		t.Fatalf("a wrong password must not be stored, got %q", out)
	}

	readPassword = func(string) ([]byte, error) { return []byte("master"), nil }
	out, err := run(t, "keyring", "set", "--check-file", check)
	if err != nil || !strings.Contains(out, "master password stored") {
		t.Fatalf("keyring set: %q (%v)", out, err)
	}

	// The stored password now unlocks the wand without a prompt.
	readPassword = func(string) ([]byte, error) {
		t.Fatal("unexpected prompt")
		return nil, nil
	}
	out, err = run(t, "wand", filepath.Join(dir, "wand.dat"))
	if err != nil || !strings.Contains(out, "bob") {
		t.Fatalf("wand with stored password: %q (%v)", out, err)
	}

	out, _ = run(t, "keyring", "delete")
	if !strings.Contains(out, "master password removed") {
		t.Fatalf("keyring delete: %q", out)
	}
	out, _ = run(t, "keyring", "delete")
	if !strings.Contains(out, "no stored master password") {
		t.Fatalf("second delete: %q", out)
	}
}

func TestConfigTemplateStrings(t *testing.T) {
	if len(HELP_TEMPL) == 0 || len(CMD_HELP_TEMPL) == 0 {
		t.Fatalf("expected help templates")
	}
}
