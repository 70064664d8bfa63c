// Package human provides types for values written by people, such as paths
// relative to the home directory.
package human

import (
	"encoding"
	"flag"
	"os"
	"os/user"
	"path/filepath"
)

// Path represents a path on the file system.
//
// The type interprets the special prefix "~/" as representing the home
// directory of the user that the program is running as. On Windows, "~\" is
// accepted as well.
type Path string

func (p Path) String() string {
	return string(p)
}

// Resolve returns p with the home directory prefix expanded.
func (p Path) Resolve() (string, error) {
	s := string(p)
	if !hasHomePrefix(s) {
		return s, nil
	}
	home, err := homeDir()
	if err != nil {
		return s, err
	}
	return filepath.Join(home, s[2:]), nil
}

func (p *Path) Set(s string) error {
	path, err := Path(s).Resolve()
	if err != nil {
		return err
	}
	*p = Path(path)
	return nil
}

func (p *Path) UnmarshalText(b []byte) error {
	return p.Set(string(b))
}

func hasHomePrefix(s string) bool {
	return len(s) >= 2 && s[0] == '~' && (s[1] == '/' || s[1] == os.PathSeparator)
}

func homeDir() (string, error) {
	if home, ok := os.LookupEnv("HOME"); ok {
		return home, nil
	}
	if home, ok := os.LookupEnv("USERPROFILE"); ok {
		return home, nil
	}
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return u.HomeDir, nil
}

var (
	_ encoding.TextUnmarshaler = (*Path)(nil)
	_ flag.Value               = (*Path)(nil)
)
