package theme

import (
	"embed"
	"errors"
	"fmt"
	"os"
)

//go:embed themes/default.css
var embedded embed.FS

// DefaultCSS returns the embedded stylesheet.
func DefaultCSS() string {
	data, err := embedded.ReadFile("themes/default.css")
	if err != nil {
		// The file is compiled in.
		panic(err)
	}
	return string(data)
}

// Resolve returns the stylesheet to apply and whether it came from userPath.
// A missing or empty user file falls back to the embedded default.
func Resolve(userPath string) (string, bool, error) {
	if userPath == "" {
		return DefaultCSS(), false, nil
	}

	data, err := os.ReadFile(userPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultCSS(), false, nil
		}
		return DefaultCSS(), false, fmt.Errorf("failed to read stylesheet: %w", err)
	}
	if len(data) == 0 {
		return DefaultCSS(), false, nil
	}
	return string(data), true, nil
}
