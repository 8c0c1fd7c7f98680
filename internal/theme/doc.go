// Package theme loads the overlay stylesheet. A user stylesheet in
// ~/.config/orientprompt/style.css replaces the embedded default and is
// reloaded when it changes.
package theme
