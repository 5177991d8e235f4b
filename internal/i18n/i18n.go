// Package i18n formats user-facing strings through a message catalog so page
// titles can be translated without touching the handlers.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Sprintf formats a localized message. Unknown keys fall back to plain
// fmt-style formatting.
func Sprintf(key message.Reference, args ...interface{}) string {
	return printer.Sprintf(key, args...)
}
