// Package translate formats user-facing messages for the user's locale.
package translate

import (
	"log"
	"sync"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Fallback is the language used when the host reports no locale.
const Fallback = "en-US"

var (
	printer *message.Printer
	once    sync.Once
	mutex   sync.Mutex
)

// hostPrinter matches the host locales against the available catalogs.
func hostPrinter() *message.Printer {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("boneless: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{Fallback}
	}

	return message.NewPrinter(message.MatchLanguage(locales...))
}

func current() *message.Printer {
	once.Do(func() {
		mutex.Lock()
		defer mutex.Unlock()
		if printer == nil {
			printer = hostPrinter()
		}
	})

	mutex.Lock()
	defer mutex.Unlock()
	return printer
}

// Use forces messages into the named language, ignoring the host locale.
// An empty name restores the host locale.
func Use(name string) (err error) {
	var p *message.Printer
	if name == "" {
		p = hostPrinter()
	} else {
		var tag language.Tag
		tag, err = language.Parse(name)
		if err != nil {
			return
		}
		p = message.NewPrinter(tag)
	}

	mutex.Lock()
	printer = p
	mutex.Unlock()
	return
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return current().Sprintf(key, args...)
}
