package response

import (
	"net/http"

	"github.com/dmitrymomot/dispatch/core/handler"
)

// Redirect creates a 302 Found (temporary redirect) response.
func Redirect(url string) handler.Response {
	return RedirectWithStatus(url, http.StatusFound)
}

// RedirectPermanent creates a 301 Moved Permanently response.
func RedirectPermanent(url string) handler.Response {
	return RedirectWithStatus(url, http.StatusMovedPermanently)
}

// RedirectSeeOther creates a 303 See Other response,
// for the POST-redirect-GET pattern.
func RedirectSeeOther(url string) handler.Response {
	return RedirectWithStatus(url, http.StatusSeeOther)
}

// RedirectTemporary creates a 307 Temporary Redirect response.
// Unlike 302, the request method is preserved.
func RedirectTemporary(url string) handler.Response {
	return RedirectWithStatus(url, http.StatusTemporaryRedirect)
}

// RedirectWithStatus creates a redirect with a custom status code.
// Statuses outside the 3xx range fall back to 302.
func RedirectWithStatus(url string, status int) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		if status < 300 || status >= 400 {
			status = http.StatusFound
		}
		http.Redirect(w, r, url, status)
		return nil
	}
}
