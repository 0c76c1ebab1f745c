package api

import (
	"net/http"

	"github.com/Skryldev/restfull-books/service"
)

// StatusFor maps a service error to its HTTP status. It is the only place
// where error kinds become status codes.
func StatusFor(err error) int {
	switch service.KindOf(err) {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageFor renders the client-facing message for err.
func messageFor(err error) string {
	switch service.KindOf(err) {
	case service.KindNotFound:
		return err.Error()
	case service.KindGateway:
		return "Bad Gateway: " + err.Error()
	default:
		return "Internal server error: " + err.Error()
	}
}

type errorBody struct {
	Error string `json:"error"`
}
