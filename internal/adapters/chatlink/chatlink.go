package chatlink

import (
	"context"
	"log"
	"net/url"
	"strings"
)

// BaseURL is the click-to-chat endpoint
const BaseURL = "https://wa.me/"

// Link builds a click-to-chat URL. Spaces become %20 rather than "+".
func Link(digits, text string) string {
	return BaseURL + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// Dispatcher hands a message to the chat app. There is no delivery receipt.
type Dispatcher interface {
	Dispatch(ctx context.Context, digits, text string) (string, error)
}

// LinkDispatcher returns the link for the console to open
type LinkDispatcher struct{}

// NewLinkDispatcher creates a dispatcher that only builds links
func NewLinkDispatcher() *LinkDispatcher {
	return &LinkDispatcher{}
}

// Dispatch builds the link for digits and text
func (d *LinkDispatcher) Dispatch(ctx context.Context, digits, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	link := Link(digits, text)
	log.Printf("💬 Chat link prepared for %s", mask(digits))
	return link, nil
}

func mask(digits string) string {
	if len(digits) <= 4 {
		return digits
	}
	return strings.Repeat("•", len(digits)-4) + digits[len(digits)-4:]
}
