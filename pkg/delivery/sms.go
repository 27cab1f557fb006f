package delivery

import (
	"context"
	"log"
)

// LogSender writes codes to the log instead of delivering them. Used for SMS
// until a gateway is wired up, and for email in development.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) SendCode(_ context.Context, channel Channel, destination, code string) error {
	log.Printf("[DELIVERY] (%s) code for %s: %s", channel, destination, code)
	return nil
}
