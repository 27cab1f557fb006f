// Package delivery carries verification codes to the user. Delivery is a
// best-effort collaborator: a failed send never rolls back code issuance, the
// caller logs and lets the user request a resend.
package delivery

import "context"

// Channel mirrors the OTP channel chosen on the registration.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
)

// CodeSender delivers a verification code to a destination (email address or
// phone number) over the given channel.
type CodeSender interface {
	SendCode(ctx context.Context, channel Channel, destination, code string) error
}
