package service

import "context"

// Mailer sends a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// WelcomeEmail is the data rendered into the partner welcome message.
type WelcomeEmail struct {
	To              string
	PartnerName     string
	BusinessName    string
	Password        string
	IdentityCreated bool
	PlanType        string
	MaxCoupons      int
	MaxPhotos       int
	LoginURL        string
}

// WelcomeRenderer turns a WelcomeEmail into a subject and HTML body.
type WelcomeRenderer interface {
	RenderWelcome(email WelcomeEmail) (subject string, html string, err error)
}
