package service

// QRCodeService renders QR codes embedded in outgoing emails.
type QRCodeService interface {
	// GenerateLoginQR returns a PNG encoding loginURL.
	GenerateLoginQR(loginURL string) ([]byte, error)
}
