package service

// QRCodeService defines the interface for QR code generation services
type QRCodeService interface {
	// GenerateChatInviteQR generates a QR code image encoding the join
	// link for a chat room.
	GenerateChatInviteQR(chatName string) ([]byte, error)
}
