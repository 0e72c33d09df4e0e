package routes

const (
	// Health
	Health = "/health"

	// Users (register/login are public)
	UsersRegister = "/api/v1/users/register"
	UsersLogin    = "/api/v1/users/login"
	UsersMe       = "/api/v1/users/me"

	// Properties
	PropertiesBase    = "/api/v1/properties"
	PropertyByID      = "/api/v1/properties/{id}"
	PropertyReviews   = "/api/v1/properties/{id}/reviews"
	PropertyBookings  = "/api/v1/properties/{id}/bookings"
	PropertyImages    = "/api/v1/properties/{id}/images"
	PropertyImageByID = "/api/v1/properties/{id}/images/{imageId}"

	// Bookings
	BookingsBase   = "/api/v1/bookings"
	BookingByID    = "/api/v1/bookings/{id}"
	BookingConfirm = "/api/v1/bookings/{id}/confirm"
	BookingCancel  = "/api/v1/bookings/{id}/cancel"
	BookingPayment = "/api/v1/bookings/{id}/payment"

	// Messages
	MessagesBase          = "/api/v1/messages"
	MessagesConversations = "/api/v1/messages/conversations"
	MessagesWithUser      = "/api/v1/messages/{userId}"
	MessagesMarkRead      = "/api/v1/messages/{userId}/read"
)
