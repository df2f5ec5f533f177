package handlers

import (
	"github.com/mr-sankar/Sindhuur-backend-latest/gateway"
	"github.com/mr-sankar/Sindhuur-backend-latest/mailer"
	"github.com/mr-sankar/Sindhuur-backend-latest/otp"
	"github.com/mr-sankar/Sindhuur-backend-latest/websocket"
)

// Common constants and collaborators shared across all handler files
const fallbackImage = "https://via.placeholder.com/150"

var (
	hub        *websocket.Hub
	mail       mailer.Mailer
	otpService *otp.Service
	payGateway gateway.Gateway
)

// SetHub sets the websocket hub used for presence lookups.
func SetHub(h *websocket.Hub) {
	hub = h
}

// SetMailer sets the outbound email dispatcher; nil disables delivery.
func SetMailer(m mailer.Mailer) {
	mail = m
}

// SetOTPService sets the OTP/reset-token service.
func SetOTPService(s *otp.Service) {
	otpService = s
}

// SetGateway sets the payment gateway; nil disables payment initiation.
func SetGateway(g gateway.Gateway) {
	payGateway = g
}
