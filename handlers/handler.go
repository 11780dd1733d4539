package handlers

import "github.com/anjiri1684/tutor_connect/services"

type Handler struct {
	svc *services.Services
}

func New(svc *services.Services) *Handler {
	return &Handler{svc: svc}
}
