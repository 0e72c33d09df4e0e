package controllers

import (
	"net/http"

	"github.com/stayloop/stays-service/internal/dtos"
	"github.com/stayloop/stays-service/internal/utils"
)

type HealthController struct {
	serviceName string
}

func NewHealthController(serviceName string) *HealthController {
	return &HealthController{serviceName: serviceName}
}

func (c *HealthController) HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, dtos.HealthResponse{
		Status:  "ok",
		Service: c.serviceName,
	})
}
