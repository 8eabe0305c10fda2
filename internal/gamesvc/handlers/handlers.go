package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/jwtauth"

	config "github.com/zemenbingo/bingo-services/configs"
)

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
}

func NewHandler() *Handler {
	return &Handler{}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (rs *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

func (h *Handler) InstanceHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "ok",
		Code:    200,
		Data:    config.GetInstanceId(),
	}
	h.CreateResponse(w, rsp)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "game service is running at port " + os.Getenv("GAME_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	json.NewEncoder(w).Encode(rsp)
}
