package handlers

import (
	"net/http"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/middleware"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

// ClientHandler is admin CRUD over OIDC client registrations.
type ClientHandler struct {
	clients *services.ClientService
}

func NewClientHandler(clients *services.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

// Register is POST /connect/registerclient. The plaintext secret is only
// ever returned here and by RegenerateSecret.
func (h *ClientHandler) Register(c *gin.Context) {
	var req services.CreateClientRequest
	if !bindJSON(c, &req) {
		return
	}
	req.CreatedBy = middleware.CurrentUser(c).ID

	resp, err := h.clients.Register(c, req)
	if err != nil {
		respondError(c, err)
		return
	}
	view := newClientView(resp.OAuthApplication)
	view.ClientSecret = resp.ClientSecretPlain
	c.JSON(http.StatusCreated, envelope{Success: true, Message: "Client registered", Data: view})
}

// Update is PUT /connect/update-client/:clientId.
func (h *ClientHandler) Update(c *gin.Context) {
	var req services.UpdateClientRequest
	if !bindJSON(c, &req) {
		return
	}
	client, err := h.clients.Update(c, c.Param("clientId"), middleware.CurrentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Client updated", newClientView(client))
}

// Delete is DELETE /connect/delete-client/:clientId.
func (h *ClientHandler) Delete(c *gin.Context) {
	if err := h.clients.Delete(c, c.Param("clientId"), middleware.CurrentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Client deleted", nil)
}

// List is GET /connect/clients.
func (h *ClientHandler) List(c *gin.Context) {
	clients, err := h.clients.List(c)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]clientView, 0, len(clients))
	for i := range clients {
		views = append(views, newClientView(&clients[i]))
	}
	respondOK(c, "", views)
}

// Get is GET /connect/clients/:clientId.
func (h *ClientHandler) Get(c *gin.Context) {
	client, err := h.clients.Get(c, c.Param("clientId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", newClientView(client))
}

// RegenerateSecret is POST /connect/clients/:clientId/secret.
func (h *ClientHandler) RegenerateSecret(c *gin.Context) {
	clientID := c.Param("clientId")
	secret, err := h.clients.RegenerateSecret(c, clientID, middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Client secret regenerated", gin.H{
		"client_id":     clientID,
		"client_secret": secret,
	})
}
