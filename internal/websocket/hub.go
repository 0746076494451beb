package websocket

import "github.com/rs/zerolog/log"

// Hub maintains the set of active clients and routes task lifecycle
// messages to the connections of the owning user.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Outbound messages addressed to a single user's connections.
	deliveries chan delivery

	// A map of user IDs to the set of their open connections.
	subscriptions map[string]map[*Client]bool
}

type delivery struct {
	userID  string
	message []byte
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		deliveries:    make(chan delivery, 64),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			h.addSubscription(client)
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.removeSubscription(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case d := <-h.deliveries:
			for client := range h.subscriptions[d.userID] {
				select {
				case client.Send <- d.message:
				default:
					close(client.Send)
					delete(h.clients, client)
					h.removeSubscription(client)
				}
			}
		}
	}
}

// SendToUser queues a message for every open connection of a user. Safe to
// call from any goroutine.
func (h *Hub) SendToUser(userID string, message []byte) {
	h.deliveries <- delivery{userID: userID, message: message}
}

func (h *Hub) addSubscription(client *Client) {
	if h.subscriptions[client.UserID] == nil {
		h.subscriptions[client.UserID] = make(map[*Client]bool)
	}
	h.subscriptions[client.UserID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	subs := h.subscriptions[client.UserID]
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.subscriptions, client.UserID)
	}
}
