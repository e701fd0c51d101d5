package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Event — конверт сообщения, отправляемого клиенту
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Hub управляет активными WebSocket-соединениями.
// У одного пользователя может быть несколько соединений (разные устройства).
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
}

// NewHub создает новый hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run обрабатывает регистрацию и отключение клиентов до закрытия done
func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			h.closeAll()
			return
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// NotifyUser отправляет событие всем соединениям пользователя.
// Реализует service.Notifier.
func (h *Hub) NotifyUser(userID uint, eventType string, payload interface{}) {
	message, err := json.Marshal(Event{Type: eventType, Data: payload})
	if err != nil {
		log.Printf("[Hub] Ошибка сериализации события %s: %v", eventType, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- message:
		default:
			// Буфер клиента переполнен, соединение скорее всего мертво
			log.Printf("[Hub] Буфер клиента пользователя ID=%d переполнен, сообщение отброшено", userID)
		}
	}
}

// ConnectionCount возвращает число активных соединений (для диагностики)
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
	log.Printf("[Hub] Клиент пользователя ID=%d подключен (всего соединений: %d)", client.userID, len(h.clients[client.userID]))
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}

	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
	log.Printf("[Hub] Клиент пользователя ID=%d отключен", client.userID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, conns := range h.clients {
		for client := range conns {
			close(client.send)
		}
		delete(h.clients, userID)
	}
	log.Printf("[Hub] Все соединения закрыты")
}
