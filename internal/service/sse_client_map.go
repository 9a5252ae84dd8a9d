package service

import (
	"sync"
)

func NewSSEClientMap[T any]() *SSEClientMap[T] {
	return &SSEClientMap[T]{
		clients: make(map[string]chan T),
	}
}

type SSEClientMap[T any] struct {
	m       sync.Mutex
	clients map[string]chan T
}

func (cm *SSEClientMap[T]) AddClient(uid string) {
	cm.m.Lock()
	defer cm.m.Unlock()
	cm.clients[uid] = make(chan T)
}

func (cm *SSEClientMap[T]) RemoveClient(uid string) {
	cm.m.Lock()
	defer cm.m.Unlock()
	close(cm.clients[uid])
	delete(cm.clients, uid)
	if len(cm.clients) == 0 {
		cm.clients = make(map[string]chan T)
	}
}

// SendToClients delivers the message to every registered client. The channel
// set is snapshotted so the blocking sends happen without the lock; consumers
// calling GetClient between receives would otherwise deadlock the map.
func (cm *SSEClientMap[T]) SendToClients(message T) {
	cm.m.Lock()
	channels := make([]chan T, 0, len(cm.clients))
	for i := range cm.clients {
		channels = append(channels, cm.clients[i])
	}
	cm.m.Unlock()
	for _, ch := range channels {
		ch <- message
	}
}

func (cm *SSEClientMap[T]) GetClient(uid string) chan T {
	cm.m.Lock()
	defer cm.m.Unlock()
	return cm.clients[uid]
}
