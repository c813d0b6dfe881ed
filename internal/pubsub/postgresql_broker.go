// Copyright (C) 2025 the secman authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pubsub

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PostgreSQLMessage struct {
	ID        string                 `json:"id"`
	Channel   Channel                `json:"channel"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

func (m PostgreSQLMessage) GetChannel() Channel {
	return m.Channel
}

func (m PostgreSQLMessage) GetPayload() map[string]interface{} {
	return m.Payload
}

// PostgreSQLBroker implements the Broker interface using PostgreSQL
// LISTEN/NOTIFY. Notifications fan out across every service instance, so a
// progress dashboard connected to one instance sees batches running on
// another.
type PostgreSQLBroker struct {
	db           *sql.DB
	listener     *pq.Listener
	subscribers  map[Channel][]chan map[string]interface{}
	subscribeMux sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	isListening  bool
	listeningMux sync.RWMutex
}

func BrokerFactory() (Broker, error) {
	return NewPostgreSQLBroker(
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_HOST"),
		os.Getenv("POSTGRES_PORT"),
		os.Getenv("POSTGRES_DB"),
	)
}

func NewPostgreSQLBroker(user, password, host, port, dbname string) (*PostgreSQLBroker, error) {
	connectionString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbname)

	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	listener := pq.NewListener(connectionString, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			slog.Error("PostgreSQL listener error", "error", err)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())

	return &PostgreSQLBroker{
		db:          db,
		listener:    listener,
		subscribers: make(map[Channel][]chan map[string]interface{}),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

func (b *PostgreSQLBroker) Publish(ctx context.Context, message Message) error {
	pgMessage := PostgreSQLMessage{
		ID:        uuid.New().String(),
		Channel:   message.GetChannel(),
		Payload:   message.GetPayload(),
		Timestamp: time.Now(),
	}

	messageJSON, err := json.Marshal(pgMessage)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	query := fmt.Sprintf("NOTIFY %s, '%s'", pq.QuoteIdentifier(string(pgMessage.Channel)), string(messageJSON))
	_, err = b.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	slog.Debug("message published", "channel", pgMessage.Channel, "messageID", pgMessage.ID)
	return nil
}

func (b *PostgreSQLBroker) Subscribe(channel Channel) (<-chan map[string]interface{}, error) {
	b.subscribeMux.Lock()
	defer b.subscribeMux.Unlock()

	ch := make(chan map[string]any, 100)

	if _, exists := b.subscribers[channel]; !exists {
		b.subscribers[channel] = []chan map[string]interface{}{}

		err := b.listener.Listen(string(channel))
		if err != nil {
			close(ch)
			return nil, fmt.Errorf("failed to listen on channel %s: %w", channel, err)
		}
		slog.Info("started listening on channel", "channel", channel)
	}

	b.subscribers[channel] = append(b.subscribers[channel], ch)

	b.listeningMux.Lock()
	if !b.isListening {
		b.isListening = true
		b.wg.Add(1)
		go b.processMessages()
	}
	b.listeningMux.Unlock()

	return ch, nil
}

// Unsubscribe removes a subscription created by Subscribe and closes its
// channel. Subscriptions live per HTTP request on the progress feed, so a
// disconnecting client must release its slot. When the last subscriber of
// a channel leaves, the broker stops listening on it.
func (b *PostgreSQLBroker) Unsubscribe(channel Channel, subscription <-chan map[string]interface{}) {
	b.subscribeMux.Lock()
	defer b.subscribeMux.Unlock()

	subscribers := b.subscribers[channel]
	for i, ch := range subscribers {
		if ch == subscription {
			b.subscribers[channel] = append(subscribers[:i], subscribers[i+1:]...)
			close(ch)
			break
		}
	}

	if len(b.subscribers[channel]) == 0 {
		delete(b.subscribers, channel)
		if err := b.listener.Unlisten(string(channel)); err != nil {
			slog.Warn("failed to stop listening on channel", "channel", channel, "error", err)
		}
		slog.Info("stopped listening on channel", "channel", channel)
	}
}

func (b *PostgreSQLBroker) processMessages() {
	defer b.wg.Done()
	defer func() {
		b.listeningMux.Lock()
		b.isListening = false
		b.listeningMux.Unlock()
	}()

	for {
		select {
		case <-b.ctx.Done():
			slog.Info("message processing stopped")
			return
		case notification := <-b.listener.Notify:
			if notification != nil {
				b.handleNotification(notification)
			}
		case <-time.After(time.Second):
			// Ping to keep connection alive
			if err := b.listener.Ping(); err != nil {
				slog.Error("failed to ping listener", "error", err)
			}
		}
	}
}

func (b *PostgreSQLBroker) handleNotification(notification *pq.Notification) {
	var message PostgreSQLMessage
	if err := json.Unmarshal([]byte(notification.Extra), &message); err != nil {
		slog.Error("failed to unmarshal message", "error", err, "payload", notification.Extra)
		return
	}

	channel := Channel(notification.Channel)

	b.subscribeMux.RLock()
	subscribers, exists := b.subscribers[channel]
	b.subscribeMux.RUnlock()

	if !exists {
		return
	}

	for _, subscriber := range subscribers {
		select {
		case subscriber <- message.Payload:
		default:
			// Channel is full, skip this subscriber
			slog.Warn("subscriber channel full, dropping message", "channel", channel, "messageID", message.ID)
		}
	}
}

func (b *PostgreSQLBroker) Close() error {
	b.cancel()
	b.wg.Wait()

	b.subscribeMux.Lock()
	for channel, subscribers := range b.subscribers {
		for _, ch := range subscribers {
			close(ch)
		}
		delete(b.subscribers, channel)
	}
	b.subscribeMux.Unlock()

	if err := b.listener.Close(); err != nil {
		return fmt.Errorf("failed to close listener: %w", err)
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func (b *PostgreSQLBroker) IsHealthy() bool {
	if b.db == nil {
		return false
	}
	if err := b.db.Ping(); err != nil {
		return false
	}
	return b.listener.Ping() == nil
}
