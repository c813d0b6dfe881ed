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

import "context"

type Channel string

// ChannelDeletionProgress carries provisional progress events of running
// batch deletions. Consumers must treat events as optimistic until the
// terminal event arrives - a mid-batch failure rolls back everything the
// earlier events reported as done.
const ChannelDeletionProgress Channel = "deletion_progress"

type Message interface {
	GetChannel() Channel
	GetPayload() map[string]interface{}
}

// Broker is a one-way fan-out: publishers never learn whether anyone
// listens, and a closed subscriber never influences the publisher.
type Broker interface {
	Publish(ctx context.Context, message Message) error
	Subscribe(channel Channel) (<-chan map[string]interface{}, error)
	Unsubscribe(channel Channel, subscription <-chan map[string]interface{})
	Close() error
}
