// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
)

// NotificationType represents the type of a notification message.
type NotificationType int

// NotificationCallback is used for a caller to provide a callback for
// notifications about various mempool events.
type NotificationCallback func(*Notification)

// Constants for the type of a notification message.
const (
	// NTTxAccepted indicates a transaction was committed to the pool.
	NTTxAccepted NotificationType = iota

	// NTTxRemoved indicates a transaction left the pool.
	NTTxRemoved
)

// notificationTypeStrings is a map of notification types back to their
// constant names for pretty printing.
var notificationTypeStrings = map[NotificationType]string{
	NTTxAccepted: "NTTxAccepted",
	NTTxRemoved:  "NTTxRemoved",
}

// String returns the NotificationType in human-readable form.
func (n NotificationType) String() string {
	if s, ok := notificationTypeStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("Unknown Notification Type (%d)", int(n))
}

// RemovalReason identifies why a transaction left the pool.
type RemovalReason int

// These constants enumerate the removal reasons.
const (
	// RemovalExpiry is used for entries older than the expiry age.
	RemovalExpiry RemovalReason = iota

	// RemovalSizeLimit is used for entries trimmed to fit the pool size.
	RemovalSizeLimit

	// RemovalReorg is used for entries invalidated by a reorg.
	RemovalReorg

	// RemovalBlock is used for entries confirmed by a block.
	RemovalBlock

	// RemovalConflict is used for entries that conflict with a block.
	RemovalConflict

	// RemovalReplaced is used for entries evicted by a replacement.
	RemovalReplaced

	// RemovalDoubleSpend is used for tolerated asset allocation double
	// spends drained from the outbox.
	RemovalDoubleSpend
)

var removalReasonStrings = map[RemovalReason]string{
	RemovalExpiry:      "expiry",
	RemovalSizeLimit:   "sizelimit",
	RemovalReorg:       "reorg",
	RemovalBlock:       "block",
	RemovalConflict:    "conflict",
	RemovalReplaced:    "replaced",
	RemovalDoubleSpend: "doublespend",
}

// String returns the removal reason in human-readable form.
func (r RemovalReason) String() string {
	if s, ok := removalReasonStrings[r]; ok {
		return s
	}
	return fmt.Sprintf("unknown (%d)", int(r))
}

// NTTxAcceptedData is the data of an NTTxAccepted notification.
type NTTxAcceptedData struct {
	Tx       *btcutil.Tx
	UtxoView *blockchain.UtxoViewpoint
	Desc     *TxDesc
}

// NTTxRemovedData is the data of an NTTxRemoved notification.
type NTTxRemovedData struct {
	Tx     *btcutil.Tx
	Reason RemovalReason
}

// Notification defines notification that is sent to the caller via the
// callback function provided to Subscribe and consists of a notification
// type as well as associated data that depends on the type as follows:
//   - NTTxAccepted: *NTTxAcceptedData
//   - NTTxRemoved:  *NTTxRemovedData
type Notification struct {
	Type NotificationType
	Data interface{}
}

// Subscribe registers a callback for pool notifications.  Callbacks are
// invoked synchronously by the goroutine that changed the pool and must not
// block.
func (mp *TxPool) Subscribe(callback NotificationCallback) {
	mp.notificationsLock.Lock()
	mp.notifications = append(mp.notifications, callback)
	mp.notificationsLock.Unlock()
}

// sendNotification delivers a notification to every subscriber.
func (mp *TxPool) sendNotification(typ NotificationType, data interface{}) {
	mp.notificationsLock.RLock()
	callbacks := make([]NotificationCallback, len(mp.notifications))
	copy(callbacks, mp.notifications)
	mp.notificationsLock.RUnlock()

	n := Notification{Type: typ, Data: data}
	for _, callback := range callbacks {
		callback(&n)
	}
}
