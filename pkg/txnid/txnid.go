package txnid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	defaultPrefix = "PV"
	randomBytes   = 6
)

// New returns a client transaction id: prefix, UTC timestamp, and a
// crypto-random suffix. A fresh id is minted for every checkout attempt; ids
// are never reused across retries.
func New() string {
	return WithPrefix(defaultPrefix)
}

// WithPrefix mints a transaction id using the given prefix.
func WithPrefix(prefix string) string {
	if prefix == "" {
		prefix = defaultPrefix
	}
	buf := make([]byte, randomBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to
		// nanoseconds so an id is still produced.
		return fmt.Sprintf("%s%s%d", prefix, time.Now().UTC().Format("20060102150405"), time.Now().UnixNano()%1_000_000)
	}
	return fmt.Sprintf("%s%s%s", prefix, time.Now().UTC().Format("20060102150405"), hex.EncodeToString(buf))
}

// TxnDate formats the date component some gateways require alongside a
// transaction id for status lookups.
func TxnDate(t time.Time) string {
	return t.Format("02-01-2006")
}
