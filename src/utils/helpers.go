package utils

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"
)

// Charset excludes 0/O and 1/I so references survive being read aloud.
const referenceCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func randomCode(length int) string {
	max := big.NewInt(int64(len(referenceCharset)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			b[i] = referenceCharset[0]
			continue
		}
		b[i] = referenceCharset[n.Int64()]
	}
	return string(b)
}

// GenerateBookingReference builds a human-readable reference like
// VB-20260901-X7K9QZ. Uniqueness is the caller's problem; collisions are
// retried at booking creation.
func GenerateBookingReference(now time.Time) string {
	return fmt.Sprintf("VB-%s-%s", now.Format("20060102"), randomCode(6))
}

// RoundMoney keeps every persisted amount at two decimal places so repeated
// percentage math cannot drift totals.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
