package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateReference creates a payment reference used when the gateway does
// not hand one back.
func GenerateReference() string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999999))
	return fmt.Sprintf("ref_%d_%09d", timestamp, randomNum.Int64())
}
