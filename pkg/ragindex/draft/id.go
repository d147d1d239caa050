package draft

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// crockfordAlphabet is the sortable base32 alphabet (digits before
// letters), the same one the teacher's internal/ticket.GenerateID uses for
// its timestamp component.
const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// generateIncrementID returns prefix + the existing maximum numeric suffix
// among ids sharing prefix, incremented by one and zero-padded to width
// (spec §4.11: "increment with prefix/padding over the existing maximum
// numeric suffix").
func generateIncrementID(existing []string, prefix string, padding int) string {
	max := 0

	for _, id := range existing {
		rest, ok := strings.CutPrefix(id, prefix)
		if !ok {
			continue
		}

		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}

		if n > max {
			max = n
		}
	}

	next := max + 1

	digits := strconv.Itoa(next)
	if padding > len(digits) {
		digits = strings.Repeat("0", padding-len(digits)) + digits
	}

	return prefix + digits
}

// generateDatetimeID Crockford-base32-encodes the current Unix-seconds
// timestamp into a 7-character sortable component, directly generalizing
// internal/ticket.generateTimestampComponent (4 big-endian bytes, no
// padding) into the `datetime` id-generator strategy.
func generateDatetimeID(prefix string, now time.Time) string {
	sec := now.Unix()

	var bits uint64
	for shift := 24; shift >= 0; shift -= 8 {
		bits = bits<<8 | uint64(byte(sec>>shift))
	}

	var buf [7]byte
	for i := 6; i >= 0; i-- {
		buf[i] = crockfordAlphabet[bits&0x1f]
		bits >>= 5
	}

	return prefix + string(buf[:])
}

// generateUUIDID derives a stable 12-character Crockford base32 short id
// from the high 60 random bits of a fresh UUIDv7, directly generalizing
// internal/store.NewUUIDv7 + ShortIDFromUUID into the `uuid` id-generator
// strategy.
func generateUUIDID(prefix string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("draft: generate uuidv7: %w", err)
	}

	randA := (uint16(id[6]&0x0f) << 8) | uint16(id[7])
	randB := (uint64(id[8]&0x3f) << 56) |
		(uint64(id[9]) << 48) |
		(uint64(id[10]) << 40) |
		(uint64(id[11]) << 32) |
		(uint64(id[12]) << 24) |
		(uint64(id[13]) << 16) |
		(uint64(id[14]) << 8) |
		uint64(id[15])

	top60 := (uint64(randA) << 48) | (randB >> 14)

	const shortIDLength = 12

	var buf [shortIDLength]byte
	for i := shortIDLength - 1; i >= 0; i-- {
		buf[i] = crockfordAlphabet[top60&0x1f]
		top60 >>= 5
	}

	return prefix + string(buf[:]), nil
}
