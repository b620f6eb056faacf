// Package utils provides utility functions used throughout the gateway.
package utils

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/samber/lo"
)

// TruncateString truncates a string to the specified max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// FormatDuration formats seconds the way music clients display track length: M:SS, or H:MM:SS
// for anything an hour or longer.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	remainingSeconds := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, remainingSeconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, remainingSeconds)
}

// GetRequestIP gets the client IP address from the request.
func GetRequestIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
	}

	if strings.Contains(ip, ",") {
		ip = strings.TrimSpace(strings.Split(ip, ",")[0])
	}

	if host, _, err := net.SplitHostPort(ip); err == nil {
		return host
	}
	return ip
}

// SampleN returns items unchanged when there are at most n of them, otherwise a random
// sample of size n.
func SampleN[T any](items []T, n int) []T {
	if n < 0 || len(items) <= n {
		return items
	}
	return lo.Samples(items, n)
}
