package domain

import "time"

// SenderCompany is the sender recorded for messages posted through the console.
const SenderCompany = "Firma"

// TimestampLayout is the minute-precision layout of Message.Timestamp.
const TimestampLayout = "2006-01-02 15:04"

// Message is one entry of a listing conversation.
type Message struct {
	ID           int64  `json:"id"`
	AccountID    int64  `json:"account_id"`
	ListingTitle string `json:"listing_title"`
	Sender       string `json:"sender"`
	Text         string `json:"text"`
	Timestamp    string `json:"timestamp"`
}

// FormatTimestamp renders t in TimestampLayout using local time.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}
