package models

import (
	"net/http"
)

const NotificationListingUpdated = "listing_updated"

type NewSubscription struct {
	ClientID       string `json:"client_id"`
	ResponseWriter http.ResponseWriter
	Request        *http.Request
}

type Notification struct {
	ClientID string      `json:"client_id"`
	Message  interface{} `json:"message"`
}

type ListingUpdated struct {
	Type    string   `json:"type"`
	Listing *Listing `json:"listing"`
}
