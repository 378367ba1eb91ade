package domain

import "time"

// NotInformed replaces a referer or user agent the client did not send.
const NotInformed = "Não informado"

// SettingsID is the key of the singleton settings row.
const SettingsID = "DEFAULT_SETTINGS"

// Link maps a short identifier to its destination
type Link struct {
	ID        string `json:"id"`
	TargetURL string `json:"targetUrl"`
}

// LinkStatisticEvent is one resolution of a link
type LinkStatisticEvent struct {
	LinkID     string    `json:"linkId"`
	Referer    string    `json:"referer"`
	UserAgent  string    `json:"userAgent"`
	OccurredAt time.Time `json:"occurredAt"`
}

// CountedLinkStatistic is the number of events sharing a referer and user agent
type CountedLinkStatistic struct {
	Amount    int64  `json:"amount"`
	Referer   string `json:"referer"`
	UserAgent string `json:"userAgent"`
}

// AuthSettings holds the hex SHA3-256 digest of the accepted API key.
type AuthSettings struct {
	ID                    string
	EncryptedGlobalAPIKey string
}
