package domain

// ProviderID identifies an upstream market-data source.
type ProviderID string

const (
	ProviderTwelveData ProviderID = "twelvedata"
	ProviderFinnhub    ProviderID = "finnhub"
	ProviderYahoo      ProviderID = "yahoo"

	// ProviderCache is the synthetic source reported when a quote was
	// served from the shared last-resort cache rather than a live
	// upstream. It is tracked in stats but never circuit-broken.
	ProviderCache ProviderID = "cache"
)
