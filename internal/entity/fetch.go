package entity

// FetchStatus classifies the terminal outcome of a single page fetch,
// after the retry budget has been spent.
type FetchStatus string

const (
	FetchSuccess      FetchStatus = "success"
	FetchHTTPError    FetchStatus = "http_error"
	FetchRateLimited  FetchStatus = "rate_limited"
	FetchNetworkError FetchStatus = "network_error"
	FetchTimeout      FetchStatus = "timeout"
)

// FetchOutcome is the result of fetching one URL. Body is only set on
// success. It is consumed once by the extractor and never mutated.
type FetchOutcome struct {
	Status FetchStatus
	Code   int // HTTP status code when the server answered
	Body   []byte
	URL    string
}

// OK reports whether the fetch produced a usable page body.
func (o FetchOutcome) OK() bool {
	return o.Status == FetchSuccess
}
