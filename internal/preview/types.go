package preview

// Result holds the link metadata returned by the preview API.
type Result struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	URL         string `json:"url"`
}

// apiRequest represents the linkpreview.net request body.
type apiRequest struct {
	Key string `json:"key"`
	Q   string `json:"q"`
}

// apiResponse represents the linkpreview.net response body.
// Failed lookups carry a numeric error code and a description instead
// of metadata.
type apiResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	URL         string `json:"url"`
	Error       int    `json:"error"`
}
