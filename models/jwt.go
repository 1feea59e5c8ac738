package models

// ConvertClaims is the signed token body accepted by POST /convert.
type ConvertClaims struct {
	Issuer    string     `json:"iss"` // optional
	Subject   string     `json:"sub"`
	IssuedAt  int64      `json:"iat"`
	ExpiresAt int64      `json:"exp"`
	Job       ConvertJob `json:"job"`
}

// ConvertJob is the job part of the token. Zero values fall back to the
// persisted settings of the server.
type ConvertJob struct {
	Inputs       []string      `json:"inputs"`
	FPS          int           `json:"fps,omitempty"`
	Format       string        `json:"format,omitempty"`
	Combine      bool          `json:"combine,omitempty"`
	Resolution   string        `json:"resolution,omitempty"`
	Quality      int           `json:"quality,omitempty"`
	OutputDir    string        `json:"outputDir,omitempty"`
	Destinations []Destination `json:"destinations,omitempty"`

	CallbackURL     string            `json:"callbackUrl,omitempty"`
	CallbackHeaders map[string]string `json:"callbackHeaders,omitempty"`
}
