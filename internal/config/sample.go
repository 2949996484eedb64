package config

// SampleConfig returns a fully documented configuration file
func SampleConfig() string {
	return `# TerraWatch configuration
version: "1.0"

api:
  # Address of the change analysis backend
  base_url: ` + DefaultBaseURL + `
  # Upper bound for a single request. Requests are never retried.
  timeout: 5m

auth:
  # Session token issued by the identity provider (JWT).
  # The user id is read from its "sub" claim.
  token: ""
  # Plain user id, used only when no token is set
  user_id: ""
  # Verify HS256 tokens with this secret. Leave empty to trust the token as is.
  jwt_secret: ""

output:
  # text | json | markdown | csv
  default_format: text
  # auto | always | never
  color_mode: auto
  verbose: false
  timestamp_format: "2006-01-02 15:04"
  # Directory where the interactive UI saves markdown reports
  report_dir: .

ui:
  # default | high-contrast | minimal
  theme: default
  # Range offered by the year pickers
  from_year: 2011
  to_year: 2025

mock:
  # Listen address of "terrawatch mock-server"
  addr: 127.0.0.1:8000
  # Require a bearer token whose subject matches the user id in the path
  require_auth: false
`
}

// MinimalSampleConfig returns a configuration with only the essential settings
func MinimalSampleConfig() string {
	return `version: "1.0"
api:
  base_url: ` + DefaultBaseURL + `
auth:
  user_id: ""
`
}
