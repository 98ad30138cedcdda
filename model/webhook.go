package model

type SignatureAlgorithm string

const SIGNATURE_HMACSHA1 SignatureAlgorithm = "HMACSHA1"
const SIGNATURE_HMACSHA256 SignatureAlgorithm = "HMACSHA256"

const HEADER_SIGNATURE = "X-BLUEPRINT-SIGNATURE"
const HEADER_MESSAGE_ID = "X-BLUEPRINT-MESSAGE-ID"
const HEADER_RETRY_NUMBER = "X-BLUEPRINT-RETRY-NUMBER"

// WebhookMessage is a ready to send webhook delivery. Headers, basic auth
// credentials and the signature secret are encrypted.
type WebhookMessage struct {
	WebhookId                   int                `json:"webhookId"`
	Url                         string             `json:"url" validate:"required,url"`
	IgnoreInvalidSSLCertificate bool               `json:"ignoreInvalidSslCertificate"`
	HttpHeaders                 []string           `json:"httpHeaders"`
	BasicAuthUsername           string             `json:"basicAuthUsername"`
	BasicAuthPassword           string             `json:"basicAuthPassword"`
	SignatureSecretToken        string             `json:"signatureSecretToken"`
	SignatureAlgorithm          SignatureAlgorithm `json:"signatureAlgorithm"`
	PayloadContent              string             `json:"payloadContent" validate:"required"`
}

// WebhookPayload is the JSON body posted for workflow event webhooks.
type WebhookPayload struct {
	EventType    string `json:"EventType"`
	ArtifactId   int    `json:"ArtifactId"`
	ArtifactName string `json:"ArtifactName"`
	ProjectId    int    `json:"ProjectId"`
	ProjectName  string `json:"ProjectName"`
	ArtifactUrl  string `json:"ArtifactUrl"`
	State        string `json:"State,omitempty"`
	RevisionId   int    `json:"RevisionId"`
}
