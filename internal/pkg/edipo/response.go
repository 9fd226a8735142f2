package edipo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Response is one of Detail, AuthError, BusinessError, Result or Unrecognized.
type Response interface {
	isResponse()
}

// Detail is an error payload carrying a "detail" key.
type Detail struct {
	Detail string
}

// AuthError is a "message" payload that is empty or "Unauthenticated.".
type AuthError struct{}

// BusinessError is any other "message" payload, optionally with "errors".
type BusinessError struct {
	Message   string
	Errors    string
	HasErrors bool
}

// Unrecognized is a JSON object with none of the known discriminating keys.
type Unrecognized struct {
	Keys []string
}

// Result is a validation answer. Every recognized key must be present.
type Result struct {
	IsValid                   bool
	IsRestored                bool
	Algorithm                 string
	Class                     string
	Number                    string
	UUID                      string
	IssueDate                 string
	ExpeditionDate            string
	ZipKey                    *string
	StatusCode                string
	StatusDescription         string
	StatusMessage             string
	ErrorsMessages            string
	XMLName                   string
	ZipName                   string
	Signature                 string
	QRCode                    string
	QRData                    string
	QRLink                    string
	PDFDownloadLink           string
	XMLBase64                 string
	ApplicationResponseBase64 string
	AttachedDocumentBase64    string
	PDFBase64                 string
	ZipBase64                 string
	TypeEnvironmentID         *int
}

func (Detail) isResponse()        {}
func (AuthError) isResponse()     {}
func (BusinessError) isResponse() {}
func (Unrecognized) isResponse()  {}
func (Result) isResponse()        {}

// Error renders the business failure the way it is shown to users.
func (b BusinessError) Error() string {
	if b.HasErrors {
		return b.Message + "/ errors: " + b.Errors
	}
	return b.Message
}

const unauthenticatedMessage = "Unauthenticated."

// ResultKeys lists every key a Result must carry.
var ResultKeys = []string{
	"is_valid", "is_restored", "algorithm", "class", "number", "uuid", "issue_date",
	"expedition_date", "zip_key", "status_code", "status_description", "status_message",
	"errors_messages", "xml_name", "zip_name", "signature", "qr_code", "qr_data", "qr_link",
	"pdf_download_link", "xml_base64_bytes", "application_response_base64_bytes",
	"attached_document_base64_bytes", "pdf_base64_bytes", "zip_base64_bytes",
	"type_environment_id",
}

var (
	ErrNotAnObject = errors.New("edipo: response is not a JSON object")
	ErrNullMessage = errors.New("edipo: message is null")
)

// IncompleteResultError is returned when an is_valid payload lacks result keys.
type IncompleteResultError struct {
	Missing []string
}

func (e *IncompleteResultError) Error() string {
	return fmt.Sprintf("edipo: result is missing keys: %s", strings.Join(e.Missing, ", "))
}

// Parse classifies a gateway payload. Precedence: detail, message, is_valid.
func Parse(body []byte) (Response, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		if err == nil {
			err = ErrNotAnObject
		}
		return nil, fmt.Errorf("edipo: decode response: %w", err)
	}

	if raw, ok := fields["detail"]; ok {
		return Detail{Detail: text(raw)}, nil
	}

	if raw, ok := fields["message"]; ok {
		if isNull(raw) {
			return nil, fmt.Errorf("edipo: decode response: %w", ErrNullMessage)
		}
		message := text(raw)
		if message == "" || message == unauthenticatedMessage {
			return AuthError{}, nil
		}
		business := BusinessError{Message: message}
		if rawErrors, ok := fields["errors"]; ok {
			business.Errors = text(rawErrors)
			business.HasErrors = true
		}
		return business, nil
	}

	if _, ok := fields["is_valid"]; ok {
		return parseResult(fields)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	return Unrecognized{Keys: keys}, nil
}

func parseResult(fields map[string]json.RawMessage) (Result, error) {
	var missing []string
	for _, key := range ResultKeys {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Result{}, &IncompleteResultError{Missing: missing}
	}

	var res Result
	var err error
	if res.IsValid, err = boolean(fields["is_valid"]); err != nil {
		return Result{}, fmt.Errorf("edipo: is_valid: %w", err)
	}
	if res.IsRestored, err = boolean(fields["is_restored"]); err != nil {
		return Result{}, fmt.Errorf("edipo: is_restored: %w", err)
	}
	if res.TypeEnvironmentID, err = optionalInt(fields["type_environment_id"]); err != nil {
		return Result{}, fmt.Errorf("edipo: type_environment_id: %w", err)
	}
	res.ZipKey = optionalText(fields["zip_key"])

	res.Algorithm = text(fields["algorithm"])
	res.Class = text(fields["class"])
	res.Number = text(fields["number"])
	res.UUID = text(fields["uuid"])
	res.IssueDate = text(fields["issue_date"])
	res.ExpeditionDate = text(fields["expedition_date"])
	res.StatusCode = text(fields["status_code"])
	res.StatusDescription = text(fields["status_description"])
	res.StatusMessage = text(fields["status_message"])
	res.ErrorsMessages = text(fields["errors_messages"])
	res.XMLName = text(fields["xml_name"])
	res.ZipName = text(fields["zip_name"])
	res.Signature = text(fields["signature"])
	res.QRCode = text(fields["qr_code"])
	res.QRData = text(fields["qr_data"])
	res.QRLink = text(fields["qr_link"])
	res.PDFDownloadLink = text(fields["pdf_download_link"])
	res.XMLBase64 = text(fields["xml_base64_bytes"])
	res.ApplicationResponseBase64 = text(fields["application_response_base64_bytes"])
	res.AttachedDocumentBase64 = text(fields["attached_document_base64_bytes"])
	res.PDFBase64 = text(fields["pdf_base64_bytes"])
	res.ZipBase64 = text(fields["zip_base64_bytes"])

	return res, nil
}

// text returns a JSON string's value, "" for null, and the compact JSON text otherwise.
func text(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func optionalText(raw json.RawMessage) *string {
	if isNull(raw) {
		return nil
	}
	s := text(raw)
	return &s
}

func boolean(raw json.RawMessage) (bool, error) {
	if isNull(raw) {
		return false, nil
	}
	var b bool
	err := json.Unmarshal(raw, &b)
	return b, err
}

func optionalInt(raw json.RawMessage) (*int, error) {
	if isNull(raw) {
		return nil, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
