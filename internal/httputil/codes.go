package httputil

// Machine-readable error codes returned alongside error messages.
const (
	CodeMissingToken         = "missing_token"
	CodeInvalidToken         = "invalid_token"
	CodeAuthenticationFailed = "authentication_failed"

	CodeInvalidRequestBody = "invalid_request_body"
	CodeValidationFailed   = "validation_failed"
	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailAlreadyExists = "email_already_exists"
	CodeInvalidEmailFormat = "invalid_email_format"
	CodePasswordPolicy     = "password_policy"
	CodeForbidden          = "forbidden"
	CodeTooManyRequests    = "too_many_requests"
	CodeNotFound           = "not_found"
	CodeMethodNotAllowed   = "method_not_allowed"
	CodeInvalidQueryParam  = "invalid_query_param"
	CodeInternalError      = "internal_error"
)
