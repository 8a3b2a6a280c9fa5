package dto

import "encoding/json"

// Error codes carried in GraphQLError.Extensions.Code.
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeForbidden          = "FORBIDDEN"
	CodeBadRequest         = "BAD_USER_INPUT"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
)

// VarCompanyID is the variable every tenant-scoped operation carries.
const VarCompanyID = "companyId"

type GraphQLRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

type GraphQLError struct {
	Message    string            `json:"message"`
	Extensions GraphQLExtensions `json:"extensions"`
}

type GraphQLExtensions struct {
	Code string `json:"code,omitempty"`
}
