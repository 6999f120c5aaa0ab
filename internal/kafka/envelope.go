package kafka

import (
	"encoding/json"

	"github.com/rzzdr/portfolio-pilot/pkg/utils/errors"
)

// Request kinds accepted on the requests topic
const (
	KindSimulate    = "simulate"
	KindRisk        = "risk_assessment"
	KindSuggestions = "portfolio_suggestions"
)

// Request is the envelope consumed from the requests topic
type Request struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Response is the envelope published to the results topic
type Response struct {
	ID     string      `json:"id"`
	Kind   string      `json:"kind"`
	Result interface{} `json:"result,omitempty"`
	Error  *ErrorBody  `json:"error,omitempty"`
}

// DecodeRequest parses a request envelope
func DecodeRequest(value []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(value, &req); err != nil {
		return Request{}, errors.InvalidArgumentf("malformed request envelope: %v", err)
	}
	if req.Kind == "" {
		return Request{}, errors.InvalidArgument("request envelope has no kind")
	}
	return req, nil
}

// NewErrorResponse builds a failed response carrying err's type
func NewErrorResponse(id, kind string, err error) Response {
	return Response{
		ID:   id,
		Kind: kind,
		Error: &ErrorBody{
			Type:    errors.TypeOf(err).String(),
			Message: err.Error(),
		},
	}
}
