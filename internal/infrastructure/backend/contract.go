package backend

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed openapi.yaml
var contractDocument []byte

// ContractValidator checks successful JSON responses against the embedded
// backend contract.
type ContractValidator struct {
	router routers.Router
}

func NewContractValidator() (*ContractValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(contractDocument)
	if err != nil {
		return nil, fmt.Errorf("load backend contract: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate backend contract: %w", err)
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build contract router: %w", err)
	}
	return &ContractValidator{router: router}, nil
}

// ValidateResponse matches method and path against the contract and
// validates the response body for that route.
func (v *ContractValidator) ValidateResponse(
	ctx context.Context,
	method, path string,
	status int,
	header http.Header,
	body []byte,
) error {
	req, err := http.NewRequestWithContext(ctx, method, path, nil)
	if err != nil {
		return fmt.Errorf("build contract request: %w", err)
	}
	route, pathParams, err := v.router.FindRoute(req)
	if err != nil {
		return fmt.Errorf("find contract route %s %s: %w", method, path, err)
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: status,
		Header: header,
	}
	input.SetBodyBytes(body)
	if err := openapi3filter.ValidateResponse(ctx, input); err != nil {
		return fmt.Errorf("response violates contract: %w", err)
	}
	return nil
}
