package graph

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

const maxBodyBytes = 1 << 20

// Request is the standard GraphQL-over-HTTP POST body.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Handler executes GraphQL documents posted as JSON.
type Handler struct {
	schema graphql.Schema
}

// NewHandler returns a Handler for schema.
func NewHandler(schema graphql.Schema) *Handler {
	return &Handler{schema: schema}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResult("method not allowed"))
		return
	}
	var req Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResult("invalid request body"))
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, errorResult("query required"))
		return
	}
	writeJSON(w, http.StatusOK, h.Do(r.Context(), req))
}

// Do executes req against the schema.
func (h *Handler) Do(ctx context.Context, req Request) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

func errorResult(msg string) map[string]any {
	return map[string]any{"errors": []map[string]string{{"message": msg}}}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// IsMutation reports whether req selects a mutation operation. Documents
// that do not parse, or name no matching operation, are not mutations; the
// executor rejects them without touching any data.
func IsMutation(req Request) bool {
	doc, err := parser.Parse(parser.ParseParams{Source: req.Query})
	if err != nil {
		return false
	}
	var ops []*ast.OperationDefinition
	for _, def := range doc.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok {
			ops = append(ops, op)
		}
	}
	for _, op := range ops {
		switch {
		case req.OperationName == "" && len(ops) == 1:
		case op.Name != nil && op.Name.Value == req.OperationName:
		default:
			continue
		}
		return op.Operation == ast.OperationTypeMutation
	}
	return false
}
