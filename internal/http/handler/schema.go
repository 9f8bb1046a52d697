package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// MaxBodyBytes caps every request body.
const MaxBodyBytes = 1 << 20

// bodySchema pairs a compiled JSON Schema with the message returned when a
// request body does not satisfy it.
type bodySchema struct {
	schema  *jsonschema.Schema
	message string
}

func mustSchema(name, src, message string) bodySchema {
	url := "mem://schemas/" + name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(src)); err != nil {
		panic("handler: add schema " + name + ": " + err.Error())
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		panic("handler: compile schema " + name + ": " + err.Error())
	}
	return bodySchema{schema: schema, message: message}
}

var (
	createTodoSchema = mustSchema("create-todo", `{
		"type": "object",
		"properties": {"text": {"type": "string"}},
		"required": ["text"],
		"additionalProperties": false
	}`, "Text is required")

	setCompletedSchema = mustSchema("set-completed", `{
		"type": "object",
		"properties": {"completed": {"type": "boolean"}},
		"required": ["completed"],
		"additionalProperties": false
	}`, "completed must be a boolean")

	createProfileSchema = mustSchema("create-profile", `{
		"type": "object",
		"properties": {
			"userId": {"type": "string"},
			"username": {"type": "string"}
		},
		"required": ["userId", "username"],
		"additionalProperties": false
	}`, "userId and username are required")

	updateUsernameSchema = mustSchema("update-username", `{
		"type": "object",
		"properties": {"username": {"type": "string"}},
		"required": ["username"],
		"additionalProperties": false
	}`, "username is required")

	changePasswordSchema = mustSchema("change-password", `{
		"type": "object",
		"properties": {"newPassword": {"type": "string"}},
		"required": ["newPassword"],
		"additionalProperties": false
	}`, "Password must be at least 6 characters")
)

// decodeBody reads the request body, checks it against s and unmarshals it
// into dst. On failure it writes the error response and returns false. An
// empty body is treated as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, s bodySchema, dst any) bool {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "Request body too large")
			return false
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return false
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return false
	}
	if err := s.schema.Validate(doc); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", s.message)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return false
	}
	return true
}
