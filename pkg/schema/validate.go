// Package schema validates the evaluation core's configuration
// documents (scoring schemes and single communicator entries; the
// CommunicatorGroup kind checks one communicator object) against embedded
// JSON Schema documents, using embedded
// santhosh-tekuri/jsonschema/v5 documents.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/NOAA-OWP/evalcore/pkg/log"
)

// Kind selects which embedded schema document validates a document.
type Kind int

const (
	ScoringScheme Kind = iota + 1
	CommunicatorGroup
)

//go:embed schemas/*
var schemaFiles embed.FS

// Load resolves an "embedFS://" schema reference against schemaFiles.

func Load(s string) (io.ReadCloser, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	return schemaFiles.Open(path.Join(u.Host, u.Path))
}

func init() {
	jsonschema.Loaders["embedfs"] = Load
}

// Validate decodes JSON from r and checks it against the schema for k.
func Validate(k Kind, r io.Reader) error {
	var s *jsonschema.Schema
	var err error

	switch k {
	case ScoringScheme:
		s, err = jsonschema.Compile("embedFS://schemas/scoring-scheme.schema.json")
	case CommunicatorGroup:
		s, err = jsonschema.Compile("embedFS://schemas/communicator.schema.json")
	default:
		return fmt.Errorf("schema: unknown kind %d", k)
	}
	if err != nil {
		return err
	}

	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		log.Errorf("schema.Validate() - failed to decode: %v", err)
		return err
	}

	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%#v", err)
	}
	return nil
}
