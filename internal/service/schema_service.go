package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/schemawatch/schemawatch/internal"
	"github.com/schemawatch/schemawatch/internal/openapi"
	"github.com/schemawatch/schemawatch/internal/store"
)

type SchemaProvider interface {
	GetSchema(context.Context, string, *openapi.SSHCredential) (map[string]any, error)
}

// SchemaService fetches schema documents and resolves their internal
// references, keeping a short-lived cache keyed by source so back-to-back
// runs against the same source skip the fetch.
type SchemaService struct {
	cache *store.SchemaCache
}

func NewSchemaService(cache *store.SchemaCache) *SchemaService {
	return &SchemaService{cache: cache}
}

func (s *SchemaService) GetSchema(
	ctx context.Context,
	source string,
	cred *openapi.SSHCredential,
) (map[string]any, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(source); err == nil {
			doc, err := openapi.Parse(raw, ".json")
			if err == nil {
				return openapi.ReplaceRefs(doc)
			}
		}
	}

	timeout := time.Duration(internal.Config.ProbeTimeoutSeconds) * time.Second
	doc, err := openapi.Load(ctx, source, cred, timeout)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		// cache the parsed document re-encoded as json
		if raw, err := json.Marshal(doc); err == nil {
			expires := time.Now().UTC().Add(
				time.Duration(internal.Config.SchemaCacheMinutes) * time.Minute,
			)
			s.cache.Add(source, raw, expires)
		}
	}

	return openapi.ReplaceRefs(doc)
}
