package hokus

import (
	"context"

	internalLoader "github.com/caklein/hokus/internal/openapi/loader"
	pkgopenapi "github.com/caklein/hokus/pkg/openapi"
)

// NewOpenAPILoader constructs a loader using the internal implementation while
// keeping the concrete type hidden from consumers.
func NewOpenAPILoader(options ...pkgopenapi.LoaderOption) pkgopenapi.Loader {
	return internalLoader.New(pkgopenapi.NewLoaderOptions(options...))
}

// SchemaFromOpenAPI loads the document src points at and converts the
// component it names into form fields. Use pkgopenapi.ParseSource for
// references such as "site.yaml#Params".
func SchemaFromOpenAPI(ctx context.Context, src pkgopenapi.Source, options ...pkgopenapi.LoaderOption) (Schema, error) {
	return pkgopenapi.LoadSchema(ctx, NewOpenAPILoader(options...), src)
}
