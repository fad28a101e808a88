// Package openapi turns component schemas of an OpenAPI 3 document into form
// schemas, so a site configuration described by an API contract can be edited
// without a hand-written form file.
package openapi
