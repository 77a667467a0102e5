/*
Package dsl provides a Go DSL for programmatically constructing flow schemas.

Domains that expose a fixed set of fields use it instead of a questions
manifest. The builder keeps insertion order, so fields get their relative
order from the order they were added in unless Order overrides it.

Example usage:

	fields, err := dsl.New().
		Add("bucket_name").
		Name("Bucket name").
		Required().
		Add("region").
		Name("Region").
		Options("us-east-1", "eu-west-1").
		Default("us-east-1").
		Build()
*/
package dsl
