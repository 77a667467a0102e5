// Package expression implements the small reference language used by flow
// manifests for prompts and defaults.
//
// An expression is either a literal string or a key path reference. A key
// path is a list of literal segments and ValueOf indirections:
//
//	expression.Reference(
//	    expression.ValueOf("testing_stage_name"),
//	    expression.Segment("pipeline_execution_role"),
//	)
//
// With state {"testing_stage_name": "dev", "dev.pipeline_execution_role": "arn:..."}
// the reference resolves to "arn:...". On the wire a reference is encoded as
// {"keyPath": [{"valueOf": "testing_stage_name"}, "pipeline_execution_role"]}.
//
// Unresolvable references are not errors: Resolve reports ok=false and the
// caller decides what an absent value means.
package expression
